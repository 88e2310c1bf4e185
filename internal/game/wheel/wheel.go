// Package wheel implements the wheel of fortune.
package wheel

import (
	"context"
	"fmt"
	"math"

	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/game"
)

// Segments are the equally likely gross multipliers on the wheel.
var Segments = []float64{0, 0, 0, 0.5, 0.5, 0.5, 1.5, 1.5, 2, 3}

// WheelGame implements the Game interface.
type WheelGame struct {
	rng economy.Rand
}

// New creates a new WheelGame drawing from rng.
func New(rng economy.Rand) *WheelGame {
	return &WheelGame{rng: rng}
}

func (w *WheelGame) Name() string        { return "Wheel of Fortune" }
func (w *WheelGame) Command() string     { return "wheel" }
func (w *WheelGame) Description() string { return "Spin for x0, x0.5, x1.5, x2 or x3 of your bet" }

func (w *WheelGame) ValidateBet(bet int64, _ map[string]any) error {
	if bet <= 0 {
		return game.ErrInvalidBet
	}
	return nil
}

// Payout returns the gross payout for a segment multiplier, floored.
func Payout(bet int64, multiplier float64) int64 {
	return int64(math.Floor(float64(bet) * multiplier))
}

// Play spins the wheel.
func (w *WheelGame) Play(_ context.Context, _ int64, bet int64, params map[string]any) (*game.GameResult, error) {
	if err := w.ValidateBet(bet, params); err != nil {
		return nil, err
	}
	m := Segments[w.rng.Int63n(int64(len(Segments)))]
	payout := Payout(bet, m)

	desc := fmt.Sprintf("🎡 The wheel stops on x%g.", m)
	if payout > bet {
		desc += fmt.Sprintf(" You won %d!", payout-bet)
	} else if payout < bet {
		desc += fmt.Sprintf(" You lost %d.", bet-payout)
	}
	return game.NewResult(bet, payout, desc, map[string]any{"multiplier": m}), nil
}
