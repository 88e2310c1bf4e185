// Package race implements a four-lane animal race.
package race

import (
	"context"
	"fmt"

	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/game"
)

// Lanes is the number of runners.
const Lanes = 4

// WinMultiplier is the net multiple of the bet paid on a win.
const WinMultiplier = 3

// Runners are shown in lane order.
var Runners = [Lanes]string{"🐎", "🐕", "🐢", "🐇"}

// RaceGame implements the Game interface. The "lane" parameter (1-4) is required.
type RaceGame struct {
	rng economy.Rand
}

// New creates a new RaceGame drawing from rng.
func New(rng economy.Rand) *RaceGame {
	return &RaceGame{rng: rng}
}

func (r *RaceGame) Name() string        { return "Race" }
func (r *RaceGame) Command() string     { return "race" }
func (r *RaceGame) Description() string { return "Pick a lane from 1 to 4. A win pays 3x your bet." }

func (r *RaceGame) ValidateBet(bet int64, params map[string]any) error {
	if bet <= 0 {
		return game.ErrInvalidBet
	}
	lane, ok := game.IntParam(params, "lane")
	if !ok || lane < 1 || lane > Lanes {
		return fmt.Errorf("%w: lane must be between 1 and %d", game.ErrInvalidParam, Lanes)
	}
	return nil
}

// Play runs the race.
func (r *RaceGame) Play(_ context.Context, _ int64, bet int64, params map[string]any) (*game.GameResult, error) {
	if err := r.ValidateBet(bet, params); err != nil {
		return nil, err
	}
	lane, _ := game.IntParam(params, "lane")
	winner := int(r.rng.Int63n(Lanes)) + 1

	details := map[string]any{"lane": lane, "winner": winner}
	if winner == lane {
		return game.NewResult(bet, bet*(WinMultiplier+1),
			fmt.Sprintf("🏁 %s in lane %d wins! You won %d!", Runners[winner-1], winner, bet*WinMultiplier),
			details), nil
	}
	return game.NewResult(bet, 0,
		fmt.Sprintf("🏁 %s in lane %d wins. Your %s in lane %d lost, -%d.", Runners[winner-1], winner, Runners[lane-1], lane, bet),
		details), nil
}
