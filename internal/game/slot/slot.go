// Package slot implements the three-reel slot machine.
package slot

import (
	"context"
	"fmt"
	"strings"

	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/game"
)

// Reel symbols. Every reel lands on each symbol with equal chance.
const (
	SymbolSeven  = "7️⃣"
	SymbolMoney  = "💰"
	SymbolCherry = "🍒"
	SymbolLemon  = "🍋"
	SymbolGrape  = "🍇"
	SymbolBell   = "🔔"
)

// Symbols is the reel strip.
var Symbols = []string{SymbolSeven, SymbolMoney, SymbolCherry, SymbolLemon, SymbolGrape, SymbolBell}

// Gross payout multipliers.
const (
	SevensMultiplier = 10
	MoneyMultiplier  = 5
	TripleMultiplier = 3
)

// SlotGame implements the Game interface for slot machine gambling.
type SlotGame struct {
	rng economy.Rand
}

// New creates a new SlotGame drawing from rng.
func New(rng economy.Rand) *SlotGame {
	return &SlotGame{rng: rng}
}

// Name returns the game's display name.
func (s *SlotGame) Name() string {
	return "Slot Machine"
}

// Command returns the command that triggers this game.
func (s *SlotGame) Command() string {
	return "slots"
}

// Description returns a brief description of the game.
func (s *SlotGame) Description() string {
	return "Three 7s pay x10, three 💰 x5, any other triple x3, a pair returns your bet"
}

// ValidateBet checks if the bet amount is valid.
func (s *SlotGame) ValidateBet(bet int64, _ map[string]any) error {
	if bet <= 0 {
		return game.ErrInvalidBet
	}
	return nil
}

// Play spins the reels.
func (s *SlotGame) Play(_ context.Context, _ int64, bet int64, params map[string]any) (*game.GameResult, error) {
	if err := s.ValidateBet(bet, params); err != nil {
		return nil, err
	}

	var reels [3]string
	for i := range reels {
		reels[i] = Symbols[s.rng.Int63n(int64(len(Symbols)))]
	}
	payout := CalculatePayout(reels, bet)

	display := strings.Join(reels[:], " ")
	var description string
	switch {
	case payout > bet:
		description = fmt.Sprintf("🎰 %s\nJackpot! You won %d.", display, payout-bet)
	case payout == bet:
		description = fmt.Sprintf("🎰 %s\nA pair. Your bet is returned.", display)
	default:
		description = fmt.Sprintf("🎰 %s\nNo match. You lost %d.", display, bet)
	}

	return game.NewResult(bet, payout, description, map[string]any{
		"reels": reels,
		"bet":   bet,
	}), nil
}

// CalculatePayout returns the gross payout for a spin:
//   - three 7s: 10x bet
//   - three 💰: 5x bet
//   - any other triple: 3x bet
//   - exactly two equal: the bet is returned
//   - otherwise nothing
func CalculatePayout(reels [3]string, bet int64) int64 {
	a, b, c := reels[0], reels[1], reels[2]
	if a == b && b == c {
		switch a {
		case SymbolSeven:
			return bet * SevensMultiplier
		case SymbolMoney:
			return bet * MoneyMultiplier
		default:
			return bet * TripleMultiplier
		}
	}
	if a == b || b == c || a == c {
		return bet
	}
	return 0
}
