// Package coinflip implements a double-or-nothing coin toss.
package coinflip

import (
	"context"
	"fmt"
	"strings"

	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/game"
)

// Sides of the coin.
const (
	Heads = "heads"
	Tails = "tails"
)

// CoinflipGame implements the Game interface. The optional "side" parameter
// is the player's call; it defaults to heads.
type CoinflipGame struct {
	rng economy.Rand
}

// New creates a new CoinflipGame drawing from rng.
func New(rng economy.Rand) *CoinflipGame {
	return &CoinflipGame{rng: rng}
}

func (c *CoinflipGame) Name() string        { return "Coinflip" }
func (c *CoinflipGame) Command() string     { return "coinflip" }
func (c *CoinflipGame) Description() string { return "Call heads or tails. Win doubles your bet." }

// ParseSide normalizes a call; "h"/"t" shorthands are accepted.
func ParseSide(s string) (string, bool) {
	switch strings.ToLower(s) {
	case "h", Heads:
		return Heads, true
	case "t", Tails:
		return Tails, true
	}
	return "", false
}

// ValidateBet checks the bet and the optional call.
func (c *CoinflipGame) ValidateBet(bet int64, params map[string]any) error {
	if bet <= 0 {
		return game.ErrInvalidBet
	}
	if side, ok := game.StringParam(params, "side"); ok {
		if _, valid := ParseSide(side); !valid {
			return fmt.Errorf("%w: side must be heads or tails", game.ErrInvalidParam)
		}
	}
	return nil
}

// Play tosses the coin.
func (c *CoinflipGame) Play(_ context.Context, _ int64, bet int64, params map[string]any) (*game.GameResult, error) {
	if err := c.ValidateBet(bet, params); err != nil {
		return nil, err
	}
	call := Heads
	if side, ok := game.StringParam(params, "side"); ok {
		call, _ = ParseSide(side)
	}

	landed := Heads
	if c.rng.Int63n(2) == 1 {
		landed = Tails
	}

	if landed == call {
		return game.NewResult(bet, 2*bet,
			fmt.Sprintf("🪙 The coin landed on %s. You won %d!", landed, bet),
			map[string]any{"call": call, "landed": landed}), nil
	}
	return game.NewResult(bet, 0,
		fmt.Sprintf("🪙 The coin landed on %s. You lost %d.", landed, bet),
		map[string]any{"call": call, "landed": landed}), nil
}
