// Package game defines the minigame interface and registry. Games only
// compute a balance delta; charging and paying out is the caller's job.
package game

import (
	"context"
	"errors"
)

// Errors shared by games.
var (
	ErrInvalidBet   = errors.New("bet amount must be positive")
	ErrInvalidParam = errors.New("invalid game parameter")
)

// GameResult represents the outcome of a game play.
type GameResult struct {
	Payout      int64          // gross amount returned to the player, 0 on a loss
	Delta       int64          // net balance change, Payout minus bet
	Description string         // Human-readable result description
	Details     map[string]any // Additional game-specific details
}

// Game defines the interface that all single-round games implement.
type Game interface {
	// Name returns the game's display name (e.g. "Slot Machine")
	Name() string

	// Command returns the command that triggers this game (e.g. "slots")
	Command() string

	// Description returns a brief description of the game
	Description() string

	// ValidateBet checks the bet amount and parameters before any money moves.
	ValidateBet(bet int64, params map[string]any) error

	// Play runs one round for userID with the given bet.
	Play(ctx context.Context, userID int64, bet int64, params map[string]any) (*GameResult, error)
}

// NewResult builds a result from a gross payout.
func NewResult(bet, payout int64, description string, details map[string]any) *GameResult {
	return &GameResult{
		Payout:      payout,
		Delta:       payout - bet,
		Description: description,
		Details:     details,
	}
}

// IntParam extracts an integer parameter.
func IntParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// StringParam extracts a string parameter.
func StringParam(params map[string]any, key string) (string, bool) {
	s, ok := params[key].(string)
	return s, ok && s != ""
}
