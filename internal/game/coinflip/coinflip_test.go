package coinflip

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/game"
)

// fixedRand always returns v from Int63n.
type fixedRand struct{ v int64 }

func (f fixedRand) Int63n(int64) int64 { return f.v }
func (f fixedRand) Float64() float64   { return 0 }

func TestPlayOutcomes(t *testing.T) {
	ctx := context.Background()

	res, err := New(fixedRand{0}).Play(ctx, 1, 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Delta)
	assert.Equal(t, int64(2000), res.Payout)

	res, err = New(fixedRand{1}).Play(ctx, 1, 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), res.Delta)
	assert.Zero(t, res.Payout)

	res, err = New(fixedRand{1}).Play(ctx, 1, 50, map[string]any{"side": "t"})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.Delta)
	assert.Equal(t, Tails, res.Details["call"])
}

func TestValidateBet(t *testing.T) {
	g := New(economy.NewRand(1))
	assert.ErrorIs(t, g.ValidateBet(0, nil), game.ErrInvalidBet)
	assert.NoError(t, g.ValidateBet(10, map[string]any{"side": "HEADS"}))

	err := g.ValidateBet(10, map[string]any{"side": "edge"})
	assert.True(t, errors.Is(err, game.ErrInvalidParam))
}

func TestRoughlyFair(t *testing.T) {
	g := New(economy.NewRand(3))
	wins := 0
	const n = 20_000
	for i := 0; i < n; i++ {
		res, err := g.Play(context.Background(), 1, 1, nil)
		require.NoError(t, err)
		if res.Delta > 0 {
			wins++
		}
	}
	assert.InDelta(t, 0.5, float64(wins)/n, 0.02)
}
