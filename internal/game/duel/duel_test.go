package duel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NotCool09/myowobot/internal/economy"
)

func TestFightIsFair(t *testing.T) {
	r := economy.NewRand(4)
	const n = 20_000
	wins := 0
	for i := 0; i < n; i++ {
		res := Fight(r, 1, 2, 10)
		assert.NotEqual(t, res.Winner, res.Loser)
		if res.Winner == 1 {
			wins++
		}
	}
	assert.InDelta(t, 0.5, float64(wins)/n, 0.02)
}
