package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCool09/myowobot/internal/clock"
	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/service"
	"github.com/NotCool09/myowobot/internal/store"
)

const ownerID = 999

func newWorker(t *testing.T) (*Worker, *service.Engine, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), time.UTC)
	e := service.NewEngine(service.Options{
		Store:   store.NewMemory(store.Defaults{StartBalance: 100, StartRank: "Newbie", Now: clk.Now}),
		Clock:   clk,
		Rand:    economy.NewRand(3),
		OwnerID: ownerID,
	})
	t.Cleanup(e.Close)

	w, err := New(e)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w, e, clk
}

func fund(t *testing.T, e *service.Engine, id, amount int64) {
	t.Helper()
	ctx := context.Background()
	_, err := e.User(ctx, id)
	require.NoError(t, err)
	_, err = e.AdminAdjust(ctx, ownerID, id, amount)
	require.NoError(t, err)
}

func TestJobsAreScheduled(t *testing.T) {
	w, _, _ := newWorker(t)
	assert.ElementsMatch(t, []string{"sweep-effects", "reap-blackjack"}, w.Jobs())
}

func TestSweepEffects(t *testing.T) {
	ctx := context.Background()
	w, e, clk := newWorker(t)
	fund(t, e, 1, 10_000)

	_, err := e.Buy(ctx, 1, "energy_drink")
	require.NoError(t, err)
	assert.Equal(t, 0, w.SweepEffects(ctx))

	clk.Advance(time.Hour + time.Second)
	assert.Equal(t, 1, w.SweepEffects(ctx))
	assert.Empty(t, e.ActiveEffects(ctx, 1))
	assert.Equal(t, 0, w.SweepEffects(ctx))
}

func TestReapBlackjack(t *testing.T) {
	ctx := context.Background()
	w, e, clk := newWorker(t)

	var id int64
	for candidate := int64(1); candidate < 50; candidate++ {
		fund(t, e, candidate, 900)
		v, err := e.BlackjackStart(ctx, candidate, service.Bet{Amount: 300})
		require.NoError(t, err)
		if !v.Done() {
			id = candidate
			break
		}
	}
	require.NotZero(t, id, "every round ended on the deal")

	clk.Advance(5 * time.Minute)
	assert.Empty(t, w.ReapBlackjack(ctx))

	clk.Advance(6 * time.Minute)
	assert.Equal(t, []int64{id}, w.ReapBlackjack(ctx))
	assert.Equal(t, 0, e.OpenBlackjack())

	u, err := e.User(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(700), u.Balance)
}
