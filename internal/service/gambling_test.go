package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/game/blackjack"
)

// openRound starts rounds for successive users until one is not settled by
// a natural on the deal.
func openRound(t *testing.T, e *Engine, bet int64) (int64, *BlackjackView) {
	t.Helper()
	ctx := context.Background()
	for id := int64(1); id < 50; id++ {
		setBalance(t, e, id, 1000)
		v, err := e.BlackjackStart(ctx, id, Bet{Amount: bet})
		require.NoError(t, err)
		if !v.Done() {
			return id, v
		}
	}
	t.Fatal("every round ended on the deal")
	return 0, nil
}

func TestBlackjackEscrowAndSettle(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, 11)

	id, v := openRound(t, e, 200)
	assert.Equal(t, int64(800), v.Balance)
	assert.Equal(t, int64(800), user(t, e, id).Balance)
	assert.Equal(t, 1, e.OpenBlackjack())

	_, err := e.BlackjackStart(ctx, id, Bet{Amount: 100})
	assertKind(t, apperr.KindLimitReached, err)

	v, err = e.BlackjackStand(ctx, id)
	require.NoError(t, err)
	require.True(t, v.Done())
	assert.Equal(t, int64(800)+blackjack.Payout(v.Outcome, 200), v.Balance)
	assert.Equal(t, v.Balance, user(t, e, id).Balance)
	assert.Zero(t, e.OpenBlackjack())

	_, err = e.BlackjackHit(ctx, id)
	assertKind(t, apperr.KindNotFound, err)
}

func TestBlackjackHitUntilDone(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, 12)

	id, v := openRound(t, e, 100)
	for !v.Done() {
		var err error
		v, err = e.BlackjackHit(ctx, id)
		require.NoError(t, err)
	}
	if v.PlayerValue > 21 {
		assert.Equal(t, blackjack.OutcomeLose, v.Outcome)
		assert.Equal(t, int64(900), v.Balance)
	}
	assert.False(t, e.tables.Has(id))
}

func TestBlackjackInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, 1)

	_, err := e.BlackjackStart(ctx, 1, Bet{Amount: 101})
	assertKind(t, apperr.KindInsufficientFunds, err)
	assert.Equal(t, int64(100), user(t, e, 1).Balance)
	assert.Zero(t, e.OpenBlackjack())
}

func TestReapBlackjackForfeitsStake(t *testing.T) {
	ctx := context.Background()
	e, clk := newEngine(t, 13)

	id, _ := openRound(t, e, 300)
	clk.Advance(BlackjackIdle - time.Second)
	assert.Empty(t, e.ReapBlackjack(ctx))

	clk.Advance(2 * time.Second)
	assert.Equal(t, []int64{id}, e.ReapBlackjack(ctx))
	assert.Equal(t, int64(700), user(t, e, id).Balance)
}

func TestReapBlackjackCountsFromLastMove(t *testing.T) {
	ctx := context.Background()
	e, clk := newEngine(t, 13)

	id, _ := openRound(t, e, 300)
	clk.Advance(9 * time.Minute)
	t9 := clk.Now()
	tb, ok := e.tables.Get(id)
	require.True(t, ok)
	// A low card keeps the round open after the hit.
	tb.Player = blackjack.Hand{{Rank: 2, Suit: "♠"}, {Rank: 3, Suit: "♠"}}
	v, err := e.BlackjackHit(ctx, id)
	require.NoError(t, err)
	require.False(t, v.Done())
	assert.Equal(t, t9, tb.LastMove)

	clk.Advance(2 * time.Minute)
	assert.Empty(t, e.ReapBlackjack(ctx))
	assert.True(t, e.tables.Has(id))

	clk.Advance(BlackjackIdle)
	assert.Equal(t, []int64{id}, e.ReapBlackjack(ctx))
	assert.Equal(t, int64(700), user(t, e, id).Balance)
}

func TestReapBlackjackPaysSettledRound(t *testing.T) {
	ctx := context.Background()
	e, clk := newEngine(t, 13)
	setBalance(t, e, 1, 700)

	deck := blackjack.NewStackedDeck(
		blackjack.Card{Rank: 1, Suit: "♠"}, blackjack.Card{Rank: 13, Suit: "♠"},
		blackjack.Card{Rank: 5, Suit: "♥"}, blackjack.Card{Rank: 6, Suit: "♥"},
	)
	tb := blackjack.Deal(e.rng, deck, 300, clk.Now())
	require.Equal(t, blackjack.OutcomeNatural, tb.Outcome)
	require.True(t, e.tables.Open(1, tb))

	clk.Advance(time.Hour)
	assert.Empty(t, e.ReapBlackjack(ctx), "settled rounds are paid, not forfeited")
	assert.False(t, e.tables.Has(1))
	assert.Equal(t, int64(700+750), user(t, e, 1).Balance)
}

func TestCloseRefundsOpenBlackjack(t *testing.T) {
	e, _ := build(13)

	id, v := openRound(t, e, 300)
	require.Equal(t, int64(700), v.Balance)

	e.Close()
	assert.Zero(t, e.OpenBlackjack())
	assert.Equal(t, int64(1000), user(t, e, id).Balance)
}

func TestDuelConservesCoins(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, 21)
	setBalance(t, e, 1, 500)
	setBalance(t, e, 2, 500)

	res, err := e.Duel(ctx, 1, 2, Bet{Amount: 200})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.ChallengerBalance+res.OpponentBalance)
	assert.Contains(t, []int64{300, 700}, res.ChallengerBalance)
	if res.Winner == 1 {
		assert.Equal(t, int64(700), res.ChallengerBalance)
	}

	setBalance(t, e, 2, 50)
	_, err = e.Duel(ctx, 1, 2, Bet{All: true})
	assertKind(t, apperr.KindInvalidArgument, err)
	_, err = e.Duel(ctx, 1, 1, Bet{Amount: 10})
	assertKind(t, apperr.KindInvalidArgument, err)
	_, err = e.Duel(ctx, 1, 404, Bet{Amount: 10})
	assertKind(t, apperr.KindNotFound, err)
}

func TestBetAllUsesBalance(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, 3)
	setBalance(t, e, 1, 640)

	res, err := e.Slots(ctx, 1, Bet{All: true})
	require.NoError(t, err)
	assert.Equal(t, int64(640), res.Bet)

	setBalance(t, e, 1, 0)
	_, err = e.Slots(ctx, 1, Bet{All: true})
	assertKind(t, apperr.KindInsufficientFunds, err)
}
