package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/game"
	"github.com/NotCool09/myowobot/internal/game/blackjack"
	"github.com/NotCool09/myowobot/internal/game/duel"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/store"
)

// BlackjackIdle is how long a round may go without a move before it is reaped.
const BlackjackIdle = 10 * time.Minute

// GambleResult is the outcome of a single-round game.
type GambleResult struct {
	Game    string
	Bet     int64
	Result  *game.GameResult
	Balance int64
}

// Play runs the registered game for command with bet. Only coinflip is
// cooldown-bound.
func (e *Engine) Play(ctx context.Context, userID int64, command string, bet Bet, params map[string]any) (*GambleResult, error) {
	g, ok := e.games.Get(command)
	if !ok {
		return nil, apperr.NotFound("game " + command)
	}
	var cooldown model.Action
	if command == "coinflip" {
		cooldown = model.ActionCoinflip
	}

	var res *GambleResult
	err := e.mutateUser(ctx, userID, func(_ store.Tx, u *model.User, now time.Time) error {
		if cooldown != "" {
			if err := checkCooldown(u, cooldown, nil, now); err != nil {
				return err
			}
		}
		amount, err := bet.resolve(u)
		if err != nil {
			return err
		}
		if err := g.ValidateBet(amount, params); err != nil {
			return apperr.InvalidArgument("%v", err)
		}
		out, err := g.Play(ctx, userID, amount, params)
		if err != nil {
			return err
		}

		u.Balance += out.Delta
		if cooldown != "" {
			u.MarkRun(cooldown, now)
		}
		res = &GambleResult{Game: g.Name(), Bet: amount, Result: out, Balance: u.Balance}
		return nil
	})
	return res, err
}

// Slots spins the slot machine.
func (e *Engine) Slots(ctx context.Context, userID int64, bet Bet) (*GambleResult, error) {
	return e.Play(ctx, userID, "slots", bet, nil)
}

// Coinflip tosses a coin; side may be empty.
func (e *Engine) Coinflip(ctx context.Context, userID int64, bet Bet, side string) (*GambleResult, error) {
	var params map[string]any
	if side != "" {
		params = map[string]any{"side": side}
	}
	return e.Play(ctx, userID, "coinflip", bet, params)
}

// Wheel spins the wheel of fortune.
func (e *Engine) Wheel(ctx context.Context, userID int64, bet Bet) (*GambleResult, error) {
	return e.Play(ctx, userID, "wheel", bet, nil)
}

// Race bets on a lane from 1 to 4.
func (e *Engine) Race(ctx context.Context, userID int64, bet Bet, lane int) (*GambleResult, error) {
	return e.Play(ctx, userID, "race", bet, map[string]any{"lane": lane})
}

// DuelResult is the outcome of a duel.
type DuelResult struct {
	duel.Result
	ChallengerBalance int64
	OpponentBalance   int64
}

// Duel stakes the same amount from both users; the winner takes both.
// "All" means the challenger's whole balance, which the opponent must match.
func (e *Engine) Duel(ctx context.Context, challengerID, opponentID int64, bet Bet) (*DuelResult, error) {
	if challengerID == opponentID {
		return nil, apperr.InvalidArgument("you can't duel yourself")
	}

	var res *DuelResult
	err := e.pair(ctx, challengerID, opponentID, func(_ store.Tx, c, o *model.User, _ time.Time) error {
		stake, err := bet.resolve(c)
		if err != nil {
			return err
		}
		if o.Balance < stake {
			return apperr.InvalidArgument("your opponent can't cover a %d stake", stake)
		}

		out := duel.Fight(e.rng, challengerID, opponentID, stake)
		if out.Winner == challengerID {
			c.Balance += stake
			o.Balance -= stake
		} else {
			c.Balance -= stake
			o.Balance += stake
		}
		res = &DuelResult{Result: out, ChallengerBalance: c.Balance, OpponentBalance: o.Balance}
		return nil
	})
	return res, err
}

// BlackjackView is the state of a round after a move.
type BlackjackView struct {
	Bet         int64
	Player      blackjack.Hand
	PlayerValue int
	Dealer      string
	Outcome     blackjack.Outcome
	Payout      int64
	Balance     int64
}

// Done reports whether the round is settled.
func (v *BlackjackView) Done() bool { return v.Outcome != blackjack.OutcomeOpen }

func viewOf(t *blackjack.Table, balance int64) *BlackjackView {
	return &BlackjackView{
		Bet:         t.Bet,
		Player:      append(blackjack.Hand(nil), t.Player...),
		PlayerValue: t.Player.Value(),
		Dealer:      t.DealerShown(),
		Outcome:     t.Outcome,
		Payout:      t.Payout(),
		Balance:     balance,
	}
}

// BlackjackStart opens a round. The bet is escrowed from the balance until
// the round settles.
func (e *Engine) BlackjackStart(ctx context.Context, userID int64, bet Bet) (*BlackjackView, error) {
	var view *BlackjackView
	err := e.serial(ctx, userID, func() error {
		if e.tables.Has(userID) {
			return apperr.LimitReached("you already have a blackjack game open", time.Time{})
		}
		var table *blackjack.Table
		err := e.update(ctx, func(tx store.Tx) error {
			u, err := tx.User(userID)
			if err != nil {
				return err
			}
			amount, err := bet.resolve(u)
			if err != nil {
				return err
			}
			u.Balance -= amount
			table = blackjack.Deal(e.rng, blackjack.NewDeck(e.rng), amount, e.clock.Now())
			if table.Done() {
				u.Balance += table.Payout()
			}
			view = viewOf(table, u.Balance)
			return tx.SaveUser(u)
		})
		if err != nil {
			return err
		}
		if !table.Done() {
			e.tables.Open(userID, table)
		}
		return nil
	})
	return view, err
}

// BlackjackHit draws a card for the player.
func (e *Engine) BlackjackHit(ctx context.Context, userID int64) (*BlackjackView, error) {
	return e.blackjackMove(ctx, userID, (*blackjack.Table).Hit)
}

// BlackjackStand ends the player's turn and settles the round.
func (e *Engine) BlackjackStand(ctx context.Context, userID int64) (*BlackjackView, error) {
	return e.blackjackMove(ctx, userID, (*blackjack.Table).Stand)
}

func (e *Engine) blackjackMove(ctx context.Context, userID int64, move func(*blackjack.Table)) (*BlackjackView, error) {
	var view *BlackjackView
	err := e.serial(ctx, userID, func() error {
		t, ok := e.tables.Get(userID)
		if !ok {
			return apperr.NotFound("blackjack game, start one with blackjack <amount>")
		}
		// A round settled earlier whose payout failed is retried as is.
		if !t.Done() {
			t.LastMove = e.clock.Now()
			move(t)
		}
		if !t.Done() {
			u, err := e.User(ctx, userID)
			if err != nil {
				return err
			}
			view = viewOf(t, u.Balance)
			return nil
		}

		var err error
		view, err = e.settle(ctx, userID, t)
		return err
	})
	return view, err
}

// settle credits what t owes and closes it. The caller holds the user lock.
// On failure the round stays open so the payout can be retried.
func (e *Engine) settle(ctx context.Context, userID int64, t *blackjack.Table) (*BlackjackView, error) {
	var view *BlackjackView
	err := e.update(ctx, func(tx store.Tx) error {
		u, err := tx.User(userID)
		if err != nil {
			return err
		}
		u.Balance += t.Owed()
		view = viewOf(t, u.Balance)
		return tx.SaveUser(u)
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Int64("owed", t.Owed()).Msg("Failed to pay out blackjack round")
		return nil, err
	}
	e.tables.Close(userID)
	return view, nil
}

// ReapBlackjack closes open rounds with no move for BlackjackIdle and
// returns their owners. Their escrowed stakes are forfeited. Settled rounds
// still waiting on a payout are paid instead.
func (e *Engine) ReapBlackjack(ctx context.Context) []int64 {
	cutoff := e.clock.Now().Add(-BlackjackIdle)
	var reaped []int64
	for _, id := range e.tables.Users() {
		err := e.serial(ctx, id, func() error {
			t, ok := e.tables.Get(id)
			switch {
			case !ok:
				return nil
			case t.Done():
				_, err := e.settle(ctx, id, t)
				return err
			case t.Idle(cutoff):
				e.tables.Close(id)
				reaped = append(reaped, id)
			}
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Int64("user_id", id).Msg("Failed to reap blackjack round")
		}
	}
	return reaped
}

// refundBlackjack ends every round and hands back what each one owes:
// the stake of an open round, the payout of a settled one.
func (e *Engine) refundBlackjack(ctx context.Context) (refunded int, total int64) {
	for _, id := range e.tables.Users() {
		err := e.serial(ctx, id, func() error {
			t, ok := e.tables.Get(id)
			if !ok {
				return nil
			}
			if _, err := e.settle(ctx, id, t); err != nil {
				return err
			}
			refunded++
			total += t.Owed()
			return nil
		})
		if err != nil {
			log.Error().Err(err).Int64("user_id", id).Msg("Failed to refund blackjack round")
		}
	}
	return refunded, total
}

// OpenBlackjack reports the number of open rounds.
func (e *Engine) OpenBlackjack() int { return e.tables.Len() }
