package service

import (
	"context"
	"errors"
	"time"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/game/rob"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/store"
)

// pair runs fn on two users inside one unit of work holding both users'
// locks. The second user must already be registered.
func (e *Engine) pair(ctx context.Context, aID, bID int64, fn func(tx store.Tx, a, b *model.User, now time.Time) error) error {
	return e.locks.WithPair(aID, bID, func() error {
		return e.pairLocked(ctx, aID, bID, fn)
	})
}

// pairLocked is pair for a caller already holding both users' locks.
func (e *Engine) pairLocked(ctx context.Context, aID, bID int64, fn func(tx store.Tx, a, b *model.User, now time.Time) error) error {
	return e.update(ctx, func(tx store.Tx) error {
		if err := tx.LockUsers(aID, bID); err != nil {
			return err
		}
		a, err := tx.User(aID)
		if err != nil {
			return err
		}
		b, err := tx.ExistingUser(bID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user")
		}
		if err != nil {
			return err
		}
		if err := fn(tx, a, b, e.clock.Now()); err != nil {
			return err
		}
		if err := tx.SaveUser(a); err != nil {
			return err
		}
		return tx.SaveUser(b)
	})
}

// TransferResult is the outcome of a gift.
type TransferResult struct {
	From, To    int64
	Amount      int64
	FromBalance int64
	ToBalance   int64
}

// Give moves amount from one user to another.
func (e *Engine) Give(ctx context.Context, fromID, toID, amount int64) (*TransferResult, error) {
	// Validate before touching either record
	if amount <= 0 {
		return nil, apperr.InvalidArgument("amount must be positive")
	}
	if fromID == toID {
		return nil, apperr.InvalidArgument("you can't give coins to yourself")
	}

	var res *TransferResult
	err := e.pair(ctx, fromID, toID, func(_ store.Tx, from, to *model.User, _ time.Time) error {
		if err := debit(from, amount); err != nil {
			return err
		}
		to.Balance += amount
		res = &TransferResult{
			From:        fromID,
			To:          toID,
			Amount:      amount,
			FromBalance: from.Balance,
			ToBalance:   to.Balance,
		}
		return nil
	})
	return res, err
}

// RobResult is the outcome of a rob or steal attempt.
type RobResult struct {
	Action        model.Action
	TargetID      int64
	Outcome       rob.RobOutcome
	Amount        int64
	Balance       int64
	TargetBalance int64
	Progress      Progress
}

// Rob tries to take part of target's balance.
func (e *Engine) Rob(ctx context.Context, actorID, targetID int64) (*RobResult, error) {
	return e.robbery(ctx, model.ActionRob, actorID, targetID)
}

// Steal is rob under a separate cooldown.
func (e *Engine) Steal(ctx context.Context, actorID, targetID int64) (*RobResult, error) {
	return e.robbery(ctx, model.ActionSteal, actorID, targetID)
}

// robbery evaluates an attempt. A caught actor pays the penalty to the target.
func (e *Engine) robbery(ctx context.Context, action model.Action, actorID, targetID int64) (*RobResult, error) {
	if actorID == targetID {
		return nil, apperr.InvalidArgument("you can't %s yourself", action)
	}
	var res *RobResult
	err := e.locks.WithPair(actorID, targetID, func() error {
		// Read under the target's lock so a shield bought meanwhile counts.
		protectedUntil, _ := e.effects.Expiry(ctx, targetID, catalog.EffectCrimeProtection)
		return e.pairLocked(ctx, actorID, targetID, func(_ store.Tx, actor, target *model.User, now time.Time) error {
			if err := checkCooldown(actor, action, nil, now); err != nil {
				return err
			}
			if err := rob.Validate(actorID, targetID, target.Balance, protectedUntil); err != nil {
				return err
			}

			out := rob.Attempt(e.rng, actor.Balance, target.Balance)
			actor.MarkRun(action, now)
			r := &RobResult{Action: action, TargetID: targetID, Outcome: out.Outcome, Amount: out.Amount}
			if out.Success() {
				target.Balance -= out.Amount
				actor.Balance += out.Amount
				r.Progress = progressOf(actor, RobXP, e.addXP(actor, RobXP))
			} else {
				actor.Balance -= out.Amount
				target.Balance += out.Amount
				r.Progress = progressOf(actor, 0, false)
			}
			r.Balance = actor.Balance
			r.TargetBalance = target.Balance
			res = r
			return nil
		})
	})
	return res, err
}
