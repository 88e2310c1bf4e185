package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/store"
)

// ErrNotOwner is returned when a non-owner calls an owner command.
var ErrNotOwner = apperr.InvalidArgument("only the bot owner can do that")

// admin runs fn on an existing target for the owner.
func (e *Engine) admin(ctx context.Context, actorID, targetID int64, fn func(u *model.User) error) (*model.User, error) {
	if !e.IsOwner(actorID) {
		return nil, ErrNotOwner
	}
	var out *model.User
	err := e.serial(ctx, targetID, func() error {
		return e.update(ctx, func(tx store.Tx) error {
			u, err := tx.ExistingUser(targetID)
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("user")
			}
			if err != nil {
				return err
			}
			if err := fn(u); err != nil {
				return err
			}
			out = u.Clone()
			return tx.SaveUser(u)
		})
	})
	if err == nil {
		log.Info().Int64("owner_id", actorID).Int64("user_id", targetID).Msg("Owner command applied")
	}
	return out, err
}

// Ban stops the bot from answering target.
func (e *Engine) Ban(ctx context.Context, actorID, targetID int64) (*model.User, error) {
	if actorID == targetID {
		return nil, apperr.InvalidArgument("you can't ban yourself")
	}
	return e.admin(ctx, actorID, targetID, func(u *model.User) error {
		u.BotBanned = true
		return nil
	})
}

// Unban lifts a ban.
func (e *Engine) Unban(ctx context.Context, actorID, targetID int64) (*model.User, error) {
	return e.admin(ctx, actorID, targetID, func(u *model.User) error {
		u.BotBanned = false
		return nil
	})
}

// SetCustomRank grants a catalog custom rank; "none" or "" clears it.
func (e *Engine) SetCustomRank(ctx context.Context, actorID, targetID int64, rank string) (*model.User, error) {
	name := ""
	if r := strings.TrimSpace(rank); r != "" && !strings.EqualFold(r, "none") {
		cr, ok := e.catalog.CustomRank(r)
		if !ok {
			return nil, apperr.NotFound("custom rank " + r)
		}
		name = cr.Name
	}
	return e.admin(ctx, actorID, targetID, func(u *model.User) error {
		u.CustomRank = name
		return nil
	})
}

// AdminAdjust adds delta to target's balance. The balance may not go negative.
func (e *Engine) AdminAdjust(ctx context.Context, actorID, targetID, delta int64) (*model.User, error) {
	if delta == 0 {
		return nil, apperr.InvalidArgument("amount must not be zero")
	}
	return e.admin(ctx, actorID, targetID, func(u *model.User) error {
		if u.Balance+delta < 0 {
			return apperr.InvalidArgument("balance is only %d", u.Balance)
		}
		u.Balance += delta
		return nil
	})
}

// ResetCooldown clears the last run of action for target, or every action
// when action is empty.
func (e *Engine) ResetCooldown(ctx context.Context, actorID, targetID int64, action model.Action) (*model.User, error) {
	return e.admin(ctx, actorID, targetID, func(u *model.User) error {
		if action == "" {
			u.LastAction = make(map[model.Action]time.Time)
			return nil
		}
		delete(u.LastAction, action)
		return nil
	})
}

// GrantItem is the owner's additem.
func (e *Engine) GrantItem(ctx context.Context, actorID, targetID int64, name string, n int64) (*model.Inventory, error) {
	if !e.IsOwner(actorID) {
		return nil, ErrNotOwner
	}
	return e.AddItem(ctx, targetID, name, n)
}

// RevokeItem is the owner's removeitem.
func (e *Engine) RevokeItem(ctx context.Context, actorID, targetID int64, name string, n int64) (*model.Inventory, error) {
	if !e.IsOwner(actorID) {
		return nil, ErrNotOwner
	}
	return e.RemoveItem(ctx, targetID, name, n)
}
