package service

import (
	"context"
	"time"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/store"
)

// ShopEntry is one shop item as seen by a user.
type ShopEntry struct {
	Item      catalog.ShopItem
	Bought    int  // purchases today
	Remaining int  // purchases left today
	Owned     bool // permanent item already held
}

// ShopView lists the shop for userID with today's purchase allowance.
func (e *Engine) ShopView(ctx context.Context, userID int64) []ShopEntry {
	active := e.active(ctx, userID)
	out := make([]ShopEntry, len(e.catalog.Shop))
	for i, it := range e.catalog.Shop {
		bought := e.effects.Purchases(ctx, userID, it.Name)
		out[i] = ShopEntry{
			Item:      it,
			Bought:    bought,
			Remaining: max(it.DailyLimit-bought, 0),
			Owned:     it.Permanent() && active(it.Effect),
		}
	}
	return out
}

// BuyResult is the outcome of a purchase.
type BuyResult struct {
	Item      catalog.ShopItem
	ExpiresAt time.Time // zero for permanent items
	Balance   int64
}

// Buy purchases a shop item. The daily limit is checked, the price charged
// and the effect applied in that order; a failed charge applies nothing.
func (e *Engine) Buy(ctx context.Context, userID int64, name string) (*BuyResult, error) {
	item, ok := e.catalog.ShopItem(name)
	if !ok {
		return nil, apperr.NotFound(name + " in the shop")
	}

	var balance int64
	charge := func() error {
		return e.update(ctx, func(tx store.Tx) error {
			u, err := tx.User(userID)
			if err != nil {
				return err
			}
			if err := debit(u, item.Price); err != nil {
				return err
			}
			balance = u.Balance
			return tx.SaveUser(u)
		})
	}

	var res *BuyResult
	err := e.serial(ctx, userID, func() error {
		exp, err := e.effects.Purchase(ctx, userID, item, charge)
		if err != nil {
			return err
		}
		res = &BuyResult{Item: item, ExpiresAt: exp, Balance: balance}
		return nil
	})
	return res, err
}

// EffectView is one active effect with its shop metadata.
type EffectView struct {
	Effect    string
	Item      catalog.ShopItem
	ExpiresAt time.Time // zero for permanent effects
	Remaining time.Duration
}

// Permanent reports whether the effect never expires.
func (v EffectView) Permanent() bool { return v.ExpiresAt.IsZero() }

// ActiveEffects lists the effects in force for userID.
func (e *Engine) ActiveEffects(ctx context.Context, userID int64) []EffectView {
	now := e.clock.Now()
	snap := e.effects.Snapshot(ctx, userID)
	out := make([]EffectView, 0, len(snap))
	for _, a := range snap {
		v := EffectView{Effect: a.Effect, ExpiresAt: a.ExpiresAt}
		for _, it := range e.catalog.Shop {
			if it.Effect == a.Effect {
				v.Item = it
				break
			}
		}
		if !a.ExpiresAt.IsZero() {
			v.Remaining = a.ExpiresAt.Sub(now)
		}
		out = append(out, v)
	}
	return out
}
