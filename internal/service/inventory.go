package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/store"
)

// HuntResult is the outcome of one expedition.
type HuntResult struct {
	Catches    []catalog.Item
	Bonus      bool
	Rare       int // rare and epic catches
	Legendary  int // legendary and mythical catches
	BaseXP     int64
	Multiplier float64
	Value      int64
	Progress   Progress
}

// Hunt runs an expedition: between one and the level's maximum catches,
// each a weighted draw from the hunt catalog, added to the inventory.
func (e *Engine) Hunt(ctx context.Context, userID int64) (*HuntResult, error) {
	active := e.active(ctx, userID)
	var res *HuntResult
	err := e.mutateUser(ctx, userID, func(tx store.Tx, u *model.User, now time.Time) error {
		if err := checkCooldown(u, model.ActionHunt, active, now); err != nil {
			return err
		}
		inv, err := tx.Inventory(userID)
		if err != nil {
			return err
		}

		r := &HuntResult{
			Bonus:      economy.Chance(e.rng, economy.HuntBonusChance),
			Multiplier: economy.Multiplier(model.ActionHunt, active),
		}
		count := int(economy.Uniform(e.rng, 1, int64(economy.HuntMaxCatches(u.Level))))
		for i := 0; i < count; i++ {
			it := economy.WeightedDraw(e.rng, e.catalog.Hunt, r.Bonus)
			r.Catches = append(r.Catches, it)
			r.Value += it.Value
			switch {
			case it.Tier.AtLeast(catalog.TierLegendary):
				r.Legendary++
			case it.Tier.AtLeast(catalog.TierRare):
				r.Rare++
			}
			inv.Add(it.Name, 1)
		}
		if err := tx.SaveInventory(inv); err != nil {
			return err
		}

		r.BaseXP = economy.HuntXP(count, r.Rare, r.Legendary)
		xp := economy.ApplyMultiplier(r.BaseXP, r.Multiplier)
		u.MarkRun(model.ActionHunt, now)
		r.Progress = progressOf(u, xp, e.addXP(u, xp))
		res = r
		return nil
	})
	return res, err
}

// FishResult is the outcome of one cast.
type FishResult struct {
	Catch    catalog.Item
	Progress Progress
}

// Fish draws one fish into the inventory.
func (e *Engine) Fish(ctx context.Context, userID int64) (*FishResult, error) {
	var res *FishResult
	err := e.mutateUser(ctx, userID, func(tx store.Tx, u *model.User, now time.Time) error {
		if err := checkCooldown(u, model.ActionFish, nil, now); err != nil {
			return err
		}
		inv, err := tx.Inventory(userID)
		if err != nil {
			return err
		}
		it := economy.WeightedDraw(e.rng, e.catalog.Fish, false)
		inv.Add(it.Name, 1)
		if err := tx.SaveInventory(inv); err != nil {
			return err
		}
		u.MarkRun(model.ActionFish, now)
		res = &FishResult{Catch: it, Progress: progressOf(u, FishXP, e.addXP(u, FishXP))}
		return nil
	})
	return res, err
}

// SellOrder selects what to sell.
type SellOrder struct {
	Item     string // name or unambiguous prefix of a held item
	Quantity int64  // units of Item; zero means one
	Stack    bool   // sell every unit of Item
	All      bool   // sell every sellable slot
}

// SoldLine is one item of a sale.
type SoldLine struct {
	Item     catalog.Item
	Quantity int64
	Proceeds int64
}

// SellResult is the outcome of a sale.
type SellResult struct {
	Lines   []SoldLine
	Units   int64
	Total   int64
	Balance int64
}

// resolveHeld finds the held item matching name: exact first, then a
// unique prefix.
func resolveHeld(inv *model.Inventory, name string) (string, error) {
	key := catalog.Normalize(name)
	if key == "" {
		return "", apperr.InvalidArgument("name an item to sell")
	}
	var matches []string
	for _, held := range inv.Names() {
		hk := catalog.Normalize(held)
		if hk == key {
			return held, nil
		}
		if strings.HasPrefix(hk, key) {
			matches = append(matches, held)
		}
	}
	switch len(matches) {
	case 0:
		return "", apperr.NotFound(name + " in your inventory")
	case 1:
		return matches[0], nil
	default:
		return "", apperr.InvalidArgument("%q matches %s", name, strings.Join(matches, ", "))
	}
}

// Sell converts inventory items to coins at catalog value. No multiplier
// applies to sale proceeds.
func (e *Engine) Sell(ctx context.Context, userID int64, order SellOrder) (*SellResult, error) {
	if !order.All && !order.Stack && order.Quantity < 0 {
		return nil, apperr.InvalidArgument("quantity must be positive")
	}
	var res *SellResult
	err := e.mutateUser(ctx, userID, func(tx store.Tx, u *model.User, _ time.Time) error {
		inv, err := tx.Inventory(userID)
		if err != nil {
			return err
		}

		r := &SellResult{}
		sell := func(name string, qty int64) error {
			it, ok := e.catalog.Item(name)
			if !ok {
				return apperr.NotFound(name + " in the catalog")
			}
			if !inv.Remove(name, qty) {
				return apperr.InvalidArgument("you only have %d %s", inv.Quantity(name), name)
			}
			line := SoldLine{Item: it, Quantity: qty, Proceeds: it.Value * qty}
			r.Lines = append(r.Lines, line)
			r.Units += qty
			r.Total += line.Proceeds
			return nil
		}

		if order.All {
			for _, name := range inv.Names() {
				if _, ok := e.catalog.Item(name); !ok {
					continue
				}
				if err := sell(name, inv.Quantity(name)); err != nil {
					return err
				}
			}
			if len(r.Lines) == 0 {
				return apperr.NotFound("sellable items")
			}
		} else {
			name, err := resolveHeld(inv, order.Item)
			if err != nil {
				return err
			}
			qty := order.Quantity
			switch {
			case order.Stack:
				qty = inv.Quantity(name)
			case qty == 0:
				qty = 1
			}
			if err := sell(name, qty); err != nil {
				return err
			}
		}

		if err := tx.SaveInventory(inv); err != nil {
			return err
		}
		u.Balance += r.Total
		r.Balance = u.Balance
		res = r
		return nil
	})
	return res, err
}

// InventoryLine is one slot of an inventory view.
type InventoryLine struct {
	Item     catalog.Item
	Quantity int64
	Known    bool // false for names no longer in the catalog
}

// InventoryView lists what a user holds.
type InventoryView struct {
	UserID int64
	Lines  []InventoryLine
	Units  int64
	Value  int64
}

// Inventory lists the inventory of target, or of the caller when target is zero.
func (e *Engine) Inventory(ctx context.Context, callerID, targetID int64) (*InventoryView, error) {
	u, err := e.lookup(ctx, callerID, targetID)
	if err != nil {
		return nil, err
	}
	inv, err := e.store.GetInventory(ctx, u.ID)
	if err != nil {
		return nil, apperr.Map(err)
	}

	v := &InventoryView{UserID: u.ID}
	for _, name := range inv.Names() {
		q := inv.Quantity(name)
		it, ok := e.catalog.Item(name)
		if !ok {
			it = catalog.Item{Name: name}
		}
		v.Lines = append(v.Lines, InventoryLine{Item: it, Quantity: q, Known: ok})
		v.Units += q
		v.Value += it.Value * q
	}
	sort.SliceStable(v.Lines, func(i, j int) bool {
		return v.Lines[i].Item.Value*v.Lines[i].Quantity > v.Lines[j].Item.Value*v.Lines[j].Quantity
	})
	return v, nil
}

// ZooTier groups the hunted animals of one tier.
type ZooTier struct {
	Tier  catalog.Tier
	Lines []InventoryLine
}

// ZooView is the hunt collection of a user.
type ZooView struct {
	UserID    int64
	Tiers     []ZooTier
	Species   int // distinct hunt items held
	Catalogue int // distinct hunt items that exist
}

// Zoo shows the hunt items of target, or of the caller when target is zero,
// grouped by tier in catalog order.
func (e *Engine) Zoo(ctx context.Context, callerID, targetID int64) (*ZooView, error) {
	u, err := e.lookup(ctx, callerID, targetID)
	if err != nil {
		return nil, err
	}
	inv, err := e.store.GetInventory(ctx, u.ID)
	if err != nil {
		return nil, apperr.Map(err)
	}

	v := &ZooView{UserID: u.ID, Catalogue: len(e.catalog.Hunt)}
	byTier := make(map[catalog.Tier]int)
	for _, it := range e.catalog.Hunt {
		q := inv.Quantity(it.Name)
		if q == 0 {
			continue
		}
		idx, ok := byTier[it.Tier]
		if !ok {
			idx = len(v.Tiers)
			byTier[it.Tier] = idx
			v.Tiers = append(v.Tiers, ZooTier{Tier: it.Tier})
		}
		v.Tiers[idx].Lines = append(v.Tiers[idx].Lines, InventoryLine{Item: it, Quantity: q, Known: true})
		v.Species++
	}
	return v, nil
}

// AddItem gives n units of a catalog item to userID.
func (e *Engine) AddItem(ctx context.Context, userID int64, name string, n int64) (*model.Inventory, error) {
	it, ok := e.catalog.Item(name)
	if !ok {
		return nil, apperr.NotFound(name + " in the catalog")
	}
	if n <= 0 {
		return nil, apperr.InvalidArgument("quantity must be positive")
	}
	return e.mutateInventory(ctx, userID, func(inv *model.Inventory) error {
		inv.Add(it.Name, n)
		return nil
	})
}

// RemoveItem takes n units of a catalog item from userID. It fails without
// changes when fewer than n are held.
func (e *Engine) RemoveItem(ctx context.Context, userID int64, name string, n int64) (*model.Inventory, error) {
	it, ok := e.catalog.Item(name)
	if !ok {
		return nil, apperr.NotFound(name + " in the catalog")
	}
	if n <= 0 {
		return nil, apperr.InvalidArgument("quantity must be positive")
	}
	return e.mutateInventory(ctx, userID, func(inv *model.Inventory) error {
		if !inv.Remove(it.Name, n) {
			return apperr.InvalidArgument("only %d %s held", inv.Quantity(it.Name), it.Name)
		}
		return nil
	})
}

func (e *Engine) mutateInventory(ctx context.Context, userID int64, fn func(inv *model.Inventory) error) (*model.Inventory, error) {
	var out *model.Inventory
	err := e.serial(ctx, userID, func() error {
		return e.update(ctx, func(tx store.Tx) error {
			if _, err := tx.User(userID); err != nil {
				return err
			}
			inv, err := tx.Inventory(userID)
			if err != nil {
				return err
			}
			if err := fn(inv); err != nil {
				return err
			}
			out = inv.Clone()
			return tx.SaveInventory(inv)
		})
	})
	return out, err
}
