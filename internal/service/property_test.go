package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/model"
)

var propertyUsers = []int64{1, 2, 3, 4}

var propertyOps = []string{
	"daily", "work", "crime", "hunt", "fish", "beg", "explore",
	"sell", "give", "rob", "steal", "coinflip", "shield",
	"propose", "accept", "divorce", "advance",
}

// checkDomainError fails on errors that are not domain errors.
func checkDomainError(t *rapid.T, op string, err error) {
	if err == nil {
		return
	}
	k := apperr.KindOf(err)
	if k == apperr.KindUnknown || k == apperr.KindTransient {
		t.Fatalf("%s: unexpected error %v", op, err)
	}
}

// checkInvariants verifies the stored state after every step.
func checkInvariants(t *rapid.T, e *Engine) {
	ctx := context.Background()
	users, err := e.store.ListUsers(ctx)
	require.NoError(t, err)

	byID := make(map[int64]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, u := range users {
		if u.Balance < 0 {
			t.Fatalf("user %d balance %d", u.ID, u.Balance)
		}
		if want := economy.LevelForXP(u.XP); u.Level != want {
			t.Fatalf("user %d xp %d level %d, want %d", u.ID, u.XP, u.Level, want)
		}
		if u.MarriedTo != nil {
			spouse, ok := byID[*u.MarriedTo]
			if !ok || spouse.MarriedTo == nil || *spouse.MarriedTo != u.ID {
				t.Fatalf("user %d married to %d without symmetry", u.ID, *u.MarriedTo)
			}
		}

		inv, err := e.store.GetInventory(ctx, u.ID)
		require.NoError(t, err)
		for item, q := range inv.Items {
			if q <= 0 {
				t.Fatalf("user %d holds %d %s", u.ID, q, item)
			}
		}
	}
}

func TestEngineInvariantsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		e, clk := build(rapid.Int64().Draw(t, "seed"))
		defer e.Close()
		for _, id := range propertyUsers {
			setBalance(t, e, id, rapid.Int64Range(0, 30000).Draw(t, "balance"))
		}

		type key struct {
			user   int64
			action model.Action
		}
		lastOK := make(map[key]time.Time)
		succeeded := func(id int64, a model.Action) {
			now := clk.Now()
			if prev, ok := lastOK[key{id, a}]; ok {
				if cd := economy.Cooldown(a, nil); now.Sub(prev) < cd {
					t.Fatalf("%s ran twice for user %d within %s", a, id, now.Sub(prev))
				}
			}
			lastOK[key{id, a}] = now
		}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.SampledFrom(propertyOps).Draw(t, "op")
			a := rapid.SampledFrom(propertyUsers).Draw(t, "actor")
			b := rapid.SampledFrom(propertyUsers).Draw(t, "other")

			var err error
			switch op {
			case "daily":
				if _, err = e.Daily(ctx, a); err == nil {
					succeeded(a, model.ActionDaily)
				}
			case "work":
				if _, err = e.Work(ctx, a); err == nil {
					succeeded(a, model.ActionWork)
				}
			case "crime":
				if _, err = e.Crime(ctx, a); err == nil {
					succeeded(a, model.ActionCrime)
				}
			case "hunt":
				if _, err = e.Hunt(ctx, a); err == nil {
					succeeded(a, model.ActionHunt)
				}
			case "fish":
				if _, err = e.Fish(ctx, a); err == nil {
					succeeded(a, model.ActionFish)
				}
			case "beg":
				if _, err = e.Beg(ctx, a); err == nil {
					succeeded(a, model.ActionBeg)
				}
			case "explore":
				if _, err = e.Explore(ctx, a); err == nil {
					succeeded(a, model.ActionExplore)
				}
			case "sell":
				before := user(t, e, a)
				inv, ierr := e.store.GetInventory(ctx, a)
				require.NoError(t, ierr)
				var worth int64
				for name, q := range inv.Items {
					if it, ok := e.catalog.Item(name); ok {
						worth += it.Value * q
					}
				}
				var res *SellResult
				res, err = e.Sell(ctx, a, SellOrder{All: true})
				after := user(t, e, a)
				if err == nil {
					if after.Balance-before.Balance != worth || res.Total != worth {
						t.Fatalf("sell all paid %d, inventory worth %d", after.Balance-before.Balance, worth)
					}
				} else if after.Balance != before.Balance {
					t.Fatalf("failed sale changed balance")
				}
			case "give":
				amount := rapid.Int64Range(-10, 5000).Draw(t, "amount")
				before := user(t, e, a).Balance + user(t, e, b).Balance
				_, err = e.Give(ctx, a, b, amount)
				if after := user(t, e, a).Balance + user(t, e, b).Balance; a != b && after != before {
					t.Fatalf("give changed the total from %d to %d", before, after)
				}
			case "rob", "steal":
				action := model.Action(op)
				protected := e.Effects().IsActive(ctx, b, catalog.EffectCrimeProtection)
				if op == "rob" {
					_, err = e.Rob(ctx, a, b)
				} else {
					_, err = e.Steal(ctx, a, b)
				}
				if protected && err == nil {
					t.Fatalf("%s succeeded against protected user %d", op, b)
				}
				if err == nil {
					succeeded(a, action)
				}
			case "coinflip":
				if _, err = e.Coinflip(ctx, a, Bet{Amount: rapid.Int64Range(1, 2000).Draw(t, "bet")}, ""); err == nil {
					succeeded(a, model.ActionCoinflip)
				}
			case "shield":
				_, err = e.Buy(ctx, a, "crime_shield")
			case "propose":
				_, err = e.Propose(ctx, a, b)
			case "accept":
				_, err = e.Accept(ctx, a, b)
			case "divorce":
				_, err = e.Divorce(ctx, a)
			case "advance":
				clk.Advance(time.Duration(rapid.Int64Range(1, 7200).Draw(t, "seconds")) * time.Second)
			}
			checkDomainError(t, op, err)
			checkInvariants(t, e)
		}
	})
}

func TestLevelMatchesXPProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e, _ := build(1)
		defer e.Close()
		u := &model.User{Level: 1}
		total := int64(0)
		for _, xp := range rapid.SliceOfN(rapid.Int64Range(0, 5000), 1, 50).Draw(t, "grants") {
			e.addXP(u, xp)
			total += xp
			if u.XP != total || u.Level != economy.LevelForXP(total) {
				t.Fatalf("xp %d level %d", u.XP, u.Level)
			}
			if u.LevelRank != e.catalog.LevelRank(u.Level).Name {
				t.Fatalf("level %d rank %q", u.Level, u.LevelRank)
			}
		}
	})
}
