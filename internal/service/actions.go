package service

import (
	"context"
	"time"

	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/store"
)

// Ranges of the flat-reward actions.
const (
	BegMin, BegMax         = 10, 100
	DigMin, DigMax         = 50, 300
	ExploreMin, ExploreMax = 100, 600
	QuestMin, QuestMax     = 500, 1500

	ExploreFindChance = 0.15
)

// CrimeScenario is one flavour of crime with its reward multiplier.
type CrimeScenario struct {
	Text       string
	Multiplier float64
}

// CrimeScenarios are drawn uniformly on every crime.
var CrimeScenarios = []CrimeScenario{
	{"pickpocketed a tourist", 1.0},
	{"shoplifted from a convenience store", 1.1},
	{"sold fake concert tickets", 1.2},
	{"hacked a vending machine", 1.3},
	{"robbed an armored truck", 1.5},
}

var (
	workTexts = []string{
		"worked a shift at the café",
		"delivered packages across town",
		"fixed bugs for a startup",
		"walked the neighbour's dogs",
		"streamed for eight hours",
	}
	begTexts = []string{
		"a kind stranger tossed you some coins",
		"a passing cat dropped a coin purse",
		"someone felt sorry for you",
	}
	digTexts = []string{
		"dug up an old coin jar",
		"found buried treasure in the park",
		"unearthed a lost wallet",
	}
	exploreTexts = []string{
		"explored an abandoned mine",
		"wandered through an ancient forest",
		"searched a sunken ship",
		"climbed a misty mountain",
	}
	questTexts = []string{
		"escorted a merchant caravan",
		"cleared a goblin cave",
		"recovered the king's lost crown",
	}
)

// ActionResult is the outcome of a timed earning action.
type ActionResult struct {
	Action     model.Action
	Success    bool
	Text       string
	Amount     int64 // gained on success, lost otherwise
	Multiplier float64
	Found      *catalog.Item
	Balance    int64
	Progress   Progress
}

func (e *Engine) pick(texts []string) string {
	return texts[e.rng.Int63n(int64(len(texts)))]
}

// earn runs a cooldown-bound action whose reward is computed by reward.
func (e *Engine) earn(ctx context.Context, userID int64, action model.Action, xp int64, reward func(u *model.User, res *ActionResult) error) (*ActionResult, error) {
	active := e.active(ctx, userID)
	var res *ActionResult
	err := e.mutateUser(ctx, userID, func(tx store.Tx, u *model.User, now time.Time) error {
		if err := checkCooldown(u, action, active, now); err != nil {
			return err
		}
		r := &ActionResult{Action: action, Success: true, Multiplier: economy.Multiplier(action, active)}
		if err := reward(u, r); err != nil {
			return err
		}
		if r.Found != nil {
			inv, err := tx.Inventory(userID)
			if err != nil {
				return err
			}
			inv.Add(r.Found.Name, 1)
			if err := tx.SaveInventory(inv); err != nil {
				return err
			}
		}

		u.MarkRun(action, now)
		if r.Success {
			u.Balance += r.Amount
			r.Progress = progressOf(u, xp, e.addXP(u, xp))
		} else {
			u.Balance -= r.Amount
			r.Progress = progressOf(u, 0, false)
		}
		r.Balance = u.Balance
		res = r
		return nil
	})
	return res, err
}

// Work pays a level-scaled wage; the work booster multiplies it and an
// energy drink halves the cooldown.
func (e *Engine) Work(ctx context.Context, userID int64) (*ActionResult, error) {
	return e.earn(ctx, userID, model.ActionWork, WorkXP, func(u *model.User, r *ActionResult) error {
		lo, hi := economy.WorkRange(u.Level)
		base := economy.Uniform(e.rng, lo, hi) + economy.LevelBonus(u.Level)
		r.Amount = economy.ApplyMultiplier(base, r.Multiplier)
		r.Text = e.pick(workTexts)
		return nil
	})
}

// Crime succeeds with a level-scaled chance. A failure costs a penalty,
// clamped so the balance never goes negative.
func (e *Engine) Crime(ctx context.Context, userID int64) (*ActionResult, error) {
	return e.earn(ctx, userID, model.ActionCrime, CrimeXP, func(u *model.User, r *ActionResult) error {
		lo, hi := economy.CrimeRange(u.Level)
		base := economy.Uniform(e.rng, lo, hi)
		sc := CrimeScenarios[e.rng.Int63n(int64(len(CrimeScenarios)))]
		r.Text = sc.Text

		if economy.Chance(e.rng, economy.CrimeSuccessChance(u.Level)) {
			r.Multiplier = sc.Multiplier
			r.Amount = economy.ApplyMultiplier(base, sc.Multiplier) + economy.LevelBonus(u.Level)
			return nil
		}
		r.Success = false
		r.Amount = min(economy.CrimePenalty(u.Level), u.Balance)
		return nil
	})
}

// Beg pays a small flat amount.
func (e *Engine) Beg(ctx context.Context, userID int64) (*ActionResult, error) {
	return e.earn(ctx, userID, model.ActionBeg, BegXP, func(_ *model.User, r *ActionResult) error {
		r.Amount = economy.Uniform(e.rng, BegMin, BegMax)
		r.Text = e.pick(begTexts)
		return nil
	})
}

// Dig pays a level-scaled amount.
func (e *Engine) Dig(ctx context.Context, userID int64) (*ActionResult, error) {
	return e.earn(ctx, userID, model.ActionDig, DigXP, func(u *model.User, r *ActionResult) error {
		lo, hi := economy.ScaledRange(DigMin, DigMax, u.Level)
		r.Amount = economy.Uniform(e.rng, lo, hi)
		r.Text = e.pick(digTexts)
		return nil
	})
}

// Explore pays a level-scaled amount and sometimes finds a hunt item.
func (e *Engine) Explore(ctx context.Context, userID int64) (*ActionResult, error) {
	return e.earn(ctx, userID, model.ActionExplore, ExploreXP, func(u *model.User, r *ActionResult) error {
		lo, hi := economy.ScaledRange(ExploreMin, ExploreMax, u.Level)
		r.Amount = economy.Uniform(e.rng, lo, hi)
		r.Text = e.pick(exploreTexts)
		if economy.Chance(e.rng, ExploreFindChance) {
			it := economy.WeightedDraw(e.rng, e.catalog.Hunt, false)
			r.Found = &it
		}
		return nil
	})
}

// Quest pays a large amount plus the level bonus.
func (e *Engine) Quest(ctx context.Context, userID int64) (*ActionResult, error) {
	return e.earn(ctx, userID, model.ActionQuest, QuestXP, func(u *model.User, r *ActionResult) error {
		r.Amount = economy.Uniform(e.rng, QuestMin, QuestMax) + economy.LevelBonus(u.Level)
		r.Text = e.pick(questTexts)
		return nil
	})
}
