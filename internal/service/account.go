package service

import (
	"context"
	"errors"
	"time"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/effects"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/store"
)

// XP granted per action.
const (
	DailyXP   = 50
	WeeklyXP  = 100
	MonthlyXP = 250
	WorkXP    = 20
	CrimeXP   = 30
	BegXP     = 5
	DigXP     = 10
	ExploreXP = 20
	QuestXP   = 100
	FishXP    = 15
	RobXP     = 25
)

// TopLimit is the number of entries on a leaderboard.
const TopLimit = 10

// mutateUser runs fn on the user's record inside one unit of work under the
// user's lock and saves the record when fn succeeds.
func (e *Engine) mutateUser(ctx context.Context, userID int64, fn func(tx store.Tx, u *model.User, now time.Time) error) error {
	return e.serial(ctx, userID, func() error {
		return e.update(ctx, func(tx store.Tx) error {
			u, err := tx.User(userID)
			if err != nil {
				return err
			}
			if err := fn(tx, u, e.clock.Now()); err != nil {
				return err
			}
			return tx.SaveUser(u)
		})
	})
}

// lookup loads target for caller: the caller is created on first sight,
// anyone else must already be registered.
func (e *Engine) lookup(ctx context.Context, callerID, targetID int64) (*model.User, error) {
	if targetID == 0 || targetID == callerID {
		return e.User(ctx, callerID)
	}
	u, err := e.store.FindUser(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("user")
	}
	return u, apperr.Map(err)
}

// BalanceView is the answer to a balance query.
type BalanceView struct {
	UserID     int64
	Balance    int64
	WealthRank catalog.WealthRank
}

// Balance reports the balance of target, or of the caller when target is zero.
func (e *Engine) Balance(ctx context.Context, callerID, targetID int64) (*BalanceView, error) {
	u, err := e.lookup(ctx, callerID, targetID)
	if err != nil {
		return nil, err
	}
	return &BalanceView{
		UserID:     u.ID,
		Balance:    u.Balance,
		WealthRank: economy.WealthRank(e.catalog, u.Balance),
	}, nil
}

// LevelView describes a user's progression.
type LevelView struct {
	UserID    int64
	Level     int
	XP        int64
	LevelXP   int64 // threshold of the current level
	NextXP    int64 // threshold of the next level
	LevelRank catalog.LevelRank
}

// Percent is the progress from the current level to the next, 0-100.
func (v LevelView) Percent() int {
	span := v.NextXP - v.LevelXP
	if span <= 0 {
		return 100
	}
	done := v.XP - v.LevelXP
	if done < 0 {
		done = 0
	}
	return int(done * 100 / span)
}

func levelView(c *catalog.Catalog, u *model.User) LevelView {
	lvl := economy.LevelForXP(u.XP)
	cur := economy.XPForLevel(lvl)
	if lvl == 1 {
		cur = 0
	}
	return LevelView{
		UserID:    u.ID,
		Level:     lvl,
		XP:        u.XP,
		LevelXP:   cur,
		NextXP:    economy.XPForLevel(lvl + 1),
		LevelRank: economy.LevelRank(c, lvl),
	}
}

// Level reports the progression of target, or of the caller when target is zero.
func (e *Engine) Level(ctx context.Context, callerID, targetID int64) (*LevelView, error) {
	u, err := e.lookup(ctx, callerID, targetID)
	if err != nil {
		return nil, err
	}
	v := levelView(e.catalog, u)
	return &v, nil
}

// ProfileView is everything shown on a profile card.
type ProfileView struct {
	User       *model.User
	Level      LevelView
	WealthRank catalog.WealthRank
	CustomRank *catalog.CustomRank
	Effects    []effects.ActiveEffect
	Items      int64
}

// Profile assembles the profile of target, or of the caller when target is zero.
func (e *Engine) Profile(ctx context.Context, callerID, targetID int64) (*ProfileView, error) {
	u, err := e.lookup(ctx, callerID, targetID)
	if err != nil {
		return nil, err
	}
	inv, err := e.store.GetInventory(ctx, u.ID)
	if err != nil {
		return nil, apperr.Map(err)
	}

	p := &ProfileView{
		User:       u,
		Level:      levelView(e.catalog, u),
		WealthRank: economy.WealthRank(e.catalog, u.Balance),
		Effects:    e.effects.Snapshot(ctx, u.ID),
		Items:      inv.Total(),
	}
	if u.CustomRank != "" {
		if r, ok := e.catalog.CustomRank(u.CustomRank); ok {
			p.CustomRank = &r
		}
	}
	return p, nil
}

// RewardResult is the outcome of a periodic claim.
type RewardResult struct {
	Action     model.Action
	Base       int64
	Multiplier float64
	Amount     int64
	Streak     int
	Balance    int64
	Progress   Progress
}

// Daily claims the daily reward. The streak grows when the previous claim
// is between one and two days old and restarts at 1 otherwise.
func (e *Engine) Daily(ctx context.Context, userID int64) (*RewardResult, error) {
	active := e.active(ctx, userID)
	var res *RewardResult
	err := e.mutateUser(ctx, userID, func(_ store.Tx, u *model.User, now time.Time) error {
		last, claimed := u.LastRun(model.ActionDaily)
		streak, ok := economy.NextStreak(last, claimed, now, u.DailyStreak)
		if !ok {
			return apperr.OnCooldown(last.Add(economy.Cooldown(model.ActionDaily, nil)).Sub(now))
		}

		base := economy.DailyReward(u.Level, streak)
		m := economy.Multiplier(model.ActionDaily, active)
		amount := economy.ApplyMultiplier(base, m)

		u.Balance += amount
		u.DailyStreak = streak
		u.MarkRun(model.ActionDaily, now)
		up := e.addXP(u, DailyXP)

		res = &RewardResult{
			Action:     model.ActionDaily,
			Base:       base,
			Multiplier: m,
			Amount:     amount,
			Streak:     streak,
			Balance:    u.Balance,
			Progress:   progressOf(u, DailyXP, up),
		}
		return nil
	})
	return res, err
}

// Weekly claims the weekly reward.
func (e *Engine) Weekly(ctx context.Context, userID int64) (*RewardResult, error) {
	return e.periodic(ctx, userID, model.ActionWeekly, economy.WeeklyReward, WeeklyXP)
}

// Monthly claims the monthly reward.
func (e *Engine) Monthly(ctx context.Context, userID int64) (*RewardResult, error) {
	return e.periodic(ctx, userID, model.ActionMonthly, economy.MonthlyReward, MonthlyXP)
}

func (e *Engine) periodic(ctx context.Context, userID int64, action model.Action, reward func(level int) int64, xp int64) (*RewardResult, error) {
	var res *RewardResult
	err := e.mutateUser(ctx, userID, func(_ store.Tx, u *model.User, now time.Time) error {
		if err := checkCooldown(u, action, nil, now); err != nil {
			return err
		}
		amount := reward(u.Level)
		u.Balance += amount
		u.MarkRun(action, now)
		up := e.addXP(u, xp)

		res = &RewardResult{
			Action:     action,
			Base:       amount,
			Multiplier: 1,
			Amount:     amount,
			Balance:    u.Balance,
			Progress:   progressOf(u, xp, up),
		}
		return nil
	})
	return res, err
}

// SetBio replaces the user's bio.
func (e *Engine) SetBio(ctx context.Context, userID int64, bio string) error {
	if n := len([]rune(bio)); n > model.MaxBioLength {
		return apperr.InvalidArgument("bio is %d characters, the limit is %d", n, model.MaxBioLength)
	}
	return e.mutateUser(ctx, userID, func(_ store.Tx, u *model.User, _ time.Time) error {
		u.Bio = bio
		return nil
	})
}

// TopEntry is one leaderboard row.
type TopEntry struct {
	Position int
	UserID   int64
	Value    int64
	Level    int
}

// Top returns the leaderboard for category (balance, level or xp).
func (e *Engine) Top(ctx context.Context, category string) (store.TopField, []TopEntry, error) {
	if category == "" {
		category = string(store.TopBalance)
	}
	field, ok := store.ParseTopField(category)
	if !ok {
		return "", nil, apperr.InvalidArgument("unknown leaderboard %q, use balance, level or xp", category)
	}
	users, err := e.store.TopUsers(ctx, field, TopLimit)
	if err != nil {
		return "", nil, apperr.Map(err)
	}

	out := make([]TopEntry, len(users))
	for i, u := range users {
		v := u.Balance
		switch field {
		case store.TopLevel:
			v = int64(u.Level)
		case store.TopXP:
			v = u.XP
		}
		out[i] = TopEntry{Position: i + 1, UserID: u.ID, Value: v, Level: u.Level}
	}
	return field, out, nil
}

// Cooldowns reports the time left on each cooldown-bound action of userID.
// Ready actions are omitted.
func (e *Engine) Cooldowns(ctx context.Context, userID int64) (map[model.Action]time.Duration, error) {
	u, err := e.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := e.active(ctx, userID)
	now := e.clock.Now()
	out := make(map[model.Action]time.Duration)
	for _, a := range model.Actions {
		cd := economy.Cooldown(a, active)
		if rem := economy.Remaining(u, a, cd, now); rem > 0 {
			out[a] = rem
		}
	}
	return out, nil
}
