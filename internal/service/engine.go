// Package service implements the action handlers of the economy engine.
//
// Every handler validates its input, then applies all mutations inside one
// store unit of work, so a failed validation never leaves a partial reward
// and the cooldown check and timestamp write are observed together.
//
// Lock order is engine user lock, then effects registry, then store. Effect
// state is therefore read before a unit of work starts, never inside one.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/clock"
	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/effects"
	"github.com/NotCool09/myowobot/internal/game"
	"github.com/NotCool09/myowobot/internal/game/blackjack"
	"github.com/NotCool09/myowobot/internal/game/coinflip"
	"github.com/NotCool09/myowobot/internal/game/quiz"
	"github.com/NotCool09/myowobot/internal/game/race"
	"github.com/NotCool09/myowobot/internal/game/slot"
	"github.com/NotCool09/myowobot/internal/game/wheel"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/pkg/lock"
	"github.com/NotCool09/myowobot/internal/store"
)

// Options configures an Engine. Store and Clock are required; the rest
// default to the embedded catalogs, a time-seeded rng and a volatile
// effects registry.
type Options struct {
	Store   store.Store
	Clock   clock.Clock
	Effects *effects.Registry
	Catalog *catalog.Catalog
	Bank    *quiz.Bank
	Rand    economy.Rand
	OwnerID int64
}

// Engine is the long-lived economy engine. It owns the process-local state:
// effects, open blackjack rounds, quiz sessions and per-user locks.
type Engine struct {
	store   store.Store
	clock   clock.Clock
	effects *effects.Registry
	catalog *catalog.Catalog
	rng     economy.Rand
	locks   *lock.UserLock
	games   *game.Registry
	tables  *blackjack.Tables
	quizzes *quiz.Manager
	ownerID int64
}

// NewEngine wires an engine from opts.
func NewEngine(opts Options) *Engine {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Bank == nil {
		opts.Bank = quiz.DefaultBank()
	}
	if opts.Rand == nil {
		opts.Rand = economy.NewRand(time.Now().UnixNano())
	}
	if opts.Effects == nil {
		opts.Effects = effects.NewRegistry(opts.Clock)
	}

	e := &Engine{
		store:   opts.Store,
		clock:   opts.Clock,
		effects: opts.Effects,
		catalog: opts.Catalog,
		rng:     opts.Rand,
		locks:   lock.NewUserLock(),
		tables:  blackjack.NewTables(),
		quizzes: quiz.NewManager(opts.Bank, opts.Clock, opts.Rand),
		ownerID: opts.OwnerID,
	}
	e.games = game.NewRegistry().MustRegister(
		slot.New(opts.Rand),
		coinflip.New(opts.Rand),
		wheel.New(opts.Rand),
		race.New(opts.Rand),
	)
	return e
}

// Close releases process-local state. Open quiz questions are dropped and
// open blackjack rounds are ended with their stakes returned.
func (e *Engine) Close() {
	e.quizzes.Close()
	if n, total := e.refundBlackjack(context.Background()); n > 0 {
		log.Info().Int("tables", n).Int64("refunded", total).Msg("Refunded open blackjack rounds on shutdown")
	}
}

// Store returns the engine's store.
func (e *Engine) Store() store.Store { return e.store }

// Clock returns the engine's clock.
func (e *Engine) Clock() clock.Clock { return e.clock }

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Effects returns the engine's effects registry.
func (e *Engine) Effects() *effects.Registry { return e.effects }

// Quizzes returns the quiz manager.
func (e *Engine) Quizzes() *quiz.Manager { return e.quizzes }

// Games returns the registered single-round games.
func (e *Engine) Games() *game.Registry { return e.games }

// IsOwner reports whether userID is the configured owner.
func (e *Engine) IsOwner(userID int64) bool {
	return e.ownerID != 0 && userID == e.ownerID
}

// User loads the caller's record, creating it on first sight.
func (e *Engine) User(ctx context.Context, userID int64) (*model.User, error) {
	u, err := e.store.GetUser(ctx, userID)
	return u, apperr.Map(err)
}

// update runs fn as one unit of work and maps infrastructure failures.
func (e *Engine) update(ctx context.Context, fn func(tx store.Tx) error) error {
	return apperr.Map(e.store.Update(ctx, fn))
}

// serial runs fn holding userID's engine lock.
func (e *Engine) serial(ctx context.Context, userID int64, fn func() error) error {
	err := e.locks.WithLockContext(ctx, userID, fn)
	if errors.Is(err, lock.ErrLockTimeout) {
		return apperr.Transient(err)
	}
	return err
}

// active snapshots the user's effects into a predicate usable inside a
// unit of work.
func (e *Engine) active(ctx context.Context, userID int64) func(effect string) bool {
	set := make(map[string]bool)
	for _, a := range e.effects.Snapshot(ctx, userID) {
		set[a.Effect] = true
	}
	return func(effect string) bool { return set[effect] }
}

// checkCooldown fails with OnCooldown when action is not ready for u.
func checkCooldown(u *model.User, action model.Action, active func(string) bool, now time.Time) error {
	cd := economy.Cooldown(action, active)
	if rem := economy.Remaining(u, action, cd, now); rem > 0 {
		return apperr.OnCooldown(rem)
	}
	return nil
}

// addXP grants xp and refreshes the derived level fields. It reports
// whether the user levelled up.
func (e *Engine) addXP(u *model.User, xp int64) bool {
	before := u.Level
	u.XP += xp
	u.Level = economy.LevelForXP(u.XP)
	u.LevelRank = e.catalog.LevelRank(u.Level).Name
	return u.Level > before
}

// debit takes amount from u or fails with InsufficientFunds.
func debit(u *model.User, amount int64) error {
	if amount > u.Balance {
		return apperr.InsufficientFunds(amount, u.Balance)
	}
	u.Balance -= amount
	return nil
}

// Bet is a wager: a fixed amount, or the whole balance when All is set.
type Bet struct {
	Amount int64
	All    bool
}

// resolve turns b into an amount against u's balance.
func (b Bet) resolve(u *model.User) (int64, error) {
	amount := b.Amount
	if b.All {
		amount = u.Balance
		if amount <= 0 {
			return 0, apperr.InsufficientFunds(1, u.Balance)
		}
	}
	if amount <= 0 {
		return 0, apperr.InvalidArgument("bet must be a positive amount")
	}
	if amount > u.Balance {
		return 0, apperr.InsufficientFunds(amount, u.Balance)
	}
	return amount, nil
}

// Progress is the xp side of a reward.
type Progress struct {
	XPGained  int64
	XP        int64
	Level     int
	LevelRank string
	LeveledUp bool
}

func progressOf(u *model.User, gained int64, up bool) Progress {
	return Progress{XPGained: gained, XP: u.XP, Level: u.Level, LevelRank: u.LevelRank, LeveledUp: up}
}
