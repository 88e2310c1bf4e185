// Package effects tracks purchased shop effects: timed boosts, permanently
// owned items and per-item daily purchase counts.
package effects

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/clock"
	"github.com/NotCool09/myowobot/internal/pkg/lock"
)

// State is one user's effect record.
type State struct {
	Active    map[string]time.Time `json:"active"`
	Permanent map[string]bool      `json:"permanent"`
	Daily     map[string]int       `json:"daily"`
	LastReset clock.Date           `json:"last_reset"`
}

func newState() *State {
	return &State{
		Active:    make(map[string]time.Time),
		Permanent: make(map[string]bool),
		Daily:     make(map[string]int),
	}
}

func (s *State) normalize() {
	if s.Active == nil {
		s.Active = make(map[string]time.Time)
	}
	if s.Permanent == nil {
		s.Permanent = make(map[string]bool)
	}
	if s.Daily == nil {
		s.Daily = make(map[string]int)
	}
}

// evict drops expired effects and returns how many were dropped.
func (s *State) evict(now time.Time) int {
	n := 0
	for id, exp := range s.Active {
		if !exp.After(now) {
			delete(s.Active, id)
			n++
		}
	}
	return n
}

// Persister stores effect state outside the process. Load returns nil, nil
// when nothing is stored for the user.
type Persister interface {
	Load(ctx context.Context, userID int64) (*State, error)
	Save(ctx context.Context, userID int64, s *State) error
}

// ActiveEffect is one entry of a Snapshot.
type ActiveEffect struct {
	Effect    string
	ExpiresAt time.Time // zero for permanent effects
}

// Registry is the process-wide effects cache. Each user's state is guarded
// by that user's lock.
type Registry struct {
	clock   clock.Clock
	locks   *lock.UserLock
	persist Persister

	mu     sync.RWMutex
	states map[int64]*State
}

// Option configures a Registry.
type Option func(*Registry)

// WithPersister makes the registry hydrate from and save to p.
func WithPersister(p Persister) Option {
	return func(r *Registry) { r.persist = p }
}

// NewRegistry creates an empty registry.
func NewRegistry(clk clock.Clock, opts ...Option) *Registry {
	r := &Registry{
		clock:  clk,
		locks:  lock.NewUserLock(),
		states: make(map[int64]*State),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// state returns the user's state, loading it from the persister on first
// touch. The caller must hold the user's lock.
func (r *Registry) state(ctx context.Context, userID int64) *State {
	r.mu.RLock()
	s, ok := r.states[userID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	if r.persist != nil {
		loaded, err := r.persist.Load(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to load effects, starting empty")
		} else if loaded != nil {
			s = loaded
			s.normalize()
		}
	}
	if s == nil {
		s = newState()
	}

	r.mu.Lock()
	r.states[userID] = s
	r.mu.Unlock()
	return s
}

// rollover zeroes the daily counters when the calendar date has changed.
func (r *Registry) rollover(s *State) {
	today := r.clock.Today()
	if s.LastReset != today {
		s.Daily = make(map[string]int)
		s.LastReset = today
	}
}

func (r *Registry) save(ctx context.Context, userID int64, s *State) {
	if r.persist == nil {
		return
	}
	if err := r.persist.Save(ctx, userID, s); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to persist effects")
	}
}

func (r *Registry) canPurchase(s *State, item catalog.ShopItem) error {
	r.rollover(s)
	if item.Permanent() && s.Permanent[item.Effect] {
		return apperr.LimitReached(item.Display+" already owned", time.Time{})
	}
	if s.Daily[item.Name] >= item.DailyLimit {
		return apperr.LimitReached("daily limit for "+item.Display, r.clock.Today().Tomorrow(r.clock.Location()))
	}
	return nil
}

func (r *Registry) apply(s *State, item catalog.ShopItem) time.Time {
	r.rollover(s)
	s.Daily[item.Name]++
	if item.Permanent() {
		s.Permanent[item.Effect] = true
		return time.Time{}
	}
	exp := r.clock.Now().Add(item.Duration())
	s.Active[item.Effect] = exp
	return exp
}

// CanPurchase returns nil when the user may buy item now, or a LimitReached error.
func (r *Registry) CanPurchase(ctx context.Context, userID int64, item catalog.ShopItem) error {
	r.locks.Lock(userID)
	defer r.locks.Unlock(userID)
	return r.canPurchase(r.state(ctx, userID), item)
}

// ApplyPurchase records a purchase and returns the new expiry (zero for
// permanent items). It does not check limits.
func (r *Registry) ApplyPurchase(ctx context.Context, userID int64, item catalog.ShopItem) time.Time {
	r.locks.Lock(userID)
	defer r.locks.Unlock(userID)
	s := r.state(ctx, userID)
	exp := r.apply(s, item)
	r.save(ctx, userID, s)
	return exp
}

// Purchase checks the limits, runs charge and applies the item only if
// charge succeeds. The user's lock is held throughout so two concurrent
// purchases cannot both pass the limit check.
func (r *Registry) Purchase(ctx context.Context, userID int64, item catalog.ShopItem, charge func() error) (time.Time, error) {
	r.locks.Lock(userID)
	defer r.locks.Unlock(userID)

	s := r.state(ctx, userID)
	if err := r.canPurchase(s, item); err != nil {
		return time.Time{}, err
	}
	if err := charge(); err != nil {
		return time.Time{}, err
	}
	exp := r.apply(s, item)
	r.save(ctx, userID, s)
	return exp, nil
}

// IsActive reports whether effect is in force for the user, evicting it if expired.
func (r *Registry) IsActive(ctx context.Context, userID int64, effect string) bool {
	r.locks.Lock(userID)
	defer r.locks.Unlock(userID)
	s := r.state(ctx, userID)
	s.evict(r.clock.Now())
	_, active := s.Active[effect]
	return active || s.Permanent[effect]
}

// Checker binds the registry to one user for use as an effect predicate.
func (r *Registry) Checker(ctx context.Context, userID int64) func(effect string) bool {
	return func(effect string) bool { return r.IsActive(ctx, userID, effect) }
}

// Expiry returns when a timed effect ends.
func (r *Registry) Expiry(ctx context.Context, userID int64, effect string) (time.Time, bool) {
	r.locks.Lock(userID)
	defer r.locks.Unlock(userID)
	s := r.state(ctx, userID)
	s.evict(r.clock.Now())
	exp, ok := s.Active[effect]
	return exp, ok
}

// Purchases returns today's purchase count of an item.
func (r *Registry) Purchases(ctx context.Context, userID int64, item string) int {
	r.locks.Lock(userID)
	defer r.locks.Unlock(userID)
	s := r.state(ctx, userID)
	r.rollover(s)
	return s.Daily[item]
}

// Snapshot lists the user's active and permanent effects, soonest expiry first,
// permanent effects last.
func (r *Registry) Snapshot(ctx context.Context, userID int64) []ActiveEffect {
	r.locks.Lock(userID)
	defer r.locks.Unlock(userID)
	s := r.state(ctx, userID)
	s.evict(r.clock.Now())

	out := make([]ActiveEffect, 0, len(s.Active)+len(s.Permanent))
	for id, exp := range s.Active {
		out = append(out, ActiveEffect{Effect: id, ExpiresAt: exp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	perm := make([]string, 0, len(s.Permanent))
	for id := range s.Permanent {
		perm = append(perm, id)
	}
	sort.Strings(perm)
	for _, id := range perm {
		out = append(out, ActiveEffect{Effect: id})
	}
	return out
}

// Sweep evicts expired effects for every cached user and returns the number evicted.
func (r *Registry) Sweep(ctx context.Context) int {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	now := r.clock.Now()
	total := 0
	for _, id := range ids {
		r.locks.Lock(id)
		r.mu.RLock()
		s := r.states[id]
		r.mu.RUnlock()
		if n := s.evict(now); n > 0 {
			total += n
			r.save(ctx, id, s)
		}
		r.locks.Unlock(id)
	}
	return total
}
