// Package cache persists effect state to Redis so timed shop effects survive restarts.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NotCool09/myowobot/internal/clock"
	"github.com/NotCool09/myowobot/internal/effects"
)

// keepAfterExpiry is how long a record outlives its last timed effect, so
// that the daily purchase counters are still there for the rest of the day.
const keepAfterExpiry = 48 * time.Hour

// Options configures the Redis connection. Only Addr is mandatory.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// EffectStore implements effects.Persister on top of Redis.
type EffectStore struct {
	Client *redis.Client
	clock  clock.Clock
}

var _ effects.Persister = (*EffectStore)(nil)

// NewEffectStore creates a Redis-backed effect store.
func NewEffectStore(opts Options, clk clock.Clock) *EffectStore {
	o := &redis.Options{Addr: opts.Addr}
	if opts.Password != "" {
		o.Password = opts.Password
	}
	if opts.DB != 0 {
		o.DB = opts.DB
	}
	return &EffectStore{Client: redis.NewClient(o), clock: clk}
}

// Ping checks connectivity.
func (s *EffectStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// Close closes the client.
func (s *EffectStore) Close() error {
	return s.Client.Close()
}

// KeyForEffects generates the Redis key of a user's effect record.
func KeyForEffects(userID int64) string {
	return fmt.Sprintf("effects:user:%d", userID)
}

// Load returns the stored state, or nil on a cache miss.
func (s *EffectStore) Load(ctx context.Context, userID int64) (*effects.State, error) {
	raw, err := s.Client.Get(ctx, KeyForEffects(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("load effects: %w", err)
	}
	var st effects.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode effects: %w", err)
	}
	return &st, nil
}

// Save writes the state. Records holding permanent items never expire;
// others expire a while after their last timed effect.
func (s *EffectStore) Save(ctx context.Context, userID int64, st *effects.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode effects: %w", err)
	}
	if err := s.Client.Set(ctx, KeyForEffects(userID), raw, s.ttl(st)).Err(); err != nil {
		return fmt.Errorf("save effects: %w", err)
	}
	return nil
}

func (s *EffectStore) ttl(st *effects.State) time.Duration {
	if len(st.Permanent) > 0 {
		return 0
	}
	now := s.clock.Now()
	last := now
	for _, exp := range st.Active {
		if exp.After(last) {
			last = exp
		}
	}
	return last.Sub(now) + keepAfterExpiry
}
