// Package lock provides per-user locks for state kept outside the store:
// the effects registry, blackjack tables and quiz sessions.
package lock

import (
	"context"
	"sync"
)

// UserLock hands out one mutex per user id. Mutexes are created lazily and
// live for the life of the process.
type UserLock struct {
	locks sync.Map // map[int64]chan struct{}
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{}
}

// slot returns the one-token semaphore guarding userID.
func (ul *UserLock) slot(userID int64) chan struct{} {
	if v, ok := ul.locks.Load(userID); ok {
		return v.(chan struct{})
	}
	actual, _ := ul.locks.LoadOrStore(userID, make(chan struct{}, 1))
	return actual.(chan struct{})
}

// Lock acquires the lock for a user.
func (ul *UserLock) Lock(userID int64) {
	ul.slot(userID) <- struct{}{}
}

// Unlock releases the lock for a user.
func (ul *UserLock) Unlock(userID int64) {
	select {
	case <-ul.slot(userID):
	default:
		panic("lock: unlock of unlocked user")
	}
}

// TryLock attempts to acquire the lock without blocking.
func (ul *UserLock) TryLock(userID int64) bool {
	select {
	case ul.slot(userID) <- struct{}{}:
		return true
	default:
		return false
	}
}

// LockContext blocks until the lock is held or ctx is done.
func (ul *UserLock) LockContext(ctx context.Context, userID int64) error {
	select {
	case ul.slot(userID) <- struct{}{}:
		return nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return ErrLockTimeout
		}
		return ctx.Err()
	}
}

// WithLock executes fn while holding the user's lock.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}

// WithLockContext is WithLock with cancellation while waiting.
func (ul *UserLock) WithLockContext(ctx context.Context, userID int64, fn func() error) error {
	if err := ul.LockContext(ctx, userID); err != nil {
		return err
	}
	defer ul.Unlock(userID)
	return fn()
}

// WithPair executes fn while holding the locks of both users. Locks are
// always taken in ascending id order so two pairs never deadlock.
func (ul *UserLock) WithPair(a, b int64, fn func() error) error {
	if a == b {
		return ul.WithLock(a, fn)
	}
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	ul.Lock(lo)
	defer ul.Unlock(lo)
	ul.Lock(hi)
	defer ul.Unlock(hi)
	return fn()
}

// IsLocked reports whether the user's lock is currently held.
// The answer may be stale by the time the caller looks at it.
func (ul *UserLock) IsLocked(userID int64) bool {
	v, ok := ul.locks.Load(userID)
	if !ok {
		return false
	}
	return len(v.(chan struct{})) == 1
}
