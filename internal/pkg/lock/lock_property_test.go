package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Concurrent read-modify-write under WithLock matches sequential execution.
func TestWithLockSerializesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(1000, 100000).Draw(t, "initial")
		deltas := rapid.SliceOfN(rapid.Int64Range(-500, 500), 2, 30).Draw(t, "deltas")
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")

		ul := NewUserLock()
		balance := initial
		want := initial
		for _, d := range deltas {
			want += d
		}

		var wg sync.WaitGroup
		for _, d := range deltas {
			wg.Add(1)
			go func(d int64) {
				defer wg.Done()
				_ = ul.WithLock(userID, func() error {
					balance += d
					return nil
				})
			}(d)
		}
		wg.Wait()

		if balance != want {
			t.Fatalf("balance %d, want %d", balance, want)
		}
	})
}

// Random transfers between a small set of users conserve the total and never
// deadlock, whatever the argument order.
func TestWithPairConservesTotalProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		users := rapid.IntRange(2, 6).Draw(t, "users")
		n := rapid.IntRange(5, 60).Draw(t, "transfers")

		ul := NewUserLock()
		balances := make([]int64, users)
		for i := range balances {
			balances[i] = 1000
		}

		type transfer struct{ from, to int }
		plan := make([]transfer, n)
		for i := range plan {
			plan[i] = transfer{
				from: rapid.IntRange(0, users-1).Draw(t, "from"),
				to:   rapid.IntRange(0, users-1).Draw(t, "to"),
			}
		}

		var wg sync.WaitGroup
		for _, tr := range plan {
			wg.Add(1)
			go func(tr transfer) {
				defer wg.Done()
				_ = ul.WithPair(int64(tr.from), int64(tr.to), func() error {
					if tr.from != tr.to && balances[tr.from] >= 10 {
						balances[tr.from] -= 10
						balances[tr.to] += 10
					}
					return nil
				})
			}(tr)
		}

		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("transfers deadlocked")
		}

		var total int64
		for _, b := range balances {
			if b < 0 {
				t.Fatalf("negative balance %d", b)
			}
			total += b
		}
		if total != int64(users)*1000 {
			t.Fatalf("total %d, want %d", total, users*1000)
		}
	})
}

// TryLock never admits two holders at once.
func TestTryLockExclusiveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")
		attempts := rapid.IntRange(5, 20).Draw(t, "attempts")

		ul := NewUserLock()
		var holders, maxHolders atomic.Int32
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if ul.TryLock(userID) {
					h := holders.Add(1)
					for {
						m := maxHolders.Load()
						if h <= m || maxHolders.CompareAndSwap(m, h) {
							break
						}
					}
					holders.Add(-1)
					ul.Unlock(userID)
				}
			}()
		}
		close(start)
		wg.Wait()

		if maxHolders.Load() != 1 {
			t.Fatalf("max concurrent holders %d", maxHolders.Load())
		}
		if ul.IsLocked(userID) {
			t.Fatal("lock still held after all goroutines finished")
		}
	})
}

func TestLockContextTimeout(t *testing.T) {
	ul := NewUserLock()
	ul.Lock(1)
	defer ul.Unlock(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := ul.WithLockContext(ctx, 1, func() error { return nil })
	assert.True(t, errors.Is(err, ErrLockTimeout))

	// Other users are unaffected.
	require.NoError(t, ul.WithLockContext(context.Background(), 2, func() error { return nil }))
}

func TestWithLockReturnsCallbackError(t *testing.T) {
	ul := NewUserLock()
	boom := errors.New("boom")
	assert.Equal(t, boom, ul.WithLock(3, func() error { return boom }))
	assert.False(t, ul.IsLocked(3))
}

func TestUnlockOfUnlockedPanics(t *testing.T) {
	ul := NewUserLock()
	assert.Panics(t, func() { ul.Unlock(9) })
}
