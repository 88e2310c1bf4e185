package effects

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

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/clock"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func shopItem(t *testing.T, name string) catalog.ShopItem {
	t.Helper()
	it, ok := catalog.Default().ShopItem(name)
	require.True(t, ok, name)
	return it
}

func TestEnergyDrinkExpires(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(t0, time.UTC)
	r := NewRegistry(clk)
	drink := shopItem(t, "energy_drink")

	require.NoError(t, r.CanPurchase(ctx, 1, drink))
	exp := r.ApplyPurchase(ctx, 1, drink)
	assert.Equal(t, t0.Add(time.Hour), exp)
	assert.True(t, r.IsActive(ctx, 1, catalog.EffectEnergyDrink))
	assert.False(t, r.IsActive(ctx, 2, catalog.EffectEnergyDrink))

	clk.Advance(time.Hour - time.Second)
	assert.True(t, r.IsActive(ctx, 1, catalog.EffectEnergyDrink))

	clk.Advance(time.Second)
	assert.False(t, r.IsActive(ctx, 1, catalog.EffectEnergyDrink))
	_, ok := r.Expiry(ctx, 1, catalog.EffectEnergyDrink)
	assert.False(t, ok)
}

func TestDailyLimitResetsOnDateChange(t *testing.T) {
	ctx := context.Background()
	// 23:59 so that two minutes later the calendar date changes.
	clk := clock.NewFake(time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC), time.UTC)
	r := NewRegistry(clk)
	booster := shopItem(t, "daily_booster")

	r.ApplyPurchase(ctx, 1, booster)
	err := r.CanPurchase(ctx, 1, booster)
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindLimitReached, e.Kind)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), e.Reset)

	clk.Advance(2 * time.Minute)
	assert.NoError(t, r.CanPurchase(ctx, 1, booster))
	assert.Equal(t, 0, r.Purchases(ctx, 1, booster.Name))
}

func TestPermanentItemOwnedOnce(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(t0, time.UTC)
	r := NewRegistry(clk)
	frame := shopItem(t, "gold_frame")

	exp := r.ApplyPurchase(ctx, 1, frame)
	assert.True(t, exp.IsZero())
	assert.True(t, r.IsActive(ctx, 1, frame.Effect))

	clk.Advance(72 * time.Hour)
	assert.True(t, r.IsActive(ctx, 1, frame.Effect))
	assert.Equal(t, apperr.KindLimitReached, apperr.KindOf(r.CanPurchase(ctx, 1, frame)))
}

func TestPurchaseChargeFailureAppliesNothing(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(clock.NewFake(t0, time.UTC))
	drink := shopItem(t, "energy_drink")

	boom := errors.New("no money")
	_, err := r.Purchase(ctx, 1, drink, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, r.IsActive(ctx, 1, drink.Effect))
	assert.Equal(t, 0, r.Purchases(ctx, 1, drink.Name))
}

func TestConcurrentPurchasesRespectLimit(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(clock.NewFake(t0, time.UTC))
	drink := shopItem(t, "energy_drink")

	var charged atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Purchase(ctx, 7, drink, func() error {
				charged.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(drink.DailyLimit), charged.Load())
}

func TestSnapshotAndSweep(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(t0, time.UTC)
	r := NewRegistry(clk)

	r.ApplyPurchase(ctx, 1, shopItem(t, "work_booster"))
	r.ApplyPurchase(ctx, 1, shopItem(t, "energy_drink"))
	r.ApplyPurchase(ctx, 1, shopItem(t, "vip_pass"))
	r.ApplyPurchase(ctx, 2, shopItem(t, "hunting_horn"))

	snap := r.Snapshot(ctx, 1)
	require.Len(t, snap, 3)
	assert.Equal(t, catalog.EffectEnergyDrink, snap[0].Effect)
	assert.Equal(t, catalog.EffectWorkMultiplier, snap[1].Effect)
	assert.Equal(t, "vip_badge", snap[2].Effect)
	assert.True(t, snap[2].ExpiresAt.IsZero())

	clk.Advance(90 * time.Minute)
	assert.Equal(t, 2, r.Sweep(ctx))
	assert.Len(t, r.Snapshot(ctx, 1), 2)
}

// Every active expiry is strictly after the purchase instant.
func TestExpiryAfterAcquisitionProperty(t *testing.T) {
	items := catalog.Default().Shop
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		clk := clock.NewFake(t0, time.UTC)
		r := NewRegistry(clk)
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			clk.Advance(time.Duration(rapid.IntRange(0, 7200).Draw(t, "advance")) * time.Second)
			it := items[rapid.IntRange(0, len(items)-1).Draw(t, "item")]
			bought := clk.Now()
			exp, err := r.Purchase(ctx, 1, it, func() error { return nil })
			if err != nil {
				continue
			}
			if it.Permanent() {
				if !exp.IsZero() {
					t.Fatalf("permanent item %s got expiry %v", it.Name, exp)
				}
				continue
			}
			if !exp.After(bought) {
				t.Fatalf("expiry %v not after purchase %v", exp, bought)
			}
			if !r.IsActive(ctx, 1, it.Effect) {
				t.Fatalf("%s not active right after purchase", it.Effect)
			}
		}
	})
}

type memPersister struct {
	mu    sync.Mutex
	saved map[int64]*State
}

func (m *memPersister) Load(_ context.Context, id int64) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[id], nil
}

func (m *memPersister) Save(_ context.Context, id int64, s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.saved[id] = &cp
	return nil
}

func TestPersisterHydratesAfterRestart(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(t0, time.UTC)
	p := &memPersister{saved: map[int64]*State{}}

	first := NewRegistry(clk, WithPersister(p))
	first.ApplyPurchase(ctx, 1, shopItem(t, "crime_shield"))

	second := NewRegistry(clk, WithPersister(p))
	assert.True(t, second.IsActive(ctx, 1, catalog.EffectCrimeProtection))

	volatile := NewRegistry(clk)
	assert.False(t, volatile.IsActive(ctx, 1, catalog.EffectCrimeProtection))
}
