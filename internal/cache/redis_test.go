package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/clock"
	"github.com/NotCool09/myowobot/internal/effects"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) (*EffectStore, *miniredis.Miniredis, *clock.Fake) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	clk := clock.NewFake(t0, time.UTC)
	s := NewEffectStore(Options{Addr: mr.Addr()}, clk)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Ping(context.Background()))
	return s, mr, clk
}

func TestLoadMissReturnsNil(t *testing.T) {
	s, _, _ := setupStore(t)
	st, err := s.Load(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, mr, _ := setupStore(t)
	ctx := context.Background()

	in := &effects.State{
		Active:    map[string]time.Time{catalog.EffectEnergyDrink: t0.Add(time.Hour)},
		Permanent: map[string]bool{},
		Daily:     map[string]int{"energy_drink": 2},
		LastReset: clock.Date{Year: 2024, Month: time.May, Day: 1},
	}
	require.NoError(t, s.Save(ctx, 42, in))

	out, err := s.Load(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.Active[catalog.EffectEnergyDrink].Equal(out.Active[catalog.EffectEnergyDrink]))
	assert.Equal(t, 2, out.Daily["energy_drink"])
	assert.Equal(t, in.LastReset, out.LastReset)

	assert.Equal(t, time.Hour+keepAfterExpiry, mr.TTL(KeyForEffects(42)))
}

func TestPermanentRecordsNeverExpire(t *testing.T) {
	s, mr, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, 7, &effects.State{Permanent: map[string]bool{"vip_badge": true}}))
	assert.Zero(t, mr.TTL(KeyForEffects(7)))
}

func TestRegistryRestartWithRedis(t *testing.T) {
	s, _, clk := setupStore(t)
	ctx := context.Background()
	shield, ok := catalog.Default().ShopItem("crime_shield")
	require.True(t, ok)

	first := effects.NewRegistry(clk, effects.WithPersister(s))
	first.ApplyPurchase(ctx, 9, shield)

	restarted := effects.NewRegistry(clk, effects.WithPersister(s))
	assert.True(t, restarted.IsActive(ctx, 9, catalog.EffectCrimeProtection))

	clk.Advance(shield.Duration())
	assert.False(t, restarted.IsActive(ctx, 9, catalog.EffectCrimeProtection))
}

func TestCorruptRecordIsAnError(t *testing.T) {
	s, mr, _ := setupStore(t)
	require.NoError(t, mr.Set(KeyForEffects(3), "{not json"))
	_, err := s.Load(context.Background(), 3)
	assert.Error(t, err)
}
