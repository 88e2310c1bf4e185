package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCool09/myowobot/internal/model"
)

var testDefaults = Defaults{
	StartBalance: 100,
	StartRank:    "Newbie",
	Now:          func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
}

// runContract exercises the behavior every backend must share.
func runContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("GetUserCreatesDefaults", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.FindUser(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)

		u, err := s.GetUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, int64(100), u.Balance)
		assert.Equal(t, 1, u.Level)
		assert.Equal(t, "Newbie", u.LevelRank)

		found, err := s.FindUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, u.Balance, found.Balance)
	})

	t.Run("FailedUpdateLeavesNoTrace", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.GetUser(ctx, 1)
		require.NoError(t, err)

		boom := errors.New("boom")
		err = s.Update(ctx, func(tx Tx) error {
			u, err := tx.User(1)
			if err != nil {
				return err
			}
			u.Balance += 1000
			if err := tx.SaveUser(u); err != nil {
				return err
			}
			inv, err := tx.Inventory(1)
			if err != nil {
				return err
			}
			inv.Add("wolf", 3)
			if err := tx.SaveInventory(inv); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		u, err := s.FindUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(100), u.Balance)
		inv, err := s.GetInventory(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, inv.Items)
	})

	t.Run("RejectsInvalidRecords", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		err := s.Update(ctx, func(tx Tx) error {
			u, err := tx.User(1)
			if err != nil {
				return err
			}
			u.Balance = -1
			return tx.SaveUser(u)
		})
		assert.ErrorIs(t, err, ErrInvalidRecord)

		err = s.Update(ctx, func(tx Tx) error {
			return tx.SaveInventory(&model.Inventory{ID: 1, Items: map[string]int64{"wolf": 0}})
		})
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("InventoryRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			inv, err := tx.Inventory(5)
			if err != nil {
				return err
			}
			inv.Add("wolf", 2)
			inv.Add("salmon", 1)
			return tx.SaveInventory(inv)
		}))
		inv, err := s.GetInventory(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"wolf": 2, "salmon": 1}, inv.Items)

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			inv, err := tx.Inventory(5)
			if err != nil {
				return err
			}
			inv.Remove("wolf", 2)
			return tx.SaveInventory(inv)
		}))
		inv, err = s.GetInventory(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"salmon": 1}, inv.Items)
	})

	t.Run("MarriageLookups", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := testDefaults.Now()
		id := uuid.NewString()

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			return tx.SaveMarriage(&model.Marriage{ID: id, Proposer: 1, Proposee: 2, ProposedAt: now})
		}))

		err := s.Update(ctx, func(tx Tx) error {
			return tx.SaveMarriage(&model.Marriage{ID: uuid.NewString(), Proposer: 1, Proposee: 2, ProposedAt: now})
		})
		assert.ErrorIs(t, err, ErrConflict)

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			p, err := tx.Proposal(1, 2)
			if err != nil {
				return err
			}
			_, err = tx.Proposal(2, 1)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = tx.ActiveMarriage(1)
			assert.ErrorIs(t, err, ErrNotFound)

			p.Accepted = true
			p.MarriedAt = &now
			return tx.SaveMarriage(p)
		}))

		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			m, err := tx.ActiveMarriage(2)
			if err != nil {
				return err
			}
			assert.Equal(t, id, m.ID)
			return nil
		}))

		require.NoError(t, s.Update(ctx, func(tx Tx) error { return tx.DeleteMarriage(id) }))
		all, err := s.ListMarriages(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("TopUsersOrdering", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		balances := map[int64]int64{1: 500, 2: 9000, 3: 40}
		require.NoError(t, s.Update(ctx, func(tx Tx) error {
			for id, b := range balances {
				u, err := tx.User(id)
				if err != nil {
					return err
				}
				u.Balance = b
				u.XP = 1000 - b/10
				if err := tx.SaveUser(u); err != nil {
					return err
				}
			}
			return nil
		}))

		top, err := s.TopUsers(ctx, TopBalance, 2)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, int64(2), top[0].ID)
		assert.Equal(t, int64(1), top[1].ID)

		top, err = s.TopUsers(ctx, TopXP, 10)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, int64(3), top[0].ID)
	})

	t.Run("ConcurrentUpdatesDoNotLoseWrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.GetUser(ctx, 9)
		require.NoError(t, err)

		const n = 25
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Update(ctx, func(tx Tx) error {
					u, err := tx.User(9)
					if err != nil {
						return err
					}
					u.Balance += 10
					return tx.SaveUser(u)
				}))
			}()
		}
		wg.Wait()

		u, err := s.FindUser(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, int64(100+10*n), u.Balance)
	})
}
