package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryContract(t *testing.T) {
	runContract(t, func(t *testing.T) Store { return NewMemory(testDefaults) })
}

func TestMemoryReturnsCopies(t *testing.T) {
	s := NewMemory(testDefaults)
	ctx := context.Background()

	u, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	u.Balance = 999999

	again, err := s.FindUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), again.Balance)
}

func TestMemoryUpdateHonorsCancelledContext(t *testing.T) {
	s := NewMemory(testDefaults)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Update(ctx, func(tx Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
