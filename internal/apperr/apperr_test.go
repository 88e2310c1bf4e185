package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"cooldown", OnCooldown(time.Second), KindOnCooldown},
		{"funds", InsufficientFunds(10, 5), KindInsufficientFunds},
		{"invalid", InvalidArgument("bad %s", "bet"), KindInvalidArgument},
		{"not found", NotFound("item"), KindNotFound},
		{"limit", LimitReached("daily limit", time.Time{}), KindLimitReached},
		{"protected", Protected(time.Now()), KindProtected},
		{"banned", ErrBanned, KindBanned},
		{"wrapped", fmt.Errorf("hunt: %w", NotFound("x")), KindNotFound},
		{"foreign", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorsIsBanned(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", ErrBanned)
	assert.True(t, errors.Is(err, ErrBanned))
	assert.False(t, errors.Is(NotFound("x"), ErrBanned))
}

func TestMap(t *testing.T) {
	assert.Nil(t, Map(nil))

	domain := InsufficientFunds(5, 1)
	assert.Same(t, domain, Map(domain))

	mapped := Map(context.DeadlineExceeded)
	assert.Equal(t, KindTransient, KindOf(mapped))
	assert.ErrorIs(t, mapped, context.DeadlineExceeded)

	cause := errors.New("connection reset")
	mapped = Map(cause)
	e, ok := As(mapped)
	require.True(t, ok)
	assert.Equal(t, KindTransient, e.Kind)
	assert.ErrorIs(t, mapped, cause)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "insufficient funds: need 1001, have 1000", InsufficientFunds(1001, 1000).Error())
	assert.Equal(t, "on cooldown for 7s", OnCooldown(6500*time.Millisecond).Error())
	assert.Equal(t, "invalid argument: cannot steal from yourself", InvalidArgument("cannot steal from yourself").Error())
}
