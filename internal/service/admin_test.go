package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/model"
)

func TestOwnerCommandsRequireOwner(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, 1)
	user(t, e, 1)

	_, err := e.Ban(ctx, 2, 1)
	assertKind(t, apperr.KindInvalidArgument, err)
	_, err = e.AdminAdjust(ctx, 2, 1, 100)
	assertKind(t, apperr.KindInvalidArgument, err)
	_, err = e.GrantItem(ctx, 2, 1, "wolf", 1)
	assertKind(t, apperr.KindInvalidArgument, err)
	assert.False(t, user(t, e, 1).BotBanned)
}

func TestBanUnban(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, 1)
	user(t, e, 1)

	u, err := e.Ban(ctx, ownerID, 1)
	require.NoError(t, err)
	assert.True(t, u.BotBanned)
	assert.True(t, user(t, e, 1).BotBanned)

	_, err = e.Ban(ctx, ownerID, 404)
	assertKind(t, apperr.KindNotFound, err)
	_, err = e.Ban(ctx, ownerID, ownerID)
	assertKind(t, apperr.KindInvalidArgument, err)

	u, err = e.Unban(ctx, ownerID, 1)
	require.NoError(t, err)
	assert.False(t, u.BotBanned)
}

func TestSetCustomRank(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, 1)
	user(t, e, 1)

	u, err := e.SetCustomRank(ctx, ownerID, 1, "vip")
	require.NoError(t, err)
	assert.Equal(t, "VIP", u.CustomRank)

	p, err := e.Profile(ctx, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, p.CustomRank)
	assert.Equal(t, "VIP", p.CustomRank.Name)

	_, err = e.SetCustomRank(ctx, ownerID, 1, "emperor")
	assertKind(t, apperr.KindNotFound, err)

	u, err = e.SetCustomRank(ctx, ownerID, 1, "none")
	require.NoError(t, err)
	assert.Empty(t, u.CustomRank)
}

func TestAdminAdjustAndCooldownReset(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, 1)

	_, err := e.Daily(ctx, 1)
	require.NoError(t, err)

	u, err := e.AdminAdjust(ctx, ownerID, 1, -800)
	require.NoError(t, err)
	assert.Zero(t, u.Balance)
	_, err = e.AdminAdjust(ctx, ownerID, 1, -1)
	assertKind(t, apperr.KindInvalidArgument, err)

	_, err = e.ResetCooldown(ctx, ownerID, 1, model.ActionDaily)
	require.NoError(t, err)
	_, err = e.Daily(ctx, 1)
	require.NoError(t, err)

	inv, err := e.GrantItem(ctx, ownerID, 1, "dragon", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inv.Quantity("dragon"))
	inv, err = e.RevokeItem(ctx, ownerID, 1, "dragon", 2)
	require.NoError(t, err)
	assert.Zero(t, inv.Quantity("dragon"))
}
