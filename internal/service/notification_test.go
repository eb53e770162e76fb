package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications_LatestTenNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	for i := 0; i < 12; i++ {
		_, err := env.messages().Send(ctx, bob, alice.ID, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	list, err := env.notifications().List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, RecentNotifications)
	for i := 1; i < len(list); i++ {
		assert.Greater(t, list[i-1].ID, list[i].ID)
	}
}

func TestMarkRead_OnlyOwnNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	svc := env.notifications()

	_, err := env.messages().Send(ctx, alice, bob.ID, "hi")
	require.NoError(t, err)
	bobs, err := svc.List(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobs, 1)

	// alice tries to mark bob's notification: no error, no effect.
	require.NoError(t, svc.MarkRead(ctx, alice.ID, bobs[0].ID))
	again, err := svc.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, again[0].IsRead)

	require.NoError(t, svc.MarkRead(ctx, bob.ID, bobs[0].ID))
	require.NoError(t, svc.MarkRead(ctx, bob.ID, bobs[0].ID), "idempotent")
	again, err = svc.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, again[0].IsRead)
}

func TestMarkAllRead_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	svc := env.notifications()

	for i := 0; i < 3; i++ {
		_, err := env.messages().Send(ctx, alice, bob.ID, "ping")
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllRead(ctx, bob.ID))
	require.NoError(t, svc.MarkAllRead(ctx, bob.ID))

	list, err := svc.List(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, n := range list {
		assert.True(t, n.IsRead)
	}
}
