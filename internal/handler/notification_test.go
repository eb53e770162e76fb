package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devnode/internal/model"
)

func TestNotifications(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	alice := api.loginAs(t, "alice")
	bob := api.loginAs(t, "bob")
	carol := api.loginAs(t, "carol")

	require.Equal(t, http.StatusOK,
		api.do(t, http.MethodPost, "/friends/request", alice.Token, map[string]any{"receiver_id": bob.ID}).Code)
	require.Equal(t, http.StatusOK,
		api.do(t, http.MethodPost, "/messages", carol.Token, map[string]any{"receiver_id": bob.ID, "content": "ping"}).Code)

	list := decode[[]model.Notification](t, api.do(t, http.MethodGet, "/notifications", bob.Token, nil))
	require.Len(t, list, 2)
	assert.Equal(t, model.NotificationInfo, list[0].Type, "newest first")
	assert.Equal(t, "New message from carol", list[0].Message)
	assert.Equal(t, model.NotificationFriendRequest, list[1].Type)
	assert.Equal(t, "alice sent you a friend request", list[1].Message)

	// Carol tries to mark bob's notification: 200, but nothing changes.
	rec := api.do(t, http.MethodPut, fmt.Sprintf("/notifications/%d/read", list[0].ID), carol.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decode[[]model.Notification](t, api.do(t, http.MethodGet, "/notifications", bob.Token, nil))
	assert.False(t, list[0].IsRead)

	rec = api.do(t, http.MethodPut, fmt.Sprintf("/notifications/%d/read", list[0].ID), bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decode[[]model.Notification](t, api.do(t, http.MethodGet, "/notifications", bob.Token, nil))
	assert.True(t, list[0].IsRead)
	assert.False(t, list[1].IsRead)

	for i := 0; i < 2; i++ {
		rec = api.do(t, http.MethodPut, "/notifications/read-all", bob.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"all notifications marked as read"}`, rec.Body.String())
	}
	list = decode[[]model.Notification](t, api.do(t, http.MethodGet, "/notifications", bob.Token, nil))
	for _, n := range list {
		assert.True(t, n.IsRead)
	}
}

func TestNotifications_LatestTen(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	alice := api.loginAs(t, "alice")
	bob := api.loginAs(t, "bob")

	for i := 0; i < 12; i++ {
		rec := api.do(t, http.MethodPost, "/messages", alice.Token,
			map[string]any{"receiver_id": bob.ID, "content": fmt.Sprintf("m%d", i)})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	list := decode[[]model.Notification](t, api.do(t, http.MethodGet, "/notifications", bob.Token, nil))
	assert.Len(t, list, 10)
}

func TestMarkRead_BadID(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	alice := api.loginAs(t, "alice")

	rec := api.do(t, http.MethodPut, "/notifications/nope/read", alice.Token, nil)
	requireError(t, rec, http.StatusBadRequest, "validation_error")
}
