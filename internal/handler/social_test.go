package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devnode/internal/model"
)

type friendRequestResponse struct {
	Message    string           `json:"message"`
	Friendship model.Friendship `json:"friendship"`
}

type acceptResponse struct {
	Message  string `json:"message"`
	Accepted bool   `json:"accepted"`
}

func TestSendRequest(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	alice := api.loginAs(t, "alice")
	bob := api.loginAs(t, "bob")

	rec := api.do(t, http.MethodPost, "/friends/request", alice.Token, map[string]any{"receiver_id": bob.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[friendRequestResponse](t, rec)
	assert.Equal(t, "friend request sent", resp.Message)
	assert.Equal(t, alice.ID, resp.Friendship.SenderID)
	assert.Equal(t, bob.ID, resp.Friendship.ReceiverID)
	assert.Equal(t, model.FriendshipPending, resp.Friendship.Status)

	tests := []struct {
		name       string
		token      string
		body       any
		wantStatus int
		wantKind   string
		wantMsg    string
	}{
		{
			name:       "same direction again",
			token:      alice.Token,
			body:       map[string]any{"receiver_id": bob.ID},
			wantStatus: http.StatusBadRequest,
			wantKind:   "conflict",
			wantMsg:    "request already exists",
		},
		{
			name:       "reverse direction",
			token:      bob.Token,
			body:       map[string]any{"receiver_id": alice.ID},
			wantStatus: http.StatusBadRequest,
			wantKind:   "conflict",
		},
		{
			name:       "to self",
			token:      alice.Token,
			body:       map[string]any{"receiver_id": alice.ID},
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation_error",
		},
		{
			name:       "unknown receiver",
			token:      alice.Token,
			body:       map[string]any{"receiver_id": 9999},
			wantStatus: http.StatusNotFound,
			wantKind:   "not_found",
		},
		{
			name:       "missing receiver",
			token:      alice.Token,
			body:       map[string]any{},
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation_error",
		},
		{
			name:       "malformed body",
			token:      alice.Token,
			body:       `{"receiver_id":`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation_error",
			wantMsg:    "invalid JSON body",
		},
		{
			name:       "no token",
			body:       map[string]any{"receiver_id": bob.ID},
			wantStatus: http.StatusUnauthorized,
			wantKind:   "unauthorized",
			wantMsg:    "access denied",
		},
		{
			name:       "bad token",
			token:      "not-a-jwt",
			body:       map[string]any{"receiver_id": bob.ID},
			wantStatus: http.StatusForbidden,
			wantKind:   "forbidden",
			wantMsg:    "invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/friends/request", tt.token, tt.body)
			body := requireError(t, rec, tt.wantStatus, tt.wantKind)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Message)
			}
		})
	}
}

func TestFriendshipLifecycle(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	alice := api.loginAs(t, "alice")
	bob := api.loginAs(t, "bob")

	rec := api.do(t, http.MethodPost, "/friends/request", alice.Token, map[string]any{"receiver_id": bob.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	// Alice cannot accept her own outgoing request: a no-op, not an error.
	rec = api.do(t, http.MethodPut, "/friends/accept", alice.Token, map[string]any{"sender_id": bob.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[acceptResponse](t, rec).Accepted)

	// Pending: incoming for bob, outgoing for alice.
	grouped := decode[model.Network](t, api.do(t, http.MethodGet, "/friends?view=grouped", bob.Token, nil))
	require.Len(t, grouped.Incoming, 1)
	assert.Equal(t, alice.ID, grouped.Incoming[0].ID)
	assert.Empty(t, grouped.Friends)

	rec = api.do(t, http.MethodPut, "/friends/accept", bob.Token, map[string]any{"sender_id": alice.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	acc := decode[acceptResponse](t, rec)
	assert.True(t, acc.Accepted)
	assert.Equal(t, "friend request accepted", acc.Message)

	for _, u := range []user{alice, bob} {
		rows := decode[[]model.Connection](t, api.do(t, http.MethodGet, "/friends", u.Token, nil))
		require.Len(t, rows, 1, u.Name)
		assert.Equal(t, model.FriendshipAccepted, rows[0].Status)
		assert.Equal(t, model.ConnectionAccepted, rows[0].Kind)
		assert.Equal(t, alice.ID, rows[0].SenderID)
		assert.Equal(t, bob.ID, rows[0].ReceiverID)
	}

	rec = api.do(t, http.MethodPost, "/friends/request", bob.Token, map[string]any{"receiver_id": alice.ID})
	body := requireError(t, rec, http.StatusBadRequest, "conflict")
	assert.Equal(t, "you are already connected", body.Message)

	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/friends/%d", alice.ID), bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rows := decode[[]model.Connection](t, api.do(t, http.MethodGet, "/friends", alice.Token, nil))
	assert.Empty(t, rows)

	// Removing again finds nothing.
	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/friends/%d", alice.ID), bob.Token, nil)
	requireError(t, rec, http.StatusNotFound, "not_found")

	// State is fully reset: a fresh request goes through.
	rec = api.do(t, http.MethodPost, "/friends/request", bob.Token, map[string]any{"receiver_id": alice.ID})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListFriends_EmptyIsArray(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	alice := api.loginAs(t, "alice")

	rec := api.do(t, http.MethodGet, "/friends", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/friends?view=grouped", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"friends":[],"incoming":[],"outgoing":[]}`, rec.Body.String())
}

func TestRemove_BadPathID(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	alice := api.loginAs(t, "alice")

	for _, id := range []string{"abc", "0", "-3"} {
		rec := api.do(t, http.MethodDelete, "/friends/"+id, alice.Token, nil)
		requireError(t, rec, http.StatusBadRequest, "validation_error")
	}
}
