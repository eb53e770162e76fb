package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devnode/internal/config"
	"github.com/sakif/devnode/internal/repository/sqlstore"
)

func testConfig() config.Config {
	return config.Config{
		Port:        0,
		Database:    config.DatabaseConfig{Driver: sqlstore.DriverSQLite, Path: ":memory:"},
		AutoMigrate: true,
		JWTSecret:   "server-test-secret-0123456789",
		TokenTTL:    time.Hour,
		CORSOrigins: []string{"http://app.test"},
		FrontendURL: "http://app.test",
		NewsBaseURL: "http://127.0.0.1:1",
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(context.Background(), testConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.store.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) call(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

// signUp registers and logs in through the public API.
func signUp(t *testing.T, base, name string) (*client, int64) {
	t.Helper()
	c := &client{t: t, base: base}

	status, body := c.call(http.MethodPost, "/api/auth/register", map[string]string{
		"username": name, "email": name + "@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = c.call(http.MethodPost, "/api/auth/login", map[string]string{
		"email": name + "@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	var login struct {
		Token string `json:"token"`
		User  struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &login))
	c.token = login.Token
	return c, login.User.ID
}

func TestEndToEnd(t *testing.T) {
	_, ts := newTestServer(t)

	alice, aliceID := signUp(t, ts.URL, "alice")
	bob, bobID := signUp(t, ts.URL, "bob")

	status, body := alice.call(http.MethodPost, "/api/friends/request", map[string]any{"receiver_id": bobID})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = bob.call(http.MethodPut, "/api/friends/accept", map[string]any{"sender_id": aliceID})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.JSONEq(t, `{"message":"friend request accepted","accepted":true}`, string(body))

	status, _ = alice.call(http.MethodPost, "/api/messages", map[string]any{"receiver_id": bobID, "content": "hi"})
	require.Equal(t, http.StatusOK, status)
	status, _ = bob.call(http.MethodPost, "/api/messages", map[string]any{"receiver_id": aliceID, "content": "yo"})
	require.Equal(t, http.StatusOK, status)

	status, body = alice.call(http.MethodGet, fmt.Sprintf("/api/messages/%d", bobID), nil)
	require.Equal(t, http.StatusOK, status)
	var msgs []struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(body, &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "yo", msgs[1].Content)

	status, body = alice.call(http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, status)
	var notes []struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(body, &notes))
	require.Len(t, notes, 2)
	assert.Equal(t, "info", notes[0].Type)
	assert.Equal(t, "friend_accept", notes[1].Type)

	status, _ = alice.call(http.MethodDelete, "/api/user/terminate", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = bob.call(http.MethodGet, "/api/friends", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
	status, body = bob.call(http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "friend_request", "bob keeps his own notifications")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	_, ts := newTestServer(t)
	anon := &client{t: t, base: ts.URL}

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/user/me"},
		{http.MethodDelete, "/api/user/terminate"},
		{http.MethodGet, "/api/friends"},
		{http.MethodPost, "/api/friends/request"},
		{http.MethodPut, "/api/friends/accept"},
		{http.MethodDelete, "/api/friends/1"},
		{http.MethodGet, "/api/messages/1"},
		{http.MethodPost, "/api/messages"},
		{http.MethodGet, "/api/notifications"},
		{http.MethodPut, "/api/notifications/1/read"},
		{http.MethodPut, "/api/notifications/read-all"},
		{http.MethodGet, "/api/snippets"},
		{http.MethodGet, "/api/users/search"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			anon.t = t
			status, body := anon.call(rt.method, rt.path, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.JSONEq(t, `{"error":"unauthorized","message":"access denied"}`, string(body))
		})
	}

	anon.t = t
	anon.token = "garbage"
	status, body := anon.call(http.MethodGet, "/api/friends", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.JSONEq(t, `{"error":"forbidden","message":"invalid token"}`, string(body))
}

func TestHealthz(t *testing.T) {
	s, ts := newTestServer(t)
	c := &client{t: t, base: ts.URL}

	status, body := c.call(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","database":"sqlite"}`, string(body))

	require.NoError(t, s.store.Close())
	status, body = c.call(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), "unavailable")
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	signUp(t, ts.URL, "alice")

	c := &client{t: t, base: ts.URL}
	status, body := c.call(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `devnode_http_requests_total{method="POST",route="/api/auth/register",status="201"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/friends", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://app.test", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "short"
	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Port = freePort(t)
	s, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Port))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	var port int
	_, err := fmt.Sscanf(ts.Listener.Addr().String(), "127.0.0.1:%d", &port)
	require.NoError(t, err)
	return port
}
