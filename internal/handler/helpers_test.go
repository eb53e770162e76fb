package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devnode/internal/auth"
	"github.com/sakif/devnode/internal/handler"
	"github.com/sakif/devnode/internal/metrics"
	"github.com/sakif/devnode/internal/news"
	"github.com/sakif/devnode/internal/repository/sqlstore"
	"github.com/sakif/devnode/internal/service"
)

// testAPI is a router over real services and a migrated in-memory store.
// Protected routes go through auth.RequireAuth exactly as in production, so
// tests authenticate with tokens minted by loginAs.
type testAPI struct {
	router http.Handler
	store  *sqlstore.Store
	tokens *auth.TokenService
	auth   *service.AuthService
}

type apiOptions struct {
	github      *auth.GitHubProvider
	newsBaseURL string
}

func newTestAPI(t *testing.T, opts apiOptions) *testAPI {
	t.Helper()

	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passwords := auth.NewPasswordServiceForTest()
	m := metrics.New()

	authSvc := service.NewAuthService(store, tokens, passwords, logger)

	newsURL := opts.newsBaseURL
	if newsURL == "" {
		newsURL = "http://127.0.0.1:1" // nothing listens here
	}
	newsClient := news.NewClient(newsURL, news.WithRateLimit(1000, 1000))

	authH := handler.NewAuthHandler(authSvc, opts.github, "http://app.test", logger)
	accountH := handler.NewAccountHandler(service.NewAccountService(store, passwords, m, logger), logger)
	snippetH := handler.NewSnippetHandler(service.NewSnippetService(store, logger), logger)
	socialH := handler.NewSocialHandler(service.NewSocialService(store, m, logger), logger)
	messageH := handler.NewMessageHandler(service.NewMessageService(store, m, logger), logger)
	notificationH := handler.NewNotificationHandler(service.NewNotificationService(store, logger), logger)
	newsH := handler.NewNewsHandler(service.NewNewsService(newsClient, m, logger), logger)

	r := chi.NewRouter()
	r.Post("/auth/register", authH.HandleRegister)
	r.Post("/auth/login", authH.HandleLogin)
	r.Get("/auth/github/login", authH.HandleGitHubLogin)
	r.Get("/auth/github/callback", authH.HandleGitHubCallback)
	r.Get("/news", newsH.HandleFeed)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/user/me", accountH.HandleMe)
		r.Put("/user/update", accountH.HandleUpdate)
		r.Put("/user/change-password", accountH.HandleChangePassword)
		r.Delete("/user/terminate", accountH.HandleTerminate)
		r.Get("/users/search", accountH.HandleSearch)
		r.Get("/users/{id}", accountH.HandleProfile)
		r.Get("/snippets", snippetH.HandleList)
		r.Post("/snippets", snippetH.HandleCreate)
		r.Delete("/snippets/{id}", snippetH.HandleDelete)
		r.Post("/friends/request", socialH.HandleSendRequest)
		r.Put("/friends/accept", socialH.HandleAccept)
		r.Get("/friends", socialH.HandleList)
		r.Delete("/friends/{otherId}", socialH.HandleRemove)
		r.Get("/messages/{otherId}", messageH.HandleConversation)
		r.Post("/messages", messageH.HandleSend)
		r.Get("/notifications", notificationH.HandleList)
		r.Put("/notifications/read-all", notificationH.HandleMarkAllRead)
		r.Put("/notifications/{id}/read", notificationH.HandleMarkRead)
	})

	return &testAPI{router: r, store: store, tokens: tokens, auth: authSvc}
}

// user is a registered account plus a valid bearer token for it.
type user struct {
	ID    int64
	Name  string
	Token string
}

func (a *testAPI) loginAs(t *testing.T, name string) user {
	t.Helper()
	u, err := a.auth.Register(context.Background(), name, name+"@example.com", "password123")
	require.NoError(t, err)
	tok, err := a.tokens.Generate(auth.Identity{ID: u.ID, Username: u.Username})
	require.NoError(t, err)
	return user{ID: u.ID, Name: u.Username, Token: tok}
}

// do sends a request. body may be nil, a string (sent verbatim) or any
// value to JSON-encode. token may be empty.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind string) errorBody {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	body := decode[errorBody](t, rec)
	require.Equal(t, kind, body.Error)
	return body
}
