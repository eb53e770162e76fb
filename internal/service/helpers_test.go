package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/devnode/internal/auth"
	"github.com/sakif/devnode/internal/metrics"
	"github.com/sakif/devnode/internal/model"
	"github.com/sakif/devnode/internal/repository"
	"github.com/sakif/devnode/internal/repository/sqlstore"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================
//
// Services are exercised against a real, migrated in-memory SQLite store.
// The queries are the interesting part of most of these operations, and a
// hand-rolled fake would only test itself. Fakes are reserved for failures
// SQLite cannot be made to produce on demand (see faultyStore).

type testEnv struct {
	store     *sqlstore.Store
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())

	tokens, err := auth.NewTokenService("service-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	return &testEnv{
		store:     store,
		passwords: auth.NewPasswordServiceForTest(),
		tokens:    tokens,
		metrics:   metrics.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *testEnv) auth() *AuthService {
	return NewAuthService(e.store, e.tokens, e.passwords, e.logger)
}

func (e *testEnv) accounts() *AccountService {
	return NewAccountService(e.store, e.passwords, e.metrics, e.logger)
}

func (e *testEnv) social() *SocialService {
	return NewSocialService(e.store, e.metrics, e.logger)
}

func (e *testEnv) messages() *MessageService {
	return NewMessageService(e.store, e.metrics, e.logger)
}

func (e *testEnv) notifications() *NotificationService {
	return NewNotificationService(e.store, e.logger)
}

func (e *testEnv) snippets() *SnippetService {
	return NewSnippetService(e.store, e.logger)
}

// register creates a password account and returns its identity.
func (e *testEnv) register(t *testing.T, username string) auth.Identity {
	t.Helper()
	u, err := e.auth().Register(context.Background(), username, username+"@example.com", "password123")
	require.NoError(t, err, "register %s", username)
	return auth.Identity{ID: u.ID, Username: u.Username}
}

// =========================================================================
// FAULT INJECTION
// =========================================================================

var errInjected = errors.New("injected failure")

// faultyStore delegates to a real Store but makes Snippets().DeleteByUser
// fail, including on the transactional Store handed to InTx callbacks.
type faultyStore struct {
	repository.Store
}

func (f faultyStore) Snippets() repository.SnippetRepository {
	return faultySnippets{f.Store.Snippets()}
}

func (f faultyStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return f.Store.InTx(ctx, func(tx repository.Store) error {
		return fn(faultyStore{tx})
	})
}

type faultySnippets struct {
	repository.SnippetRepository
}

func (faultySnippets) DeleteByUser(context.Context, int64) (int64, error) {
	return 0, errInjected
}

// failingNotifications makes every notification insert fail.
type failingNotifications struct {
	repository.NotificationRepository
}

func (failingNotifications) Create(context.Context, *model.Notification) error {
	return errInjected
}

type noNotifyStore struct {
	repository.Store
}

func (s noNotifyStore) Notifications() repository.NotificationRepository {
	return failingNotifications{s.Store.Notifications()}
}

func (s noNotifyStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.InTx(ctx, func(tx repository.Store) error {
		return fn(noNotifyStore{tx})
	})
}

// gatherNames returns the metric families currently exposed by env.
func gatherNames(t *testing.T, e *testEnv) []string {
	t.Helper()
	families, err := e.metrics.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names
}
