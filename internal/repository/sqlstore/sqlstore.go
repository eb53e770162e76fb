// Package sqlstore implements the repository interfaces on top of
// database/sql, using sqlx for struct scanning and placeholder rebinding.
//
// TWO BACKENDS, ONE SET OF QUERIES:
// Every query is written with `?` placeholders. sqlx's Rebind turns them into
// `$1, $2, ...` when the store runs on PostgreSQL (lib/pq) and leaves them
// alone on SQLite (modernc.org/sqlite, pure Go, no CGo). Only the schema
// differs between the two, which is why migrations live in one directory per
// driver.
//
// THE QUERIER:
// Repositories never hold a *sqlx.DB directly. They hold an sqlx.ExtContext,
// which both *sqlx.DB and *sqlx.Tx satisfy. That is what lets Store.InTx hand
// the same repository code a transaction instead of the pool.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/devnode/internal/repository"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 25
)

func init() {
	// modernc registers itself under "sqlite", a name sqlx has no bind type for.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store is the sqlx-backed repository.Store.
type Store struct {
	db     *sqlx.DB
	q      sqlx.ExtContext
	driver string
	dsn    string
	inTx   bool
}

// compile-time check that *Store implements repository.Store
var _ repository.Store = (*Store)(nil)

// Open connects to the database and verifies the connection.
//
// For DriverSQLite, dsn is a file path or ":memory:"; missing parent
// directories are created. Pragmas are attached to
// the DSN so that every pooled connection gets them, not just the first one.
// For DriverPostgres, dsn is a postgres:// URL.
//
// Open does not run migrations; call Migrate.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("sqlstore: creating directory for %s: %w", dsn, err)
			}
		}
		db, err = sqlx.Open(DriverSQLite, sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("sqlstore: opening sqlite: %w", err)
		}
		// SQLite allows one writer at a time, and every connection to
		// ":memory:" would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		db, err = sqlx.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: opening postgres: %w", err)
		}
		db.SetConnMaxIdleTime(defaultConnMaxIdle)
		db.SetConnMaxLifetime(defaultConnMaxLife)
		db.SetMaxIdleConns(defaultMaxIdleConns)
		db.SetMaxOpenConns(defaultMaxOpenConns)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: pinging %s: %w", driver, err)
	}

	return &Store{db: db, q: db, driver: driver, dsn: dsn}, nil
}

// NewWithDB wraps an already open *sqlx.DB. Tests use it with go-sqlmock.
func NewWithDB(db *sqlx.DB, driver string) *Store {
	return &Store{db: db, q: db, driver: driver}
}

func sqliteDSN(path string) string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_time_format=sqlite",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return path + "?" + strings.Join(pragmas, "&")
}

// Driver reports which backend the store is connected to.
func (s *Store) Driver() string { return s.driver }

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Users() repository.UserRepository                 { return &userRepo{q: s.q} }
func (s *Store) Snippets() repository.SnippetRepository           { return &snippetRepo{q: s.q} }
func (s *Store) Friendships() repository.FriendshipRepository     { return &friendshipRepo{q: s.q} }
func (s *Store) Messages() repository.MessageRepository           { return &messageRepo{q: s.q} }
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepo{q: s.q} }

// InTx implements repository.Store.
//
// The transaction is released on every exit path: commit on success,
// rollback on error, rollback and re-panic on panic.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txStore := &Store{db: s.db, q: tx, driver: s.driver, dsn: s.dsn, inTx: true}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// either backend.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY failure.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

// rowsAffected unwraps an Exec result.
func rowsAffected(res interface{ RowsAffected() (int64, error) }) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	return n, nil
}
