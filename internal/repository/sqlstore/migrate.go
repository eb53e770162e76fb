package sqlstore

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies all pending up migrations.
func (s *Store) Migrate() error {
	return s.runMigrations(func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown reverts every applied migration.
func (s *Store) MigrateDown() error {
	return s.runMigrations(func(m *migrate.Migrate) error { return m.Down() })
}

func (s *Store) runMigrations(step func(*migrate.Migrate) error) error {
	m, release, err := s.migrator()
	if err != nil {
		return fmt.Errorf("sqlstore: init migrator failed: %w", err)
	}
	defer release()

	if err := step(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("sqlstore: migrating %s: %w", s.driver, err)
	}
	return nil
}

// migrator builds a migrate instance for the store's backend. The returned
// release func frees what the instance owns.
func (s *Store) migrator() (*migrate.Migrate, func(), error) {
	src, err := iofs.New(migrationsFS, "migrations/"+s.driver)
	if err != nil {
		return nil, nil, err
	}

	switch s.driver {
	case DriverPostgres:
		m, err := migrate.NewWithSourceInstance("iofs", src, s.dsn)
		if err != nil {
			_ = src.Close()
			return nil, nil, err
		}
		return m, func() { _, _ = m.Close() }, nil
	default:
		// The sqlite driver must reuse our pool: a second connection to
		// ":memory:" would migrate a different database. m.Close would close
		// that pool, so only the source is released.
		drv, err := sqlitemigrate.WithInstance(s.db.DB, &sqlitemigrate.Config{})
		if err != nil {
			_ = src.Close()
			return nil, nil, err
		}
		m, err := migrate.NewWithInstance("iofs", src, DriverSQLite, drv)
		if err != nil {
			_ = src.Close()
			return nil, nil, err
		}
		return m, func() { _ = src.Close() }, nil
	}
}
