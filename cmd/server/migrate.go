package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/devnode/internal/config"
	"github.com/sakif/devnode/internal/repository/sqlstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s *sqlstore.Store) error { return s.Migrate() }, "migrations applied")
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations (drops every table)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s *sqlstore.Store) error { return s.MigrateDown() }, "migrations reverted")
	},
}

func withStore(cmd *cobra.Command, run func(*sqlstore.Store) error, done string) error {
	cfg, logger, err := loadConfig(config.Config.ValidateDatabase)
	if err != nil {
		return err
	}

	store, err := sqlstore.Open(cmd.Context(), cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := run(store); err != nil {
		return err
	}
	logger.Info(done, slog.String("driver", store.Driver()))
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
