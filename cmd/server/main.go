// Command server runs the devnode API.
//
//	server serve          start the HTTP API
//	server migrate up     apply pending migrations
//	server migrate down   revert every migration
//
// Configuration comes from the environment and an optional .env file; see
// internal/config.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/devnode/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "devnode social coding API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads configuration, installs the process logger at the
// configured level, then runs validate.
func loadConfig(validate func(config.Config) error) (config.Config, *slog.Logger, error) {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := validate(cfg); err != nil {
		return cfg, logger, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger, nil
}
