package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/aggregate"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
)

var flagUser string

// app is what every subcommand needs: the opened backend and engine options.
type app struct {
	cfg    *config.Config
	opts   aggregate.Options
	store  *backend.BackendResult
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fintrack-cli",
		Short:        "Inspect and move fintrack data from the terminal",
		Long:         "Reads the same storage backend as the fintrack server, configured through the same environment.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User id whose data is read (required)")
	_ = root.MarkPersistentFlagRequired("user")

	root.AddCommand(newSummaryCmd(), newBudgetsCmd(), newImportCmd(), newExportCmd())
	return root
}

// openApp loads configuration and opens the storage backend. Logs go to
// stderr so exported data on stdout stays clean.
func openApp(ctx context.Context) (*app, error) {
	cli.LoadEnvFile()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := config.LoadWithFile()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	opts, err := cli.AggregateOptions(cfg)
	if err != nil {
		return nil, err
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	store, err := cli.OpenRepository(openCtx, logger, cfg)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, opts: opts, store: store, logger: logger}, nil
}

func (a *app) Close() {
	if err := a.store.Cleanup(); err != nil {
		a.logger.Warn("Failed to close storage", "error", err)
	}
}

// withApp opens the app for the duration of run.
func withApp(run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if flagUser == "" {
			return errors.New("--user is required")
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd.Context(), a, args)
	}
}
