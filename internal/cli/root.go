// Package cli defines the cobra command tree for the parley binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/parley/internal/config"
	"github.com/MikeSquared-Agency/parley/internal/processor"
	"github.com/MikeSquared-Agency/parley/internal/store"
)

var version = "dev" // set via ldflags at build time

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Manager vs member speaking-time ratio for 1-on-1s",
	Long: `Parley attributes diarized speech to the manager or the member of a
1-on-1, keeps a running speaking-time ledger and summarizes the split
with a short piece of advice when the session ends.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(patternCmd)
}

// setupLogging installs the JSON logger. serve logs to stdout; the offline
// commands log to stderr so their output stays clean.
func setupLogging(level string, w io.Writer) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// openStore connects to PostgreSQL when DATABASE_URL is set and falls back
// to the local SQLite file otherwise.
func openStore(ctx context.Context, cfg config.Config) (processor.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("database connected")
		return db, db.Close, nil
	}

	local, err := store.OpenLocal(cfg.LocalDBPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("using local database", "path", cfg.LocalDBPath)
	return local, func() { _ = local.Close() }, nil
}
