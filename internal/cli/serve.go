package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/parley/internal/api"
	"github.com/MikeSquared-Agency/parley/internal/config"
	"github.com/MikeSquared-Agency/parley/internal/hermes"
	"github.com/MikeSquared-Agency/parley/internal/processor"
	"github.com/MikeSquared-Agency/parley/internal/resolver"
	"github.com/MikeSquared-Agency/parley/internal/slack"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the speaking-time service",
	Long: `Subscribe to diarized speech events on NATS, expose the session and
registration API over HTTP and publish live splits and summaries.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	setupLogging(cfg.LogLevel, os.Stdout)

	slog.Info("parley starting", "port", cfg.Port)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeDB()

	// Scoring weights, hot-reloaded when a file is configured
	weights, err := resolver.NewWeightsSource(cfg.WeightsFile, slog.Default())
	if err != nil {
		return fmt.Errorf("load weights: %w", err)
	}
	go func() {
		if err := weights.WatchAndReload(ctx.Done()); err != nil {
			slog.Warn("weights watcher stopped", "error", err)
		}
	}()

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Slack poster (optional)
	var poster processor.SummaryPoster
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		poster = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, summaries will not be posted")
	}

	proc := processor.New(db, hermesClient, poster, weights, processor.Options{
		SampleCap:          cfg.TextSampleCap,
		RegistrationWindow: cfg.RegistrationWindow,
		TickInterval:       cfg.TickInterval,
	}, slog.Default())

	if err := hermesClient.Subscribe(hermes.SubjectUtterance, proc.HandleUtterance); err != nil {
		return fmt.Errorf("subscribe to speech events: %w", err)
	}
	go proc.Run(ctx)

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, proc, slog.Default())
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	slog.Info("parley ready", "port", cfg.Port)

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	slog.Info("parley stopped")
	return nil
}
