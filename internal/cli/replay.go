package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/parley/internal/config"
	"github.com/MikeSquared-Agency/parley/internal/profile"
	"github.com/MikeSquared-Agency/parley/internal/replay"
	"github.com/MikeSquared-Agency/parley/internal/resolver"
	"github.com/MikeSquared-Agency/parley/internal/session"
	"github.com/MikeSquared-Agency/parley/internal/store"
	"github.com/MikeSquared-Agency/parley/internal/summary"
)

var (
	replayUsePattern bool
	replayJSON       bool
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE.jsonl",
	Short: "Measure a recorded session",
	Long: `Run one measurement over recorded speech events (one JSON event per
line) and print the speaking-time split and advice.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayUsePattern, "pattern", false, "Use the registered speaker pattern")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Print the result as JSON")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	setupLogging(cfg.LogLevel, cmd.ErrOrStderr())

	events, err := replay.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	var pattern *profile.Pattern
	if replayUsePattern {
		db, closeDB, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer closeDB()
		pattern, err = db.GetPattern(cmd.Context())
		if err != nil {
			if !errors.Is(err, store.ErrNoPattern) {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "no registered pattern, continuing without it")
		}
	}

	weights, err := resolver.NewWeightsSource(cfg.WeightsFile, slog.Default())
	if err != nil {
		return fmt.Errorf("load weights: %w", err)
	}

	result, err := replay.Measure(events, session.Config{
		Weights:   weights.Current(),
		Pattern:   pattern,
		SampleCap: cfg.TextSampleCap,
	}, slog.Default())
	if err != nil {
		return err
	}

	if replayJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printResult(w io.Writer, r session.Result) {
	s := r.Summary
	fmt.Fprintf(w, "Total:   %s\n", summary.FormatDuration(s.TotalMs))
	fmt.Fprintf(w, "Manager: %5.1f%%  %s\n", s.ManagerRatio, summary.FormatDuration(s.ManagerMs))
	fmt.Fprintf(w, "Member:  %5.1f%%  %s\n", s.MemberRatio, summary.FormatDuration(s.MemberMs))
	fmt.Fprintln(w)

	switch r.Resolution.State {
	case resolver.Undetermined:
		fmt.Fprintln(w, "Manager: not identified")
	default:
		fmt.Fprintf(w, "Manager: %s (%s, confidence %.0f)\n", r.Resolution.ManagerTag, r.Resolution.State, r.Resolution.Confidence)
	}
	for _, sp := range r.Speakers {
		role := "member"
		if sp.IsManager {
			role = "manager"
		}
		fmt.Fprintf(w, "  %-12s %-8s %3d utterances  %s\n", sp.Tag, role, sp.Utterances, summary.FormatDuration(sp.TotalDurationMs))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "[%s] %s\n", s.Category, s.Advice)
}
