package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/parley/internal/config"
	"github.com/MikeSquared-Agency/parley/internal/replay"
)

var registerCmd = &cobra.Command{
	Use:   "register FILE.jsonl",
	Short: "Register the manager's voice pattern from recorded speech",
	Long: `Build a speaker pattern from recorded speech events. The speaker with
the most speaking time becomes the registered pattern, replacing any
previous one.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	setupLogging(cfg.LogLevel, cmd.ErrOrStderr())

	events, err := replay.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	pat, err := replay.Register(events, cfg.TextSampleCap, nil)
	if err != nil {
		return err
	}

	db, closeDB, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeDB()

	if err := db.SavePattern(cmd.Context(), pat); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s: %d utterances, average %.0f ms\n",
		pat.SpeakerTag, pat.SpeakerPattern.UtteranceCount, pat.SpeakerPattern.AverageDurationMs)
	return nil
}
