package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/parley/internal/config"
	"github.com/MikeSquared-Agency/parley/internal/store"
)

var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Inspect or delete the registered speaker pattern",
}

var patternShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the registered pattern as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		setupLogging(cfg.LogLevel, cmd.ErrOrStderr())

		db, closeDB, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer closeDB()

		pat, err := db.GetPattern(cmd.Context())
		if errors.Is(err, store.ErrNoPattern) {
			fmt.Fprintln(cmd.OutOrStdout(), "no registered pattern; create one with: parley register FILE.jsonl")
			return nil
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(pat)
	},
}

var patternClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the registered pattern",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		setupLogging(cfg.LogLevel, cmd.ErrOrStderr())

		db, closeDB, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer closeDB()

		if err := db.ClearPattern(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "registered pattern cleared")
		return nil
	},
}

func init() {
	patternCmd.AddCommand(patternShowCmd)
	patternCmd.AddCommand(patternClearCmd)
}
