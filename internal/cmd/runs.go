package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nukumizu/webtori/internal/storage"
)

var runsCmd = &cobra.Command{
	Use:   "runs [RUN_ID]",
	Short: "List stored traversal runs or show one run's pages",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntP("limit", "l", 20, "Maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		pages, err := store.RunPages(args[0])
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			return fmt.Errorf("no pages recorded for run %s", args[0])
		}
		return writeJSON(cmd.OutOrStdout(), pages)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), runs)
}
