package cmd

import (
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch URL [URL...]",
	Short: "Retrieve multiple URLs concurrently",
	Long: `Batch retrieves a set of URLs with bounded concurrency. Results
are reported in input order; per-URL failures do not stop the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntP("concurrency", "c", 10, "Maximum concurrent fetches")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if !cmd.Flags().Changed("concurrency") {
		concurrency = cfg.Fetch.Concurrency
	}

	client := newFetchClient(cmd.Context(), cfg)
	results := client.Batch(cmd.Context(), args, concurrency)

	if store, err := openHistory(cfg); err != nil {
		return err
	} else if store != nil {
		defer func() { _ = store.Close() }()
		if err := store.SaveFetchResults(results); err != nil {
			return err
		}
	}

	return writeJSON(cmd.OutOrStdout(), results)
}
