package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nukumizu/webtori/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "Retrieve a single URL",
	Long: `Fetch retrieves one URL through the resilient client: rotating
user agents and proxies, retrying transient failures, and optionally
falling back to archive mirrors when the page is paywalled.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("archive", true, "Fall back to archive mirrors on paywalled content")
	fetchCmd.Flags().Bool("content-only", false, "Print only the page content, no metadata")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	archive, _ := cmd.Flags().GetBool("archive")
	contentOnly, _ := cmd.Flags().GetBool("content-only")

	client := newFetchClient(cmd.Context(), cfg)
	result := client.Fetch(cmd.Context(), fetch.Request{
		URL:                    args[0],
		PreferArchiveOnPaywall: archive,
	})

	if store, err := openHistory(cfg); err != nil {
		return err
	} else if store != nil {
		defer func() { _ = store.Close() }()
		if err := store.SaveFetchResults([]fetch.Result{result}); err != nil {
			return err
		}
	}

	if !result.Success {
		return fmt.Errorf("fetch failed: %s", result.Error)
	}

	if contentOnly {
		fmt.Fprintln(cmd.OutOrStdout(), result.Content)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
