package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nukumizu/webtori/internal/traverse"
)

var traverseCmd = &cobra.Command{
	Use:   "traverse URL",
	Short: "Crawl a site breadth-first from a starting URL",
	Long: `Traverse crawls breadth-first from the starting URL, following
admitted links up to the configured depth and page budgets. Presets
tune the budgets for common tasks: research, docs, sitemap.`,
	Args: cobra.ExactArgs(1),
	RunE: runTraverse,
}

func init() {
	traverseCmd.Flags().String("preset", "", "Traversal preset: research, docs, or sitemap")
	traverseCmd.Flags().Int("depth", 2, "Maximum link depth from the start URL")
	traverseCmd.Flags().Int("max-pages", 10, "Maximum pages to fetch")
	traverseCmd.Flags().Int("max-content", 3000, "Stored content cap per page in bytes")
	traverseCmd.Flags().Bool("external", false, "Follow links to other domains")
	traverseCmd.Flags().StringSlice("include", nil, "Regex patterns a link must match to be followed")
	traverseCmd.Flags().StringSlice("exclude", nil, "Regex patterns that reject a link")
	traverseCmd.Flags().Duration("delay", time.Second, "Delay between fetches to the same domain")
	rootCmd.AddCommand(traverseCmd)
}

func traversalConfig(cmd *cobra.Command, base traverse.Config) (traverse.Config, error) {
	if preset, _ := cmd.Flags().GetString("preset"); preset != "" {
		switch preset {
		case "research":
			base = traverse.ResearchConfig()
		case "docs":
			base = traverse.DocsConfig()
		case "sitemap":
			base = traverse.SiteMapConfig()
		default:
			return base, fmt.Errorf("unknown preset %q (want research, docs, or sitemap)", preset)
		}
	}

	if cmd.Flags().Changed("depth") {
		base.MaxDepth, _ = cmd.Flags().GetInt("depth")
	}
	if cmd.Flags().Changed("max-pages") {
		base.MaxPages, _ = cmd.Flags().GetInt("max-pages")
	}
	if cmd.Flags().Changed("max-content") {
		base.MaxContentPerPage, _ = cmd.Flags().GetInt("max-content")
	}
	if cmd.Flags().Changed("external") {
		external, _ := cmd.Flags().GetBool("external")
		base.SameDomainOnly = !external
		base.FollowExternalLinks = external
	}
	if cmd.Flags().Changed("include") {
		base.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	}
	if cmd.Flags().Changed("exclude") {
		base.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	}
	if cmd.Flags().Changed("delay") {
		base.DelayBetweenRequests, _ = cmd.Flags().GetDuration("delay")
	}
	return base, nil
}

func runTraverse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	traversalCfg, err := traversalConfig(cmd, cfg.Traversal)
	if err != nil {
		return err
	}

	client := newFetchClient(cmd.Context(), cfg)
	engine, err := traverse.New(client, traversalCfg)
	if err != nil {
		return err
	}

	result, err := engine.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if store, err := openHistory(cfg); err != nil {
		return err
	} else if store != nil {
		defer func() { _ = store.Close() }()
		if err := store.SaveTraversal(result); err != nil {
			return err
		}
	}

	return writeJSON(cmd.OutOrStdout(), result)
}
