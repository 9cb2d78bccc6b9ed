// Package cmd provides the command-line interface for webtori.
// It handles command parsing, configuration loading, and wiring the
// fetch client, traversal engine and history store together.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nukumizu/webtori/internal/config"
	"github.com/nukumizu/webtori/internal/logging"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "webtori",
	Short: "A resilient web retrieval and site traversal tool",
	Long: `Webtori retrieves web pages that resist plain HTTP clients.

It rotates user agents and proxies, mimics browser requests, retries
transient failures with backoff, falls back to archive mirrors on
paywalled content, and crawls sites breadth-first within depth and
page budgets.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI.
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./webtori.yml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file (with rotation)")
	rootCmd.PersistentFlags().DurationP("timeout", "t", 30*time.Second, "HTTP request timeout")
	rootCmd.PersistentFlags().Float64("challenge-ratio", 0.3, "Share of requests using the browser-mimicking transport")
	rootCmd.PersistentFlags().Bool("proxy", false, "Maintain and use the rotating proxy pool")
	rootCmd.PersistentFlags().Bool("history", false, "Record fetches and runs to the history database")
	rootCmd.PersistentFlags().StringP("database", "d", "./webtori.db", "Path to the history database")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"logging.level", "log-level"},
		{"logging.format", "log-format"},
		{"logging.file_path", "log-file"},
		{"fetch.timeout", "timeout"},
		{"fetch.challenge_ratio", "challenge-ratio"},
		{"bypass.proxy_enabled", "proxy"},
		{"history_enabled", "history"},
		{"database_path", "database"},
	}
	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.PersistentFlags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		showConfig, _ := cmd.Flags().GetBool("show-config")
		if showConfig {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return showCurrentConfig(cmd, cfg)
		}
		return cmd.Help()
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("webtori")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("WT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, config file, environment and flags, then
// validates the result and installs the configured logger.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.FilePath = cfg.Logging.FilePath
	if err := logging.SetDefault(logCfg); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return cfg, nil
}

func showCurrentConfig(cmd *cobra.Command, cfg *config.Config) error {
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# Current webtori configuration\n")
	fmt.Fprintf(out, "# Config file search path: ./webtori.yml\n")
	fmt.Fprintf(out, "# Environment variables prefix: WT_\n\n")
	fmt.Fprint(out, string(yamlData))
	return nil
}
