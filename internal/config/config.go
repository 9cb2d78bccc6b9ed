// Package config defines the application configuration: fetch, retry,
// bypass and traversal settings plus logging and history persistence.
package config

import (
	"time"

	"github.com/nukumizu/webtori/internal/traverse"
)

// FetchConfig holds retrieval settings.
type FetchConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`                 // Per-request timeout
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`         // Batch concurrency ceiling
	ChallengeRatio float64       `mapstructure:"challenge_ratio" yaml:"challenge_ratio"` // Share of requests using the browser-mimicking transport
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`   // Response body cap
	MinPreDelay    time.Duration `mapstructure:"min_pre_delay" yaml:"min_pre_delay"`     // Lower bound of the pre-dispatch delay
	MaxPreDelay    time.Duration `mapstructure:"max_pre_delay" yaml:"max_pre_delay"`     // Upper bound of the pre-dispatch delay
}

// RetryConfig holds transient-failure retry settings.
type RetryConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"`     // Total attempts including the first
	BaseDelay     time.Duration `mapstructure:"base_delay" yaml:"base_delay"`         // First backoff delay
	BackoffFactor float64       `mapstructure:"backoff_factor" yaml:"backoff_factor"` // Growth factor per attempt
	MaxDelay      time.Duration `mapstructure:"max_delay" yaml:"max_delay"`           // Backoff ceiling
}

// BypassConfig holds access-bypass settings.
type BypassConfig struct {
	UserAgents           []string      `mapstructure:"user_agents" yaml:"user_agents"`                       // Override the built-in user agent rotation
	ProxyEnabled         bool          `mapstructure:"proxy_enabled" yaml:"proxy_enabled"`                   // Whether to maintain and use the proxy pool
	ProxySources         []string      `mapstructure:"proxy_sources" yaml:"proxy_sources"`                   // Override the built-in proxy list sources
	ProxyRefreshInterval time.Duration `mapstructure:"proxy_refresh_interval" yaml:"proxy_refresh_interval"` // Minimum age before a pool refresh
	ArchiveMirrors       []string      `mapstructure:"archive_mirrors" yaml:"archive_mirrors"`               // Override the built-in archive mirror prefixes
	PaywallIndicators    []string      `mapstructure:"paywall_indicators" yaml:"paywall_indicators"`         // Extra paywall phrases
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level    string `mapstructure:"level" yaml:"level"`         // debug, info, warn, error
	Format   string `mapstructure:"format" yaml:"format"`       // text or json
	FilePath string `mapstructure:"file_path" yaml:"file_path"` // Optional log file with rotation
}

// Config is the full application configuration.
type Config struct {
	Fetch     FetchConfig     `mapstructure:"fetch" yaml:"fetch"`
	Retry     RetryConfig     `mapstructure:"retry" yaml:"retry"`
	Bypass    BypassConfig    `mapstructure:"bypass" yaml:"bypass"`
	Traversal traverse.Config `mapstructure:"traversal" yaml:"traversal"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`

	// History persistence
	HistoryEnabled bool   `mapstructure:"history_enabled" yaml:"history_enabled"` // Record fetches and runs to SQLite
	DatabasePath   string `mapstructure:"database_path" yaml:"database_path"`     // Path to the history database
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Fetch: FetchConfig{
			Timeout:        30 * time.Second,
			Concurrency:    10,
			ChallengeRatio: 0.3,
			MaxBodyBytes:   5 * 1024 * 1024,
			MinPreDelay:    500 * time.Millisecond,
			MaxPreDelay:    2 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			BaseDelay:     1 * time.Second,
			BackoffFactor: 2.0,
			MaxDelay:      30 * time.Second,
		},
		Bypass: BypassConfig{
			ProxyEnabled:         false,
			ProxyRefreshInterval: 30 * time.Minute,
		},
		Traversal: traverse.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		HistoryEnabled: false,
		DatabasePath:   "./webtori.db",
	}
}

// Validate checks the configuration contract.
func (c *Config) Validate() error {
	if c.Fetch.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Fetch.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Fetch.ChallengeRatio < 0 || c.Fetch.ChallengeRatio > 1 {
		return ErrInvalidChallengeRatio
	}
	if c.Retry.MaxAttempts <= 0 {
		return ErrInvalidRetryAttempts
	}
	if c.HistoryEnabled && c.DatabasePath == "" {
		return ErrEmptyDatabasePath
	}
	return c.Traversal.Validate()
}
