package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Fetch.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Fetch.Concurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "challenge ratio above 1",
			mutate:  func(c *Config) { c.Fetch.ChallengeRatio = 1.5 },
			wantErr: ErrInvalidChallengeRatio,
		},
		{
			name:    "negative challenge ratio",
			mutate:  func(c *Config) { c.Fetch.ChallengeRatio = -0.1 },
			wantErr: ErrInvalidChallengeRatio,
		},
		{
			name:    "zero retry attempts",
			mutate:  func(c *Config) { c.Retry.MaxAttempts = 0 },
			wantErr: ErrInvalidRetryAttempts,
		},
		{
			name: "history without database path",
			mutate: func(c *Config) {
				c.HistoryEnabled = true
				c.DatabasePath = ""
			},
			wantErr: ErrEmptyDatabasePath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePropagatesTraversalErrors(t *testing.T) {
	cfg := Default()
	cfg.Traversal.MaxPages = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want traversal error")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 30s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.ChallengeRatio != 0.3 {
		t.Errorf("Fetch.ChallengeRatio = %v, want 0.3", cfg.Fetch.ChallengeRatio)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Bypass.ProxyEnabled {
		t.Error("ProxyEnabled should default to false")
	}
	if cfg.HistoryEnabled {
		t.Error("HistoryEnabled should default to false")
	}
}
