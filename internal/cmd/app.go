package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nukumizu/webtori/internal/bypass"
	"github.com/nukumizu/webtori/internal/config"
	"github.com/nukumizu/webtori/internal/fetch"
	"github.com/nukumizu/webtori/internal/retry"
	"github.com/nukumizu/webtori/internal/storage"
)

// newFetchClient builds the fetch client and its bypass resources from
// the configuration. When the proxy pool is enabled it is populated
// before the first request.
func newFetchClient(ctx context.Context, cfg *config.Config) *fetch.Client {
	agents := bypass.NewUserAgentSet(cfg.Bypass.UserAgents...)
	detector := bypass.NewPaywallDetector(cfg.Bypass.PaywallIndicators...)

	var poolOpts []bypass.ProxyPoolOption
	if len(cfg.Bypass.ProxySources) > 0 {
		poolOpts = append(poolOpts, bypass.WithProxySources(cfg.Bypass.ProxySources))
	}
	if cfg.Bypass.ProxyRefreshInterval > 0 {
		poolOpts = append(poolOpts, bypass.WithRefreshInterval(cfg.Bypass.ProxyRefreshInterval))
	}
	proxies := bypass.NewProxyPool(poolOpts...)
	if cfg.Bypass.ProxyEnabled {
		proxies.Refresh(ctx, 0)
	}

	opts := fetch.DefaultOptions()
	opts.Timeout = cfg.Fetch.Timeout
	opts.ChallengeRatio = cfg.Fetch.ChallengeRatio
	opts.MinPreDelay = cfg.Fetch.MinPreDelay
	opts.MaxPreDelay = cfg.Fetch.MaxPreDelay
	if cfg.Fetch.MaxBodyBytes > 0 {
		opts.MaxBodyBytes = cfg.Fetch.MaxBodyBytes
	}
	if len(cfg.Bypass.ArchiveMirrors) > 0 {
		opts.ArchiveMirrors = cfg.Bypass.ArchiveMirrors
	}
	opts.RetryPolicy = retry.Policy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		MaxDelay:      cfg.Retry.MaxDelay,
	}

	return fetch.NewClient(agents, proxies, detector, opts)
}

// openHistory opens the history store when persistence is enabled. A
// nil store with a nil error means history is off.
func openHistory(cfg *config.Config) (*storage.Store, error) {
	if !cfg.HistoryEnabled {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}

// writeJSON pretty-prints v to w.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
