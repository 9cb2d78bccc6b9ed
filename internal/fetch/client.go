package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/nukumizu/webtori/internal/bypass"
	"github.com/nukumizu/webtori/internal/retry"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 5 * 1024 * 1024

	// defaultChallengeRatio is the share of requests dispatched through
	// the browser-mimicking transport. The mix is an evasion heuristic,
	// tunable, not a correctness guarantee.
	defaultChallengeRatio = 0.3

	defaultMinPreDelay = 500 * time.Millisecond
	defaultMaxPreDelay = 2 * time.Second
)

// Options configures a Client.
type Options struct {
	Timeout        time.Duration
	MaxBodyBytes   int64
	ChallengeRatio float64       // Share of requests using the challenge transport
	MinPreDelay    time.Duration // Lower bound of the randomized pre-dispatch delay
	MaxPreDelay    time.Duration // Upper bound; zero disables the delay entirely
	ArchiveMirrors []string      // Overrides the default mirror list
	RetryPolicy    retry.Policy  // Backoff for transient dispatch failures
}

// DefaultOptions returns the client defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:        defaultTimeout,
		MaxBodyBytes:   defaultMaxBodyBytes,
		ChallengeRatio: defaultChallengeRatio,
		MinPreDelay:    defaultMinPreDelay,
		MaxPreDelay:    defaultMaxPreDelay,
		RetryPolicy:    retry.DefaultPolicy(),
	}
}

// Client retrieves single URLs, rotating user agents and proxies and
// falling back to archive mirrors on paywalled content. It is safe for
// concurrent use.
type Client struct {
	agents   *bypass.UserAgentSet
	proxies  *bypass.ProxyPool
	detector *bypass.PaywallDetector
	opts     Options

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewClient creates a fetch client. The user agent set, proxy pool and
// paywall detector are shared, caller-owned resources; nil arguments
// get defaults (including an empty proxy pool, i.e. direct connections).
func NewClient(agents *bypass.UserAgentSet, proxies *bypass.ProxyPool, detector *bypass.PaywallDetector, opts Options) *Client {
	if agents == nil {
		agents = bypass.NewUserAgentSet()
	}
	if proxies == nil {
		proxies = bypass.NewProxyPool()
	}
	if detector == nil {
		detector = bypass.NewPaywallDetector()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.RetryPolicy.MaxAttempts < 1 {
		opts.RetryPolicy = retry.DefaultPolicy()
	}

	return &Client{
		agents:   agents,
		proxies:  proxies,
		detector: detector,
		opts:     opts,
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
}

// Fetch retrieves one URL. Network errors, HTTP error statuses and
// exhausted retries all surface as a failed Result, never as an error
// return, so batch and traversal callers can continue with other URLs.
func (c *Client) Fetch(ctx context.Context, req Request) Result {
	if err := validateRequestURL(req.URL); err != nil {
		return failure(req.URL, err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.opts.Timeout
	}

	userAgent := c.agents.Select()
	proxy, _ := c.proxies.Select()

	if err := c.preDispatchDelay(ctx); err != nil {
		return failure(req.URL, err)
	}

	resp, err := retry.Do(ctx, c.opts.RetryPolicy, func() (*response, error) {
		return c.dispatch(ctx, req.URL, userAgent, proxy, timeout)
	})
	if err != nil {
		slog.Debug("Fetch failed", "url", req.URL, "error", err)
		return failure(req.URL, err)
	}

	content := resp.body
	fromMirror := false

	if req.PreferArchiveOnPaywall && c.detector.Detect(content) {
		slog.Info("Paywall detected, trying archive mirrors", "url", req.URL)
		mirrorContent, ok := c.fetchViaMirrors(ctx, req.URL, userAgent, proxy, timeout)
		if mirrorContent != "" {
			// Keep the last body fetched even when every mirror stayed
			// paywalled; FromMirror only marks a clean mirror hit.
			content = mirrorContent
			fromMirror = ok
		}
	}

	return Result{
		URL:        req.URL,
		Content:    content,
		Success:    true,
		FromMirror: fromMirror,
		FetchedAt:  time.Now().UTC(),
	}
}

// dispatch performs one transport attempt, choosing the challenge or
// plain client probabilistically.
func (c *Client) dispatch(ctx context.Context, rawURL, userAgent, proxy string, timeout time.Duration) (*response, error) {
	var resp *response
	var err error

	if c.rollChallenge() {
		resp, err = dispatchChallenge(ctx, rawURL, userAgent, proxy, timeout, c.opts.MaxBodyBytes)
	} else {
		resp, err = dispatchPlain(ctx, rawURL, userAgent, proxy, timeout, c.opts.MaxBodyBytes)
	}
	if err != nil {
		return nil, err
	}
	if resp.statusCode >= 400 {
		return nil, statusError(resp)
	}
	return resp, nil
}

// fetchViaMirrors walks the archive mirrors in priority order and
// returns the first non-paywalled body, or the last body fetched with
// ok=false when every mirror stays paywalled or fails.
func (c *Client) fetchViaMirrors(ctx context.Context, originalURL, userAgent, proxy string, timeout time.Duration) (string, bool) {
	lastContent := ""
	for _, mirrorURL := range bypass.MirrorURLs(originalURL, c.opts.ArchiveMirrors) {
		resp, err := dispatchPlain(ctx, mirrorURL, userAgent, proxy, timeout, c.opts.MaxBodyBytes)
		if err != nil || resp.statusCode >= 400 {
			continue
		}
		lastContent = resp.body
		if !c.detector.Detect(resp.body) {
			slog.Info("Archive mirror served clean content", "mirror", mirrorURL)
			return resp.body, true
		}
	}
	if lastContent != "" {
		return lastContent, false
	}
	return "", false
}

// preDispatchDelay sleeps a uniform-random interval before dispatch to
// blunt request-rate fingerprinting. Disabled when MaxPreDelay is zero.
func (c *Client) preDispatchDelay(ctx context.Context) error {
	if c.opts.MaxPreDelay <= 0 {
		return nil
	}

	span := c.opts.MaxPreDelay - c.opts.MinPreDelay
	delay := c.opts.MinPreDelay
	if span > 0 {
		c.rngMu.Lock()
		delay += time.Duration(c.rng.Int63n(int64(span)))
		c.rngMu.Unlock()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// rollChallenge decides the transport for one dispatch.
func (c *Client) rollChallenge() bool {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Float64() < c.opts.ChallengeRatio
}

// validateRequestURL enforces the http/https scheme contract. Anything
// else is a permanent per-URL failure, never retried.
func validateRequestURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL %q has no host", rawURL)
	}
	return nil
}
