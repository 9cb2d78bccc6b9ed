package bypass

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// defaultPaywallIndicators flag page bodies that hide content behind a
// subscription or login wall. Matching is case-insensitive substring;
// false positives only cost an extra archive attempt.
var defaultPaywallIndicators = []string{
	"subscribe",
	"paywall",
	"sign in to read",
	"become a member",
	"login to continue",
	"subscribe to continue",
	"premium content",
	"member only",
	"login required",
	"registration required",
	"subscriber only",
	"pay to read",
	"purchase article",
	"unlock article",
	"member exclusive",
	"premium subscription",
	"digital subscription",
}

// DefaultArchiveMirrors are prefix-style mirror services tried in
// priority order when a page looks paywalled.
var DefaultArchiveMirrors = []string{
	"https://archive.is/?url=",
	"https://12ft.io/proxy?q=",
	"https://webcache.googleusercontent.com/search?q=cache:",
}

// PaywallDetector matches page content against an indicator list.
type PaywallDetector struct {
	indicators []string
}

// NewPaywallDetector creates a detector with the built-in indicators
// plus any extras the caller supplies.
func NewPaywallDetector(extra ...string) *PaywallDetector {
	indicators := make([]string, 0, len(defaultPaywallIndicators)+len(extra))
	indicators = append(indicators, defaultPaywallIndicators...)
	for _, e := range extra {
		indicators = append(indicators, strings.ToLower(e))
	}
	return &PaywallDetector{indicators: indicators}
}

// Detect reports whether the content looks paywalled.
func (d *PaywallDetector) Detect(content string) bool {
	lower := strings.ToLower(content)
	for _, indicator := range d.indicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// MirrorURLs returns the archive mirror URLs for originalURL in
// priority order.
func MirrorURLs(originalURL string, mirrors []string) []string {
	if len(mirrors) == 0 {
		mirrors = DefaultArchiveMirrors
	}
	urls := make([]string, 0, len(mirrors))
	for _, mirror := range mirrors {
		urls = append(urls, mirror+originalURL)
	}
	return urls
}

const defaultMirrorTimeout = 10 * time.Second

// ArchiveResolver finds an archive mirror serving a clean copy of a
// paywalled page.
type ArchiveResolver struct {
	client   *http.Client
	mirrors  []string
	detector *PaywallDetector
	timeout  time.Duration
	maxBody  int64
}

// ArchiveResolverOption configures an ArchiveResolver.
type ArchiveResolverOption func(*ArchiveResolver)

// WithArchiveMirrors overrides the mirror prefix list.
func WithArchiveMirrors(mirrors []string) ArchiveResolverOption {
	return func(r *ArchiveResolver) {
		r.mirrors = mirrors
	}
}

// WithMirrorTimeout sets the per-mirror fetch timeout.
func WithMirrorTimeout(d time.Duration) ArchiveResolverOption {
	return func(r *ArchiveResolver) {
		r.timeout = d
	}
}

// NewArchiveResolver creates a resolver using the given paywall
// detector. A nil detector gets the default indicator list.
func NewArchiveResolver(detector *PaywallDetector, opts ...ArchiveResolverOption) *ArchiveResolver {
	if detector == nil {
		detector = NewPaywallDetector()
	}
	r := &ArchiveResolver{
		client:   &http.Client{Timeout: defaultMirrorTimeout},
		mirrors:  DefaultArchiveMirrors,
		detector: detector,
		timeout:  defaultMirrorTimeout,
		maxBody:  2 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first mirror URL whose response succeeds and does
// not itself look paywalled. The second return value is false when every
// mirror fails or stays paywalled; mirror errors are skipped, never
// propagated.
func (r *ArchiveResolver) Resolve(ctx context.Context, originalURL string) (string, bool) {
	for _, mirrorURL := range MirrorURLs(originalURL, r.mirrors) {
		content, ok := r.fetchMirror(ctx, mirrorURL)
		if !ok {
			continue
		}
		if r.detector.Detect(content) {
			slog.Debug("Archive mirror still paywalled", "mirror", mirrorURL)
			continue
		}
		return mirrorURL, true
	}
	return "", false
}

func (r *ArchiveResolver) fetchMirror(ctx context.Context, mirrorURL string) (string, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, mirrorURL, nil)
	if err != nil {
		return "", false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		slog.Debug("Archive mirror fetch failed", "mirror", mirrorURL, "error", err)
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBody))
	if err != nil {
		return "", false
	}
	return string(body), true
}
