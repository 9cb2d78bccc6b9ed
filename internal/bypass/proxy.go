package bypass

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// defaultProxySources are public proxy lists queried during a refresh.
// The first entry serves an HTML table, the rest are raw ip:port text.
var defaultProxySources = []string{
	"https://free-proxy-list.net/",
	"https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/http.txt",
	"https://raw.githubusercontent.com/clarketm/proxy-list/master/proxy-list-raw.txt",
	"https://raw.githubusercontent.com/sunny9577/proxy-scraper/master/proxies.txt",
}

// fallbackProxies are used when no source yields a working proxy. They
// point at conventional local proxy ports and may themselves be dead;
// callers degrade to direct connections when a proxy fails.
var fallbackProxies = []string{
	"127.0.0.1:8080",
	"127.0.0.1:1080",
}

var proxyPattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}:\d{2,5}\b`)

const (
	defaultRefreshInterval   = 30 * time.Minute
	defaultMinPoolSize       = 5
	defaultProbeTimeout      = 5 * time.Second
	defaultSourceTimeout     = 10 * time.Second
	defaultProbeURL          = "http://httpbin.org/ip"
	maxCandidatesPerSource   = 10
	defaultRefreshTargetSize = 20
)

// proxySnapshot is an immutable view of the pool. Selection reads one
// snapshot; refresh swaps in a complete replacement.
type proxySnapshot struct {
	proxies     []string
	refreshedAt time.Time
}

// ProxyPool holds validated proxy endpoints in host:port form. The pool
// is shared process-wide; reads see a stable snapshot and Refresh
// replaces the snapshot atomically.
type ProxyPool struct {
	sources         []string
	probeURL        string
	refreshInterval time.Duration
	minPoolSize     int
	probeTimeout    time.Duration
	sourceTimeout   time.Duration
	client          *http.Client

	snapshot  atomic.Pointer[proxySnapshot]
	refreshMu sync.Mutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

// ProxyPoolOption configures a ProxyPool.
type ProxyPoolOption func(*ProxyPool)

// WithProxySources overrides the public proxy list sources.
func WithProxySources(sources []string) ProxyPoolOption {
	return func(p *ProxyPool) {
		p.sources = sources
	}
}

// WithProbeURL overrides the liveness probe target.
func WithProbeURL(u string) ProxyPoolOption {
	return func(p *ProxyPool) {
		p.probeURL = u
	}
}

// WithRefreshInterval overrides the minimum age before a refresh
// actually queries the sources again.
func WithRefreshInterval(d time.Duration) ProxyPoolOption {
	return func(p *ProxyPool) {
		p.refreshInterval = d
	}
}

// WithMinPoolSize sets the floor below which a refresh runs regardless
// of pool age.
func WithMinPoolSize(n int) ProxyPoolOption {
	return func(p *ProxyPool) {
		p.minPoolSize = n
	}
}

// WithProbeTimeout sets the per-proxy liveness probe timeout.
func WithProbeTimeout(d time.Duration) ProxyPoolOption {
	return func(p *ProxyPool) {
		p.probeTimeout = d
	}
}

// NewProxyPool creates an empty proxy pool. The pool stays empty until
// the first Refresh; an empty pool selects "no proxy" rather than
// failing.
func NewProxyPool(opts ...ProxyPoolOption) *ProxyPool {
	p := &ProxyPool{
		sources:         defaultProxySources,
		probeURL:        defaultProbeURL,
		refreshInterval: defaultRefreshInterval,
		minPoolSize:     defaultMinPoolSize,
		probeTimeout:    defaultProbeTimeout,
		sourceTimeout:   defaultSourceTimeout,
		client: &http.Client{
			Timeout: defaultSourceTimeout,
		},
		rng: rand.New(rand.NewSource(rand.Int63())),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.snapshot.Store(&proxySnapshot{})
	return p
}

// Select returns a uniform-random proxy from the current pool. The
// second return value is false when the pool is empty, which means the
// caller should connect directly.
func (p *ProxyPool) Select() (string, bool) {
	snap := p.snapshot.Load()
	if len(snap.proxies) == 0 {
		return "", false
	}

	p.rngMu.Lock()
	idx := p.rng.Intn(len(snap.proxies))
	p.rngMu.Unlock()

	return snap.proxies[idx], true
}

// Size returns the number of proxies currently in the pool.
func (p *ProxyPool) Size() int {
	return len(p.snapshot.Load().proxies)
}

// LastRefresh returns when the pool was last replaced.
func (p *ProxyPool) LastRefresh() time.Time {
	return p.snapshot.Load().refreshedAt
}

// Refresh repopulates the pool with up to targetCount validated proxies.
// It is a no-op while the pool is fresh and above the minimum size.
// Source and probe failures are skipped, never propagated: when every
// source fails the pool falls back to a small hardcoded local list.
func (p *ProxyPool) Refresh(ctx context.Context, targetCount int) {
	if targetCount <= 0 {
		targetCount = defaultRefreshTargetSize
	}

	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	snap := p.snapshot.Load()
	if time.Since(snap.refreshedAt) < p.refreshInterval && len(snap.proxies) >= p.minPoolSize {
		slog.Debug("Proxy pool still fresh, skipping refresh", "size", len(snap.proxies))
		return
	}

	var validated []string
	for _, source := range p.sources {
		candidates := p.fetchCandidates(ctx, source)
		if len(candidates) > maxCandidatesPerSource {
			candidates = candidates[:maxCandidatesPerSource]
		}

		alive := 0
		for _, candidate := range candidates {
			if len(validated) >= targetCount {
				break
			}
			if p.probe(ctx, candidate) {
				validated = append(validated, candidate)
				alive++
			}
		}
		slog.Info("Validated proxies from source", "source", source, "candidates", len(candidates), "alive", alive)

		if len(validated) >= targetCount {
			break
		}
	}

	if len(validated) == 0 {
		slog.Warn("No proxy source yielded a working proxy, using local fallbacks")
		validated = append(validated, fallbackProxies...)
	}

	p.snapshot.Store(&proxySnapshot{
		proxies:     validated,
		refreshedAt: time.Now(),
	})
	slog.Info("Proxy pool refreshed", "size", len(validated))
}

// fetchCandidates downloads one source and extracts ip:port candidates.
// Failures degrade to an empty slice.
func (p *ProxyPool) fetchCandidates(ctx context.Context, source string) []string {
	reqCtx, cancel := context.WithTimeout(ctx, p.sourceTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, source, nil)
	if err != nil {
		slog.Warn("Failed to build proxy source request", "source", source, "error", err)
		return nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Warn("Failed to fetch proxy source", "source", source, "error", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Proxy source returned non-OK status", "source", source, "status", resp.StatusCode)
		return nil
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return parseProxyTable(resp)
	}
	return parseProxyText(resp)
}

// parseProxyTable extracts ip:port pairs from an HTML proxy-list table.
// Only anonymous entries with HTTPS support are taken.
func parseProxyTable(resp *http.Response) []string {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil
	}

	var candidates []string
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 8 {
			return
		}
		ip := strings.TrimSpace(cols.Eq(0).Text())
		port := strings.TrimSpace(cols.Eq(1).Text())
		anonymity := strings.ToLower(strings.TrimSpace(cols.Eq(4).Text()))
		https := strings.ToLower(strings.TrimSpace(cols.Eq(6).Text()))

		if https != "yes" {
			return
		}
		if anonymity != "elite proxy" && anonymity != "anonymous" {
			return
		}

		candidate := ip + ":" + port
		if proxyPattern.MatchString(candidate) {
			candidates = append(candidates, candidate)
		}
	})
	return candidates
}

// parseProxyText extracts ip:port pairs from a raw text list.
func parseProxyText(resp *http.Response) []string {
	buf := new(strings.Builder)
	// Cap the read: raw lists can be large and a handful of candidates
	// is all a refresh ever probes.
	if _, err := copyBounded(buf, resp.Body, 256*1024); err != nil {
		return nil
	}
	return proxyPattern.FindAllString(buf.String(), -1)
}

func copyBounded(dst io.Writer, src io.Reader, limit int64) (int64, error) {
	return io.Copy(dst, io.LimitReader(src, limit))
}

// probe checks that a proxy answers within the probe timeout.
func (p *ProxyPool) probe(ctx context.Context, proxy string) bool {
	proxyURL, err := url.Parse("http://" + proxy)
	if err != nil {
		return false
	}

	client := &http.Client{
		Timeout: p.probeTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
	}
	defer client.CloseIdleConnections()

	reqCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.probeURL, nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}
