package traverse

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nukumizu/webtori/internal/fetch"
	"github.com/nukumizu/webtori/internal/parser"
)

// Fetcher retrieves one URL. *fetch.Client satisfies it; tests inject
// fakes.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) fetch.Result
}

// excludedExtensions are binary, media and script resources that never
// carry crawlable page content. They are rejected regardless of the
// include/exclude pattern rules.
var excludedExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".zip", ".rar", ".tar", ".gz", ".7z",
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".ico",
	".mp3", ".mp4", ".avi", ".mov", ".wmv",
	".css", ".js", ".xml", ".rss", ".json",
}

// Traverser runs breadth-first crawls. A Traverser may be reused, but
// each Run owns its own visited set and result list, so concurrent runs
// of different start URLs never share per-run state.
type Traverser struct {
	fetcher  Fetcher
	cfg      Config
	includes []*regexp.Regexp
	excludes []*regexp.Regexp
	pacer    *pacer
}

// New creates a traverser. Invalid configuration and unparseable
// patterns are contract violations reported immediately.
func New(fetcher Fetcher, cfg Config) (*Traverser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	includes, err := compilePatterns(cfg.IncludePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	excludes, err := compilePatterns(cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}

	return &Traverser{
		fetcher:  fetcher,
		cfg:      cfg,
		includes: includes,
		excludes: excludes,
		pacer:    newPacer(cfg.DelayBetweenRequests),
	}, nil
}

// compilePatterns compiles case-insensitive URL patterns.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// queueItem is one pending fetch in breadth-first order.
type queueItem struct {
	url   string
	depth int
}

// Run crawls breadth-first from startURL until the queue empties, the
// page budget is spent, or the context is cancelled. Per-page fetch
// failures are recorded as failed pages; Run itself only errors on a
// bad start URL. Cancellation stops dequeuing without interrupting the
// in-flight fetch beyond its own timeout.
func (t *Traverser) Run(ctx context.Context, startURL string) (*Result, error) {
	base, err := url.Parse(startURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, ErrInvalidStartURL
	}
	baseDomain := strings.ToLower(base.Host)

	result := &Result{
		RunID:     uuid.NewString(),
		StartURL:  startURL,
		StartedAt: time.Now().UTC(),
	}

	visited := make(map[string]struct{})
	enqueued := map[string]struct{}{Normalize(startURL): {}}
	uniqueLinks := make(map[string]struct{})
	queue := []queueItem{{url: startURL, depth: 0}}

	slog.Info("Starting traversal", "run_id", result.RunID, "start_url", startURL,
		"max_depth", t.cfg.MaxDepth, "max_pages", t.cfg.MaxPages)

	for len(queue) > 0 && len(result.Pages) < t.cfg.MaxPages {
		if ctx.Err() != nil {
			slog.Info("Traversal cancelled", "run_id", result.RunID, "pages", len(result.Pages))
			break
		}

		item := queue[0]
		queue = queue[1:]

		norm := Normalize(item.url)
		if _, seen := visited[norm]; seen {
			continue
		}
		if item.depth > t.cfg.MaxDepth {
			continue
		}
		visited[norm] = struct{}{}

		if err := t.pacer.wait(ctx, item.url); err != nil {
			break
		}

		page := t.fetchPage(ctx, item)
		result.Pages = append(result.Pages, page)
		if page.Success {
			result.PagesFetched++
		}
		if page.Depth > result.MaxDepthReached {
			result.MaxDepthReached = page.Depth
		}
		for _, link := range page.LinksFound {
			uniqueLinks[Normalize(link)] = struct{}{}
		}

		slog.Info("Traversed page", "run_id", result.RunID, "url", item.url,
			"depth", item.depth, "success", page.Success,
			"pages", len(result.Pages), "budget", t.cfg.MaxPages)

		if !page.Success || item.depth >= t.cfg.MaxDepth {
			continue
		}

		for _, link := range page.LinksFound {
			if len(queue) >= t.cfg.QueueLimit {
				break
			}
			linkNorm := Normalize(link)
			if _, seen := visited[linkNorm]; seen {
				continue
			}
			if _, pending := enqueued[linkNorm]; pending {
				continue
			}
			if !t.shouldFollow(link, baseDomain) {
				continue
			}
			enqueued[linkNorm] = struct{}{}
			queue = append(queue, queueItem{url: link, depth: item.depth + 1})
		}
	}

	result.TotalAttempts = len(result.Pages)
	result.UniqueLinks = len(uniqueLinks)
	result.Duration = time.Since(result.StartedAt)

	slog.Info("Traversal completed", "run_id", result.RunID,
		"pages_fetched", result.PagesFetched, "attempts", result.TotalAttempts,
		"unique_links", result.UniqueLinks, "max_depth_reached", result.MaxDepthReached)

	return result, nil
}

// fetchPage retrieves one queued URL and builds its immutable page
// record, extracting title and outbound links on success.
func (t *Traverser) fetchPage(ctx context.Context, item queueItem) Page {
	fetched := t.fetcher.Fetch(ctx, fetch.Request{
		URL:                    item.url,
		PreferArchiveOnPaywall: true,
	})

	page := Page{
		URL:       item.url,
		Depth:     item.depth,
		Success:   fetched.Success,
		FetchedAt: fetched.FetchedAt,
	}

	if !fetched.Success {
		page.Error = fetched.Error
		return page
	}
	if fetched.Content == "" {
		page.Success = false
		page.Error = "empty content"
		return page
	}

	page.Title = parser.UntitledPage
	if doc, err := parser.Parse([]byte(fetched.Content)); err == nil {
		page.Title = doc.Title()
		page.LinksFound = doc.ExtractLinks(item.url)
	}

	page.Content = truncate(fetched.Content, t.cfg.MaxContentPerPage)
	return page
}

// truncate caps stored page content, marking the cut.
func truncate(content string, limit int) string {
	if limit <= 0 || len(content) <= limit {
		return content
	}
	return content[:limit] + TruncationMarker
}

// shouldFollow applies the link admission rules in precedence order:
// domain check, include patterns, exclude patterns, and finally the
// always-on file extension rejection.
func (t *Traverser) shouldFollow(link, baseDomain string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Host)

	if t.cfg.SameDomainOnly && host != baseDomain {
		return false
	}
	if !t.cfg.SameDomainOnly && !t.cfg.FollowExternalLinks && host != baseDomain {
		return false
	}

	if len(t.includes) > 0 {
		matched := false
		for _, re := range t.includes {
			if re.MatchString(link) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range t.excludes {
		if re.MatchString(link) {
			return false
		}
	}

	lowerPath := strings.ToLower(parsed.Path)
	for _, ext := range excludedExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return false
		}
	}

	return true
}
