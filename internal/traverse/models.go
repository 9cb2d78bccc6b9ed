// Package traverse implements a bounded breadth-first site crawl:
// starting from one URL it discovers links, admits them against domain
// and pattern rules, and fetches up to configured depth and page
// budgets.
package traverse

import (
	"time"
)

// TruncationMarker is appended when page content exceeds the per-page
// content limit.
const TruncationMarker = "...[truncated]"

// Page is one fetched (or failed) page within a traversal run. Pages
// are immutable once recorded; failures are recorded, not discarded.
type Page struct {
	URL        string
	Title      string
	Content    string
	LinksFound []string
	Depth      int
	Success    bool
	Error      string // Cause when Success is false
	FetchedAt  time.Time
}

// Result holds all pages of one run plus run metadata.
type Result struct {
	RunID           string
	StartURL        string
	Pages           []Page
	PagesFetched    int // Successful fetches
	TotalAttempts   int // All fetches, including failures
	UniqueLinks     int // Distinct links discovered across all pages
	MaxDepthReached int
	StartedAt       time.Time
	Duration        time.Duration
}

// Config bounds a traversal run.
type Config struct {
	MaxDepth             int           `mapstructure:"max_depth" yaml:"max_depth"`                           // 0 = starting page only
	MaxPages             int           `mapstructure:"max_pages" yaml:"max_pages"`                           // Hard page budget, >= 1
	MaxContentPerPage    int           `mapstructure:"max_content_per_page" yaml:"max_content_per_page"`     // Stored content cap in bytes
	SameDomainOnly       bool          `mapstructure:"same_domain_only" yaml:"same_domain_only"`             // Overrides FollowExternalLinks
	FollowExternalLinks  bool          `mapstructure:"follow_external_links" yaml:"follow_external_links"`   // Ignored while SameDomainOnly is set
	IncludePatterns      []string      `mapstructure:"include_patterns" yaml:"include_patterns"`             // Regex; URL must match one when non-empty
	ExcludePatterns      []string      `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`             // Regex; URL must match none
	DelayBetweenRequests time.Duration `mapstructure:"delay_between_requests" yaml:"delay_between_requests"` // Pacing between fetches
	QueueLimit           int           `mapstructure:"queue_limit" yaml:"queue_limit"`                       // Ceiling on pending queue growth
}

// DefaultConfig returns the traversal defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:             2,
		MaxPages:             10,
		MaxContentPerPage:    3000,
		SameDomainOnly:       true,
		DelayBetweenRequests: 1 * time.Second,
		QueueLimit:           100,
	}
}

// Validate checks the configuration contract. Violations are returned
// immediately at call time; they are the only errors the engine raises.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.MaxPages < 1 {
		return ErrInvalidMaxPages
	}
	if c.DelayBetweenRequests < 0 {
		return ErrInvalidDelay
	}
	if c.MaxContentPerPage <= 0 {
		c.MaxContentPerPage = DefaultConfig().MaxContentPerPage
	}
	if c.QueueLimit <= 0 {
		c.QueueLimit = DefaultConfig().QueueLimit
	}
	return nil
}
