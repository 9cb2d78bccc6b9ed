// Package fetch retrieves the textual content of URLs despite anti-bot
// defenses and paywalls. Failures are encoded in results, never raised,
// so batch and traversal callers can keep processing other URLs.
package fetch

import "time"

// Request describes one retrieval.
type Request struct {
	URL                    string        // Must have an http or https scheme
	Timeout                time.Duration // Zero means the client default
	PreferArchiveOnPaywall bool          // Re-fetch via archive mirrors on paywall hits
}

// Result is the outcome of one retrieval. Success implies Content is
// present and archive fallback has already been applied.
type Result struct {
	URL        string
	Content    string
	Success    bool
	Error      string // Human-readable cause when Success is false
	FromMirror bool   // Content came from an archive mirror
	FetchedAt  time.Time
}

// failure builds a failed result for url with the given cause.
func failure(url string, cause error) Result {
	return Result{
		URL:       url,
		Success:   false,
		Error:     cause.Error(),
		FetchedAt: time.Now().UTC(),
	}
}
