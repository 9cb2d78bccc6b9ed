package fetch

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent bounds in-flight fetches during batch retrieval.
const DefaultMaxConcurrent = 10

// Batch fetches every URL concurrently with at most maxConcurrent
// requests in flight. Each input URL produces exactly one Result, in
// input order; one URL's failure never cancels the others.
func (c *Client) Batch(ctx context.Context, urls []string, maxConcurrent int) []Result {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	sem := semaphore.NewWeighted(int64(maxConcurrent))
	results := make([]Result, len(urls))

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results[idx] = failure(rawURL, err)
				return
			}
			defer sem.Release(1)

			results[idx] = c.Fetch(ctx, Request{
				URL:                    rawURL,
				PreferArchiveOnPaywall: true,
			})
		}(i, u)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	slog.Info("Batch retrieval finished", "urls", len(urls), "succeeded", succeeded)

	return results
}
