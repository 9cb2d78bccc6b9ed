package traverse

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces requests per domain. The first request to a domain
// passes immediately; later ones wait out the configured delay.
type pacer struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	delay    time.Duration
}

func newPacer(delay time.Duration) *pacer {
	return &pacer{
		limiters: make(map[string]*rate.Limiter),
		delay:    delay,
	}
}

// wait blocks until a request to urlStr's domain is allowed.
func (p *pacer) wait(ctx context.Context, urlStr string) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return err
	}
	return p.limiter(parsed.Host).Wait(ctx)
}

func (p *pacer) limiter(domain string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, ok := p.limiters[domain]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(p.delay), 1)
	p.limiters[domain] = limiter
	return limiter
}
