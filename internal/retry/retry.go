// Package retry wraps fallible operations with bounded retries using
// exponential backoff and jitter. It has no dependency on fetch types
// and is usable for any operation that wants backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// Policy describes the retry budget and backoff shape for one call.
// It is ephemeral; nothing is shared between independent operations.
type Policy struct {
	MaxAttempts   int           // Total attempts including the first
	BaseDelay     time.Duration // Delay after the first failed attempt
	BackoffFactor float64       // Multiplier applied per attempt
	MaxDelay      time.Duration // Upper bound on any single delay
}

// DefaultPolicy returns the backoff shape used by the fetch and
// traversal components.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseDelay:     1 * time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
	}
}

// RateLimitError marks a failure that carries an explicit
// server-suggested delay, e.g. from a Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited (retry after %s)", e.RetryAfter)
}

// Unwrap returns the underlying error.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// retryablePatterns are message fragments that mark an error as
// transient when it carries no classifiable type.
var retryablePatterns = []string{
	"timeout",
	"timed out",
	"connection",
	"network",
	"temporary",
	"service unavailable",
	"502",
	"503",
	"504",
	"rate limit",
	"too many requests",
}

// IsRetryable reports whether an error is worth retrying: rate-limit
// errors, network timeouts, and anything whose message matches a known
// transient pattern. Everything else fails fast.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rateLimited *RateLimitError
	if errors.As(err, &rateLimited) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// delayFor computes the sleep before the next attempt, given how many
// attempts have already failed (1-based). An explicit RetryAfter hint
// overrides the backoff curve; both are capped at MaxDelay.
func (p Policy) delayFor(failedAttempts int, lastErr error) time.Duration {
	var rateLimited *RateLimitError
	if errors.As(lastErr, &rateLimited) && rateLimited.RetryAfter > 0 {
		if rateLimited.RetryAfter > p.MaxDelay {
			return p.MaxDelay
		}
		return rateLimited.RetryAfter
	}

	backoff := float64(p.BaseDelay) * math.Pow(p.BackoffFactor, float64(failedAttempts-1))

	// ±25% jitter avoids synchronized retry storms.
	jitter := backoff * 0.25 * (2*rand.Float64() - 1)
	delay := time.Duration(backoff + jitter)

	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// newPolicy builds the failsafe retry policy for one call.
func newPolicy[T any](p Policy) retrypolicy.RetryPolicy[T] {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	return retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool {
			return IsRetryable(err)
		}).
		WithMaxAttempts(p.MaxAttempts).
		WithDelayFunc(func(exec failsafe.ExecutionAttempt[T]) time.Duration {
			return p.delayFor(exec.Attempts(), exec.LastError())
		}).
		ReturnLastFailure().
		Build()
}

// Do invokes op, retrying retryable failures with backoff until it
// succeeds or the attempt budget is exhausted. Non-retryable errors are
// returned on first occurrence; after exhaustion the last error is
// returned. The context cancels both attempts and backoff sleeps.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	return failsafe.With(newPolicy[T](p)).WithContext(ctx).Get(op)
}

// Run is the value-free variant of Do.
func Run(ctx context.Context, p Policy, op func() error) error {
	_, err := Do(ctx, p, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
