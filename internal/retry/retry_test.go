package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts:   maxAttempts,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      5 * time.Millisecond,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	const failures = 2

	calls := 0
	result, err := Do(context.Background(), fastPolicy(5), func() (string, error) {
		calls++
		if calls <= failures {
			return "", errors.New("connection reset by peer")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if result != "ok" {
		t.Errorf("Expected result 'ok', got '%s'", result)
	}
	if calls != failures+1 {
		t.Errorf("Expected exactly %d invocations, got %d", failures+1, calls)
	}
}

func TestDoExhaustsAttemptBudget(t *testing.T) {
	lastErr := errors.New("request timeout")

	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), func() (string, error) {
		calls++
		return "", lastErr
	})

	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("Expected last error to be returned, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", calls)
	}
}

func TestDoNonRetryableFailsFast(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(5), func() (string, error) {
		calls++
		return "", errors.New("404 not found")
	})

	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Expected a single attempt for a non-retryable error, got %d", calls)
	}
}

func TestRunVariant(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(4), func() error {
		calls++
		if calls < 3 {
			return errors.New("503 service unavailable")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 invocations, got %d", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"timeout message", errors.New("request timeout"), true},
		{"connection message", errors.New("connection refused"), true},
		{"bad gateway", errors.New("server returned 502"), true},
		{"service unavailable", errors.New("503 Service Unavailable"), true},
		{"gateway timeout", errors.New("504 gateway timeout"), true},
		{"rate limit", errors.New("rate limit exceeded"), true},
		{"too many requests", errors.New("429 Too Many Requests received"), true},
		{"rate limit error type", &RateLimitError{RetryAfter: time.Second}, true},
		{"wrapped rate limit", fmt.Errorf("fetch: %w", &RateLimitError{RetryAfter: time.Second}), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"not found", errors.New("404 not found"), false},
		{"parse error", errors.New("invalid URL scheme"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestDelayForBackoffShape(t *testing.T) {
	p := Policy{
		MaxAttempts:   5,
		BaseDelay:     100 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      time.Second,
	}

	for attempt := 1; attempt <= 4; attempt++ {
		expected := float64(p.BaseDelay) * pow(p.BackoffFactor, attempt-1)
		delay := p.delayFor(attempt, errors.New("timeout"))

		lower := time.Duration(expected * 0.75)
		upper := time.Duration(expected * 1.25)
		if upper > p.MaxDelay {
			upper = p.MaxDelay
		}
		if lower > p.MaxDelay {
			lower = p.MaxDelay
		}

		if delay < lower || delay > upper {
			t.Errorf("Attempt %d: delay %v outside [%v, %v]", attempt, delay, lower, upper)
		}
	}
}

func TestDelayForRetryAfterOverride(t *testing.T) {
	p := Policy{
		MaxAttempts:   3,
		BaseDelay:     time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      10 * time.Second,
	}

	err := &RateLimitError{RetryAfter: 3 * time.Second}
	if delay := p.delayFor(1, err); delay != 3*time.Second {
		t.Errorf("Expected retry-after override of 3s, got %v", delay)
	}

	// The hint is still capped at MaxDelay.
	err = &RateLimitError{RetryAfter: time.Minute}
	if delay := p.delayFor(1, err); delay != p.MaxDelay {
		t.Errorf("Expected cap at %v, got %v", p.MaxDelay, delay)
	}
}

func TestDoCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, fastPolicy(3), func() (string, error) {
		return "", errors.New("timeout")
	})
	if err == nil {
		t.Fatal("Expected error with cancelled context")
	}
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
