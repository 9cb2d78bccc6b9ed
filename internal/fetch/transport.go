package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/nukumizu/webtori/internal/retry"
)

// response is the transport-level outcome of one dispatch.
type response struct {
	statusCode int
	body       string
	finalURL   string
	retryAfter string
}

// newHTTPClient builds an HTTP client, optionally routed through a
// proxy and optionally carrying a cookie jar.
func newHTTPClient(proxy string, timeout time.Duration, withJar bool) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if proxy != "" {
		proxyURL, err := url.Parse("http://" + proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	if withJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		client.Jar = jar
	}

	return client, nil
}

// dispatchPlain performs a straightforward GET with a rotated user
// agent. Compression is left to the Go transport.
func dispatchPlain(ctx context.Context, rawURL, userAgent, proxy string, timeout time.Duration, maxBody int64) (*response, error) {
	client, err := newHTTPClient(proxy, timeout, false)
	if err != nil {
		return nil, err
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &response{
		statusCode: resp.StatusCode,
		body:       string(body),
		finalURL:   resp.Request.URL.String(),
		retryAfter: resp.Header.Get("Retry-After"),
	}, nil
}

// dispatchChallenge mimics a full browser session: complete header set,
// cookie jar so challenge cookies persist across redirects, and manual
// content negotiation including brotli.
func dispatchChallenge(ctx context.Context, rawURL, userAgent, proxy string, timeout time.Duration, maxBody int64) (*response, error) {
	client, err := newHTTPClient(proxy, timeout, true)
	if err != nil {
		return nil, err
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readDecodedBody(resp, maxBody)
	if err != nil {
		return nil, err
	}

	return &response{
		statusCode: resp.StatusCode,
		body:       string(body),
		finalURL:   resp.Request.URL.String(),
		retryAfter: resp.Header.Get("Retry-After"),
	}, nil
}

// readDecodedBody decompresses the response body according to its
// Content-Encoding header. Needed because the challenge transport sets
// Accept-Encoding manually, which disables Go's automatic handling.
func readDecodedBody(resp *http.Response, maxBody int64) ([]byte, error) {
	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(reader, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// statusError converts an HTTP error status into an error the retry
// classifier understands. Rate-limit responses carry the server's
// Retry-After hint when present.
func statusError(resp *response) error {
	if resp.statusCode == http.StatusTooManyRequests {
		hint := parseRetryAfter(resp.retryAfter)
		return &retry.RateLimitError{
			RetryAfter: hint,
			Err:        fmt.Errorf("server returned %d", resp.statusCode),
		}
	}
	return fmt.Errorf("server returned %d %s", resp.statusCode, http.StatusText(resp.statusCode))
}

// parseRetryAfter handles the delay-seconds form of Retry-After.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
