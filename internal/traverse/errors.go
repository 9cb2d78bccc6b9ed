package traverse

import "errors"

var (
	// ErrInvalidMaxDepth is returned when max depth is negative
	ErrInvalidMaxDepth = errors.New("max_depth must be >= 0")
	// ErrInvalidMaxPages is returned when the page budget is below 1
	ErrInvalidMaxPages = errors.New("max_pages must be >= 1")
	// ErrInvalidDelay is returned when the inter-request delay is negative
	ErrInvalidDelay = errors.New("delay_between_requests must be >= 0")
	// ErrInvalidStartURL is returned when the start URL has no http(s) host
	ErrInvalidStartURL = errors.New("start URL must be an absolute http(s) URL")
)
