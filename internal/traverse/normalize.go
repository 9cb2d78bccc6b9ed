package traverse

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL for visited-set comparison: the host is
// lower-cased, the fragment dropped, and a trailing slash trimmed
// unless the path is the root. Normalize is idempotent; unparseable
// input is returned unchanged.
func Normalize(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	if parsed.Path == "" {
		parsed.Path = "/"
	}
	if parsed.Path != "/" && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
		if parsed.Path == "" {
			parsed.Path = "/"
		}
	}

	return parsed.String()
}
