// Package bypass supplies the shared anti-blocking resources used by the
// fetch and traversal components: rotating user agents, a validated proxy
// pool, paywall detection, and archive mirror resolution.
package bypass

import (
	"math/rand"
	"sync"
)

// defaultUserAgents are realistic desktop browser identities. The set is
// static at runtime; rotation happens per request.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

// UserAgentSet is a static ordered collection of browser user agents.
// Selection is uniform-random per request and safe for concurrent use.
type UserAgentSet struct {
	agents []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUserAgentSet creates a user agent set. With no arguments the
// built-in browser identities are used.
func NewUserAgentSet(agents ...string) *UserAgentSet {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	copied := make([]string, len(agents))
	copy(copied, agents)

	return &UserAgentSet{
		agents: copied,
		rng:    rand.New(rand.NewSource(rand.Int63())),
	}
}

// Select returns a uniform-random user agent. It never fails.
func (s *UserAgentSet) Select() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agents[s.rng.Intn(len(s.agents))]
}

// Agents returns a copy of the configured user agents.
func (s *UserAgentSet) Agents() []string {
	copied := make([]string, len(s.agents))
	copy(copied, s.agents)
	return copied
}
