package traverse

// Preset configurations for the common traversal shapes. Each returns
// a fresh Config so callers can tweak fields without sharing state.

// ResearchConfig explores a site broadly for topical content.
func ResearchConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxDepth = 2
	cfg.MaxPages = 15
	cfg.MaxContentPerPage = 2500
	return cfg
}

// DocsConfig follows documentation-shaped paths deeper than the
// default, skipping everything that does not look like docs.
func DocsConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxDepth = 3
	cfg.MaxPages = 20
	cfg.IncludePatterns = []string{`/(docs?|documentation|guide|tutorial|api|reference)`}
	return cfg
}

// SiteMapConfig surveys a site's link structure: shallow, wide, and
// with page content trimmed to a stub since only titles and links
// matter.
func SiteMapConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxDepth = 1
	cfg.MaxPages = 30
	cfg.MaxContentPerPage = 500
	return cfg
}
