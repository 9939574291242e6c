// Package scraper implements discovery and extraction of retail offers
// from a digital flyer aggregator site. Publications come in two shapes:
// some expose discrete per-offer records, others only an opaque paged
// catalog. The scraper classifies each publication, enumerates offer
// identifiers through page extraction, endpoint probing and seed-based
// mutation search, and materializes normalized offer records through a
// cascade of extraction strategies.
package scraper

import "time"

// Default option values.
const (
	DefaultBaseURL        = "https://ereklamblad.se"
	DefaultAPIBaseURL     = "https://api.ereklamblad.se"
	DefaultRequestTimeout = 15 * time.Second
	DefaultProbeTimeout   = 8 * time.Second
	DefaultProbeDelay     = 500 * time.Millisecond
	DefaultMutationBudget = 200
	DefaultSearchDepth    = 3
	DefaultCacheTTL       = 7 * 24 * time.Hour
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Options configures the scraping engine. The zero value is usable after
// applyDefaults.
type Options struct {
	// BaseURL is the flyer site root.
	BaseURL string
	// APIBaseURL is the root probed for JSON endpoints.
	APIBaseURL string
	// UserAgent is sent on every request.
	UserAgent string
	// RequestTimeout bounds page fetches.
	RequestTimeout time.Duration
	// ProbeTimeout bounds existence probes, which are cheaper to abandon.
	ProbeTimeout time.Duration
	// ProbeDelay is the mandatory pause between existence probes.
	// This is rate limiting toward the target site, not incidental sleep.
	ProbeDelay time.Duration
	// MutationBudget caps mutation-search attempts per publication.
	MutationBudget int
	// SearchDepth bounds recursion in structural field searches.
	SearchDepth int
	// CacheTTL is the freshness window for cached scrape results.
	CacheTTL time.Duration
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.APIBaseURL == "" {
		o.APIBaseURL = DefaultAPIBaseURL
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}
	if o.ProbeDelay <= 0 {
		o.ProbeDelay = DefaultProbeDelay
	}
	if o.MutationBudget <= 0 {
		o.MutationBudget = DefaultMutationBudget
	}
	if o.SearchDepth <= 0 {
		o.SearchDepth = DefaultSearchDepth
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
}

// Retailer identifies one publication to scrape.
type Retailer struct {
	// Key is the internal retailer identifier.
	Key string `yaml:"key" mapstructure:"key"`
	// Slug is the retailer's URL path segment on the flyer site.
	Slug string `yaml:"slug" mapstructure:"slug"`
	// PublicationID identifies the current publication.
	PublicationID string `yaml:"publication_id" mapstructure:"publication_id"`
	// Name is the retailer display name.
	Name string `yaml:"name" mapstructure:"name"`
	// SeedOffers are known-valid offer identifiers used to start the
	// mutation search when page and API extraction under-deliver.
	SeedOffers []string `yaml:"seed_offers" mapstructure:"seed_offers"`
}
