package scraper

import "errors"

// Common errors returned by the scraper package.
var (
	// ErrPageUnavailable is returned when a page fetch yields a non-200
	// status. Callers abandon the current scope and continue.
	ErrPageUnavailable = errors.New("page unavailable")
	// ErrNoRetailers is returned when a scrape is requested with no
	// configured retailers.
	ErrNoRetailers = errors.New("no retailers configured")
)
