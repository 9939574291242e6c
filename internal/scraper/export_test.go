package scraper

import "time"

// Test exports for internal functions.

// MutationStrategies exports mutationStrategies for testing.
var MutationStrategies = mutationStrategies

// Mutate exports mutate for testing.
var Mutate = mutate

// ParsePriceString exports parsePriceString for testing.
var ParsePriceString = parsePriceString

// ParsePriceValue exports parsePriceValue for testing.
var ParsePriceValue = parsePriceValue

// ParseDate exports parseDate for testing.
var ParseDate = parseDate

// BusinessKey exports businessKey for testing.
var BusinessKey = businessKey

// SetClock overrides the scraper's time source for cache freshness tests.
func (s *Scraper) SetClock(clock func() time.Time) {
	s.clock = clock
}
