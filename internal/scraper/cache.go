package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/locopon/locopon/internal/domain"
)

// CacheKey identifies one scraped publication.
type CacheKey struct {
	Retailer      string `json:"retailer"`
	PublicationID string `json:"publication_id"`
}

// CacheEntry holds the last successful scrape result for a publication.
type CacheEntry struct {
	Type      PublicationType        `json:"type"`
	Offers    []domain.Offer         `json:"offers,omitempty"`
	Catalog   *domain.CatalogSummary `json:"catalog,omitempty"`
	ScrapedAt time.Time              `json:"scraped_at"`
}

// Fresh reports whether the entry is younger than the freshness window.
func (e *CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.ScrapedAt) < ttl
}

// Cache stores scrape results per publication. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get returns the entry for key, or (nil, nil) when absent.
	Get(ctx context.Context, key CacheKey) (*CacheEntry, error)
	// Set stores the entry for key.
	Set(ctx context.Context, key CacheKey, entry *CacheEntry) error
	// Invalidate removes the entry for key.
	Invalidate(ctx context.Context, key CacheKey) error
}

// MemoryCache is the default in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[CacheKey]*CacheEntry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[CacheKey]*CacheEntry)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key CacheKey) (*CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key], nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key CacheKey, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return nil
}

// Invalidate implements Cache.
func (c *MemoryCache) Invalidate(_ context.Context, key CacheKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
