package scraper_test

import (
	"context"
	"testing"
	"time"

	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_RoundTrip(t *testing.T) {
	t.Parallel()

	cache := scraper.NewMemoryCache()
	ctx := context.Background()
	key := scraper.CacheKey{Retailer: "ica-maxi", PublicationID: "5X0fxUgs"}

	missing, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, missing)

	entry := &scraper.CacheEntry{
		Type:      scraper.TypeIndividualOffers,
		Offers:    []domain.Offer{{ID: "abcdefghij1234567", Name: "Kaffe"}},
		ScrapedAt: time.Now(),
	}
	require.NoError(t, cache.Set(ctx, key, entry))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Offers, got.Offers)

	require.NoError(t, cache.Invalidate(ctx, key))

	gone, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCacheEntry_Fresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	entry := &scraper.CacheEntry{ScrapedAt: now.Add(-3 * 24 * time.Hour)}

	assert.True(t, entry.Fresh(now, 7*24*time.Hour))
	assert.False(t, entry.Fresh(now, 24*time.Hour))
}

func TestMetrics_Snapshot(t *testing.T) {
	t.Parallel()

	m := scraper.NewMetrics()
	m.RecordFetch(true)
	m.RecordFetch(false)
	m.RecordProbe(true)
	m.RecordProbe(false)
	m.RecordOffer(false)
	m.RecordOffer(true)
	m.RecordCacheHit()

	snap := m.GetSnapshot()
	assert.Equal(t, int64(1), snap.PagesFetched)
	assert.Equal(t, int64(1), snap.FetchFailures)
	assert.Equal(t, int64(2), snap.ProbesIssued)
	assert.Equal(t, int64(1), snap.ProbeHits)
	assert.Equal(t, int64(2), snap.OffersExtracted)
	assert.Equal(t, int64(1), snap.PartialRecords)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.False(t, snap.LastScrapeTime.IsZero())
}
