package scraper_test

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/locopon/locopon/internal/jsondata"
	"github.com/locopon/locopon/internal/logger"
	"github.com/locopon/locopon/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDiscoverer(fetcher scraper.Fetcher, seed int64) *scraper.Discoverer {
	opts := fastOptions()
	return scraper.NewDiscoverer(
		fetcher,
		&opts,
		logger.NewNoOp(),
		scraper.NewMetrics(),
		rand.New(rand.NewSource(seed)),
	)
}

func TestDiscover_LandingPageSources(t *testing.T) {
	t.Parallel()

	body := `<html><body>
<div id="main-app-data">{"offers":[{"id":"jsonid0001ABCDEFG"},{"id":"jsonid0002ABCDEFG"}]}</div>
<a href="/ICA-Maxi-Stormarknad?offer=hrefid0001ABCDEFG">Erbjudande</a>
<button data-offer-id="attrid0001ABCDEFG">Visa</button>
</body></html>`

	fetcher := &fakeFetcher{}
	fetcher.on("publication=", 200, body)

	ids := newTestDiscoverer(fetcher, 1).Discover(context.Background(), testRetailer)

	assert.Contains(t, ids, "jsonid0001ABCDEFG")
	assert.Contains(t, ids, "jsonid0002ABCDEFG")
	assert.Contains(t, ids, "hrefid0001ABCDEFG")
	assert.Contains(t, ids, "attrid0001ABCDEFG")

	seen := make(map[string]int)
	for _, id := range ids {
		seen[id]++
		assert.Equal(t, 1, seen[id], "duplicate identifier %q", id)
	}
}

func TestDiscover_MalformedSegmentFallsBackToPatterns(t *testing.T) {
	t.Parallel()

	// Balanced braces but invalid JSON: segmentation accepts it, the
	// parser rejects it, and the pattern sweep recovers the identifier.
	fetcher := &fakeFetcher{}
	fetcher.on("publication=", 200, containerPage(
		`{"offerId":"regexid001ABCDEF", not valid json,,}`,
	))

	ids := newTestDiscoverer(fetcher, 1).Discover(context.Background(), testRetailer)
	assert.Contains(t, ids, "regexid001ABCDEF")
}

func TestDiscover_APIEndpointsStopOnFirstSuccess(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	fetcher.on("api.flyers.test/publications/", 200,
		`{"items":[{"id":"apiid00001ABCDEFG"}]}`,
	)

	ids := newTestDiscoverer(fetcher, 1).Discover(context.Background(), testRetailer)

	require.Contains(t, ids, "apiid00001ABCDEFG")
	// One landing fetch plus one endpoint probe; the remaining endpoint
	// shapes are never tried.
	assert.Equal(t, 2, fetcher.callCount())
}

func TestDiscover_MutationSearchFindsNeighbors(t *testing.T) {
	t.Parallel()

	const seed = "seedoffer0ABCDEF1"

	fetcher := &fakeFetcher{}
	fetcher.on("offer=", 200, "Erbjudande! Pris 19 kr")

	retailer := testRetailer
	retailer.SeedOffers = []string{seed}

	ids := newTestDiscoverer(fetcher, 42).Discover(context.Background(), retailer)

	require.NotEmpty(t, ids)
	for _, id := range ids {
		assert.Len(t, id, len(seed))
		assert.True(t, jsondata.IsIdentifier(id), "invalid identifier %q", id)
		assert.NotEqual(t, seed, id, "seed itself must not be reported as a discovery")
	}
}

func TestDiscover_MutationSearchRejectsSoftErrorPages(t *testing.T) {
	t.Parallel()

	// 200 responses whose body carries a negative signal are guesses
	// the site rejected, not offers.
	fetcher := &fakeFetcher{}
	fetcher.on("offer=", 200, "Ingen erbjudande hittades inte")

	retailer := testRetailer
	retailer.SeedOffers = []string{"seedoffer0ABCDEF1"}

	ids := newTestDiscoverer(fetcher, 42).Discover(context.Background(), retailer)
	assert.Empty(t, ids)
}

func TestDiscover_SkipsMutationWithoutValidSeeds(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}

	retailer := testRetailer
	retailer.SeedOffers = []string{"short", "has spaces in it"}

	ids := newTestDiscoverer(fetcher, 1).Discover(context.Background(), retailer)

	assert.Empty(t, ids)
	// One landing fetch and five endpoint probes, zero existence probes.
	assert.Equal(t, 6, fetcher.callCount())
}

func TestDiscover_CancelledContextStopsSearch(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	fetcher.on("offer=", 200, "Erbjudande! Pris 19 kr")

	retailer := testRetailer
	retailer.SeedOffers = []string{"seedoffer0ABCDEF1"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ids := newTestDiscoverer(fetcher, 42).Discover(ctx, retailer)
	assert.Empty(t, ids)
}

// deadlineFetcher wraps a fakeFetcher and records the context deadline
// of every existence-probe fetch.
type deadlineFetcher struct {
	inner *fakeFetcher

	mu         sync.Mutex
	remainders []time.Duration
	noDeadline int
}

func (f *deadlineFetcher) FetchPage(ctx context.Context, pageURL string) (*scraper.PageResult, error) {
	if strings.Contains(pageURL, "offer=") {
		f.mu.Lock()
		if deadline, ok := ctx.Deadline(); ok {
			f.remainders = append(f.remainders, time.Until(deadline))
		} else {
			f.noDeadline++
		}
		f.mu.Unlock()
	}
	return f.inner.FetchPage(ctx, pageURL)
}

func TestDiscover_ProbesRunUnderProbeTimeout(t *testing.T) {
	t.Parallel()

	inner := &fakeFetcher{}
	inner.on("offer=", 200, "Erbjudande! Pris 19 kr")
	fetcher := &deadlineFetcher{inner: inner}

	retailer := testRetailer
	retailer.SeedOffers = []string{"seedoffer0ABCDEF1"}

	opts := fastOptions()
	opts.ProbeTimeout = 250 * time.Millisecond
	d := scraper.NewDiscoverer(
		fetcher,
		&opts,
		logger.NewNoOp(),
		scraper.NewMetrics(),
		rand.New(rand.NewSource(7)),
	)
	d.Discover(context.Background(), retailer)

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	require.NotEmpty(t, fetcher.remainders)
	assert.Zero(t, fetcher.noDeadline, "every probe fetch must carry a deadline")
	for _, remaining := range fetcher.remainders {
		assert.Positive(t, remaining)
		assert.LessOrEqual(t, remaining, opts.ProbeTimeout)
	}
}

func TestDiscover_LogsStrategyStages(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	fetcher.on("offer=", 200, "Erbjudande! Pris 19 kr")

	retailer := testRetailer
	retailer.SeedOffers = []string{"seedoffer0ABCDEF1"}

	rec := newRecordingLogger()
	opts := fastOptions()
	d := scraper.NewDiscoverer(fetcher, &opts, rec, scraper.NewMetrics(), rand.New(rand.NewSource(3)))
	d.Discover(context.Background(), retailer)

	assert.True(t, rec.hasField("stage", "landing-page"))
	assert.True(t, rec.hasField("stage", "api-endpoints"))
	assert.True(t, rec.hasField("stage", "mutation-search"))
}
