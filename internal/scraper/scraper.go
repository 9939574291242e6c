package scraper

import (
	"context"
	"math/rand"
	"time"

	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/logger"
)

// Result is the outcome of scraping one retailer's publication.
type Result struct {
	Retailer  string
	Type      PublicationType
	Offers    []domain.Offer
	Catalog   *domain.CatalogSummary
	FromCache bool
	ScrapedAt time.Time
}

// Scraper orchestrates the full pipeline for a publication: cache check,
// classification, identifier discovery and materialization for discrete
// publications, or a whole-flyer summary for catalogs. Runs are
// sequential and blocking per publication; retailers share no state
// beyond the cache and can be scraped independently.
type Scraper struct {
	opts         Options
	cache        Cache
	logger       logger.Interface
	metrics      *Metrics
	classifier   *Classifier
	discoverer   *Discoverer
	materializer *Materializer
	catalog      *CatalogReader
	clock        func() time.Time
}

// New creates a scraper. A nil fetcher gets the default resty client, a
// nil cache the in-memory one, and a nil rng a time-seeded source.
func New(opts Options, fetcher Fetcher, cache Cache, rng *rand.Rand, log logger.Interface) *Scraper {
	opts.applyDefaults()

	if fetcher == nil {
		fetcher = NewClient(opts.RequestTimeout, opts.UserAgent, log)
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	metrics := NewMetrics()
	scraperLog := log.WithComponent("scraper")

	return &Scraper{
		opts:         opts,
		cache:        cache,
		logger:       scraperLog,
		metrics:      metrics,
		classifier:   NewClassifier(fetcher, &opts, log),
		discoverer:   NewDiscoverer(fetcher, &opts, log, metrics, rng),
		materializer: NewMaterializer(fetcher, &opts, log, metrics),
		catalog:      NewCatalogReader(fetcher, &opts, log),
		clock:        time.Now,
	}
}

// Metrics exposes the scraper's counters.
func (s *Scraper) Metrics() *Metrics {
	return s.metrics
}

// ScrapeAll runs ScrapeRetailer for every retailer in order and collects
// the results. Individual retailer failures are logged and skipped.
func (s *Scraper) ScrapeAll(ctx context.Context, retailers []Retailer, force bool) ([]Result, error) {
	if len(retailers) == 0 {
		return nil, ErrNoRetailers
	}

	results := make([]Result, 0, len(retailers))
	for _, r := range retailers {
		if ctx.Err() != nil {
			break
		}

		result, err := s.ScrapeRetailer(ctx, r, force)
		if err != nil {
			s.logger.WithRetailer(r.Key).WithError(err).Error("Retailer scrape failed")
			continue
		}
		results = append(results, *result)
	}

	return results, nil
}

// ScrapeRetailer scrapes one retailer's publication, honoring the cache
// freshness window unless force is set.
func (s *Scraper) ScrapeRetailer(ctx context.Context, r Retailer, force bool) (*Result, error) {
	log := s.logger.WithRetailer(r.Key)
	key := CacheKey{Retailer: r.Key, PublicationID: r.PublicationID}
	now := s.clock()

	if !force {
		entry, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn("Cache lookup failed", "error", err)
		} else if entry != nil && entry.Fresh(now, s.opts.CacheTTL) {
			s.metrics.RecordCacheHit()
			log.Info("Using cached scrape result",
				"offers", len(entry.Offers),
				"age", now.Sub(entry.ScrapedAt).String(),
			)
			return &Result{
				Retailer:  r.Key,
				Type:      entry.Type,
				Offers:    entry.Offers,
				Catalog:   entry.Catalog,
				FromCache: true,
				ScrapedAt: entry.ScrapedAt,
			}, nil
		}
	} else {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			log.Warn("Cache invalidation failed", "error", err)
		}
	}

	log.Info("Starting publication scrape")
	pubType := s.classifier.Classify(ctx, r)
	log.Info("Publication classified", "type", string(pubType))

	result := &Result{
		Retailer:  r.Key,
		Type:      pubType,
		ScrapedAt: now,
	}

	switch pubType {
	case TypeIndividualOffers:
		result.Offers = s.scrapeIndividualOffers(ctx, r)
	case TypeCatalog:
		result.Catalog = s.readCatalog(ctx, r)
	default:
		// Unknown publications try the cheaper individual path first,
		// then fall back to a catalog read.
		result.Offers = s.scrapeIndividualOffers(ctx, r)
		if len(result.Offers) == 0 {
			result.Catalog = s.readCatalog(ctx, r)
		}
	}

	entry := &CacheEntry{
		Type:      pubType,
		Offers:    result.Offers,
		Catalog:   result.Catalog,
		ScrapedAt: now,
	}
	if err := s.cache.Set(ctx, key, entry); err != nil {
		log.Warn("Cache store failed", "error", err)
	}

	log.WithDuration(s.clock().Sub(now)).Info("Publication scrape complete",
		"offers", len(result.Offers),
		"catalog", result.Catalog != nil,
	)
	return result, nil
}

// scrapeIndividualOffers discovers identifiers and materializes each one.
// Materialization failures drop the single offer, never the run.
func (s *Scraper) scrapeIndividualOffers(ctx context.Context, r Retailer) []domain.Offer {
	ids := s.discoverer.Discover(ctx, r)

	offers := make([]domain.Offer, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		offer, err := s.materializer.Materialize(ctx, r, id)
		if err != nil {
			s.logger.Debug("Offer materialization failed",
				"retailer", r.Key,
				"offer_id", id,
				"error", err,
			)
			continue
		}
		offers = append(offers, *offer)
	}

	return offers
}

// readCatalog reads the whole-flyer summary, logging failures.
func (s *Scraper) readCatalog(ctx context.Context, r Retailer) *domain.CatalogSummary {
	summary, err := s.catalog.Read(ctx, r)
	if err != nil {
		s.logger.Warn("Catalog read failed",
			"retailer", r.Key,
			"error", err,
		)
		return nil
	}
	return summary
}
