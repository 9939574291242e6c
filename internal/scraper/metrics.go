package scraper

import (
	"sync"
	"time"
)

// Metrics holds scraping counters. All methods are safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	pagesFetched    int64
	fetchFailures   int64
	probesIssued    int64
	probeHits       int64
	offersExtracted int64
	partialRecords  int64
	cacheHits       int64
	lastScrapeTime  time.Time
	startTime       time.Time
}

// NewMetrics creates a metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordFetch counts one page fetch attempt.
func (m *Metrics) RecordFetch(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.pagesFetched++
	} else {
		m.fetchFailures++
	}
}

// RecordProbe counts one existence probe and whether it hit.
func (m *Metrics) RecordProbe(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probesIssued++
	if hit {
		m.probeHits++
	}
}

// RecordOffer counts one materialized offer record.
func (m *Metrics) RecordOffer(partial bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offersExtracted++
	if partial {
		m.partialRecords++
	}
	m.lastScrapeTime = time.Now()
}

// RecordCacheHit counts a scrape served from the cache.
func (m *Metrics) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	PagesFetched    int64     `json:"pages_fetched"`
	FetchFailures   int64     `json:"fetch_failures"`
	ProbesIssued    int64     `json:"probes_issued"`
	ProbeHits       int64     `json:"probe_hits"`
	OffersExtracted int64     `json:"offers_extracted"`
	PartialRecords  int64     `json:"partial_records"`
	CacheHits       int64     `json:"cache_hits"`
	LastScrapeTime  time.Time `json:"last_scrape_time"`
	StartTime       time.Time `json:"start_time"`
}

// GetSnapshot returns a copy of the current counters.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		PagesFetched:    m.pagesFetched,
		FetchFailures:   m.fetchFailures,
		ProbesIssued:    m.probesIssued,
		ProbeHits:       m.probeHits,
		OffersExtracted: m.offersExtracted,
		PartialRecords:  m.partialRecords,
		CacheHits:       m.cacheHits,
		LastScrapeTime:  m.lastScrapeTime,
		StartTime:       m.startTime,
	}
}
