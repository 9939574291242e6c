// Package pipeline ties the scraping engine, the sqlite store, the AI
// analyzer and the Telegram notifier into the jobs the CLI and the
// daemon scheduler execute.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/logger"
	"github.com/locopon/locopon/internal/scraper"
	"github.com/locopon/locopon/internal/storage"
)

// Defaults for job sizing and the digest window.
const (
	// DefaultAnalyzeLimit caps offers pulled per analysis pass.
	DefaultAnalyzeLimit = 25
	// DefaultDigestWindow is how far back the digest looks.
	DefaultDigestWindow = 24 * time.Hour
	// DefaultRetention is how long expired offers and old runs are kept.
	DefaultRetention = 30 * 24 * time.Hour

	digestOfferLimit = 100
)

// Scraper runs publication scrapes.
type Scraper interface {
	ScrapeAll(ctx context.Context, retailers []scraper.Retailer, force bool) ([]scraper.Result, error)
}

// Analyzer produces judgments for stored offers.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, offers []domain.Offer) []domain.OfferAnalysis
}

// Notifier delivers chat messages. A disabled notifier is a valid
// dependency; every send degrades to a no-op.
type Notifier interface {
	Enabled() bool
	SendOffer(ctx context.Context, offer *domain.Offer, analysis *domain.OfferAnalysis) error
	SendDigest(ctx context.Context, offers []domain.Offer, analyses []domain.OfferAnalysis) error
	SendStatus(ctx context.Context, message string, isError bool) error
}

// OfferStore is the offer persistence surface the pipeline needs.
type OfferStore interface {
	UpsertBatch(ctx context.Context, offers []domain.Offer) (saved, created int, err error)
	Unanalyzed(ctx context.Context, limit int) ([]domain.Offer, error)
	SetStatus(ctx context.Context, id string, status domain.OfferStatus) error
	Recent(ctx context.Context, since time.Time, limit int) ([]domain.Offer, error)
	CleanupExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// AnalysisStore persists and recalls judgments.
type AnalysisStore interface {
	Save(ctx context.Context, analysis *domain.OfferAnalysis) error
	Latest(ctx context.Context, offerID string) (*domain.OfferAnalysis, error)
}

// RunStore records scrape run bookkeeping.
type RunStore interface {
	Start(ctx context.Context) (string, error)
	Complete(ctx context.Context, id string, total, created, failed int) error
	Fail(ctx context.Context, id, message string) error
	CleanupRuns(ctx context.Context, olderThan time.Time) (int64, error)
}

// Options tunes the pipeline jobs. Zero values fall back to defaults.
type Options struct {
	// Retailers are the publications every scrape covers.
	Retailers []scraper.Retailer
	// AnalyzeLimit caps offers per analysis pass.
	AnalyzeLimit int
	// DigestWindow is how far back the digest looks.
	DigestWindow time.Duration
	// Retention is the cleanup age threshold.
	Retention time.Duration
}

func (o *Options) applyDefaults() {
	if o.AnalyzeLimit <= 0 {
		o.AnalyzeLimit = DefaultAnalyzeLimit
	}
	if o.DigestWindow <= 0 {
		o.DigestWindow = DefaultDigestWindow
	}
	if o.Retention <= 0 {
		o.Retention = DefaultRetention
	}
}

// RunSummary is the outcome of one full scrape pass.
type RunSummary struct {
	RunID     string `json:"run_id"`
	Retailers int    `json:"retailers"`
	Catalogs  int    `json:"catalogs"`
	Total     int    `json:"total_offers"`
	Created   int    `json:"created_offers"`
	Failed    int    `json:"failed_offers"`
	FromCache int    `json:"from_cache"`
}

// Pipeline wires the stages together. Construct it once and reuse it;
// jobs are safe to run sequentially from the scheduler.
type Pipeline struct {
	opts     Options
	scraper  Scraper
	analyzer Analyzer
	notifier Notifier
	offers   OfferStore
	analyses AnalysisStore
	runs     RunStore
	logger   logger.Interface
	clock    func() time.Time
}

// New creates a pipeline over the given stages.
func New(
	opts Options,
	scr Scraper,
	an Analyzer,
	not Notifier,
	store *storage.Store,
	log logger.Interface,
) *Pipeline {
	return NewWithStores(opts, scr, an, not, store.Offers, store.Analyses, store.Runs, log)
}

// NewWithStores creates a pipeline with explicit store dependencies.
func NewWithStores(
	opts Options,
	scr Scraper,
	an Analyzer,
	not Notifier,
	offers OfferStore,
	analyses AnalysisStore,
	runs RunStore,
	log logger.Interface,
) *Pipeline {
	opts.applyDefaults()
	return &Pipeline{
		opts:     opts,
		scraper:  scr,
		analyzer: an,
		notifier: not,
		offers:   offers,
		analyses: analyses,
		runs:     runs,
		logger:   log.WithComponent("pipeline"),
		clock:    time.Now,
	}
}

// ScrapeOnce scrapes every configured retailer, persists the offers and
// records the run. A failed scrape marks the run failed; per-offer
// persistence failures only count toward the summary.
func (p *Pipeline) ScrapeOnce(ctx context.Context, force bool) (*RunSummary, error) {
	runID, err := p.runs.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	summary := &RunSummary{RunID: runID}

	results, err := p.scraper.ScrapeAll(ctx, p.opts.Retailers, force)
	if err != nil {
		if failErr := p.runs.Fail(ctx, runID, err.Error()); failErr != nil {
			p.logger.Error("Failed to record failed run", "run_id", runID, "error", failErr)
		}
		return nil, fmt.Errorf("scrape failed: %w", err)
	}

	var offers []domain.Offer
	for i := range results {
		result := &results[i]
		summary.Retailers++
		if result.FromCache {
			summary.FromCache++
		}
		if result.Catalog != nil {
			summary.Catalogs++
		}
		offers = append(offers, result.Offers...)
	}
	summary.Total = len(offers)

	if len(offers) > 0 {
		saved, created, saveErr := p.offers.UpsertBatch(ctx, offers)
		summary.Created = created
		summary.Failed = summary.Total - saved
		if saveErr != nil {
			p.logger.Error("Some offers failed to persist",
				"run_id", runID, "failed", summary.Failed, "error", saveErr)
		}
	}

	if err := p.runs.Complete(ctx, runID, summary.Total, summary.Created, summary.Failed); err != nil {
		return nil, fmt.Errorf("failed to complete run: %w", err)
	}

	p.logger.Info("Scrape run finished",
		"run_id", runID,
		"retailers", summary.Retailers,
		"offers", summary.Total,
		"created", summary.Created,
		"failed", summary.Failed,
		"from_cache", summary.FromCache)
	return summary, nil
}

// AnalyzeAndNotify pulls unanalyzed offers, stores their judgments and
// pushes excellent deals to the chat immediately. It returns the number
// of analyses stored.
func (p *Pipeline) AnalyzeAndNotify(ctx context.Context) (int, error) {
	offers, err := p.offers.Unanalyzed(ctx, p.opts.AnalyzeLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to load unanalyzed offers: %w", err)
	}
	if len(offers) == 0 {
		return 0, nil
	}

	byID := make(map[string]*domain.Offer, len(offers))
	for i := range offers {
		byID[offers[i].ID] = &offers[i]
	}

	analyses := p.analyzer.AnalyzeBatch(ctx, offers)

	stored := 0
	for i := range analyses {
		analysis := &analyses[i]
		if err := p.analyses.Save(ctx, analysis); err != nil {
			p.logger.Error("Failed to save analysis", "offer_id", analysis.OfferID, "error", err)
			continue
		}
		stored++

		status := domain.StatusAnalyzed
		if p.shouldPush(analysis) {
			if err := p.notifier.SendOffer(ctx, byID[analysis.OfferID], analysis); err != nil {
				p.logger.Warn("Failed to push offer notification",
					"offer_id", analysis.OfferID, "error", err)
			} else {
				status = domain.StatusNotified
			}
		}
		if err := p.offers.SetStatus(ctx, analysis.OfferID, status); err != nil {
			p.logger.Error("Failed to update offer status", "offer_id", analysis.OfferID, "error", err)
		}
	}

	p.logger.Info("Analysis pass finished", "offers", len(offers), "stored", stored)
	return stored, nil
}

// shouldPush decides which deals warrant an immediate notification
// instead of waiting for the digest.
func (p *Pipeline) shouldPush(analysis *domain.OfferAnalysis) bool {
	if !p.notifier.Enabled() {
		return false
	}
	return analysis.PriceCategory == domain.PriceExcellent
}

// Digest sends the periodic deal summary built from offers seen inside
// the digest window. Offers without a stored analysis still appear,
// unranked.
func (p *Pipeline) Digest(ctx context.Context) error {
	if !p.notifier.Enabled() {
		return nil
	}

	since := p.clock().Add(-p.opts.DigestWindow)
	offers, err := p.offers.Recent(ctx, since, digestOfferLimit)
	if err != nil {
		return fmt.Errorf("failed to load recent offers: %w", err)
	}
	if len(offers) == 0 {
		p.logger.Info("No offers in digest window, skipping digest")
		return nil
	}

	analyses := make([]domain.OfferAnalysis, 0, len(offers))
	for i := range offers {
		analysis, err := p.analyses.Latest(ctx, offers[i].ID)
		if err != nil {
			p.logger.Warn("Failed to load analysis for digest", "offer_id", offers[i].ID, "error", err)
			continue
		}
		if analysis != nil {
			analyses = append(analyses, *analysis)
		}
	}

	if err := p.notifier.SendDigest(ctx, offers, analyses); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}

	p.logger.Info("Digest sent", "offers", len(offers), "analyses", len(analyses))
	return nil
}

// Cleanup removes expired offers and old runs past the retention
// window.
func (p *Pipeline) Cleanup(ctx context.Context) error {
	olderThan := p.clock().Add(-p.opts.Retention)

	removedOffers, err := p.offers.CleanupExpired(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("failed to clean up offers: %w", err)
	}

	removedRuns, err := p.runs.CleanupRuns(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("failed to clean up runs: %w", err)
	}

	p.logger.Info("Cleanup finished", "offers_removed", removedOffers, "runs_removed", removedRuns)
	return nil
}
