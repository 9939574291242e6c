package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/logger"
	"github.com/locopon/locopon/internal/pipeline"
	"github.com/locopon/locopon/internal/scraper"
)

type fakeScraper struct {
	results   []scraper.Result
	err       error
	lastForce bool
}

func (f *fakeScraper) ScrapeAll(_ context.Context, _ []scraper.Retailer, force bool) ([]scraper.Result, error) {
	f.lastForce = force
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeAnalyzer struct {
	analyses []domain.OfferAnalysis
}

func (f *fakeAnalyzer) AnalyzeBatch(_ context.Context, _ []domain.Offer) []domain.OfferAnalysis {
	return f.analyses
}

type fakeNotifier struct {
	enabled bool
	sendErr error

	pushed  []string
	digests int
	offers  []domain.Offer
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func (f *fakeNotifier) SendOffer(_ context.Context, offer *domain.Offer, _ *domain.OfferAnalysis) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.pushed = append(f.pushed, offer.ID)
	return nil
}

func (f *fakeNotifier) SendDigest(_ context.Context, offers []domain.Offer, _ []domain.OfferAnalysis) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.digests++
	f.offers = offers
	return nil
}

func (f *fakeNotifier) SendStatus(_ context.Context, _ string, _ bool) error { return nil }

type fakeOfferStore struct {
	upserted    []domain.Offer
	created     int
	upsertErr   error
	unanalyzed  []domain.Offer
	recent      []domain.Offer
	statuses    map[string]domain.OfferStatus
	cleanedWith time.Time
}

func (f *fakeOfferStore) UpsertBatch(_ context.Context, offers []domain.Offer) (int, int, error) {
	f.upserted = append(f.upserted, offers...)
	if f.upsertErr != nil {
		return len(offers) - 1, f.created, f.upsertErr
	}
	return len(offers), f.created, nil
}

func (f *fakeOfferStore) Unanalyzed(_ context.Context, _ int) ([]domain.Offer, error) {
	return f.unanalyzed, nil
}

func (f *fakeOfferStore) SetStatus(_ context.Context, id string, status domain.OfferStatus) error {
	if f.statuses == nil {
		f.statuses = make(map[string]domain.OfferStatus)
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeOfferStore) Recent(_ context.Context, _ time.Time, _ int) ([]domain.Offer, error) {
	return f.recent, nil
}

func (f *fakeOfferStore) CleanupExpired(_ context.Context, olderThan time.Time) (int64, error) {
	f.cleanedWith = olderThan
	return 3, nil
}

type fakeAnalysisStore struct {
	saved  []domain.OfferAnalysis
	latest map[string]*domain.OfferAnalysis
}

func (f *fakeAnalysisStore) Save(_ context.Context, analysis *domain.OfferAnalysis) error {
	f.saved = append(f.saved, *analysis)
	return nil
}

func (f *fakeAnalysisStore) Latest(_ context.Context, offerID string) (*domain.OfferAnalysis, error) {
	return f.latest[offerID], nil
}

type fakeRunStore struct {
	startErr error

	runID       string
	completed   bool
	total       int
	created     int
	failedCount int
	failMessage string
	cleanedWith time.Time
}

func (f *fakeRunStore) Start(_ context.Context) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	f.runID = "run-1"
	return f.runID, nil
}

func (f *fakeRunStore) Complete(_ context.Context, _ string, total, created, failed int) error {
	f.completed = true
	f.total = total
	f.created = created
	f.failedCount = failed
	return nil
}

func (f *fakeRunStore) Fail(_ context.Context, _ string, message string) error {
	f.failMessage = message
	return nil
}

func (f *fakeRunStore) CleanupRuns(_ context.Context, olderThan time.Time) (int64, error) {
	f.cleanedWith = olderThan
	return 2, nil
}

type deps struct {
	scraper  *fakeScraper
	analyzer *fakeAnalyzer
	notifier *fakeNotifier
	offers   *fakeOfferStore
	analyses *fakeAnalysisStore
	runs     *fakeRunStore
}

func newTestPipeline(opts pipeline.Options) (*pipeline.Pipeline, *deps) {
	d := &deps{
		scraper:  &fakeScraper{},
		analyzer: &fakeAnalyzer{},
		notifier: &fakeNotifier{enabled: true},
		offers:   &fakeOfferStore{},
		analyses: &fakeAnalysisStore{},
		runs:     &fakeRunStore{},
	}
	p := pipeline.NewWithStores(opts, d.scraper, d.analyzer, d.notifier,
		d.offers, d.analyses, d.runs, logger.NewNoOp())
	return p, d
}

func makeOffer(id string, category domain.PriceCategory) (domain.Offer, domain.OfferAnalysis) {
	offer := domain.Offer{ID: id, Name: "Kaffe", BusinessID: "ica_maxi", Currency: "SEK"}
	analysis := domain.OfferAnalysis{OfferID: id, PriceCategory: category, AnalysisModel: "test"}
	return offer, analysis
}

func TestScrapeOnce(t *testing.T) {
	t.Parallel()

	p, d := newTestPipeline(pipeline.Options{})
	offerA, _ := makeOffer("offerA00001234567", domain.PriceGood)
	offerB, _ := makeOffer("offerB00001234567", domain.PriceGood)
	d.scraper.results = []scraper.Result{
		{Retailer: "ica-maxi", Offers: []domain.Offer{offerA, offerB}},
		{Retailer: "willys", Catalog: &domain.CatalogSummary{Name: "Veckans blad"}, FromCache: true},
	}
	d.offers.created = 2

	summary, err := p.ScrapeOnce(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 2, summary.Retailers)
	assert.Equal(t, 1, summary.Catalogs)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.FromCache)

	assert.True(t, d.scraper.lastForce)
	assert.Len(t, d.offers.upserted, 2)
	assert.True(t, d.runs.completed)
	assert.Equal(t, 2, d.runs.total)
}

func TestScrapeOnce_ScrapeFailureMarksRunFailed(t *testing.T) {
	t.Parallel()

	p, d := newTestPipeline(pipeline.Options{})
	d.scraper.err = errors.New("network down")

	_, err := p.ScrapeOnce(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, d.runs.failMessage, "network down")
	assert.False(t, d.runs.completed)
}

func TestScrapeOnce_PartialPersistFailureStillCompletes(t *testing.T) {
	t.Parallel()

	p, d := newTestPipeline(pipeline.Options{})
	offerA, _ := makeOffer("offerA00001234567", domain.PriceGood)
	offerB, _ := makeOffer("offerB00001234567", domain.PriceGood)
	d.scraper.results = []scraper.Result{{Retailer: "ica-maxi", Offers: []domain.Offer{offerA, offerB}}}
	d.offers.upsertErr = errors.New("constraint violation")

	summary, err := p.ScrapeOnce(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, d.runs.completed)
	assert.Equal(t, 1, d.runs.failedCount)
}

func TestAnalyzeAndNotify(t *testing.T) {
	t.Parallel()

	p, d := newTestPipeline(pipeline.Options{})
	offerA, analysisA := makeOffer("offerA00001234567", domain.PriceExcellent)
	offerB, analysisB := makeOffer("offerB00001234567", domain.PriceGood)
	d.offers.unanalyzed = []domain.Offer{offerA, offerB}
	d.analyzer.analyses = []domain.OfferAnalysis{analysisA, analysisB}

	stored, err := p.AnalyzeAndNotify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	assert.Len(t, d.analyses.saved, 2)

	// Only the excellent deal is pushed right away.
	assert.Equal(t, []string{offerA.ID}, d.notifier.pushed)
	assert.Equal(t, domain.StatusNotified, d.offers.statuses[offerA.ID])
	assert.Equal(t, domain.StatusAnalyzed, d.offers.statuses[offerB.ID])
}

func TestAnalyzeAndNotify_DisabledNotifierSkipsPush(t *testing.T) {
	t.Parallel()

	p, d := newTestPipeline(pipeline.Options{})
	d.notifier.enabled = false
	offerA, analysisA := makeOffer("offerA00001234567", domain.PriceExcellent)
	d.offers.unanalyzed = []domain.Offer{offerA}
	d.analyzer.analyses = []domain.OfferAnalysis{analysisA}

	stored, err := p.AnalyzeAndNotify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stored)
	assert.Empty(t, d.notifier.pushed)
	assert.Equal(t, domain.StatusAnalyzed, d.offers.statuses[offerA.ID])
}

func TestAnalyzeAndNotify_PushFailureKeepsAnalyzedStatus(t *testing.T) {
	t.Parallel()

	p, d := newTestPipeline(pipeline.Options{})
	d.notifier.sendErr = errors.New("chat not found")
	offerA, analysisA := makeOffer("offerA00001234567", domain.PriceExcellent)
	d.offers.unanalyzed = []domain.Offer{offerA}
	d.analyzer.analyses = []domain.OfferAnalysis{analysisA}

	stored, err := p.AnalyzeAndNotify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stored)
	assert.Equal(t, domain.StatusAnalyzed, d.offers.statuses[offerA.ID])
}

func TestAnalyzeAndNotify_NothingToDo(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(pipeline.Options{})

	stored, err := p.AnalyzeAndNotify(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stored)
}

func TestDigest(t *testing.T) {
	t.Parallel()

	p, d := newTestPipeline(pipeline.Options{})
	offerA, analysisA := makeOffer("offerA00001234567", domain.PriceExcellent)
	offerB, _ := makeOffer("offerB00001234567", domain.PriceGood)
	d.offers.recent = []domain.Offer{offerA, offerB}
	d.analyses.latest = map[string]*domain.OfferAnalysis{offerA.ID: &analysisA}

	require.NoError(t, p.Digest(context.Background()))
	assert.Equal(t, 1, d.notifier.digests)
	assert.Len(t, d.notifier.offers, 2)
}

func TestDigest_NoRecentOffersIsNoOp(t *testing.T) {
	t.Parallel()

	p, d := newTestPipeline(pipeline.Options{})

	require.NoError(t, p.Digest(context.Background()))
	assert.Zero(t, d.notifier.digests)
}

func TestDigest_DisabledNotifierIsNoOp(t *testing.T) {
	t.Parallel()

	p, d := newTestPipeline(pipeline.Options{})
	d.notifier.enabled = false
	offerA, _ := makeOffer("offerA00001234567", domain.PriceGood)
	d.offers.recent = []domain.Offer{offerA}

	require.NoError(t, p.Digest(context.Background()))
	assert.Zero(t, d.notifier.digests)
}

func TestCleanup(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	retention := 7 * 24 * time.Hour

	p, d := newTestPipeline(pipeline.Options{Retention: retention})
	p.SetClock(func() time.Time { return now })

	require.NoError(t, p.Cleanup(context.Background()))
	assert.Equal(t, now.Add(-retention), d.offers.cleanedWith)
	assert.Equal(t, now.Add(-retention), d.runs.cleanedWith)
}
