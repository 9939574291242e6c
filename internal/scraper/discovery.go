package scraper

import (
	"context"
	"encoding/json"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/locopon/locopon/internal/jsondata"
	"github.com/locopon/locopon/internal/logger"
)

// Discoverer enumerates offer identifiers for a publication. The target
// site has no listing endpoint, so the engine layers three strategies:
// extraction from the landing page, probing of plausible API endpoints,
// and a random local search that mutates known-valid seed identifiers
// and existence-probes the candidates. Finding zero identifiers is a
// valid outcome, not an error.
type Discoverer struct {
	fetcher Fetcher
	opts    *Options
	logger  logger.Interface
	metrics *Metrics
	rng     *rand.Rand
}

// NewDiscoverer creates a discovery engine. The random source is
// injectable so discovery runs are reproducible in tests.
func NewDiscoverer(
	fetcher Fetcher,
	opts *Options,
	log logger.Interface,
	metrics *Metrics,
	rng *rand.Rand,
) *Discoverer {
	return &Discoverer{
		fetcher: fetcher,
		opts:    opts,
		logger:  log.WithComponent("discovery"),
		metrics: metrics,
		rng:     rng,
	}
}

// Discover runs all strategies for the retailer's publication and merges
// their results. Single fetch or parse failures are logged and skipped;
// the engine proceeds with whatever it has accumulated.
func (d *Discoverer) Discover(ctx context.Context, r Retailer) []string {
	log := d.logger.WithRetailer(r.Key)
	found := newIDSet()

	pageIDs := d.extractFromLandingPage(ctx, r)
	found.addAll(pageIDs)
	log.WithStage("landing-page").Info("Landing page extraction complete", "count", len(pageIDs))

	apiIDs := d.probeAPIEndpoints(ctx, r)
	found.addAll(apiIDs)
	log.WithStage("api-endpoints").Info("API endpoint probing complete", "count", len(apiIDs))

	if len(r.SeedOffers) > 0 {
		mutated := d.mutationSearch(ctx, r, found)
		found.addAll(mutated)
		log.WithStage("mutation-search").Info("Mutation search complete", "count", len(mutated))
	}

	ids := found.values()
	log.Info("Identifier discovery complete", "total", len(ids))
	return ids
}

// extractFromLandingPage pulls identifiers out of the landing page: data
// containers first, then regex sweeps over the raw page text, link hrefs
// and data attributes.
func (d *Discoverer) extractFromLandingPage(ctx context.Context, r Retailer) []string {
	found := newIDSet()
	pageURL := d.opts.LandingURL(r)

	result, err := d.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		d.metrics.RecordFetch(false)
		d.logger.Warn("Landing page fetch failed",
			"retailer", r.Key,
			"url", pageURL,
			"error", err,
		)
		return nil
	}
	d.metrics.RecordFetch(result.OK())
	if !result.OK() {
		return nil
	}

	doc, err := parseDocument(result.Body)
	if err != nil {
		return nil
	}

	for _, container := range extractContainers(doc) {
		for _, segment := range jsondata.ExtractSegments(container) {
			var data any
			if unmarshalErr := json.Unmarshal([]byte(segment), &data); unmarshalErr != nil {
				// Mis-segmented blob, fall back to pattern matching.
				found.addAll(matchPatterns(idPatterns, segment))
				continue
			}
			found.addAll(jsondata.FindIdentifiers(data, d.opts.SearchDepth))
		}
	}

	found.addAll(matchPatterns(pageIDPatterns, result.Body))
	found.addAll(extractLinkIdentifiers(doc))

	return found.values()
}

// extractLinkIdentifiers collects identifiers from offer links and data
// attributes.
func extractLinkIdentifiers(doc *goquery.Document) []string {
	var ids []string

	doc.Find("[data-offer-id]").Each(func(_ int, sel *goquery.Selection) {
		if id, ok := sel.Attr("data-offer-id"); ok && jsondata.IsIdentifier(id) {
			ids = append(ids, id)
		}
	})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, "offer=") {
			return
		}
		if m := hrefOfferPattern.FindStringSubmatch(href); m != nil && jsondata.IsIdentifier(m[1]) {
			ids = append(ids, m[1])
		}
	})

	return ids
}

// matchPatterns runs the given patterns over text and keeps captures that
// pass identifier validation.
func matchPatterns(patterns []*regexp.Regexp, text string) []string {
	var ids []string
	for _, pattern := range patterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if jsondata.IsIdentifier(m[1]) {
				ids = append(ids, m[1])
			}
		}
	}
	return ids
}

// probeAPIEndpoints tries the known endpoint shapes and interprets the
// first JSON answer. Probing stops on first success to avoid redundant
// requests.
func (d *Discoverer) probeAPIEndpoints(ctx context.Context, r Retailer) []string {
	for _, endpoint := range d.opts.apiEndpoints(r.PublicationID) {
		result, err := d.fetcher.FetchPage(ctx, endpoint)
		if err != nil || !result.OK() {
			d.logger.Debug("API endpoint unavailable", "endpoint", endpoint)
			continue
		}

		var data any
		if unmarshalErr := json.Unmarshal([]byte(result.Body), &data); unmarshalErr != nil {
			continue
		}

		if ids := jsondata.FindIdentifiers(data, d.opts.SearchDepth); len(ids) > 0 {
			d.logger.Info("Offer list endpoint found",
				"endpoint", endpoint,
				"count", len(ids),
			)
			return ids
		}
	}

	return nil
}

// mutationSearch is a bounded random local search over the identifier
// space. Seeds are mutated into same-length candidates; candidates that
// survive an existence probe join both the result set and the seed pool,
// widening the search. There is no completeness guarantee; the budget and
// the mandatory inter-probe delay are the only termination controls.
func (d *Discoverer) mutationSearch(ctx context.Context, r Retailer, known *idSet) []string {
	seeds := make([]string, 0, len(r.SeedOffers))
	for _, seed := range r.SeedOffers {
		if jsondata.IsIdentifier(seed) {
			seeds = append(seeds, seed)
		}
	}
	if len(seeds) == 0 {
		d.logger.Warn("No usable seed identifiers", "retailer", r.Key)
		return nil
	}

	found := newIDSet()
	tried := newIDSet()
	tried.addAll(seeds)
	tried.addAll(known.values())

	for attempt := 0; attempt < d.opts.MutationBudget; attempt++ {
		if ctx.Err() != nil {
			d.logger.Info("Mutation search cancelled", "attempts", attempt)
			break
		}

		seed := seeds[d.rng.Intn(len(seeds))]
		candidate := mutate(d.rng, seed)
		if len(candidate) != len(seed) || tried.has(candidate) {
			continue
		}
		tried.add(candidate)

		if !d.offerExists(ctx, r, candidate) {
			continue
		}

		d.logger.Info("New offer found via mutation",
			"retailer", r.Key,
			"offer_id", candidate,
		)
		found.add(candidate)
		seeds = append(seeds, candidate)
	}

	return found.values()
}

// offerExists probes whether a candidate identifier names a real offer.
// The site answers guessed identifiers with HTTP 200 soft-error pages, so
// status alone is not enough: the body must show a positive content
// signal and no negative one. Probes pause for the configured delay to
// rate-limit against the target.
func (d *Discoverer) offerExists(ctx context.Context, r Retailer, offerID string) bool {
	for _, probeURL := range d.opts.probeURLs(r, offerID) {
		if !sleepContext(ctx, d.opts.ProbeDelay) {
			return false
		}

		result, err := d.probeFetch(ctx, probeURL)
		if err != nil || !result.OK() {
			d.metrics.RecordProbe(false)
			continue
		}

		body := strings.ToLower(result.Body)
		positive := strings.Contains(body, strings.ToLower(offerID))
		for _, signal := range probePositiveSignals {
			if positive {
				break
			}
			positive = strings.Contains(body, signal)
		}

		negative := false
		for _, signal := range probeNegativeSignals {
			if strings.Contains(body, signal) {
				negative = true
				break
			}
		}

		hit := positive && !negative
		d.metrics.RecordProbe(hit)
		if hit {
			return true
		}
	}

	return false
}

// probeFetch fetches a probe URL under the probe timeout, which is
// shorter than the page fetch timeout: a guessed identifier is cheap to
// abandon.
func (d *Discoverer) probeFetch(ctx context.Context, probeURL string) (*PageResult, error) {
	if d.opts.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.ProbeTimeout)
		defer cancel()
	}
	return d.fetcher.FetchPage(ctx, probeURL)
}

// sleepContext pauses for the given duration unless the context is
// cancelled first. Returns false on cancellation.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// idSet is an insertion-ordered string set.
type idSet struct {
	seen  map[string]struct{}
	order []string
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]struct{})}
}

func (s *idSet) add(id string) {
	if _, dup := s.seen[id]; dup {
		return
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *idSet) addAll(ids []string) {
	for _, id := range ids {
		s.add(id)
	}
}

func (s *idSet) has(id string) bool {
	_, ok := s.seen[id]
	return ok
}

func (s *idSet) values() []string {
	return append([]string(nil), s.order...)
}
