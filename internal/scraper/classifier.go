package scraper

import (
	"context"
	"encoding/json"

	"github.com/locopon/locopon/internal/jsondata"
	"github.com/locopon/locopon/internal/logger"
)

// PublicationType classifies how a publication exposes its data.
type PublicationType string

const (
	// TypeIndividualOffers marks publications with discrete per-offer records.
	TypeIndividualOffers PublicationType = "individual_offers"
	// TypeCatalog marks paged flyers with no per-item breakdown.
	TypeCatalog PublicationType = "catalog"
	// TypeUnknown marks publications showing neither signal. Callers try
	// the individual-offers path first, it is cheap to attempt.
	TypeUnknown PublicationType = "unknown"
)

// Classifier decides the publication type from the landing page.
type Classifier struct {
	fetcher Fetcher
	opts    *Options
	logger  logger.Interface
}

// NewClassifier creates a publication type classifier.
func NewClassifier(fetcher Fetcher, opts *Options, log logger.Interface) *Classifier {
	return &Classifier{
		fetcher: fetcher,
		opts:    opts,
		logger:  log.WithComponent("classifier"),
	}
}

// Classify fetches the publication landing page and inspects every data
// container. Any parsed segment yielding offer identifiers marks the
// publication as individual-offers; a publication object with more than
// one page or page image marks it as catalog. Identifier evidence wins
// over catalog evidence: per-offer granularity is worth scraping even
// when a catalog view also exists.
func (c *Classifier) Classify(ctx context.Context, r Retailer) PublicationType {
	pageURL := c.opts.LandingURL(r)

	result, err := c.fetcher.FetchPage(ctx, pageURL)
	if err != nil || !result.OK() {
		c.logger.Debug("Landing page unavailable during classification",
			"retailer", r.Key,
			"url", pageURL,
		)
		return TypeUnknown
	}

	doc, err := parseDocument(result.Body)
	if err != nil {
		return TypeUnknown
	}

	offersFound := false
	catalogFound := false

	for _, container := range extractContainers(doc) {
		for _, segment := range jsondata.ExtractSegments(container) {
			var data any
			if unmarshalErr := json.Unmarshal([]byte(segment), &data); unmarshalErr != nil {
				continue
			}

			if len(jsondata.FindIdentifiers(data, c.opts.SearchDepth)) > 0 {
				offersFound = true
			}
			if hasCatalogSignal(data) {
				catalogFound = true
			}
		}
	}

	switch {
	case offersFound:
		return TypeIndividualOffers
	case catalogFound:
		return TypeCatalog
	default:
		return TypeUnknown
	}
}

// hasCatalogSignal reports whether a parsed segment carries a publication
// object that looks like a multi-page flyer.
func hasCatalogSignal(data any) bool {
	obj, ok := data.(map[string]any)
	if !ok {
		return false
	}
	pub, ok := obj["publication"].(map[string]any)
	if !ok {
		return false
	}

	if pageCount, isNum := pub["pageCount"].(float64); isNum && pageCount > 1 {
		return true
	}
	if images, isList := pub["images"].([]any); isList && len(images) > 1 {
		return true
	}
	return false
}
