package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/jsondata"
	"github.com/locopon/locopon/internal/logger"
)

// CatalogReader builds a whole-flyer summary for catalog-style
// publications, where individual line items are not reachable through the
// data containers.
type CatalogReader struct {
	fetcher Fetcher
	opts    *Options
	logger  logger.Interface
}

// NewCatalogReader creates a catalog summary reader.
func NewCatalogReader(fetcher Fetcher, opts *Options, log logger.Interface) *CatalogReader {
	return &CatalogReader{
		fetcher: fetcher,
		opts:    opts,
		logger:  log.WithComponent("catalog"),
	}
}

// Read fetches the landing page and extracts the publication object into
// a CatalogSummary. Returns (nil, error) when the page is unavailable and
// (nil, nil) when no publication object is present.
func (c *CatalogReader) Read(ctx context.Context, r Retailer) (*domain.CatalogSummary, error) {
	pageURL := c.opts.LandingURL(r)

	result, err := c.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("catalog page: %w", err)
	}
	if !result.OK() {
		return nil, fmt.Errorf("catalog page: status %d: %w", result.StatusCode, ErrPageUnavailable)
	}

	doc, err := parseDocument(result.Body)
	if err != nil {
		return nil, fmt.Errorf("parse catalog page: %w", err)
	}

	for _, container := range extractContainers(doc) {
		for _, segment := range jsondata.ExtractSegments(container) {
			var data map[string]any
			if unmarshalErr := json.Unmarshal([]byte(segment), &data); unmarshalErr != nil {
				continue
			}

			pub, ok := data["publication"].(map[string]any)
			if !ok {
				continue
			}

			summary := c.buildSummary(r, pageURL, pub)
			c.logger.Info("Catalog extracted",
				"retailer", r.Key,
				"pages", summary.PageCount,
			)
			return summary, nil
		}
	}

	return nil, nil
}

func (c *CatalogReader) buildSummary(r Retailer, pageURL string, pub map[string]any) *domain.CatalogSummary {
	summary := &domain.CatalogSummary{
		PublicationID: r.PublicationID,
		BusinessID:    businessKey(r.Slug),
		Name:          r.Name,
		URL:           pageURL,
		DiscoveredAt:  time.Now(),
	}

	if name, ok := pub["name"].(string); ok && name != "" {
		summary.Name = fmt.Sprintf("%s - %s", r.Name, name)
	}
	if pageCount, ok := pub["pageCount"].(float64); ok {
		summary.PageCount = int(pageCount)
	}
	if images, ok := pub["images"].([]any); ok {
		for _, image := range images {
			if s, isString := image.(string); isString {
				summary.PageImages = append(summary.PageImages, s)
			}
		}
	}
	if raw := roleString(pub, jsondata.RoleValidFrom); raw != "" {
		summary.ValidFrom = parseDate(raw)
	}
	if raw := roleString(pub, jsondata.RoleValidUntil); raw != "" {
		summary.ValidUntil = parseDate(raw)
	}

	return summary
}
