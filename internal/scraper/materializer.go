package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/jsondata"
	"github.com/locopon/locopon/internal/logger"
)

// objectSearchDepth bounds the search for the offer's own object inside a
// page blob. Offer objects sit deeper than the role-search ceiling allows.
const objectSearchDepth = 8

// Heading fallback bounds; headings outside this range are navigation or
// body copy, not product names.
const (
	minHeadingLen = 4
	maxHeadingLen = 100
)

// Materializer assembles a normalized offer record for one identifier by
// fetching the per-offer page and applying a cascade of extraction
// strategies. Earlier strategies are richer; later ones only fill gaps
// and never overwrite an already populated field. A page with nothing
// extractable still yields a record with the identifier and a placeholder
// name; only a failed fetch yields no record.
type Materializer struct {
	fetcher Fetcher
	opts    *Options
	logger  logger.Interface
	metrics *Metrics
}

// NewMaterializer creates an offer materializer.
func NewMaterializer(fetcher Fetcher, opts *Options, log logger.Interface, metrics *Metrics) *Materializer {
	return &Materializer{
		fetcher: fetcher,
		opts:    opts,
		logger:  log.WithComponent("materializer"),
		metrics: metrics,
	}
}

// extracted accumulates cascade output. Empty strings and nil pointers
// mean "not yet filled".
type extracted struct {
	name         string
	description  string
	currency     string
	imageURL     string
	imageLarge   string
	businessName string
	businessLogo string
	baseUnit     string
	unitSymbol   string

	price           *float64
	membershipPrice *float64
	originalPrice   *float64
	unitPrice       *float64
	unitSizeFrom    *float64
	unitSizeTo      *float64

	validFrom  *time.Time
	validUntil *time.Time

	source domain.JSONMap
}

// fillString sets dst only when it is still empty.
func fillString(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = strings.TrimSpace(value)
	}
}

// fillFloat sets dst only when it is still nil.
func fillFloat(dst **float64, value *float64) {
	if *dst == nil && value != nil {
		*dst = value
	}
}

// fillTime sets dst only when it is still nil.
func fillTime(dst **time.Time, value *time.Time) {
	if *dst == nil && value != nil {
		*dst = value
	}
}

// Materialize fetches the per-offer page and runs the extraction cascade.
// A transport failure or non-200 status yields (nil, error); everything
// past a successful fetch degrades gracefully.
func (m *Materializer) Materialize(ctx context.Context, r Retailer, offerID string) (*domain.Offer, error) {
	log := m.logger.WithRetailer(r.Key).WithOfferID(offerID)
	pageURL := m.opts.OfferURL(r, offerID)

	result, err := m.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		m.metrics.RecordFetch(false)
		return nil, fmt.Errorf("offer page %s: %w", offerID, err)
	}
	m.metrics.RecordFetch(result.OK())
	if !result.OK() {
		log.Warn("Offer page unavailable", "status", result.StatusCode)
		return nil, fmt.Errorf("offer page %s: status %d: %w", offerID, result.StatusCode, ErrPageUnavailable)
	}

	doc, err := parseDocument(result.Body)
	if err != nil {
		return nil, fmt.Errorf("parse offer page %s: %w", offerID, err)
	}

	var ex extracted
	m.fromAppData(&ex, doc, offerID)
	m.fromJSONLD(&ex, doc)
	m.fromMetaTags(&ex, doc)
	m.priceFromText(&ex, result.Body)
	m.nameFromHeadings(&ex, doc)
	m.dateFromText(&ex, result.Body)

	offer := m.buildOffer(r, offerID, pageURL, &ex)
	m.metrics.RecordOffer(offer.Price == nil || ex.source == nil)
	log.Debug("Offer materialized", "name", offer.Name, "has_price", offer.Price != nil)

	return offer, nil
}

// fromAppData extracts from the structured data blob scoped to the object
// matching this specific identifier. Richest source when present.
func (m *Materializer) fromAppData(ex *extracted, doc *goquery.Document, offerID string) {
	for _, container := range extractContainers(doc) {
		for _, segment := range jsondata.ExtractSegments(container) {
			var data any
			if err := json.Unmarshal([]byte(segment), &data); err != nil {
				continue
			}

			obj, found := jsondata.FindObjectByID(data, offerID, objectSearchDepth)
			if !found {
				continue
			}

			m.fillFromObject(ex, obj)
			if ex.source == nil {
				ex.source = domain.JSONMap(obj)
			}
		}
	}
}

// fillFromObject populates fields from a single offer object using the
// role synonym tables.
func (m *Materializer) fillFromObject(ex *extracted, obj map[string]any) {
	fillString(&ex.name, roleString(obj, jsondata.RoleName))
	fillString(&ex.description, roleString(obj, jsondata.RoleDescription))
	fillString(&ex.currency, roleString(obj, jsondata.RoleCurrency))
	fillString(&ex.imageURL, roleString(obj, jsondata.RoleImage))
	fillString(&ex.imageLarge, roleString(obj, jsondata.RoleImageLarge))
	fillString(&ex.businessName, roleString(obj, jsondata.RoleBusinessName))
	fillString(&ex.baseUnit, roleString(obj, jsondata.RoleBaseUnit))
	fillString(&ex.unitSymbol, roleString(obj, jsondata.RoleUnitSymbol))

	fillFloat(&ex.price, roleNumber(obj, jsondata.RolePrice))
	fillFloat(&ex.membershipPrice, roleNumber(obj, jsondata.RoleMembershipPrice))
	fillFloat(&ex.originalPrice, roleNumber(obj, jsondata.RoleOriginalPrice))
	fillFloat(&ex.unitPrice, roleNumber(obj, jsondata.RoleUnitPrice))

	if raw, ok := obj["unitSizeFrom"].(float64); ok {
		fillFloat(&ex.unitSizeFrom, &raw)
	}
	if raw, ok := obj["unitSizeTo"].(float64); ok {
		fillFloat(&ex.unitSizeTo, &raw)
	}
	if logo, ok := obj["positiveLogoImage"].(string); ok {
		fillString(&ex.businessLogo, logo)
	}

	if raw := roleString(obj, jsondata.RoleValidFrom); raw != "" {
		fillTime(&ex.validFrom, parseDate(raw))
	}
	if raw := roleString(obj, jsondata.RoleValidUntil); raw != "" {
		fillTime(&ex.validUntil, parseDate(raw))
	}
}

// fromJSONLD extracts page-level product structured metadata.
func (m *Materializer) fromJSONLD(ex *extracted, doc *goquery.Document) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data map[string]any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return
		}

		offerInfo, ok := data["offers"]
		if !ok {
			return
		}
		if list, isList := offerInfo.([]any); isList && len(list) > 0 {
			offerInfo = list[0]
		}
		offerObj, ok := offerInfo.(map[string]any)
		if !ok {
			return
		}

		fillFloat(&ex.price, parsePriceValue(offerObj["price"]))
		if currency, isString := offerObj["priceCurrency"].(string); isString {
			fillString(&ex.currency, currency)
		}
		if name, isString := data["name"].(string); isString {
			fillString(&ex.name, name)
		}
		if desc, isString := data["description"].(string); isString {
			fillString(&ex.description, desc)
		}
		if image, isString := data["image"].(string); isString {
			fillString(&ex.imageURL, image)
		}
	})
}

// metaProperties maps meta tag properties to extraction targets.
var metaProperties = []struct {
	property string
	fill     func(ex *extracted, content string)
}{
	{"og:title", func(ex *extracted, v string) { fillString(&ex.name, v) }},
	{"og:description", func(ex *extracted, v string) { fillString(&ex.description, v) }},
	{"og:image", func(ex *extracted, v string) { fillString(&ex.imageURL, v) }},
	{"product:price:amount", func(ex *extracted, v string) { fillFloat(&ex.price, parsePriceString(v)) }},
	{"product:price:currency", func(ex *extracted, v string) { fillString(&ex.currency, v) }},
}

// fromMetaTags extracts page meta tag conventions.
func (m *Materializer) fromMetaTags(ex *extracted, doc *goquery.Document) {
	for _, meta := range metaProperties {
		sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, meta.property))
		if sel.Length() == 0 {
			sel = doc.Find(fmt.Sprintf(`meta[name=%q]`, meta.property))
		}
		if content, ok := sel.First().Attr("content"); ok && content != "" {
			meta.fill(ex, content)
		}
	}
}

// priceFromText is the last-resort price strategy: numeric+currency
// patterns over the raw page text, first match wins.
func (m *Materializer) priceFromText(ex *extracted, body string) {
	if ex.price != nil {
		return
	}

	for _, pattern := range pricePatterns {
		match := pattern.FindStringSubmatch(body)
		if match == nil {
			continue
		}

		raw := match[1]
		if len(match) > 2 && match[2] != "" {
			raw = match[1] + "." + match[2]
		}
		if price := parsePriceString(raw); price != nil {
			ex.price = price
			return
		}
	}
}

// nameFromHeadings is the last-resort name strategy: the page title with
// site boilerplate stripped, then the first plausible heading.
func (m *Materializer) nameFromHeadings(ex *extracted, doc *goquery.Document) {
	if ex.name != "" {
		return
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	for _, pattern := range titleSuffixPatterns {
		title = pattern.ReplaceAllString(title, "")
	}
	if len(title) > minHeadingLen-1 {
		ex.name = title
		return
	}

	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) >= minHeadingLen && len(text) < maxHeadingLen {
			ex.name = text
			return false
		}
		return true
	})
}

// dateFromText matches validity phrasings over the raw page text.
func (m *Materializer) dateFromText(ex *extracted, body string) {
	if ex.validUntil != nil {
		return
	}

	for _, pattern := range datePatterns {
		if match := pattern.FindStringSubmatch(body); match != nil {
			if parsed := parseDate(match[1]); parsed != nil {
				ex.validUntil = parsed
				return
			}
		}
	}
}

// buildOffer assembles the final record, synthesizing a placeholder name
// when extraction found none. Absence of detail is not failure.
func (m *Materializer) buildOffer(r Retailer, offerID, pageURL string, ex *extracted) *domain.Offer {
	name := ex.name
	if name == "" {
		short := offerID
		if len(short) > 8 {
			short = short[:8]
		}
		name = "Produkt " + short
	}

	currency := ex.currency
	if currency == "" {
		currency = "SEK"
	}

	businessName := ex.businessName
	if businessName == "" {
		businessName = r.Name
	}

	return &domain.Offer{
		ID:              offerID,
		PublicationID:   r.PublicationID,
		BusinessID:      businessKey(r.Slug),
		Name:            name,
		Description:     ex.description,
		Price:           ex.price,
		MembershipPrice: ex.membershipPrice,
		OriginalPrice:   ex.originalPrice,
		Currency:        currency,
		UnitPrice:       ex.unitPrice,
		BaseUnit:        ex.baseUnit,
		UnitSizeFrom:    ex.unitSizeFrom,
		UnitSizeTo:      ex.unitSizeTo,
		UnitSymbol:      ex.unitSymbol,
		ImageURL:        ex.imageURL,
		ImageLargeURL:   ex.imageLarge,
		ValidFrom:       ex.validFrom,
		ValidUntil:      ex.validUntil,
		BusinessName:    businessName,
		BusinessLogo:    ex.businessLogo,
		URL:             pageURL,
		SourceData:      ex.source,
		DiscoveredAt:    time.Now(),
		Status:          domain.StatusNew,
	}
}

// businessKey derives the stable business identifier from a retailer slug.
func businessKey(slug string) string {
	return strings.ReplaceAll(strings.ToLower(slug), "-", "_")
}

// roleString extracts a role as a string from one object.
func roleString(obj map[string]any, role jsondata.Role) string {
	match, ok := jsondata.RoleValue(obj, role)
	if !ok {
		return ""
	}
	s, _ := match.Text()
	return s
}

// roleNumber extracts a role as a price value from one object, accepting
// both JSON numbers and numeric strings.
func roleNumber(obj map[string]any, role jsondata.Role) *float64 {
	match, ok := jsondata.RoleValue(obj, role)
	if !ok {
		return nil
	}
	return parsePriceValue(match.Value)
}
