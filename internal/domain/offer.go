// Package domain provides domain models used across the application.
package domain

import (
	"fmt"
	"time"
)

// OfferStatus represents the processing state of an offer.
type OfferStatus string

const (
	// StatusNew marks a freshly discovered offer.
	StatusNew OfferStatus = "new"
	// StatusAnalyzed marks an offer with a stored AI analysis.
	StatusAnalyzed OfferStatus = "analyzed"
	// StatusNotified marks an offer that has been sent to subscribers.
	StatusNotified OfferStatus = "notified"
	// StatusExpired marks an offer past its validity window.
	StatusExpired OfferStatus = "expired"
)

// Offer represents a single promotional line item within a publication.
// Price and date fields are pointers because extraction is best-effort:
// an offer with only an identifier and a name is still a valid record.
type Offer struct {
	// Unique identifier within the publication
	ID string `json:"id" db:"id"`
	// Publication the offer belongs to
	PublicationID string `json:"publication_id" db:"publication_id"`
	// Business (retailer) key
	BusinessID string `json:"business_id" db:"business_id"`
	// Product name
	Name string `json:"name" db:"name"`
	// Product description
	Description string `json:"description,omitempty" db:"description"`
	// Current promotional price
	Price *float64 `json:"price,omitempty" db:"price"`
	// Member-only price, preferred for display when present
	MembershipPrice *float64 `json:"membership_price,omitempty" db:"membership_price"`
	// Price before the promotion
	OriginalPrice *float64 `json:"original_price,omitempty" db:"original_price"`
	// ISO currency code
	Currency string `json:"currency" db:"currency"`
	// Price per base unit
	UnitPrice *float64 `json:"unit_price,omitempty" db:"unit_price"`
	// Base unit for the unit price (e.g. "kg")
	BaseUnit string `json:"base_unit,omitempty" db:"base_unit"`
	// Package size range
	UnitSizeFrom *float64 `json:"unit_size_from,omitempty" db:"unit_size_from"`
	UnitSizeTo   *float64 `json:"unit_size_to,omitempty" db:"unit_size_to"`
	// Unit symbol for the size range (e.g. "g", "ml")
	UnitSymbol string `json:"unit_symbol,omitempty" db:"unit_symbol"`
	// Product image
	ImageURL string `json:"image_url,omitempty" db:"image_url"`
	// High resolution product image
	ImageLargeURL string `json:"image_large_url,omitempty" db:"image_large_url"`
	// Validity window
	ValidFrom  *time.Time `json:"valid_from,omitempty" db:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty" db:"valid_until"`
	// Retailer display name
	BusinessName string `json:"business_name,omitempty" db:"business_name"`
	// Retailer logo image
	BusinessLogo string `json:"business_logo,omitempty" db:"business_logo"`
	// Canonical offer page URL
	URL string `json:"url,omitempty" db:"url"`
	// Raw extracted source object, kept for auditability
	SourceData JSONMap `json:"source_data,omitempty" db:"source_data"`
	// Discovery timestamp
	DiscoveredAt time.Time `json:"discovered_at" db:"discovered_at"`
	// Processing status
	Status OfferStatus `json:"status" db:"status"`
}

// DisplayPrice returns the most relevant price for display: the membership
// price when present, otherwise the regular promotional price.
func (o *Offer) DisplayPrice() (float64, bool) {
	if o.MembershipPrice != nil {
		return *o.MembershipPrice, true
	}
	if o.Price != nil {
		return *o.Price, true
	}
	return 0, false
}

// IsValid reports whether the offer's validity window covers the given time.
// Offers without window bounds are treated as valid.
func (o *Offer) IsValid(now time.Time) bool {
	if o.ValidFrom != nil && now.Before(*o.ValidFrom) {
		return false
	}
	if o.ValidUntil != nil && now.After(*o.ValidUntil) {
		return false
	}
	return true
}

// PriceLabel formats the display price with the currency, or "-" when no
// price was extracted.
func (o *Offer) PriceLabel() string {
	price, ok := o.DisplayPrice()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f %s", price, o.Currency)
}

// CatalogSummary represents a whole catalog-style publication as a single
// unit, used when individual line items are not reachable.
type CatalogSummary struct {
	// Publication identifier
	PublicationID string `json:"publication_id" db:"publication_id"`
	// Business (retailer) key
	BusinessID string `json:"business_id" db:"business_id"`
	// Publication name
	Name string `json:"name" db:"name"`
	// Number of flyer pages
	PageCount int `json:"page_count" db:"page_count"`
	// Page image references
	PageImages []string `json:"page_images,omitempty"`
	// Validity window
	ValidFrom  *time.Time `json:"valid_from,omitempty" db:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty" db:"valid_until"`
	// Landing page URL
	URL string `json:"url,omitempty" db:"url"`
	// Discovery timestamp
	DiscoveredAt time.Time `json:"discovered_at" db:"discovered_at"`
}
