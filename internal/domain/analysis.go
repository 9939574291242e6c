package domain

import "time"

// PriceCategory classifies how good a price is relative to the market.
type PriceCategory string

const (
	// PriceExcellent marks an unusually good deal.
	PriceExcellent PriceCategory = "excellent"
	// PriceGood marks a better than average price.
	PriceGood PriceCategory = "good"
	// PriceAverage marks a typical market price.
	PriceAverage PriceCategory = "average"
	// PricePoor marks a price above the expected market level.
	PricePoor PriceCategory = "poor"
)

// OfferAnalysis holds the AI judgment for a single offer.
type OfferAnalysis struct {
	// Offer the analysis belongs to
	OfferID string `json:"offer_id" db:"offer_id"`
	// Product category and subcategory
	Category    string `json:"category,omitempty" db:"category"`
	Subcategory string `json:"subcategory,omitempty" db:"subcategory"`
	// Recognized brand
	Brand string `json:"brand,omitempty" db:"brand"`
	// Price classification
	PriceCategory PriceCategory `json:"price_category,omitempty" db:"price_category"`
	// Value score on a 0-10 scale
	ValueScore *float64 `json:"value_score,omitempty" db:"value_score"`
	// Qualitative deal assessment
	DealQuality string `json:"deal_quality,omitempty" db:"deal_quality"`
	// Consumer insights
	TargetAudience    string `json:"target_audience,omitempty" db:"target_audience"`
	PurchaseUrgency   string `json:"purchase_urgency,omitempty" db:"purchase_urgency"`
	SeasonalRelevance string `json:"seasonal_relevance,omitempty" db:"seasonal_relevance"`
	// Recommendation text and supporting points
	Recommendation string   `json:"recommendation,omitempty" db:"recommendation"`
	Pros           []string `json:"pros,omitempty"`
	Cons           []string `json:"cons,omitempty"`
	// Model that produced the judgment
	AnalysisModel string `json:"analysis_model" db:"analysis_model"`
	// Model confidence, 0-1
	ConfidenceScore *float64 `json:"confidence_score,omitempty" db:"confidence_score"`
	// Processing timestamp
	ProcessedAt time.Time `json:"processed_at" db:"processed_at"`
}
