package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/locopon/locopon/internal/domain"
)

// analysisSelectColumns lists columns for SELECT queries on offer_analyses.
const analysisSelectColumns = `offer_id, category, subcategory, brand,
	price_category, value_score, deal_quality, target_audience,
	purchase_urgency, seasonal_relevance, recommendation, pros, cons,
	analysis_model, confidence_score, processed_at`

// AnalysisRepository handles database operations for offer analyses.
type AnalysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new analysis repository.
func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// analysisRow is the scan target; pros and cons are JSON arrays in the
// database.
type analysisRow struct {
	OfferID           string         `db:"offer_id"`
	Category          string         `db:"category"`
	Subcategory       string         `db:"subcategory"`
	Brand             string         `db:"brand"`
	PriceCategory     string         `db:"price_category"`
	ValueScore        *float64       `db:"value_score"`
	DealQuality       string         `db:"deal_quality"`
	TargetAudience    string         `db:"target_audience"`
	PurchaseUrgency   string         `db:"purchase_urgency"`
	SeasonalRelevance string         `db:"seasonal_relevance"`
	Recommendation    string         `db:"recommendation"`
	Pros              sql.NullString `db:"pros"`
	Cons              sql.NullString `db:"cons"`
	AnalysisModel     string         `db:"analysis_model"`
	ConfidenceScore   *float64       `db:"confidence_score"`
	ProcessedAt       time.Time      `db:"processed_at"`
}

// Save stores one analysis row. Analyses are append-only; the latest row
// per offer is the current judgment.
func (r *AnalysisRepository) Save(ctx context.Context, analysis *domain.OfferAnalysis) error {
	pros, err := marshalList(analysis.Pros)
	if err != nil {
		return fmt.Errorf("failed to encode pros: %w", err)
	}
	cons, err := marshalList(analysis.Cons)
	if err != nil {
		return fmt.Errorf("failed to encode cons: %w", err)
	}

	query := `
		INSERT INTO offer_analyses (
			offer_id, category, subcategory, brand, price_category,
			value_score, deal_quality, target_audience, purchase_urgency,
			seasonal_relevance, recommendation, pros, cons,
			analysis_model, confidence_score, processed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		analysis.OfferID, analysis.Category, analysis.Subcategory, analysis.Brand,
		string(analysis.PriceCategory), analysis.ValueScore, analysis.DealQuality,
		analysis.TargetAudience, analysis.PurchaseUrgency, analysis.SeasonalRelevance,
		analysis.Recommendation, pros, cons,
		analysis.AnalysisModel, analysis.ConfidenceScore,
		analysis.ProcessedAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis for %s: %w", analysis.OfferID, err)
	}
	return nil
}

// Latest returns the most recent analysis for an offer, or (nil, nil)
// when the offer has none.
func (r *AnalysisRepository) Latest(ctx context.Context, offerID string) (*domain.OfferAnalysis, error) {
	query := `
		SELECT ` + analysisSelectColumns + `
		FROM offer_analyses
		WHERE offer_id = ?
		ORDER BY processed_at DESC
		LIMIT 1
	`

	var row analysisRow
	err := r.db.GetContext(ctx, &row, query, offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis for %s: %w", offerID, err)
	}
	return row.toDomain()
}

func (row *analysisRow) toDomain() (*domain.OfferAnalysis, error) {
	pros, err := unmarshalList(row.Pros)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pros: %w", err)
	}
	cons, err := unmarshalList(row.Cons)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cons: %w", err)
	}

	return &domain.OfferAnalysis{
		OfferID:           row.OfferID,
		Category:          row.Category,
		Subcategory:       row.Subcategory,
		Brand:             row.Brand,
		PriceCategory:     domain.PriceCategory(row.PriceCategory),
		ValueScore:        row.ValueScore,
		DealQuality:       row.DealQuality,
		TargetAudience:    row.TargetAudience,
		PurchaseUrgency:   row.PurchaseUrgency,
		SeasonalRelevance: row.SeasonalRelevance,
		Recommendation:    row.Recommendation,
		Pros:              pros,
		Cons:              cons,
		AnalysisModel:     row.AnalysisModel,
		ConfidenceScore:   row.ConfidenceScore,
		ProcessedAt:       row.ProcessedAt,
	}, nil
}

func marshalList(items []string) (any, error) {
	if len(items) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalList(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw.String), &items); err != nil {
		return nil, err
	}
	return items, nil
}
