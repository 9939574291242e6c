package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/locopon/locopon/internal/domain"
)

// offerSelectColumns lists columns for SELECT queries on offers.
const offerSelectColumns = `id, publication_id, business_id, name, description,
	price, membership_price, original_price, currency, unit_price, base_unit,
	unit_size_from, unit_size_to, unit_symbol, image_url, image_large_url,
	valid_from, valid_until, business_name, business_logo, url, source_data,
	discovered_at, status`

// OfferRepository handles database operations for offers.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository creates a new offer repository.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// Upsert inserts the offer or refreshes an existing row in place.
// Reports whether the offer was new; the insert itself decides, so the
// answer holds even with a second writer on the file. The status of an
// existing row is preserved so re-scrapes do not reset the analysis
// pipeline.
func (r *OfferRepository) Upsert(ctx context.Context, offer *domain.Offer) (bool, error) {
	now := time.Now().UTC()

	insert := `
		INSERT INTO offers (
			id, publication_id, business_id, name, description,
			price, membership_price, original_price, currency, unit_price,
			base_unit, unit_size_from, unit_size_to, unit_symbol,
			image_url, image_large_url, valid_from, valid_until,
			business_name, business_logo, url, source_data,
			discovered_at, status, created_at, updated_at
		) VALUES (
			:id, :publication_id, :business_id, :name, :description,
			:price, :membership_price, :original_price, :currency, :unit_price,
			:base_unit, :unit_size_from, :unit_size_to, :unit_symbol,
			:image_url, :image_large_url, :valid_from, :valid_until,
			:business_name, :business_logo, :url, :source_data,
			:discovered_at, :status, :created_at, :updated_at
		)
		ON CONFLICT(id) DO NOTHING
	`

	update := `
		UPDATE offers SET
			name = :name,
			description = :description,
			price = :price,
			membership_price = :membership_price,
			original_price = :original_price,
			currency = :currency,
			unit_price = :unit_price,
			base_unit = :base_unit,
			unit_size_from = :unit_size_from,
			unit_size_to = :unit_size_to,
			unit_symbol = :unit_symbol,
			image_url = :image_url,
			image_large_url = :image_large_url,
			valid_from = :valid_from,
			valid_until = :valid_until,
			business_name = :business_name,
			business_logo = :business_logo,
			url = :url,
			source_data = :source_data,
			updated_at = :updated_at
		WHERE id = :id
	`

	args := map[string]any{
		"id":               offer.ID,
		"publication_id":   offer.PublicationID,
		"business_id":      offer.BusinessID,
		"name":             offer.Name,
		"description":      offer.Description,
		"price":            offer.Price,
		"membership_price": offer.MembershipPrice,
		"original_price":   offer.OriginalPrice,
		"currency":         offer.Currency,
		"unit_price":       offer.UnitPrice,
		"base_unit":        offer.BaseUnit,
		"unit_size_from":   offer.UnitSizeFrom,
		"unit_size_to":     offer.UnitSizeTo,
		"unit_symbol":      offer.UnitSymbol,
		"image_url":        offer.ImageURL,
		"image_large_url":  offer.ImageLargeURL,
		"valid_from":       offer.ValidFrom,
		"valid_until":      offer.ValidUntil,
		"business_name":    offer.BusinessName,
		"business_logo":    offer.BusinessLogo,
		"url":              offer.URL,
		"source_data":      offer.SourceData,
		"discovered_at":    offer.DiscoveredAt.UTC(),
		"status":           offer.Status,
		"created_at":       now,
		"updated_at":       now,
	}

	result, err := r.db.NamedExecContext(ctx, insert, args)
	if err != nil {
		return false, fmt.Errorf("failed to insert offer %s: %w", offer.ID, err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert offer %s: %w", offer.ID, err)
	}
	if inserted > 0 {
		return true, nil
	}

	if _, err := r.db.NamedExecContext(ctx, update, args); err != nil {
		return false, fmt.Errorf("failed to refresh offer %s: %w", offer.ID, err)
	}
	return false, nil
}

// UpsertBatch saves a batch of offers, skipping individual failures.
// Returns the number saved and the number that were new.
func (r *OfferRepository) UpsertBatch(ctx context.Context, offers []domain.Offer) (saved, created int, err error) {
	for i := range offers {
		isNew, upsertErr := r.Upsert(ctx, &offers[i])
		if upsertErr != nil {
			err = errors.Join(err, upsertErr)
			continue
		}
		saved++
		if isNew {
			created++
		}
	}
	return saved, created, err
}

// Get returns the offer by id, or (nil, nil) when absent.
func (r *OfferRepository) Get(ctx context.Context, id string) (*domain.Offer, error) {
	query := `SELECT ` + offerSelectColumns + ` FROM offers WHERE id = ?`

	var offer domain.Offer
	err := r.db.GetContext(ctx, &offer, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer %s: %w", id, err)
	}
	return &offer, nil
}

// Recent returns offers discovered at or after the cutoff, newest first.
func (r *OfferRepository) Recent(ctx context.Context, since time.Time, limit int) ([]domain.Offer, error) {
	query := `
		SELECT ` + offerSelectColumns + `
		FROM offers
		WHERE discovered_at >= ?
		ORDER BY discovered_at DESC
		LIMIT ?
	`

	var offers []domain.Offer
	if err := r.db.SelectContext(ctx, &offers, query, since.UTC(), limit); err != nil {
		return nil, fmt.Errorf("failed to list recent offers: %w", err)
	}
	return offers, nil
}

// Unanalyzed returns offers still awaiting an AI judgment, oldest first.
func (r *OfferRepository) Unanalyzed(ctx context.Context, limit int) ([]domain.Offer, error) {
	query := `
		SELECT ` + offerSelectColumns + `
		FROM offers
		WHERE status = ?
		ORDER BY discovered_at ASC
		LIMIT ?
	`

	var offers []domain.Offer
	if err := r.db.SelectContext(ctx, &offers, query, domain.StatusNew, limit); err != nil {
		return nil, fmt.Errorf("failed to list unanalyzed offers: %w", err)
	}
	return offers, nil
}

// SetStatus moves an offer through the processing pipeline.
func (r *OfferRepository) SetStatus(ctx context.Context, id string, status domain.OfferStatus) error {
	query := `UPDATE offers SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	return execRequireRows(result, err, fmt.Errorf("offer not found: %s", id))
}

// CleanupExpired removes offers whose validity ended before the cutoff,
// together with their analyses. Returns the number of offers removed.
func (r *OfferRepository) CleanupExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	cutoff := olderThan.UTC()

	// Analyses first, the foreign key requires it.
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM offer_analyses
		WHERE offer_id IN (
			SELECT id FROM offers
			WHERE valid_until IS NOT NULL AND valid_until < ?
		)
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up expired analyses: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM offers
		WHERE valid_until IS NOT NULL AND valid_until < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up expired offers: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Statistics summarizes the offers table.
type Statistics struct {
	TotalOffers      int64 `db:"total_offers"`
	OffersLast24h    int64 `db:"offers_24h"`
	UniqueBusinesses int64 `db:"unique_businesses"`
	TotalAnalyses    int64 `db:"total_analyses"`
}

// Stats computes summary counts across the store.
func (r *OfferRepository) Stats(ctx context.Context) (*Statistics, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM offers) AS total_offers,
			(SELECT COUNT(*) FROM offers WHERE discovered_at >= ?) AS offers_24h,
			(SELECT COUNT(DISTINCT business_id) FROM offers) AS unique_businesses,
			(SELECT COUNT(*) FROM offer_analyses) AS total_analyses
	`

	var stats Statistics
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	if err := r.db.GetContext(ctx, &stats, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	return &stats, nil
}
