package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ScrapeRun records one end-to-end scrape over the configured retailers.
type ScrapeRun struct {
	ID           string     `db:"id"`
	StartedAt    time.Time  `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	TotalOffers  int        `db:"total_offers"`
	NewOffers    int        `db:"new_offers"`
	FailedOffers int        `db:"failed_offers"`
	Status       string     `db:"status"`
	ErrorMessage string     `db:"error_message"`
}

// RunRepository handles database operations for scrape run bookkeeping.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start opens a new run and returns its id.
func (r *RunRepository) Start(ctx context.Context) (string, error) {
	id := uuid.New().String()

	query := `INSERT INTO scrape_runs (id, started_at, status) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC(), RunStatusRunning); err != nil {
		return "", fmt.Errorf("failed to start scrape run: %w", err)
	}
	return id, nil
}

// Complete closes a run with its final counts.
func (r *RunRepository) Complete(ctx context.Context, id string, total, created, failed int) error {
	query := `
		UPDATE scrape_runs
		SET completed_at = ?, total_offers = ?, new_offers = ?,
			failed_offers = ?, status = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		time.Now().UTC(), total, created, failed, RunStatusCompleted, id)
	return execRequireRows(result, err, fmt.Errorf("scrape run not found: %s", id))
}

// Fail closes a run with an error message.
func (r *RunRepository) Fail(ctx context.Context, id, message string) error {
	query := `
		UPDATE scrape_runs
		SET completed_at = ?, status = ?, error_message = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		time.Now().UTC(), RunStatusFailed, message, id)
	return execRequireRows(result, err, fmt.Errorf("scrape run not found: %s", id))
}

// Recent returns the latest runs, newest first.
func (r *RunRepository) Recent(ctx context.Context, limit int) ([]ScrapeRun, error) {
	query := `
		SELECT id, started_at, completed_at, total_offers, new_offers,
			failed_offers, status, error_message
		FROM scrape_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	var runs []ScrapeRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list scrape runs: %w", err)
	}
	return runs, nil
}

// CleanupRuns removes runs completed before the cutoff.
func (r *RunRepository) CleanupRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM scrape_runs
		WHERE completed_at IS NOT NULL AND completed_at < ?
	`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up scrape runs: %w", err)
	}
	return result.RowsAffected()
}
