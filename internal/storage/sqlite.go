// Package storage provides sqlite-backed persistence for offers,
// analyses and scrape run bookkeeping.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections.
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
	DefaultMaxOpenConns = 1
	// DefaultPingTimeout is the default timeout for ping operations.
	DefaultPingTimeout = 5 * time.Second
)

// Open creates a sqlite database connection and applies the schema.
// Use ":memory:" for an ephemeral database.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_loc=UTC", path)

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	if migrateErr := applySchema(ctx, db); migrateErr != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", migrateErr)
	}

	return db, nil
}

// applySchema creates the tables and indexes when they do not exist yet.
func applySchema(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS offers (
			id TEXT PRIMARY KEY,
			publication_id TEXT NOT NULL,
			business_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price REAL,
			membership_price REAL,
			original_price REAL,
			currency TEXT NOT NULL DEFAULT 'SEK',
			unit_price REAL,
			base_unit TEXT NOT NULL DEFAULT '',
			unit_size_from REAL,
			unit_size_to REAL,
			unit_symbol TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			image_large_url TEXT NOT NULL DEFAULT '',
			valid_from TIMESTAMP,
			valid_until TIMESTAMP,
			business_name TEXT NOT NULL DEFAULT '',
			business_logo TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			source_data TEXT,
			discovered_at TIMESTAMP NOT NULL,
			status TEXT NOT NULL DEFAULT 'new',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS offer_analyses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			offer_id TEXT NOT NULL REFERENCES offers(id),
			category TEXT NOT NULL DEFAULT '',
			subcategory TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			price_category TEXT NOT NULL DEFAULT '',
			value_score REAL,
			deal_quality TEXT NOT NULL DEFAULT '',
			target_audience TEXT NOT NULL DEFAULT '',
			purchase_urgency TEXT NOT NULL DEFAULT '',
			seasonal_relevance TEXT NOT NULL DEFAULT '',
			recommendation TEXT NOT NULL DEFAULT '',
			pros TEXT,
			cons TEXT,
			analysis_model TEXT NOT NULL DEFAULT '',
			confidence_score REAL,
			processed_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scrape_runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			total_offers INTEGER NOT NULL DEFAULT 0,
			new_offers INTEGER NOT NULL DEFAULT 0,
			failed_offers INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'running',
			error_message TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_business ON offers(business_id)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_discovered ON offers(discovered_at)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_status ON offers(status)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_offer ON offer_analyses(offer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON scrape_runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Store bundles the repositories over one database handle.
type Store struct {
	DB       *sqlx.DB
	Offers   *OfferRepository
	Analyses *AnalysisRepository
	Runs     *RunRepository
}

// New creates a store over an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{
		DB:       db,
		Offers:   NewOfferRepository(db),
		Analyses: NewAnalysisRepository(db),
		Runs:     NewRunRepository(db),
	}
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}
