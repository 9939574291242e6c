// Package offers implements the offers listing command that displays
// recently stored offers in a formatted table.
package offers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/locopon/locopon/cmd/common"
	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/logger"
	"github.com/locopon/locopon/internal/storage"
)

// TableRenderer handles the display of offers in a table format.
type TableRenderer struct {
	analyses *storage.AnalysisRepository
	logger   logger.Interface
}

// NewTableRenderer creates a new TableRenderer instance.
func NewTableRenderer(analyses *storage.AnalysisRepository, log logger.Interface) *TableRenderer {
	return &TableRenderer{
		analyses: analyses,
		logger:   log,
	}
}

// RenderTable formats and displays the offers in a table format.
func (r *TableRenderer) RenderTable(ctx context.Context, offers []domain.Offer) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Name", "Business", "Price", "Quality", "Valid Until", "Status"})

	for i := range offers {
		offer := &offers[i]
		t.AppendRow(table.Row{
			shortID(offer.ID),
			offer.Name,
			offer.BusinessName,
			offer.PriceLabel(),
			r.quality(ctx, offer.ID),
			validUntil(offer),
			offer.Status,
		})
	}

	t.Render()
	return nil
}

// quality resolves the latest analysis verdict for an offer, blank when
// none is stored yet.
func (r *TableRenderer) quality(ctx context.Context, offerID string) string {
	analysis, err := r.analyses.Latest(ctx, offerID)
	if err != nil {
		r.logger.Warn("Failed to load analysis", "offer_id", offerID, "error", err)
		return ""
	}
	if analysis == nil {
		return ""
	}
	if analysis.ValueScore != nil {
		return fmt.Sprintf("%s (%.1f/10)", analysis.PriceCategory, *analysis.ValueScore)
	}
	return string(analysis.PriceCategory)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func validUntil(offer *domain.Offer) string {
	if offer.ValidUntil == nil {
		return ""
	}
	return offer.ValidUntil.Format("2006-01-02")
}

// Command returns the offers command for use in the root command.
func Command() *cobra.Command {
	var (
		hours int
		limit int
	)

	cmd := &cobra.Command{
		Use:   "offers",
		Short: "List recently stored offers",
		Long: `Displays offers stored during the lookback window in a table,
including the latest analysis verdict where one exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			deps, err := common.NewDeps(cmd)
			if err != nil {
				return err
			}

			db, err := storage.Open(deps.Config.Storage.Path)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			store := storage.New(db)
			defer store.Close()

			since := time.Now().Add(-time.Duration(hours) * time.Hour)
			offers, err := store.Offers.Recent(ctx, since, limit)
			if err != nil {
				return fmt.Errorf("failed to load offers: %w", err)
			}

			if len(offers) == 0 {
				deps.Logger.Info("No offers stored in the lookback window")
				return nil
			}

			renderer := NewTableRenderer(store.Analyses, deps.Logger)
			return renderer.RenderTable(ctx, offers)
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "lookback window in hours")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum offers to list")

	return cmd
}
