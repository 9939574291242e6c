// Package scrape implements the one-shot scrape command.
package scrape

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/locopon/locopon/cmd/common"
	"github.com/locopon/locopon/internal/scraper"
)

// Command returns the scrape command for use in the root command.
func Command() *cobra.Command {
	var (
		retailerKey string
		force       bool
		analyze     bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape configured retailers once",
		Long: `Scrapes every configured retailer's current publication, stores the
discovered offers and prints a run summary.

The --retailer flag restricts the run to a single retailer key. With
--analyze the run is followed by an analysis pass over the new offers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			base, err := common.NewDeps(cmd)
			if err != nil {
				return err
			}

			if retailerKey != "" {
				retailer, err := findRetailer(base.Config.Retailers, retailerKey)
				if err != nil {
					return err
				}
				base.Config.Retailers = []scraper.Retailer{retailer}
			}

			deps, err := common.BuildPipeline(ctx, base)
			if err != nil {
				return err
			}
			defer deps.Close()

			summary, err := deps.Pipeline.ScrapeOnce(ctx, force)
			if err != nil {
				return err
			}

			if analyze {
				stored, err := deps.Pipeline.AnalyzeAndNotify(ctx)
				if err != nil {
					return err
				}
				deps.Logger.Info("Analysis complete", "analyses", stored)
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(summary)
			}

			fmt.Printf("Run %s: %d offers (%d new, %d failed) across %d retailers, %d from cache\n",
				summary.RunID, summary.Total, summary.Created, summary.Failed,
				summary.Retailers, summary.FromCache)
			return nil
		},
	}

	cmd.Flags().StringVar(&retailerKey, "retailer", "", "scrape only the retailer with this key")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the cache and scrape fresh")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "run the analysis pass after scraping")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run summary as JSON")

	return cmd
}

func findRetailer(retailers []scraper.Retailer, key string) (scraper.Retailer, error) {
	for _, r := range retailers {
		if r.Key == key {
			return r, nil
		}
	}
	return scraper.Retailer{}, fmt.Errorf("unknown retailer %q", key)
}
