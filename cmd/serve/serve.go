// Package serve implements the standalone HTTP API command.
package serve

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/locopon/locopon/cmd/common"
	"github.com/locopon/locopon/internal/httpd"
	"github.com/locopon/locopon/internal/storage"
)

// Command returns the serve command for use in the root command.
func Command() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API over the stored offers",
		Long: `Serves the read-only HTTP API without running the scraper. Useful
next to a daemon on another host sharing the same database file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

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

			cfg := httpd.Config{
				Address:      deps.Config.Server.Address,
				ReadTimeout:  deps.Config.Server.ReadTimeout,
				WriteTimeout: deps.Config.Server.WriteTimeout,
			}
			if address != "" {
				cfg.Address = address
			}

			server := httpd.New(cfg, store.Offers, store.Runs, nil, deps.Logger)
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides the configured one)")

	return cmd
}
