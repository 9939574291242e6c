// Package daemon implements the long-running daemon command: the cron
// scheduler for scrape, digest and cleanup jobs plus the HTTP API.
package daemon

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/locopon/locopon/cmd/common"
	"github.com/locopon/locopon/internal/httpd"
	"github.com/locopon/locopon/internal/scheduler"
)

// Command returns the daemon command for use in the root command.
func Command() *cobra.Command {
	var (
		noServer       bool
		scrapeOnBoot   bool
		notifyOnStatus bool
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the scheduler and HTTP API until interrupted",
		Long: `Runs the scrape, digest and cleanup jobs on their configured cron
schedules and serves the HTTP API. Stops gracefully on SIGINT or
SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := common.NewPipelineDeps(ctx, cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			return run(ctx, deps, noServer, scrapeOnBoot, notifyOnStatus)
		},
	}

	cmd.Flags().BoolVar(&noServer, "no-server", false, "disable the HTTP API")
	cmd.Flags().BoolVar(&scrapeOnBoot, "scrape-on-boot", false, "run a scrape immediately on startup")
	cmd.Flags().BoolVar(&notifyOnStatus, "notify-status", false, "send start/stop status messages to Telegram")

	return cmd
}

func run(ctx context.Context, deps *common.PipelineDeps, noServer, scrapeOnBoot, notifyOnStatus bool) error {
	log := deps.Logger.WithComponent("daemon")

	specs := scheduler.Specs{
		Scrape:  deps.Config.Schedule.Scrape,
		Digest:  deps.Config.Schedule.Digest,
		Cleanup: deps.Config.Schedule.Cleanup,
	}
	jobs := scheduler.Jobs{
		Scrape: func(ctx context.Context) {
			if _, err := deps.Pipeline.ScrapeOnce(ctx, false); err != nil {
				log.Error("Scheduled scrape failed", "error", err)
				return
			}
			if _, err := deps.Pipeline.AnalyzeAndNotify(ctx); err != nil {
				log.Error("Scheduled analysis failed", "error", err)
			}
		},
		Digest: func(ctx context.Context) {
			if err := deps.Pipeline.Digest(ctx); err != nil {
				log.Error("Scheduled digest failed", "error", err)
			}
		},
		Cleanup: func(ctx context.Context) {
			if err := deps.Pipeline.Cleanup(ctx); err != nil {
				log.Error("Scheduled cleanup failed", "error", err)
			}
		},
	}

	sched, err := scheduler.New(specs, jobs, deps.Logger)
	if err != nil {
		return err
	}

	if !noServer {
		server := httpd.New(httpd.Config{
			Address:      deps.Config.Server.Address,
			ReadTimeout:  deps.Config.Server.ReadTimeout,
			WriteTimeout: deps.Config.Server.WriteTimeout,
		}, deps.Store.Offers, deps.Store.Runs, deps.Scraper.Metrics(), deps.Logger)

		go func() {
			if err := server.Run(ctx); err != nil {
				log.Error("HTTP server stopped", "error", err)
			}
		}()
	}

	if notifyOnStatus {
		if err := deps.Notifier.SendStatus(ctx, "locopon daemon started", false); err != nil {
			log.Warn("Failed to send startup status", "error", err)
		}
	}

	if scrapeOnBoot {
		jobs.Scrape(ctx)
	}

	log.Info("Daemon started",
		"scrape", specs.Scrape,
		"digest", specs.Digest,
		"cleanup", specs.Cleanup,
		"server", !noServer)

	sched.Run(ctx)

	if notifyOnStatus {
		// The run context is already cancelled; give the goodbye its own.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.Server.WriteTimeout)
		defer cancel()
		if err := deps.Notifier.SendStatus(shutdownCtx, "locopon daemon stopping", false); err != nil {
			log.Warn("Failed to send shutdown status", "error", err)
		}
	}

	log.Info("Daemon stopped")
	return nil
}
