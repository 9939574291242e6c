// Package cmd implements the command-line interface for locopon.
// It provides the root command and subcommands for scraping retail
// flyers, running the daemon and inspecting stored offers.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/locopon/locopon/cmd/daemon"
	"github.com/locopon/locopon/cmd/offers"
	"github.com/locopon/locopon/cmd/scrape"
	"github.com/locopon/locopon/cmd/serve"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	// rootCmd represents the root command for the locopon CLI.
	rootCmd = &cobra.Command{
		Use:   "locopon",
		Short: "A Swedish retail flyer scraper and deal analyzer",
		Long: `locopon scrapes offers from ereklamblad.se publications, stores
them locally, analyzes deal quality with Claude and pushes the best
deals to Telegram.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("locopon version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(scrape.Command())
	rootCmd.AddCommand(daemon.Command())
	rootCmd.AddCommand(offers.Command())
	rootCmd.AddCommand(serve.Command())
}
