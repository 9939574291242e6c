// Package common provides shared initialization for command implementations.
package common

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/locopon/locopon/internal/analyzer"
	"github.com/locopon/locopon/internal/config"
	"github.com/locopon/locopon/internal/logger"
	"github.com/locopon/locopon/internal/notifier"
	"github.com/locopon/locopon/internal/pipeline"
	"github.com/locopon/locopon/internal/scraper"
	"github.com/locopon/locopon/internal/storage"
)

// Deps holds the dependencies every command needs.
type Deps struct {
	Config *config.Config
	Logger logger.Interface
}

// NewDeps loads configuration and creates the logger from the root
// command's persistent flags.
func NewDeps(cmd *cobra.Command) (Deps, error) {
	cfgFile, _ := cmd.Root().PersistentFlags().GetString("config")
	debug, _ := cmd.Root().PersistentFlags().GetBool("debug")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := cfg.Logging
	if debug {
		logCfg.Level = logger.DebugLevel
		logCfg.Development = true
	}

	log, err := logger.New(&logCfg)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to create logger: %w", err)
	}

	return Deps{Config: cfg, Logger: log}, nil
}

// PipelineDeps extends Deps with the fully wired processing stack.
type PipelineDeps struct {
	Deps
	Store    *storage.Store
	Scraper  *scraper.Scraper
	Notifier *notifier.Notifier
	Pipeline *pipeline.Pipeline

	redisCache *scraper.RedisCache
}

// NewPipelineDeps builds the full stack: storage, cache, scraper,
// analyzer, notifier and the pipeline over them. Callers must Close it.
func NewPipelineDeps(ctx context.Context, cmd *cobra.Command) (*PipelineDeps, error) {
	deps, err := NewDeps(cmd)
	if err != nil {
		return nil, err
	}
	return BuildPipeline(ctx, deps)
}

// BuildPipeline wires the processing stack over already loaded
// dependencies. Commands that adjust the configuration first, like a
// single-retailer scrape, call this directly.
func BuildPipeline(ctx context.Context, deps Deps) (*PipelineDeps, error) {
	if err := deps.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := storage.Open(deps.Config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	store := storage.New(db)

	d := &PipelineDeps{Deps: deps, Store: store}

	var cache scraper.Cache
	if url := deps.Config.Redis.URL; url != "" {
		ttl := deps.Config.Scraping.CacheTTL
		if ttl <= 0 {
			ttl = scraper.DefaultCacheTTL
		}
		redisCache, err := scraper.NewRedisCache(ctx, url, ttl)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		d.redisCache = redisCache
		cache = redisCache
	}

	d.Scraper = scraper.New(deps.Config.Scraping.Options(), nil, cache, nil, deps.Logger)
	d.Notifier = notifier.New(deps.Config.Telegram, deps.Logger)

	opts := pipeline.Options{
		Retailers:    deps.Config.Retailers,
		AnalyzeLimit: deps.Config.Anthropic.BatchSize,
	}
	if days := deps.Config.Storage.CleanupAfterDays; days > 0 {
		opts.Retention = time.Duration(days) * 24 * time.Hour
	}

	an := analyzer.New(deps.Config.Anthropic, deps.Logger)
	d.Pipeline = pipeline.New(opts, d.Scraper, an, d.Notifier, store, deps.Logger)

	return d, nil
}

// Close releases the stack's resources.
func (d *PipelineDeps) Close() error {
	if d.redisCache != nil {
		if err := d.redisCache.Close(); err != nil {
			d.Logger.Warn("Failed to close redis cache", "error", err)
		}
	}
	return d.Store.Close()
}
