// Package config provides configuration management for the application.
// It handles loading, validation, and access to configuration values from
// a YAML file, a .env file and LOCOPON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/locopon/locopon/internal/analyzer"
	"github.com/locopon/locopon/internal/logger"
	"github.com/locopon/locopon/internal/notifier"
	"github.com/locopon/locopon/internal/scraper"
)

// envPrefix namespaces environment overrides, e.g. LOCOPON_TELEGRAM_BOT_TOKEN.
const envPrefix = "LOCOPON"

// Schedule defaults.
const (
	defaultScrapeSpec  = "0 */6 * * *" // every six hours
	defaultDigestSpec  = "0 18 * * *"  // daily evening digest
	defaultCleanupSpec = "30 3 * * *"  // nightly cleanup
)

// Server defaults.
const (
	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
)

// ErrNoRetailers indicates an empty retailers list.
var ErrNoRetailers = errors.New("no retailers configured")

// Config represents the application configuration.
type Config struct {
	// Logging holds logger configuration
	Logging logger.Config `mapstructure:"logging"`
	// Retailers lists the publications to scrape
	Retailers []scraper.Retailer `mapstructure:"retailers"`
	// Scraping holds engine tuning
	Scraping ScrapingConfig `mapstructure:"scraping"`
	// Storage holds sqlite settings
	Storage StorageConfig `mapstructure:"storage"`
	// Redis holds the optional shared cache settings
	Redis RedisConfig `mapstructure:"redis"`
	// Anthropic holds the AI analyzer settings
	Anthropic analyzer.Config `mapstructure:"anthropic"`
	// Telegram holds notification delivery settings
	Telegram notifier.Config `mapstructure:"telegram"`
	// Schedule holds the daemon cron specs
	Schedule ScheduleConfig `mapstructure:"schedule"`
	// Server holds the HTTP API settings
	Server ServerConfig `mapstructure:"server"`
}

// ScrapingConfig tunes the scraping engine.
type ScrapingConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIBaseURL     string        `mapstructure:"api_base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	ProbeDelay     time.Duration `mapstructure:"probe_delay"`
	MutationBudget int           `mapstructure:"mutation_budget"`
	SearchDepth    int           `mapstructure:"search_depth"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// Options converts the section into engine options; zero values fall
// back to the engine defaults.
func (c *ScrapingConfig) Options() scraper.Options {
	return scraper.Options{
		BaseURL:        c.BaseURL,
		APIBaseURL:     c.APIBaseURL,
		UserAgent:      c.UserAgent,
		RequestTimeout: c.RequestTimeout,
		ProbeTimeout:   c.ProbeTimeout,
		ProbeDelay:     c.ProbeDelay,
		MutationBudget: c.MutationBudget,
		SearchDepth:    c.SearchDepth,
		CacheTTL:       c.CacheTTL,
	}
}

// StorageConfig holds sqlite settings.
type StorageConfig struct {
	// Path of the database file, ":memory:" for ephemeral
	Path string `mapstructure:"path"`
	// CleanupAfterDays is the retention window for expired offers
	CleanupAfterDays int `mapstructure:"cleanup_after_days"`
}

// RedisConfig holds the optional shared cache settings. An empty URL
// selects the in-process cache.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// ScheduleConfig holds the daemon cron specs.
type ScheduleConfig struct {
	Scrape  string `mapstructure:"scrape"`
	Digest  string `mapstructure:"digest"`
	Cleanup string `mapstructure:"cleanup"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Load reads configuration from the given YAML file plus environment
// overrides. An empty path searches the working directory and ./config.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		// Config file is optional when env carries everything.
		_ = v.ReadInConfig()
	}

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", string(logger.DefaultLevel))
	v.SetDefault("logging.encoding", logger.DefaultEncoding)

	v.SetDefault("storage.path", "data/locopon.db")
	v.SetDefault("storage.cleanup_after_days", 30)

	v.SetDefault("schedule.scrape", defaultScrapeSpec)
	v.SetDefault("schedule.digest", defaultDigestSpec)
	v.SetDefault("schedule.cleanup", defaultCleanupSpec)

	v.SetDefault("server.address", defaultServerAddress)
	v.SetDefault("server.read_timeout", defaultServerReadTimeout)
	v.SetDefault("server.write_timeout", defaultServerWriteTimeout)
}

// Validate checks the configuration for a scraping command: every
// retailer needs a slug and a publication id.
func (c *Config) Validate() error {
	if len(c.Retailers) == 0 {
		return ErrNoRetailers
	}

	for i, r := range c.Retailers {
		if r.Key == "" {
			return fmt.Errorf("retailer %d: missing key", i)
		}
		if r.Slug == "" {
			return fmt.Errorf("retailer %q: missing slug", r.Key)
		}
		if r.PublicationID == "" {
			return fmt.Errorf("retailer %q: missing publication_id", r.Key)
		}
	}

	if c.Storage.Path == "" {
		return errors.New("storage path must not be empty")
	}
	return nil
}
