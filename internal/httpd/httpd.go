// Package httpd exposes the read-only HTTP API: health, recent offers
// and system status.
package httpd

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/logger"
	"github.com/locopon/locopon/internal/scraper"
	"github.com/locopon/locopon/internal/storage"
)

const (
	// DefaultRecentHours is the lookback window for /offers/recent.
	DefaultRecentHours = 24
	// DefaultRecentLimit caps the offers returned per request.
	DefaultRecentLimit = 100
	// maxRecentLimit is the hard ceiling a client can request.
	maxRecentLimit = 500

	shutdownTimeout = 10 * time.Second
)

// OfferReader is the store surface the API reads offers through.
type OfferReader interface {
	Recent(ctx context.Context, since time.Time, limit int) ([]domain.Offer, error)
	Stats(ctx context.Context) (*storage.Statistics, error)
}

// RunReader is the store surface the API reads scrape runs through.
type RunReader interface {
	Recent(ctx context.Context, limit int) ([]storage.ScrapeRun, error)
}

// Config holds the server settings.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the read-only status API.
type Server struct {
	cfg     Config
	offers  OfferReader
	runs    RunReader
	metrics *scraper.Metrics
	logger  logger.Interface
}

// New creates the API server. The metrics collector may be nil when the
// server runs without an embedded scraper.
func New(cfg Config, offers OfferReader, runs RunReader, metrics *scraper.Metrics, log logger.Interface) *Server {
	return &Server{
		cfg:     cfg,
		offers:  offers,
		runs:    runs,
		metrics: metrics,
		logger:  log.WithComponent("httpd"),
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.GET("/offers/recent", s.handleRecentOffers)
	v1.GET("/status", s.handleStatus)

	return router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", "address", s.cfg.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("HTTP API shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) handleRecentOffers(c *gin.Context) {
	hours := queryInt(c, "hours", DefaultRecentHours)
	limit := queryInt(c, "limit", DefaultRecentLimit)
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	offers, err := s.offers.Recent(c.Request.Context(), since, limit)
	if err != nil {
		s.logger.Error("Recent offers query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(offers),
		"since":  since,
		"offers": offers,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := s.offers.Stats(ctx)
	if err != nil {
		s.logger.Error("Statistics query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	runs, err := s.runs.Recent(ctx, 5)
	if err != nil {
		s.logger.Error("Run history query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	status := gin.H{
		"offers":      stats,
		"recent_runs": runs,
	}
	if s.metrics != nil {
		status["scraper"] = s.metrics.GetSnapshot()
	}

	c.JSON(http.StatusOK, status)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
