package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/locopon/locopon/internal/logger"
)

// Fetcher fetches pages from the target site.
type Fetcher interface {
	// FetchPage issues a GET and returns the response status and body.
	// A non-200 status is a result, not an error; errors are reserved
	// for transport failures and timeouts.
	FetchPage(ctx context.Context, pageURL string) (*PageResult, error)
}

// PageResult is the outcome of a page fetch.
type PageResult struct {
	StatusCode int
	Body       string
}

// OK reports whether the fetch returned HTTP 200.
func (r *PageResult) OK() bool {
	return r.StatusCode == 200
}

// Client is a resty-backed Fetcher with browser-like headers. The target
// site serves full data only to requests that look like a Swedish-locale
// browser session.
type Client struct {
	http   *resty.Client
	logger logger.Interface
}

// NewClient creates a fetcher with the given request timeout.
func NewClient(timeout time.Duration, userAgent string, log logger.Interface) *Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeaders(map[string]string{
		"User-Agent":                userAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "sv-SE,sv;q=0.9,en;q=0.8",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	})

	return &Client{
		http:   client,
		logger: log.WithComponent("fetcher"),
	}
}

// FetchPage implements Fetcher.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*PageResult, error) {
	resp, err := c.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	result := &PageResult{
		StatusCode: resp.StatusCode(),
		Body:       string(resp.Body()),
	}

	if !result.OK() {
		c.logger.Debug("Non-200 response",
			"url", pageURL,
			"status", result.StatusCode,
		)
	}

	return result, nil
}
