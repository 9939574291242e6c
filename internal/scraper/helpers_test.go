package scraper_test

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/locopon/locopon/internal/logger"
	"github.com/locopon/locopon/internal/scraper"
)

// testRetailer is the fixture retailer used across the package tests.
var testRetailer = scraper.Retailer{
	Key:           "ica-maxi",
	Slug:          "ICA-Maxi-Stormarknad",
	PublicationID: "5X0fxUgs",
	Name:          "ICA Maxi",
}

// fakeFetcher serves canned bodies keyed by URL substring and counts
// every fetch. URLs with no matching rule get a 404.
type fakeFetcher struct {
	mu    sync.Mutex
	rules []fetchRule
	calls int
}

type fetchRule struct {
	substring string
	status    int
	body      string
}

func (f *fakeFetcher) on(substring string, status int, body string) {
	f.rules = append(f.rules, fetchRule{substring: substring, status: status, body: body})
}

func (f *fakeFetcher) FetchPage(_ context.Context, pageURL string) (*scraper.PageResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	for _, rule := range f.rules {
		if strings.Contains(pageURL, rule.substring) {
			return &scraper.PageResult{StatusCode: rule.status, Body: rule.body}, nil
		}
	}
	return &scraper.PageResult{StatusCode: 404, Body: "not found"}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// containerPage wraps content in a landing page data container.
func containerPage(content string) string {
	return fmt.Sprintf(
		`<html><head><title>Test</title></head><body><div id="main-app-data">%s</div></body></html>`,
		content,
	)
}

// fastOptions returns options tuned for tests: no probe delay to speak
// of, a tiny mutation budget.
func fastOptions() scraper.Options {
	return scraper.Options{
		BaseURL:        "https://flyers.test",
		APIBaseURL:     "https://api.flyers.test",
		RequestTimeout: time.Second,
		ProbeTimeout:   time.Second,
		ProbeDelay:     time.Millisecond,
		MutationBudget: 25,
		SearchDepth:    scraper.DefaultSearchDepth,
		CacheTTL:       time.Hour,
	}
}

func newTestScraper(fetcher scraper.Fetcher, seed int64) *scraper.Scraper {
	return scraper.New(
		fastOptions(),
		fetcher,
		nil,
		rand.New(rand.NewSource(seed)),
		logger.NewNoOp(),
	)
}

// recordingLogger captures log lines with their accumulated structured
// fields so tests can assert on logging context.
type recordingLogger struct {
	shared *recordedLines
	fields []any
}

type recordedLines struct {
	mu    sync.Mutex
	lines [][]any
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{shared: &recordedLines{}}
}

func (l *recordingLogger) record(fields ...any) {
	line := append(append([]any{}, l.fields...), fields...)
	l.shared.mu.Lock()
	l.shared.lines = append(l.shared.lines, line)
	l.shared.mu.Unlock()
}

func (l *recordingLogger) with(fields ...any) logger.Interface {
	return &recordingLogger{
		shared: l.shared,
		fields: append(append([]any{}, l.fields...), fields...),
	}
}

func (l *recordingLogger) hasField(key string, value any) bool {
	l.shared.mu.Lock()
	defer l.shared.mu.Unlock()
	for _, line := range l.shared.lines {
		for i := 0; i+1 < len(line); i += 2 {
			if line[i] == key && line[i+1] == value {
				return true
			}
		}
	}
	return false
}

func (l *recordingLogger) Debug(msg string, fields ...any) { l.record(fields...) }
func (l *recordingLogger) Info(msg string, fields ...any)  { l.record(fields...) }
func (l *recordingLogger) Warn(msg string, fields ...any)  { l.record(fields...) }
func (l *recordingLogger) Error(msg string, fields ...any) { l.record(fields...) }
func (l *recordingLogger) Fatal(msg string, fields ...any) { l.record(fields...) }

func (l *recordingLogger) With(fields ...any) logger.Interface { return l.with(fields...) }

func (l *recordingLogger) WithComponent(component string) logger.Interface {
	return l.with("component", component)
}

func (l *recordingLogger) WithRetailer(retailer string) logger.Interface {
	return l.with("retailer", retailer)
}

func (l *recordingLogger) WithStage(stage string) logger.Interface {
	return l.with("stage", stage)
}

func (l *recordingLogger) WithOfferID(offerID string) logger.Interface {
	return l.with("offer_id", offerID)
}

func (l *recordingLogger) WithDuration(duration time.Duration) logger.Interface {
	return l.with("duration", duration)
}

func (l *recordingLogger) WithError(err error) logger.Interface {
	return l.with("error", err)
}

func (l *recordingLogger) hasKey(key string) bool {
	l.shared.mu.Lock()
	defer l.shared.mu.Unlock()
	for _, line := range l.shared.lines {
		for i := 0; i+1 < len(line); i += 2 {
			if line[i] == key {
				return true
			}
		}
	}
	return false
}
