package analyzer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locopon/locopon/internal/analyzer"
	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/logger"
)

// fakeCompleter returns a canned response and records the last prompt.
type fakeCompleter struct {
	response string
	err      error
	prompt   string
}

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func newTestAnalyzer(completer analyzer.Completer) *analyzer.Analyzer {
	return analyzer.NewWithCompleter(completer, analyzer.Config{Model: "test-model"}, logger.NewNoOp())
}

func sampleOffer() *domain.Offer {
	price := 24.9
	return &domain.Offer{
		ID:           "abcdefghij1234567",
		Name:         "Kaffe Mellanrost 450g",
		Price:        &price,
		Currency:     "SEK",
		BusinessName: "ICA Maxi",
	}
}

func TestAnalyzeOffer(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: `{
		"category": "Dryck",
		"subcategory": "Kaffe",
		"brand": "Gevalia",
		"price_category": "good",
		"value_score": 7.5,
		"deal_quality": "Solid rabatt",
		"recommendation": "Bra pris för storpack.",
		"pros": ["Lågt kilopris"],
		"cons": ["Kort giltighetstid"],
		"confidence_score": "0.9"
	}`}

	analysis, err := newTestAnalyzer(completer).AnalyzeOffer(context.Background(), sampleOffer())
	require.NoError(t, err)

	assert.Equal(t, "abcdefghij1234567", analysis.OfferID)
	assert.Equal(t, "Dryck", analysis.Category)
	assert.Equal(t, "Gevalia", analysis.Brand)
	assert.Equal(t, domain.PriceGood, analysis.PriceCategory)
	require.NotNil(t, analysis.ValueScore)
	assert.InDelta(t, 7.5, *analysis.ValueScore, 0.001)
	require.NotNil(t, analysis.ConfidenceScore, "quoted scores must still parse")
	assert.InDelta(t, 0.9, *analysis.ConfidenceScore, 0.001)
	assert.Equal(t, "test-model", analysis.AnalysisModel)
	assert.False(t, analysis.ProcessedAt.IsZero())

	assert.Contains(t, completer.prompt, "Kaffe Mellanrost 450g")
	assert.Contains(t, completer.prompt, "24.9")
}

func TestAnalyzeOffer_JSONWrappedInProse(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: "Here is my assessment:\n```json\n" +
		`{"category": "Mejeri", "price_category": "average", "recommendation": "Vanligt pris."}` +
		"\n```\nLet me know if you need more detail."}

	analysis, err := newTestAnalyzer(completer).AnalyzeOffer(context.Background(), sampleOffer())
	require.NoError(t, err)
	assert.Equal(t, "Mejeri", analysis.Category)
	assert.Equal(t, domain.PriceAverage, analysis.PriceCategory)
}

func TestAnalyzeOffer_UnparseableResponse(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: "I cannot analyze this offer."}

	analysis, err := newTestAnalyzer(completer).AnalyzeOffer(context.Background(), sampleOffer())
	require.Error(t, err)
	assert.ErrorIs(t, err, analyzer.ErrNoJudgment)
	assert.Nil(t, analysis)
}

func TestAnalyzeOffer_TransportError(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{err: errors.New("connection refused")}

	analysis, err := newTestAnalyzer(completer).AnalyzeOffer(context.Background(), sampleOffer())
	require.Error(t, err)
	assert.Nil(t, analysis)
}

func TestAnalyzeBatch_SkipsFailures(t *testing.T) {
	t.Parallel()

	// Alternates between a valid judgment and garbage.
	completer := &alternatingCompleter{
		responses: []string{
			`{"category": "Dryck", "price_category": "good"}`,
			"no json here",
			`{"category": "Mejeri", "price_category": "poor"}`,
		},
	}

	offers := []domain.Offer{
		{ID: "offerone00ABCDEF1", Name: "Kaffe", Currency: "SEK"},
		{ID: "offertwo00ABCDEF1", Name: "Mjölk", Currency: "SEK"},
		{ID: "offerthree0ABCDEF", Name: "Ost", Currency: "SEK"},
	}

	analyses := newTestAnalyzer(completer).AnalyzeBatch(context.Background(), offers)

	require.Len(t, analyses, 2)
	assert.Equal(t, "offerone00ABCDEF1", analyses[0].OfferID)
	assert.Equal(t, "offerthree0ABCDEF", analyses[1].OfferID)
}

type alternatingCompleter struct {
	responses []string
	calls     int
}

func (a *alternatingCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	response := a.responses[a.calls%len(a.responses)]
	a.calls++
	return response, nil
}

func TestAnalyzeBatch_CancelledContext(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: `{"category": "Dryck", "price_category": "good"}`}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyses := newTestAnalyzer(completer).AnalyzeBatch(ctx, []domain.Offer{
		{ID: "offerone00ABCDEF1", Name: "Kaffe"},
	})
	assert.Empty(t, analyses)
	assert.Empty(t, completer.prompt, "no request should be issued after cancellation")
}

func TestPromptOmitsAbsentFields(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: `{"category": "Okänd", "price_category": "average"}`}

	offer := &domain.Offer{ID: "abcdefghij1234567", Name: "Produkt abcdefgh", Currency: "SEK"}
	_, err := newTestAnalyzer(completer).AnalyzeOffer(context.Background(), offer)
	require.NoError(t, err)

	assert.False(t, strings.Contains(completer.prompt, "original_price"))
	assert.False(t, strings.Contains(completer.prompt, "valid_period"))
}
