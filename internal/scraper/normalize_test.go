package scraper_test

import (
	"testing"
	"time"

	"github.com/locopon/locopon/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "swedish decimal comma", input: "19,90", want: 19.90, ok: true},
		{name: "currency prefix", input: "kr 49", want: 49.0, ok: true},
		{name: "currency suffix", input: "49.90 kr", want: 49.90, ok: true},
		{name: "plain integer", input: "129", want: 129.0, ok: true},
		{name: "not a price", input: "N/A", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "letters only", input: "gratis", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := scraper.ParsePriceString(tt.input)
			if !tt.ok {
				assert.Nil(t, got, "expected absent price for %q", tt.input)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 0.001)
		})
	}
}

func TestParsePriceValue_NumbersPassThrough(t *testing.T) {
	t.Parallel()

	got := scraper.ParsePriceValue(24.5)
	require.NotNil(t, got)
	assert.InDelta(t, 24.5, *got, 0.001)

	assert.Nil(t, scraper.ParsePriceValue(nil))
	assert.Nil(t, scraper.ParsePriceValue([]any{}))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-09-07", time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)},
		{"07/09/2026", time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)},
		{"07-09-2026", time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)},
		{"07.09.26", time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)},
		{"2026-09-07T12:30:00Z", time.Date(2026, 9, 7, 12, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got := scraper.ParseDate(tt.input)
		require.NotNil(t, got, "expected parse for %q", tt.input)
		assert.True(t, got.Equal(tt.want), "parsed %q as %v, want %v", tt.input, got, tt.want)
	}

	assert.Nil(t, scraper.ParseDate("next tuesday"))
	assert.Nil(t, scraper.ParseDate(""))
}

func TestBusinessKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ica_maxi_stormarknad", scraper.BusinessKey("ICA-Maxi-Stormarknad"))
	assert.Equal(t, "coop", scraper.BusinessKey("Coop"))
}
