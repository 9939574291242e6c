package scraper

import (
	"strconv"
	"strings"
	"time"
)

// dateFormats are tried in order when parsing a validity date. RFC 3339
// covers the structured data blobs; the short forms cover dates scraped
// out of page text.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
	"02-01-06",
	"06-01-02",
	"02.01.2006",
	"02.01.06",
}

// parsePriceValue normalizes a raw extracted price of any shape. Numbers
// pass through; strings are stripped of everything but digits and
// separators, with a comma decimal separator converted to a dot. A value
// that fails to parse yields nil, never zero.
func parsePriceValue(raw any) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		return parsePriceString(v)
	default:
		return nil
	}
}

// parsePriceString normalizes a textual price like "19,90", "kr 49" or
// "49.90 kr".
func parsePriceString(raw string) *float64 {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}

	cleaned := strings.ReplaceAll(b.String(), ",", ".")
	if cleaned == "" {
		return nil
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &price
}

// parseDate tries the known date formats in order; the first successful
// parse wins. Unparseable dates yield nil.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return &t
		}
	}
	return nil
}
