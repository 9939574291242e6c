package scraper

import "regexp"

// Identifier patterns applied to container text when JSON parsing fails,
// and to the raw page as a last-resort sweep.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"id"\s*:\s*"([a-zA-Z0-9_-]{10,})"`),
	regexp.MustCompile(`"offerId"\s*:\s*"([a-zA-Z0-9_-]{10,})"`),
	regexp.MustCompile(`"offer_id"\s*:\s*"([a-zA-Z0-9_-]{10,})"`),
}

// Identifier patterns for link hrefs and inline script text on the raw
// page. The 17-character form is the site's standard identifier length.
var pageIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)offerId["']?\s*:\s*["']([a-zA-Z0-9_-]{10,})["']`),
	regexp.MustCompile(`(?i)offer["']?\s*:\s*["']([a-zA-Z0-9_-]{10,})["']`),
	regexp.MustCompile(`["']id["']?\s*:\s*["']([a-zA-Z0-9_-]{17})["']`),
	regexp.MustCompile(`/offer/([a-zA-Z0-9_-]{10,})`),
	regexp.MustCompile(`[?&]offer=([a-zA-Z0-9_-]{10,})`),
}

// hrefOfferPattern pulls an identifier out of a link query string.
var hrefOfferPattern = regexp.MustCompile(`offer=([a-zA-Z0-9_-]+)`)

// Price patterns tried in order over raw page text when no structured
// price was found. First match wins.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)[,.](\d+)\s*kr`),
	regexp.MustCompile(`(?i)(\d+)\s*kr`),
	regexp.MustCompile(`(?i)price["']?\s*:\s*["']?(\d+(?:[,.]\d+)?)`),
	regexp.MustCompile(`(?i)pris["']?\s*:\s*["']?(\d+(?:[,.]\d+)?)`),
}

// Validity date patterns, Swedish phrasing first.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)gäller.*?(\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4})`),
	regexp.MustCompile(`(?i)till.*?(\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4})`),
	regexp.MustCompile(`(?i)valid.*?(\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4})`),
}

// Site and brand boilerplate stripped from page titles before they are
// used as a fallback product name.
var titleSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s*-\s*ICA.*$`),
	regexp.MustCompile(`\s*-\s*Coop.*$`),
	regexp.MustCompile(`\s*-\s*Willys.*$`),
	regexp.MustCompile(`\s*\|\s*eReklamblad.*$`),
}

// Existence probe content signals. A 200 response counts as a real offer
// only when it shows a positive signal and no negative signal, since the
// site answers guessed identifiers with a soft error page.
var (
	probePositiveSignals = []string{"offer", "price", "product", "erbjudande", "pris"}
	probeNegativeSignals = []string{"not found", "404", "error", "ingen erbjudande", "hittades inte"}
)
