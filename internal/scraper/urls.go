package scraper

import (
	"fmt"
	"net/url"
)

// LandingURL builds the publication landing page URL for a retailer.
func (o *Options) LandingURL(r Retailer) string {
	return fmt.Sprintf("%s/%s?publication=%s",
		o.BaseURL, url.PathEscape(r.Slug), url.QueryEscape(r.PublicationID))
}

// OfferURL builds the per-offer page URL for a candidate identifier.
func (o *Options) OfferURL(r Retailer, offerID string) string {
	return fmt.Sprintf("%s/%s?publication=%s&offer=%s",
		o.BaseURL, url.PathEscape(r.Slug), url.QueryEscape(r.PublicationID),
		url.QueryEscape(offerID))
}

// apiEndpoints lists the plausible JSON endpoint shapes probed for a
// publication's offer list. There is no documented API; these are the
// conventional shapes observed in the wild. Probing stops at the first
// endpoint that answers with parseable JSON.
func (o *Options) apiEndpoints(publicationID string) []string {
	id := url.PathEscape(publicationID)
	return []string{
		fmt.Sprintf("%s/publications/%s/offers", o.APIBaseURL, id),
		fmt.Sprintf("%s/v1/publications/%s/offers", o.APIBaseURL, id),
		fmt.Sprintf("%s/v2/publications/%s/offers", o.APIBaseURL, id),
		fmt.Sprintf("%s/api/publications/%s/offers", o.BaseURL, id),
		fmt.Sprintf("%s/api/v1/publications/%s/offers", o.BaseURL, id),
	}
}

// probeURLs lists the URLs tried by an existence probe for a candidate
// identifier, most specific first.
func (o *Options) probeURLs(r Retailer, offerID string) []string {
	id := url.PathEscape(offerID)
	return []string{
		o.OfferURL(r, offerID),
		fmt.Sprintf("%s/offer/%s", o.BaseURL, id),
		fmt.Sprintf("%s/offers/%s", o.APIBaseURL, id),
	}
}
