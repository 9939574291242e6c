package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// containerMarker is the substring identifying data container elements.
// The site renders its state into elements whose id contains this marker;
// the exact id varies across retailers.
const containerMarker = "app-data"

// extractContainers returns the trimmed text content of every data
// container element in the document. The returned blobs may hold several
// concatenated JSON literals plus noise; segmentation is the caller's job.
func extractContainers(doc *goquery.Document) []string {
	var containers []string

	doc.Find("[id]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("id")
		if !strings.Contains(id, containerMarker) {
			return
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			containers = append(containers, text)
		}
	})

	return containers
}

// parseDocument parses an HTML body. goquery tolerates truncated and
// malformed markup, so this only fails on reader errors.
func parseDocument(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}
