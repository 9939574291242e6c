package notifier

import (
	"fmt"
	"strings"

	"github.com/locopon/locopon/internal/domain"
)

// Digest caps, matching the attention a chat message can carry.
const (
	maxPremiumOffers = 5
	maxGoodOffers    = 8
)

var qualityIcons = map[domain.PriceCategory]string{
	domain.PriceExcellent: "⭐⭐⭐",
	domain.PriceGood:      "⭐⭐",
	domain.PriceAverage:   "⭐",
	domain.PricePoor:      "⚠️",
}

// formatOffer renders the single-offer notification in Telegram Markdown.
func formatOffer(offer *domain.Offer, analysis *domain.OfferAnalysis) string {
	lines := []string{fmt.Sprintf("🛍️ *%s*", offer.Name)}

	if offer.BusinessName != "" {
		lines = append(lines, fmt.Sprintf("🏪 %s", offer.BusinessName))
	}

	priceLine := fmt.Sprintf("💰 %s", offer.PriceLabel())
	if price, ok := offer.DisplayPrice(); ok && offer.OriginalPrice != nil && *offer.OriginalPrice > price {
		discount := (*offer.OriginalPrice - price) / *offer.OriginalPrice * 100
		priceLine += fmt.Sprintf(" ~%.2f %s~ (-%.0f%%)", *offer.OriginalPrice, offer.Currency, discount)
	}
	lines = append(lines, priceLine)

	if offer.UnitPrice != nil && offer.BaseUnit != "" {
		lines = append(lines, fmt.Sprintf("📏 %.2f %s/%s", *offer.UnitPrice, offer.Currency, offer.BaseUnit))
	}

	if analysis != nil {
		lines = append(lines, "")
		if icon, ok := qualityIcons[analysis.PriceCategory]; ok {
			lines = append(lines, fmt.Sprintf("%s %s deal", icon, analysis.PriceCategory))
		}
		if analysis.ValueScore != nil {
			lines = append(lines, fmt.Sprintf("📈 Value score: %.1f/10", *analysis.ValueScore))
		}
		if analysis.Recommendation != "" {
			lines = append(lines, fmt.Sprintf("💡 %s", analysis.Recommendation))
		}
	}

	if offer.ValidUntil != nil {
		lines = append(lines, fmt.Sprintf("⏰ Gäller till %s", offer.ValidUntil.Format("2006-01-02")))
	}

	if offer.URL != "" {
		lines = append(lines, "", fmt.Sprintf("[Visa erbjudande](%s)", offer.URL))
	}

	return strings.Join(lines, "\n")
}

// formatDigest renders the batch digest grouped by deal quality.
func formatDigest(offers []domain.Offer, analyses []domain.OfferAnalysis) string {
	byOffer := make(map[string]*domain.OfferAnalysis, len(analyses))
	for i := range analyses {
		byOffer[analyses[i].OfferID] = &analyses[i]
	}

	var premium, good, rest []*domain.Offer
	for i := range offers {
		offer := &offers[i]
		analysis := byOffer[offer.ID]
		switch {
		case analysis != nil && analysis.PriceCategory == domain.PriceExcellent:
			premium = append(premium, offer)
		case analysis != nil && analysis.PriceCategory == domain.PriceGood:
			good = append(good, offer)
		default:
			rest = append(rest, offer)
		}
	}

	var sections []string

	if len(premium) > 0 {
		lines := []string{"⭐⭐⭐ *PREMIUM DEALS* ⭐⭐⭐", ""}
		for _, offer := range capOffers(premium, maxPremiumOffers) {
			lines = append(lines, fmt.Sprintf("🔥 *%s*", offer.Name))
			lines = append(lines, fmt.Sprintf("   💰 %s hos %s", offer.PriceLabel(), offer.BusinessName))
			if analysis := byOffer[offer.ID]; analysis != nil && analysis.Recommendation != "" {
				lines = append(lines, fmt.Sprintf("   💡 %s", analysis.Recommendation))
			}
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(good) > 0 {
		lines := []string{"⭐⭐ *GOOD DEALS* ⭐⭐", ""}
		for _, offer := range capOffers(good, maxGoodOffers) {
			lines = append(lines, fmt.Sprintf("✅ *%s* — %s", offer.Name, offer.PriceLabel()))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(rest) > 0 {
		sections = append(sections, fmt.Sprintf("📊 %d övriga erbjudanden", len(rest)))
	}

	return strings.Join(sections, "\n\n")
}

func capOffers(offers []*domain.Offer, limit int) []*domain.Offer {
	if len(offers) > limit {
		return offers[:limit]
	}
	return offers
}

// splitMessage breaks a long text into chunks on line boundaries. A
// single line longer than the limit becomes its own chunk.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if current.Len() > 0 && current.Len()+len(line)+1 > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
