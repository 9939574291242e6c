// Package analyzer produces AI judgments for discovered offers.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/jsondata"
	"github.com/locopon/locopon/internal/logger"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "claude-3-5-haiku-latest"
	// DefaultMaxTokens bounds a single judgment response.
	DefaultMaxTokens = 1024
	// DefaultBatchSize bounds offers per batch run.
	DefaultBatchSize = 10
)

// ErrNoJudgment indicates the model response contained no parseable
// judgment object.
var ErrNoJudgment = errors.New("no judgment in model response")

const systemPrompt = "You are an expert Swedish retail analyst specializing in " +
	"grocery and consumer goods pricing, trends, and consumer behavior. " +
	"Provide detailed, accurate analysis in JSON format."

// Completer is the minimal model client surface the analyzer needs.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config holds analyzer configuration.
type Config struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
	BatchSize int    `mapstructure:"batch_size"`
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
}

// Analyzer asks the model for a structured judgment per offer.
type Analyzer struct {
	completer Completer
	model     string
	logger    logger.Interface
}

// New creates an analyzer backed by the Anthropic API.
func New(cfg Config, log logger.Interface) *Analyzer {
	cfg.applyDefaults()
	return NewWithCompleter(newAnthropicCompleter(cfg), cfg, log)
}

// NewWithCompleter creates an analyzer over a custom model client.
func NewWithCompleter(completer Completer, cfg Config, log logger.Interface) *Analyzer {
	cfg.applyDefaults()
	return &Analyzer{
		completer: completer,
		model:     cfg.Model,
		logger:    log.WithComponent("analyzer"),
	}
}

// AnalyzeOffer produces a judgment for one offer. A response the parser
// cannot interpret is an error, never a half-filled record.
func (a *Analyzer) AnalyzeOffer(ctx context.Context, offer *domain.Offer) (*domain.OfferAnalysis, error) {
	prompt := buildPrompt(offerContext(offer))

	response, err := a.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("model request for offer %s: %w", offer.ID, err)
	}

	judgment, ok := parseJudgment(response)
	if !ok {
		a.logger.Warn("Unparseable model response",
			"offer_id", offer.ID,
			"response_len", len(response),
		)
		return nil, fmt.Errorf("offer %s: %w", offer.ID, ErrNoJudgment)
	}

	analysis := judgment.toAnalysis(offer.ID, a.model)
	a.logger.Debug("Offer analyzed",
		"offer_id", offer.ID,
		"category", analysis.Category,
		"price_category", string(analysis.PriceCategory),
	)
	return analysis, nil
}

// AnalyzeBatch analyzes offers sequentially, skipping individual
// failures. Returns the successful judgments.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, offers []domain.Offer) []domain.OfferAnalysis {
	analyses := make([]domain.OfferAnalysis, 0, len(offers))

	for i := range offers {
		if ctx.Err() != nil {
			break
		}

		analysis, err := a.AnalyzeOffer(ctx, &offers[i])
		if err != nil {
			a.logger.Warn("Offer analysis failed",
				"offer_id", offers[i].ID,
				"error", err,
			)
			continue
		}
		analyses = append(analyses, *analysis)
	}

	a.logger.Info("Batch analysis complete",
		"offers", len(offers),
		"analyses", len(analyses),
	)
	return analyses
}

// offerContext flattens the offer into the key/value map sent to the
// model. Absent fields are omitted entirely.
func offerContext(offer *domain.Offer) map[string]any {
	context := map[string]any{
		"name":     offer.Name,
		"currency": offer.Currency,
	}

	if offer.Description != "" {
		context["description"] = offer.Description
	}
	if price, ok := offer.DisplayPrice(); ok {
		context["price"] = price
	}
	if offer.OriginalPrice != nil {
		context["original_price"] = *offer.OriginalPrice
	}
	if offer.UnitPrice != nil {
		context["unit_price"] = *offer.UnitPrice
	}
	if offer.BaseUnit != "" {
		context["base_unit"] = offer.BaseUnit
	}
	if offer.UnitSizeFrom != nil && offer.UnitSizeTo != nil {
		context["unit_size"] = fmt.Sprintf("%g-%g %s",
			*offer.UnitSizeFrom, *offer.UnitSizeTo, offer.UnitSymbol)
	}
	if offer.BusinessName != "" {
		context["business"] = offer.BusinessName
	}
	if offer.ValidFrom != nil && offer.ValidUntil != nil {
		context["valid_period"] = fmt.Sprintf("%s to %s",
			offer.ValidFrom.Format("2006-01-02"), offer.ValidUntil.Format("2006-01-02"))
	}

	return context
}

func buildPrompt(context map[string]any) string {
	details, _ := json.MarshalIndent(context, "", "  ")

	var b strings.Builder
	b.WriteString("Analyze this Swedish retail offer and provide a comprehensive assessment:\n\n")
	b.WriteString("OFFER DETAILS:\n")
	b.Write(details)
	b.WriteString(`

Please provide analysis in the following JSON format:
{
    "category": "main product category",
    "subcategory": "specific subcategory",
    "brand": "brand name if recognizable",
    "price_category": "excellent|good|average|poor",
    "value_score": "0-10 score (10 is best value)",
    "deal_quality": "short quality assessment",
    "target_audience": "target consumer group",
    "purchase_urgency": "low|medium|high",
    "seasonal_relevance": "seasonal relevance description",
    "recommendation": "purchase advice (1-2 sentences)",
    "pros": ["pro 1", "pro 2"],
    "cons": ["con 1", "con 2"],
    "confidence_score": "0-1 (analysis confidence)"
}

Analysis Guidelines:
- Consider Swedish market context and pricing
- Evaluate value proposition objectively
- Factor in unit pricing when available
- Consider typical Swedish consumer preferences
- Be concise but informative

Respond with ONLY the JSON object, no additional text.
`)
	return b.String()
}

// judgment is the parsed model output. Scores arrive as numbers or
// quoted numbers depending on the model's mood.
type judgment struct {
	Category          string    `json:"category"`
	Subcategory       string    `json:"subcategory"`
	Brand             string    `json:"brand"`
	PriceCategory     string    `json:"price_category"`
	ValueScore        flexFloat `json:"value_score"`
	DealQuality       string    `json:"deal_quality"`
	TargetAudience    string    `json:"target_audience"`
	PurchaseUrgency   string    `json:"purchase_urgency"`
	SeasonalRelevance string    `json:"seasonal_relevance"`
	Recommendation    string    `json:"recommendation"`
	Pros              []string  `json:"pros"`
	Cons              []string  `json:"cons"`
	ConfidenceScore   flexFloat `json:"confidence_score"`
}

// parseJudgment extracts the judgment object from a model response that
// may wrap the JSON in prose or markdown fences.
func parseJudgment(response string) (*judgment, bool) {
	for _, segment := range jsondata.ExtractSegments(response) {
		var j judgment
		if err := json.Unmarshal([]byte(segment), &j); err != nil {
			continue
		}
		if j.Category == "" && j.PriceCategory == "" && j.Recommendation == "" {
			continue
		}
		return &j, true
	}
	return nil, false
}

var priceCategories = map[string]domain.PriceCategory{
	"excellent": domain.PriceExcellent,
	"good":      domain.PriceGood,
	"average":   domain.PriceAverage,
	"poor":      domain.PricePoor,
}

func (j *judgment) toAnalysis(offerID, model string) *domain.OfferAnalysis {
	return &domain.OfferAnalysis{
		OfferID:           offerID,
		Category:          j.Category,
		Subcategory:       j.Subcategory,
		Brand:             j.Brand,
		PriceCategory:     priceCategories[strings.ToLower(j.PriceCategory)],
		ValueScore:        j.ValueScore.ptr(),
		DealQuality:       j.DealQuality,
		TargetAudience:    j.TargetAudience,
		PurchaseUrgency:   j.PurchaseUrgency,
		SeasonalRelevance: j.SeasonalRelevance,
		Recommendation:    j.Recommendation,
		Pros:              j.Pros,
		Cons:              j.Cons,
		AnalysisModel:     model,
		ConfidenceScore:   j.ConfidenceScore.ptr(),
		ProcessedAt:       time.Now(),
	}
}

// anthropicCompleter is the production Completer over the Anthropic API.
type anthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func newAnthropicCompleter(cfg Config) *anthropicCompleter {
	return &anthropicCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete implements Completer.
func (c *anthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
