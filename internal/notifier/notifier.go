// Package notifier delivers offer notifications through the Telegram
// Bot API.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/locopon/locopon/internal/domain"
	"github.com/locopon/locopon/internal/logger"
)

const (
	// DefaultAPIBaseURL is the Telegram Bot API host.
	DefaultAPIBaseURL = "https://api.telegram.org"
	// DefaultRequestTimeout bounds one API call.
	DefaultRequestTimeout = 10 * time.Second
	// maxMessageLength is Telegram's practical message size. Longer
	// texts are split on line boundaries.
	maxMessageLength = 4000
)

// Config holds Telegram delivery configuration.
type Config struct {
	BotToken   string `mapstructure:"bot_token"`
	ChatID     string `mapstructure:"chat_id"`
	APIBaseURL string `mapstructure:"api_base_url"`
}

// Notifier sends formatted messages to a Telegram chat.
type Notifier struct {
	client *resty.Client
	cfg    Config
	logger logger.Interface
}

// New creates a Telegram notifier.
func New(cfg Config, log logger.Interface) *Notifier {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	client := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetTimeout(DefaultRequestTimeout)

	return &Notifier{
		client: client,
		cfg:    cfg,
		logger: log.WithComponent("notifier"),
	}
}

// Enabled reports whether delivery is configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.BotToken != "" && n.cfg.ChatID != ""
}

// SendOffer delivers a single-offer notification, with the AI judgment
// when one exists.
func (n *Notifier) SendOffer(ctx context.Context, offer *domain.Offer, analysis *domain.OfferAnalysis) error {
	return n.send(ctx, formatOffer(offer, analysis))
}

// SendDigest delivers the batch digest: premium deals first, then good
// deals, then a one-line tally of the rest.
func (n *Notifier) SendDigest(ctx context.Context, offers []domain.Offer, analyses []domain.OfferAnalysis) error {
	if len(offers) == 0 {
		return nil
	}
	return n.send(ctx, formatDigest(offers, analyses))
}

// SendStatus delivers a system status line.
func (n *Notifier) SendStatus(ctx context.Context, message string, isError bool) error {
	icon := "ℹ️"
	if isError {
		icon = "🚨"
	}
	return n.send(ctx, fmt.Sprintf("%s *Locopon*\n%s", icon, message))
}

// telegramResponse is the API envelope.
type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if !n.Enabled() {
		n.logger.Debug("Notifier not configured, dropping message")
		return nil
	}

	for _, chunk := range splitMessage(text, maxMessageLength) {
		if err := n.sendChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (n *Notifier) sendChunk(ctx context.Context, text string) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"chat_id":                  n.cfg.ChatID,
			"text":                     text,
			"parse_mode":               "Markdown",
			"disable_web_page_preview": true,
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", n.cfg.BotToken))
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}

	// The envelope carries the failure reason on error statuses too.
	var result telegramResponse
	if unmarshalErr := json.Unmarshal(resp.Body(), &result); unmarshalErr != nil {
		return fmt.Errorf("telegram send failed: status %d", resp.StatusCode())
	}

	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram send failed: status %d: %s",
			resp.StatusCode(), result.Description)
	}

	n.logger.Debug("Notification sent", "length", len(text))
	return nil
}
