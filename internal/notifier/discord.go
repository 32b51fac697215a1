package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"SignalFusion/internal/httpclient"
)

// discordContentLimit is the maximum message length accepted by a webhook.
const discordContentLimit = 2000

// Notifier delivers formatted text to a chat sink.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Name() string
}

// DiscordNotifier posts messages to a Discord channel webhook.
type DiscordNotifier struct {
	WebhookURL   string
	Username     string
	Client       *http.Client
	MaxRetryTime time.Duration
	logger       zerolog.Logger
}

// NewDiscordNotifier creates a notifier with optional proxy support.
func NewDiscordNotifier(webhookURL, username, proxyURL string) *DiscordNotifier {
	return &DiscordNotifier{
		WebhookURL:   webhookURL,
		Username:     username,
		Client:       httpclient.New(proxyURL, 30*time.Second),
		MaxRetryTime: 30 * time.Second,
		logger:       log.With().Str("component", "discord").Logger(),
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// Send posts one message, retrying transport errors, 429 and 5xx with
// exponential backoff. Text over the webhook limit is cut.
func (d *DiscordNotifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(webhookPayload{
		Content:  clip(text, discordContentLimit),
		Username: d.Username,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	attempt := 0
	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.Client.Do(req)
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		apiErr := fmt.Errorf("discord API error: status %d, body: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return apiErr
		}
		return backoff.Permanent(apiErr)
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = 500 * time.Millisecond
	strategy.MaxElapsedTime = d.MaxRetryTime

	notify := func(err error, wait time.Duration) {
		d.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("discord send failed")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(strategy, ctx), notify); err != nil {
		return fmt.Errorf("discord send after %d attempts: %w", attempt, err)
	}
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
