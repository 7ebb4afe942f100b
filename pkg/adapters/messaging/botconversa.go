// Package messaging delivers notification messages through external providers.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

const DefaultEndpoint = "https://api.botconversa.com.br/api/v1/webhook-send-message"

// BotConversaSender sends WhatsApp messages through the BotConversa webhook API.
type BotConversaSender struct {
	endpoint string
	apiKey   string
	attempts uint
	delay    time.Duration
	client   *http.Client
	logger   *slog.Logger
}

// NewBotConversaSender creates a sender whose HTTP calls are bounded by timeout.
func NewBotConversaSender(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) *BotConversaSender {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BotConversaSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		attempts: 3,
		delay:    500 * time.Millisecond,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type sendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Send posts one message. Network errors and 5xx/429 responses are retried;
// other non-2xx responses fail immediately.
func (b *BotConversaSender) Send(ctx context.Context, recipient, message string) error {
	jsonData, err := json.Marshal(sendMessageRequest{Phone: recipient, Message: message})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	return retry.Do(
		func() error {
			startTime := time.Now()
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(jsonData))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}

			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+b.apiKey)

			resp, err := b.client.Do(req)
			duration := time.Since(startTime)
			if err != nil {
				b.logger.Warn("BotConversa request failed",
					"to", domain.MaskContact(recipient),
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					b.logger.Warn("Failed to close response body", "error", closeErr)
				}
			}()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
				b.logger.Warn("BotConversa returned non-2xx status",
					"status_code", resp.StatusCode,
					"to", domain.MaskContact(recipient))
				if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
					return err
				}
				return retry.Unrecoverable(err)
			}

			b.logger.Info("BotConversa message sent",
				"to", domain.MaskContact(recipient),
				"duration_ms", duration.Milliseconds())
			return nil
		},
		retry.Attempts(b.attempts),
		retry.Delay(b.delay),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			b.logger.Info("Retrying BotConversa send after error", "attempt", n, "error", err)
		}),
	)
}
