package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brandpulse/brandpulse/internal/domain"
)

const httpCallTimeout = 10 * time.Second

// WebhookTransport POSTs alert payloads as JSON to the channel's URL.
type WebhookTransport struct {
	client *http.Client
}

func NewWebhookTransport() *WebhookTransport {
	return &WebhookTransport{client: &http.Client{Timeout: httpCallTimeout}}
}

type webhookPayload struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

func (t *WebhookTransport) Send(ctx context.Context, message string, cfg domain.ChannelConfig) error {
	if cfg.URL == "" {
		return fmt.Errorf("channel %q has no webhook URL", cfg.Name)
	}

	body, err := json.Marshal(webhookPayload{Channel: cfg.Name, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// ChatWebhookTransport posts to chat-style incoming webhooks (Slack and
// compatible) which expect a {"text": ...} body.
type ChatWebhookTransport struct {
	client *http.Client
}

func NewChatWebhookTransport() *ChatWebhookTransport {
	return &ChatWebhookTransport{client: &http.Client{Timeout: httpCallTimeout}}
}

type chatPayload struct {
	Text string `json:"text"`
}

func (t *ChatWebhookTransport) Send(ctx context.Context, message string, cfg domain.ChannelConfig) error {
	if cfg.URL == "" {
		return fmt.Errorf("channel %q has no webhook URL", cfg.Name)
	}

	body, err := json.Marshal(chatPayload{Text: message})
	if err != nil {
		return fmt.Errorf("failed to marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create chat webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute chat webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat webhook returned status %d", resp.StatusCode)
	}
	return nil
}
