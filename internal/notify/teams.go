// Package notify delivers notifications to incoming webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/office-attendance/internal/application"
)

// DefaultTimeout bounds a single webhook request.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// TeamsWebhook posts {"text": ...} payloads to a Microsoft Teams incoming webhook.
type TeamsWebhook struct {
	client *http.Client
	logger *slog.Logger
}

var _ application.NotificationSink = (*TeamsWebhook)(nil)

// NewTeamsWebhook returns a sink using client, or a client with DefaultTimeout when nil.
func NewTeamsWebhook(client *http.Client, logger *slog.Logger) *TeamsWebhook {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamsWebhook{client: client, logger: logger.With("component", "teams_webhook")}
}

// Send posts notification to webhookURL. Any non-2xx response is an error.
func (w *TeamsWebhook) Send(ctx context.Context, webhookURL string, notification application.Notification) error {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return fmt.Errorf("notify: webhook URL is empty")
	}

	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("notify: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("notify: webhook responded %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	w.logger.DebugContext(ctx, "webhook delivered", "status", resp.StatusCode, "duration", time.Since(started), "bytes", len(body))
	return nil
}
