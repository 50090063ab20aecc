package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"StockSentinel/internal/retry"

	"go.uber.org/zap"
)

// WebhookPublisher POSTs events to the serving layer's notify endpoint.
type WebhookPublisher struct {
	URL    string
	Token  string
	Client *http.Client
	Retry  retry.Policy
	Logger *zap.Logger
}

func NewWebhookPublisher(url, token string, logger *zap.Logger) *WebhookPublisher {
	return &WebhookPublisher{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: 10 * time.Second},
		Retry:  retry.DefaultPolicy,
		Logger: logger,
	}
}

func (w *WebhookPublisher) Publish(ctx context.Context, evt SnapshotEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return retry.Do(ctx, w.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if w.Token != "" {
			req.Header.Set("X-Notify-Token", w.Token)
		}
		resp, err := w.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 300 {
			err := fmt.Errorf("webhook %s: status %d", w.URL, resp.StatusCode)
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	}, func(err error, wait time.Duration) {
		w.Logger.Warn("webhook publish failed, retrying", zap.Duration("wait", wait), zap.Error(err))
	})
}
