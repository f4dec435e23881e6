package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookClient posts alert payloads to the caretaker workflow webhook.
type WebhookClient struct {
	url    string
	client *http.Client
}

func NewWebhookClient(url string, timeout time.Duration) *WebhookClient {
	return &WebhookClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a webhook URL is set.
func (w *WebhookClient) Configured() bool {
	return w.url != ""
}

// Forward posts the payload as JSON and returns the workflow's response
// body so callers can relay it verbatim.
func (w *WebhookClient) Forward(ctx context.Context, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("post to webhook: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read webhook response: %w", err)
	}
	return out, resp.StatusCode, nil
}
