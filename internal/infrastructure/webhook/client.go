package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"MCNews/internal/delivery"
)

// Payload is the JSON body posted to webhook destinations.
type Payload struct {
	Source string    `json:"source"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Client implements delivery.Channel by POSTing JSON to the destination URL.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
}

var _ delivery.Channel = (*Client)(nil)

// NewClient builds a webhook channel; timeout defaults to 10s.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (c *Client) Name() string { return delivery.ChannelWebhook }

// Send posts the message; any status >= 400 is an error.
func (c *Client) Send(ctx context.Context, target, text string) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("webhook client is nil")
	}

	body, err := json.Marshal(Payload{Source: "mcnews", Text: text, SentAt: c.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	return nil
}
