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

// StatusChange is the payload posted to the notification service when a
// participant's attendance standing changes.
type StatusChange struct {
	EventID       string  `json:"event_id"`
	ParticipantID string  `json:"participant_id"`
	Status        string  `json:"status"`
	Percentage    float64 `json:"percentage"`
}

// Client calls the external notification service. Delivery, templating,
// and retries are that service's problem; this client just posts.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. Skip turns every call into a no-op for local
// development.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Health checks the notification service.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("notify service unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify service health: status %d", resp.StatusCode)
	}
	return nil
}

// StatusChanged posts a status-change notification.
func (c *Client) StatusChanged(ctx context.Context, sc StatusChange) error {
	if c.Skip {
		return nil
	}
	body, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/notifications/attendance", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("notify request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify rejected: status %d", resp.StatusCode)
	}
	return nil
}
