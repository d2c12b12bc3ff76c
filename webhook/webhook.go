// Package webhook notifies an HTTP endpoint when a run finishes.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/pagecheck/models"
)

// EventRunCompleted is sent once per run with the full report.
const EventRunCompleted = "run.completed"

// SignatureHeader carries the HMAC-SHA256 of the body when a secret is set.
const SignatureHeader = "X-Pagecheck-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string        `json:"type"`
	RunID     string        `json:"run_id"`
	Timestamp int64         `json:"timestamp"`
	Passed    bool          `json:"passed"`
	Report    models.Report `json:"report"`
}

// NewRunCompleted builds the event for a finished run.
func NewRunCompleted(r models.Report) *Event {
	return &Event{
		Type:      EventRunCompleted,
		RunID:     r.RunID,
		Timestamp: time.Now().Unix(),
		Passed:    r.Results.AllPassed(),
		Report:    r,
	}
}

// Client delivers events.
type Client struct {
	URL    string
	Secret string

	// Delays between attempts. The first entry is usually 0.
	Delays []time.Duration

	HTTP *http.Client
}

// New creates a Client retrying after 1s and 5s.
func New(url, secret string) *Client {
	return &Client{
		URL:    url,
		Secret: secret,
		Delays: []time.Duration{0, 1 * time.Second, 5 * time.Second},
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver sends event once.
// The body is signed with HMAC-SHA256 if a secret is configured:
// X-Pagecheck-Signature: sha256=<hex>
func (c *Client) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Pagecheck-Webhook/1.0")

	if c.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(c.Secret, body))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverWithRetry sends event, retrying on failure after each of Delays.
// It blocks, since the process exits once the run is reported.
func (c *Client) DeliverWithRetry(ctx context.Context, event *Event) error {
	var lastErr error
	for attempt, delay := range c.Delays {
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}
		lastErr = c.Deliver(ctx, event)
		if lastErr == nil {
			slog.Info("webhook delivered",
				"url", c.URL,
				"event", event.Type,
				"run_id", event.RunID,
				"attempt", attempt+1,
			)
			return nil
		}
		slog.Warn("webhook delivery failed",
			"url", c.URL,
			"event", event.Type,
			"run_id", event.RunID,
			"attempt", attempt+1,
			"error", lastErr,
		)
	}
	return lastErr
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
