package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/resilience"
)

// Channel posts a rendered event to the outbound messaging channel.
// Implementations classify their failures: a 429 becomes a
// RetryAfterError, permanent rejections become fatal.
type Channel interface {
	Post(ctx context.Context, content string, timeout time.Duration) error
}

// DiscordChannel delivers messages to a Discord webhook.
type DiscordChannel struct {
	webhook  string
	username string
	client   *http.Client
}

// NewDiscordChannel creates a webhook channel. The client carries no
// global timeout; per-call budgets come from the dispatcher's strategies.
func NewDiscordChannel(webhook, username string) *DiscordChannel {
	if username == "" {
		username = "Shift Bot"
	}
	return &DiscordChannel{
		webhook:  webhook,
		username: username,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Post sends one message within the given timeout budget.
func (c *DiscordChannel) Post(ctx context.Context, content string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload := map[string]any{
		"content":  content,
		"username": c.username,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return resilience.Fatal(fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhook, bytes.NewReader(body))
	if err != nil {
		return resilience.Fatal(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &resilience.RetryAfterError{
			After: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:   fmt.Errorf("webhook rate limited (429)"),
		}
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		// Webhook revoked or deleted, retrying is useless.
		return resilience.Fatal(fmt.Errorf("webhook rejected (%d)", resp.StatusCode))
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("webhook failed (%d): %s", resp.StatusCode, snippet)
	}
}

// parseRetryAfter reads a Retry-After header in seconds. Discord may send
// fractional values.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return time.Second
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return time.Second
	}
	return time.Duration(secs * float64(time.Second))
}
