// Package portal is the reference HTTP collaborator for the hiring
// portal's JSON API: scanning targets for shifts, claiming them, probing
// session validity, and logging in. Browser-driven collaborators can
// replace any piece of it; the engine only sees the contracts.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/resilience"
)

// Config holds portal connection settings.
type Config struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration
}

// Client is a cookie-authenticated portal API client.
type Client struct {
	cfg Config
	hc  *http.Client
}

// NewClient creates a portal client with a fresh cookie jar.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("portal base_url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// do performs one JSON request and decodes the response into out.
// Failures are classified for the executor: auth rejections are fatal,
// rate limits carry the server's retry-after, the rest is recoverable.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return resilience.Fatal(fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return resilience.Fatal(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("portal request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &resilience.RetryAfterError{
			After: retryAfter(resp),
			Err:   fmt.Errorf("portal rate limited (429)"),
		}
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: portal returned 401", errUnauthenticated)
	case resp.StatusCode == http.StatusForbidden:
		return resilience.Fatal(fmt.Errorf("portal access forbidden (403)"))
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("portal http %d: %s", resp.StatusCode, snippet)
	}
}

func retryAfter(resp *http.Response) time.Duration {
	var secs float64
	if _, err := fmt.Sscanf(resp.Header.Get("Retry-After"), "%f", &secs); err != nil || secs <= 0 {
		return time.Second
	}
	return time.Duration(secs * float64(time.Second))
}
