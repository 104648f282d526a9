package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/labi1240/amazon-shifts-bot/internal/resilience"
	"github.com/labi1240/amazon-shifts-bot/internal/session"
)

// errUnauthenticated marks responses that mean the session is gone.
// Recoverable at the probe level: another probe may still succeed, and
// the session monitor handles the Invalid transition.
var errUnauthenticated = errors.New("not authenticated")

// Probes returns the session probe chain: the authenticated dashboard
// endpoint first, a bare cookie-presence check as the cheap fallback.
func (c *Client) Probes() []resilience.Strategy {
	return []resilience.Strategy{
		{Name: "dashboard-probe", Run: c.probeDashboard},
		{Name: "cookie-probe", Run: c.probeCookies},
	}
}

// probeDashboard fetches an endpoint that only answers for a live session.
func (c *Client) probeDashboard(ctx context.Context) (any, error) {
	var resp struct {
		Email string `json:"email"`
	}
	if err := c.do(ctx, "GET", "/api/me", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Email == "" {
		return nil, fmt.Errorf("%w: dashboard returned anonymous profile", errUnauthenticated)
	}
	return resp.Email, nil
}

// probeCookies checks for the auth cookie without a network round-trip.
// Weaker than the dashboard probe but useful when the portal is slow.
func (c *Client) probeCookies(ctx context.Context) (any, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, resilience.Fatal(fmt.Errorf("parse base url: %w", err))
	}
	for _, cookie := range c.hc.Jar.Cookies(u) {
		if cookie.Name == "session-token" && cookie.Value != "" {
			return cookie.Name, nil
		}
	}
	return nil, fmt.Errorf("%w: no session cookie present", errUnauthenticated)
}

// Login performs a fresh credential login. Implements session.Authenticator.
// A 401 on the login endpoint itself means the credentials are bad, which
// is the one condition no amount of retrying fixes.
func (c *Client) Login(ctx context.Context) error {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: c.cfg.Email, Password: c.cfg.Password}

	var resp struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, "POST", "/api/auth/login", req, &resp)
	if err != nil {
		if errors.Is(err, errUnauthenticated) {
			return resilience.Fatal(fmt.Errorf("%w: login rejected for %s", session.ErrCredentialsRejected, c.cfg.Email))
		}
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("login not confirmed: %q", resp.Status)
	}
	return nil
}
