package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/resilience"
)

func TestDiscordPost_SendsContentAndUsername(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := NewDiscordChannel(srv.URL, "shiftbot")
	if err := ch.Post(context.Background(), "hello", time.Second); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if got["content"] != "hello" || got["username"] != "shiftbot" {
		t.Errorf("payload = %v", got)
	}
}

func TestDiscordPost_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0.5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ch := NewDiscordChannel(srv.URL, "")
	err := ch.Post(context.Background(), "x", time.Second)

	var ra *resilience.RetryAfterError
	if !errors.As(err, &ra) {
		t.Fatalf("err = %v, want RetryAfterError", err)
	}
	if ra.After != 500*time.Millisecond {
		t.Errorf("After = %s, want 500ms", ra.After)
	}
}

func TestDiscordPost_RevokedWebhookIsFatal(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		ch := NewDiscordChannel(srv.URL, "")
		err := ch.Post(context.Background(), "x", time.Second)
		srv.Close()

		if resilience.Classify(err) != resilience.ClassFatal {
			t.Errorf("status %d not classified fatal: %v", code, err)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Second},
		{"2", 2 * time.Second},
		{"0.25", 250 * time.Millisecond},
		{"garbage", time.Second},
		{"-1", time.Second},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
