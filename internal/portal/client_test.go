package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
	"github.com/labi1240/amazon-shifts-bot/internal/resilience"
	"github.com/labi1240/amazon-shifts-bot/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:  srv.URL,
		Email:    "op@example.com",
		Password: "secret",
		Timeout:  2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c, srv
}

func TestScan_ParsesJobs(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/jobs/search" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("city"); got != "Toronto" {
			t.Errorf("city = %q, want Toronto", got)
		}
		fmt.Fprint(w, `{"jobs":[
			{"jobId":"j1","title":"Sortation","location":"YYZ1","schedule":"Sat 7-3","payRate":"22.50"},
			{"jobId":"j2","title":"Delivery","location":"YYZ2","schedule":"Sun 7-3","payRate":"21.00"}
		]}`)
	}))

	opps, err := c.Scan(context.Background(), "Toronto")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(opps) != 2 {
		t.Fatalf("got %d opportunities, want 2", len(opps))
	}
	if opps[0].ID != "j1" || opps[0].Target != "Toronto" || opps[0].PayRate != "22.50" {
		t.Errorf("first opportunity = %+v", opps[0])
	}
}

func TestInstantApply_RequiresConfirmed(t *testing.T) {
	status := "confirmed"
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status":%q}`, status)
	}))

	strategies := c.ClaimStrategies()
	if len(strategies) != 2 || strategies[0].Name() != "instant-apply" {
		t.Fatalf("unexpected strategy chain: %v", strategies)
	}

	opp := domain.Opportunity{ID: "j1"}
	if err := strategies[0].Attempt(context.Background(), opp); err != nil {
		t.Errorf("confirmed apply failed: %v", err)
	}

	status = "waitlisted"
	if err := strategies[0].Attempt(context.Background(), opp); err == nil {
		t.Error("unconfirmed apply did not fail")
	}
}

func TestLegacyApply_TwoStepFlow(t *testing.T) {
	var submitPath string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/applications":
			fmt.Fprint(w, `{"applicationId":"app-7"}`)
		case "/api/applications/app-7/submit":
			submitPath = r.URL.Path
			fmt.Fprint(w, `{"status":"submitted"}`)
		default:
			http.NotFound(w, r)
		}
	}))

	legacy := c.ClaimStrategies()[1]
	if err := legacy.Attempt(context.Background(), domain.Opportunity{ID: "j1"}); err != nil {
		t.Fatalf("legacy apply failed: %v", err)
	}
	if submitPath == "" {
		t.Error("submit endpoint never called")
	}
}

func TestDo_RateLimitCarriesRetryAfter(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2.5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Scan(context.Background(), "Toronto")
	var ra *resilience.RetryAfterError
	if !errors.As(err, &ra) {
		t.Fatalf("err = %v, want RetryAfterError", err)
	}
	if ra.After != 2500*time.Millisecond {
		t.Errorf("After = %s, want 2.5s", ra.After)
	}
}

func TestDo_ForbiddenIsFatal(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.Scan(context.Background(), "Toronto")
	if resilience.Classify(err) != resilience.ClassFatal {
		t.Errorf("403 not classified fatal: %v", err)
	}
}

func TestLogin_RejectionIsFatal(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := c.Login(context.Background())
	if !errors.Is(err, session.ErrCredentialsRejected) {
		t.Fatalf("err = %v, want ErrCredentialsRejected", err)
	}
	if resilience.Classify(err) != resilience.ClassFatal {
		t.Errorf("rejected login not classified fatal: %v", err)
	}
}

func TestProbes_CookieFallback(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "session-token", Value: "tok"})
			fmt.Fprint(w, `{"status":"ok"}`)
		case "/api/me":
			// Dashboard flaky: anonymous profile.
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))

	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_ = srv

	probes := c.Probes()
	if _, err := probes[0].Run(context.Background()); !errors.Is(err, errUnauthenticated) {
		t.Errorf("dashboard probe err = %v, want errUnauthenticated", err)
	}
	if _, err := probes[1].Run(context.Background()); err != nil {
		t.Errorf("cookie probe failed despite stored cookie: %v", err)
	}
}
