package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
	"github.com/labi1240/amazon-shifts-bot/internal/resilience"
)

type fakeAuth struct {
	calls int
	err   error
}

func (a *fakeAuth) Login(ctx context.Context) error {
	a.calls++
	return a.err
}

func probe(name string, fn func() error) resilience.Strategy {
	return resilience.Strategy{Name: name, Run: func(ctx context.Context) (any, error) {
		return nil, fn()
	}}
}

func newTestMonitor(probes []resilience.Strategy, auth Authenticator) *Monitor {
	return NewMonitor(Config{
		StalenessBound: 12 * time.Hour,
		MaxAttempts:    2,
		BaseDelay:      time.Millisecond,
		MaxDelay:       time.Millisecond,
	}, resilience.NewExecutor(nil), probes, auth, nil)
}

func TestEnsureValid_SkipsProbesWhenFresh(t *testing.T) {
	probeCalls := 0
	m := newTestMonitor([]resilience.Strategy{probe("p", func() error {
		probeCalls++
		return nil
	})}, nil)

	if err := m.EnsureValid(context.Background()); err != nil {
		t.Fatalf("first EnsureValid failed: %v", err)
	}
	if probeCalls != 1 {
		t.Fatalf("probe called %d times, want 1", probeCalls)
	}

	// Fresh Valid session: no probes at all.
	if err := m.EnsureValid(context.Background()); err != nil {
		t.Fatalf("second EnsureValid failed: %v", err)
	}
	if probeCalls != 1 {
		t.Errorf("probe called %d times on fresh session, want 1", probeCalls)
	}
}

func TestState_ValidReadsStaleAfterBound(t *testing.T) {
	m := newTestMonitor([]resilience.Strategy{probe("p", func() error { return nil })}, nil)
	if err := m.Validate(context.Background()); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if m.State() != domain.SessionValid {
		t.Fatalf("state = %s, want valid", m.State())
	}

	m.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
	if m.State() != domain.SessionStale {
		t.Errorf("state = %s after staleness bound, want stale", m.State())
	}
}

func TestEnsureValid_ReprobesWhenStale(t *testing.T) {
	probeCalls := 0
	m := newTestMonitor([]resilience.Strategy{probe("p", func() error {
		probeCalls++
		return nil
	})}, nil)

	if err := m.Validate(context.Background()); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	m.now = func() time.Time { return time.Now().Add(13 * time.Hour) }

	if err := m.EnsureValid(context.Background()); err != nil {
		t.Fatalf("EnsureValid failed: %v", err)
	}
	if probeCalls != 2 {
		t.Errorf("probe called %d times, want 2", probeCalls)
	}
}

func TestValidate_ExhaustionMarksInvalid(t *testing.T) {
	m := newTestMonitor([]resilience.Strategy{probe("p", func() error {
		return errors.New("network down")
	})}, nil)

	err := m.Validate(context.Background())
	if !errors.Is(err, ErrSessionUnusable) {
		t.Fatalf("err = %v, want ErrSessionUnusable", err)
	}
	if m.State() != domain.SessionInvalid {
		t.Errorf("state = %s, want invalid", m.State())
	}
	if m.ConsecutiveInvalid() != 1 {
		t.Errorf("consecutive invalid = %d, want 1", m.ConsecutiveInvalid())
	}
}

func TestValidate_InvalidRequiresLoginFirst(t *testing.T) {
	auth := &fakeAuth{}
	healthy := false
	m := newTestMonitor([]resilience.Strategy{probe("p", func() error {
		if healthy {
			return nil
		}
		return errors.New("401")
	})}, auth)

	if err := m.Validate(context.Background()); err == nil {
		t.Fatal("expected first validation to fail")
	}
	if auth.calls != 0 {
		t.Fatalf("login attempted before state reached invalid")
	}

	// From Invalid, the fresh login runs before probing.
	healthy = true
	if err := m.Validate(context.Background()); err != nil {
		t.Fatalf("revalidation failed: %v", err)
	}
	if auth.calls != 1 {
		t.Errorf("login called %d times, want 1", auth.calls)
	}
	if m.State() != domain.SessionValid || m.ConsecutiveInvalid() != 0 {
		t.Errorf("state = %s, consecutive = %d after recovery", m.State(), m.ConsecutiveInvalid())
	}
}

func TestValidate_NoAuthenticatorStaysInvalid(t *testing.T) {
	m := newTestMonitor([]resilience.Strategy{probe("p", func() error {
		return errors.New("401")
	})}, nil)

	_ = m.Validate(context.Background())
	err := m.Validate(context.Background())
	if !errors.Is(err, ErrSessionUnusable) {
		t.Errorf("err = %v, want ErrSessionUnusable", err)
	}
}

func TestValidate_CredentialsRejectedIsFatal(t *testing.T) {
	auth := &fakeAuth{err: resilience.Fatal(ErrCredentialsRejected)}
	m := newTestMonitor([]resilience.Strategy{probe("p", func() error {
		return errors.New("401")
	})}, auth)

	_ = m.Validate(context.Background()) // reach Invalid
	err := m.Validate(context.Background())
	if !errors.Is(err, ErrCredentialsRejected) {
		t.Fatalf("err = %v, want ErrCredentialsRejected", err)
	}
	if resilience.Classify(err) != resilience.ClassFatal {
		t.Errorf("rejected credentials not classified fatal: %v", err)
	}
}

func TestInvalidate_DemotesValidToStale(t *testing.T) {
	m := newTestMonitor([]resilience.Strategy{probe("p", func() error { return nil })}, nil)
	if err := m.Validate(context.Background()); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	m.Invalidate()
	if m.State() != domain.SessionStale {
		t.Errorf("state = %s after Invalidate, want stale", m.State())
	}
}
