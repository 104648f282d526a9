// Package session tracks whether the held portal session is usable.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
	"github.com/labi1240/amazon-shifts-bot/internal/metrics"
	"github.com/labi1240/amazon-shifts-bot/internal/resilience"
)

// ErrSessionUnusable is returned when validation cannot reach Valid.
// Callers treat it as a fatal failure for their own operation but not
// for the process: the orchestrator skips the cycle and counts it.
var ErrSessionUnusable = errors.New("session unusable")

// ErrCredentialsRejected signals that a fresh login was permanently
// refused. This is the one session condition that terminates the process.
var ErrCredentialsRejected = errors.New("credentials permanently rejected")

// Authenticator performs a fresh external login. Required to leave the
// Invalid state.
type Authenticator interface {
	Login(ctx context.Context) error
}

// Config holds session monitor tuning.
type Config struct {
	StalenessBound time.Duration // max age of a successful validation
	MaxAttempts    int           // per probe strategy
	BaseDelay      time.Duration
	MaxDelay       time.Duration
}

// Monitor is the session-validity state machine:
// Unknown -> Valid -> Stale -> Invalid, with Invalid requiring a fresh
// login before probing can succeed again.
type Monitor struct {
	cfg    Config
	exec   *resilience.Executor
	probes []resilience.Strategy
	auth   Authenticator // may be nil
	log    *slog.Logger

	rec domain.SessionRecord
	now func() time.Time
}

// NewMonitor creates a session monitor in the Unknown state.
func NewMonitor(cfg Config, exec *resilience.Executor, probes []resilience.Strategy, auth Authenticator, log *slog.Logger) *Monitor {
	if cfg.StalenessBound <= 0 {
		cfg.StalenessBound = 12 * time.Hour
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		cfg:    cfg,
		exec:   exec,
		probes: probes,
		auth:   auth,
		log:    log,
		rec:    domain.SessionRecord{State: domain.SessionUnknown},
		now:    time.Now,
	}
}

// State returns the effective session state. A Valid record past the
// staleness bound reads as Stale, never as Valid.
func (m *Monitor) State() domain.SessionState {
	if m.rec.State == domain.SessionValid &&
		m.now().Sub(m.rec.LastValidated) > m.cfg.StalenessBound {
		return domain.SessionStale
	}
	return m.rec.State
}

// Record returns a copy of the current session record with the effective
// state applied.
func (m *Monitor) Record() domain.SessionRecord {
	rec := m.rec
	rec.State = m.State()
	return rec
}

// ConsecutiveInvalid reports how many validations in a row have failed.
func (m *Monitor) ConsecutiveInvalid() int {
	return m.rec.ConsecutiveInvalid
}

// Invalidate forces a full re-validation on the next EnsureValid call.
// Used when recovery mode mandates a fresh look at the session.
func (m *Monitor) Invalidate() {
	if m.rec.State == domain.SessionValid {
		m.rec.State = domain.SessionStale
	}
}

// EnsureValid performs a validation unless the session is already Valid
// within the staleness bound. It returns an error wrapping
// ErrSessionUnusable when validation cannot reach Valid.
func (m *Monitor) EnsureValid(ctx context.Context) error {
	if m.State() == domain.SessionValid {
		return nil
	}
	return m.Validate(ctx)
}

// Validate runs the probe chain through the executor and moves the state
// machine to Valid or Invalid. From Invalid, a fresh login is attempted
// first; without an authenticator the state stays Invalid.
func (m *Monitor) Validate(ctx context.Context) error {
	if m.rec.State == domain.SessionInvalid {
		if m.auth == nil {
			return fmt.Errorf("session invalid and no authenticator configured: %w", ErrSessionUnusable)
		}
		m.log.Info("session invalid, attempting fresh login")
		if err := m.auth.Login(ctx); err != nil {
			m.markInvalid()
			if resilience.Classify(err) == resilience.ClassFatal {
				return fmt.Errorf("login rejected: %w", err)
			}
			return fmt.Errorf("login failed: %v: %w", err, ErrSessionUnusable)
		}
	}

	res, err := m.exec.Execute(ctx, resilience.Operation{
		Name:        "validate-session",
		Strategies:  m.probes,
		MaxAttempts: m.cfg.MaxAttempts,
		BaseDelay:   m.cfg.BaseDelay,
		MaxDelay:    m.cfg.MaxDelay,
	})
	if err != nil {
		metrics.SessionValidations.WithLabelValues("failure").Inc()
		m.markInvalid()
		m.log.Warn("session validation failed",
			"consecutive_invalid", m.rec.ConsecutiveInvalid, "error", err)
		if resilience.Classify(err) == resilience.ClassFatal {
			return err
		}
		return fmt.Errorf("validation failed: %v: %w", err, ErrSessionUnusable)
	}

	metrics.SessionValidations.WithLabelValues("success").Inc()
	m.rec.State = domain.SessionValid
	m.rec.LastValidated = m.now()
	m.rec.Method = res.Strategy
	m.rec.ConsecutiveInvalid = 0
	m.log.Info("session validated", "method", res.Strategy, "attempts", res.Attempts)
	return nil
}

func (m *Monitor) markInvalid() {
	m.rec.State = domain.SessionInvalid
	m.rec.ConsecutiveInvalid++
}
