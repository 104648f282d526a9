// Package notify delivers structured events to the operator's messaging
// channel with retry, rate-limit backoff, and a durable local fallback.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
	"github.com/labi1240/amazon-shifts-bot/internal/metrics"
	"github.com/labi1240/amazon-shifts-bot/internal/resilience"
)

// DefaultTimeouts are the escalating per-attempt budgets: a short try for
// the fast-network case, then progressively longer ones for a slow but
// eventually responsive channel.
var DefaultTimeouts = []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second}

// Config holds dispatcher tuning.
type Config struct {
	Timeouts    []time.Duration
	MaxAttempts int // per timeout strategy
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Dispatcher guarantees an event is never silently lost: delivery runs
// through the executor against the channel, and exhausted events land in
// the durable fallback log with a best-effort local alert. Send never
// reports failure to its caller; notification is observability, not
// correctness-critical state.
type Dispatcher struct {
	cfg      Config
	channel  Channel
	exec     *resilience.Executor
	fallback FallbackLog
	alerter  Alerter
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil alerter disables local alerts.
func NewDispatcher(cfg Config, channel Channel, exec *resilience.Executor, fallback FallbackLog, alerter Alerter, log *slog.Logger) *Dispatcher {
	if len(cfg.Timeouts) == 0 {
		cfg.Timeouts = DefaultTimeouts
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 2
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if alerter == nil {
		alerter = NopAlerter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		cfg:      cfg,
		channel:  channel,
		exec:     exec,
		fallback: fallback,
		alerter:  alerter,
		log:      log,
	}
}

// Send delivers one event. Fire-and-forget from the caller's view:
// delivery failure is absorbed and recorded, never propagated.
func (d *Dispatcher) Send(ctx context.Context, ev *domain.Event) {
	content := Render(ev)

	strategies := make([]resilience.Strategy, 0, len(d.cfg.Timeouts))
	for _, timeout := range d.cfg.Timeouts {
		timeout := timeout
		strategies = append(strategies, resilience.Strategy{
			Name: fmt.Sprintf("timeout-%s", timeout),
			Run: func(ctx context.Context) (any, error) {
				return nil, d.channel.Post(ctx, content, timeout)
			},
		})
	}

	_, err := d.exec.Execute(ctx, resilience.Operation{
		Name:        "send-notification",
		Strategies:  strategies,
		MaxAttempts: d.cfg.MaxAttempts,
		BaseDelay:   d.cfg.BaseDelay,
		MaxDelay:    d.cfg.MaxDelay,
	})
	if err == nil {
		metrics.NotificationsTotal.WithLabelValues("delivered").Inc()
		return
	}

	metrics.NotificationsTotal.WithLabelValues("fallback").Inc()
	d.log.Warn("notification delivery exhausted, writing fallback",
		"event_type", ev.Type, "event_id", ev.ID, "error", err)

	if fbErr := d.fallback.Append(ctx, ev, err.Error()); fbErr != nil {
		metrics.NotificationsTotal.WithLabelValues("lost").Inc()
		d.log.Error("fallback log append failed",
			"event_type", ev.Type, "event_id", ev.ID, "error", fbErr)
	}
	if ev.Urgent {
		d.alerter.Alert()
	}
}
