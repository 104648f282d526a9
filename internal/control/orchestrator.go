// Package control hosts the recovery orchestrator: the single control
// loop that validates the session, scans for shifts, claims them through
// the executor, reports outcomes, and escalates into recovery mode under
// sustained failure.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
	"github.com/labi1240/amazon-shifts-bot/internal/health"
	"github.com/labi1240/amazon-shifts-bot/internal/infra/storage"
	"github.com/labi1240/amazon-shifts-bot/internal/metrics"
	"github.com/labi1240/amazon-shifts-bot/internal/resilience"
	"github.com/labi1240/amazon-shifts-bot/internal/scan"
	"github.com/labi1240/amazon-shifts-bot/internal/session"
)

// ClaimPolicy decides whether a cycle stops claiming at the first
// success or keeps going up to the remaining quota.
type ClaimPolicy string

const (
	ClaimFirstSuccess ClaimPolicy = "first_success"
	ClaimUpToQuota    ClaimPolicy = "up_to_quota"
)

// Claimer is one concrete technique to claim an opportunity. Strategies
// classify their own failures as recoverable or fatal.
type Claimer interface {
	Name() string
	Attempt(ctx context.Context, opp domain.Opportunity) error
}

// EventSink receives notification events. Implementations never fail
// upward; see notify.Dispatcher.
type EventSink interface {
	Send(ctx context.Context, ev *domain.Event)
}

// FallbackCounter reports undelivered-notification counts for health.
type FallbackCounter interface {
	Count() int
}

// Config holds orchestrator tuning.
type Config struct {
	Targets              []string
	ParallelScan         bool
	CheckInterval        time.Duration
	RecoveryInterval     time.Duration
	RecoveryIntervalMax  time.Duration
	FailureThreshold     int
	DailyQuota           int
	PerCycleLimit        int
	ClaimPolicy          ClaimPolicy
	PauseBetweenBookings time.Duration
	SummaryEvery         int // post a cycle summary every N cycles; successes always post
	MaxCycles            int // 0 = unbounded

	ClaimMaxAttempts int
	ClaimBaseDelay   time.Duration
	ClaimMaxDelay    time.Duration
}

func (c *Config) applyDefaults() {
	if c.CheckInterval <= 0 {
		c.CheckInterval = 45 * time.Second
	}
	if c.RecoveryInterval <= 0 {
		c.RecoveryInterval = 2 * time.Minute
	}
	if c.RecoveryIntervalMax < c.RecoveryInterval {
		c.RecoveryIntervalMax = 10 * time.Minute
	}
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 10
	}
	if c.DailyQuota < 1 {
		c.DailyQuota = 3
	}
	if c.ClaimPolicy == "" {
		c.ClaimPolicy = ClaimFirstSuccess
	}
	if c.SummaryEvery < 1 {
		c.SummaryEvery = 5
	}
	if c.ClaimMaxAttempts < 1 {
		c.ClaimMaxAttempts = 5
	}
	if c.ClaimBaseDelay <= 0 {
		c.ClaimBaseDelay = time.Second
	}
	if c.ClaimMaxDelay <= 0 {
		c.ClaimMaxDelay = 30 * time.Second
	}
}

// Orchestrator is the monitoring-loop controller. Exactly one claim
// attempt is in flight at any time: opportunities are processed strictly
// sequentially against the single portal session.
type Orchestrator struct {
	cfg      Config
	exec     *resilience.Executor
	session  *session.Monitor
	scanner  scan.Scanner
	claimers []Claimer
	sink     EventSink
	ledger   storage.BookingLedger
	seen     scan.SeenStore  // optional
	fallback FallbackCounter // optional
	state    *EngineState
	log      *slog.Logger
	now      func() time.Time
}

// NewOrchestrator wires the control loop.
func NewOrchestrator(
	cfg Config,
	exec *resilience.Executor,
	sess *session.Monitor,
	scanner scan.Scanner,
	claimers []Claimer,
	sink EventSink,
	ledger storage.BookingLedger,
	seen scan.SeenStore,
	fallback FallbackCounter,
	log *slog.Logger,
) *Orchestrator {
	cfg.applyDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		exec:     exec,
		session:  sess,
		scanner:  scanner,
		claimers: claimers,
		sink:     sink,
		ledger:   ledger,
		seen:     seen,
		fallback: fallback,
		state:    NewEngineState(),
		log:      log,
		now:      time.Now,
	}
}

// State exposes the engine state for shutdown requests.
func (o *Orchestrator) State() *EngineState {
	return o.state
}

// Snapshot implements health.SnapshotSource.
func (o *Orchestrator) Snapshot(ctx context.Context) health.Snapshot {
	booked, _ := o.bookingsToday(ctx)
	snap := health.Snapshot{
		Mode:                string(o.state.Mode()),
		Cycle:               o.state.Cycle(),
		ConsecutiveFailures: o.state.Failures(),
		BookingsToday:       booked,
		DailyQuota:          o.cfg.DailyQuota,
		SessionState:        string(o.session.State()),
	}
	if o.fallback != nil {
		snap.FallbackEntries = o.fallback.Count()
	}
	return snap
}

// Run executes the monitoring loop until the context is cancelled,
// shutdown is requested, the daily quota is reached, or a fatal
// condition surfaces. Faults from collaborators are caught at the loop
// boundary, counted, and never crash the loop.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.sink.Send(ctx, o.newEvent(domain.EventStartup, "", map[string]string{
		"check_interval": o.cfg.CheckInterval.String(),
		"daily_quota":    fmt.Sprintf("%d", o.cfg.DailyQuota),
		"targets":        fmt.Sprintf("%d", len(o.cfg.Targets)),
		"claim_policy":   string(o.cfg.ClaimPolicy),
	}))

	var runErr error

loop:
	for {
		if ctx.Err() != nil || o.state.ShutdownRequested() {
			break
		}
		if o.cfg.MaxCycles > 0 && o.state.Cycle() >= o.cfg.MaxCycles {
			o.log.Info("max cycles reached, stopping", "cycles", o.state.Cycle())
			break
		}
		if booked, err := o.bookingsToday(ctx); err == nil && booked >= o.cfg.DailyQuota {
			o.log.Info("daily quota reached, stopping", "booked", booked, "quota", o.cfg.DailyQuota)
			break
		}

		cycle := o.state.BeginCycle()
		start := o.now()
		o.log.Info("starting monitoring cycle", "cycle", cycle, "mode", o.state.Mode())

		stats, cycleErr := o.runCycle(ctx, cycle)
		stats.Duration = time.Since(start)
		metrics.CycleDuration.Observe(stats.Duration.Seconds())

		if cycleErr != nil && resilience.Classify(cycleErr) == resilience.ClassFatal {
			// Unusable credentials or another configuration-fatal
			// condition: best-effort final notification, then stop.
			o.log.Error("fatal condition, terminating", "cycle", cycle, "error", cycleErr)
			metrics.CyclesTotal.WithLabelValues("fatal").Inc()
			ev := o.newEvent(domain.EventFatalShutdown, cycleErr.Error(), nil)
			ev.Urgent = true
			o.sink.Send(ctx, ev)
			runErr = cycleErr
			break loop
		}

		o.settleCycle(ctx, cycle, cycleErr)

		if err := resilience.Wait(ctx, o.interval()); err != nil {
			break
		}
	}

	o.finish(runErr)
	return runErr
}

// settleCycle updates the failure streak and drives mode transitions.
func (o *Orchestrator) settleCycle(ctx context.Context, cycle int, cycleErr error) {
	if cycleErr == nil {
		metrics.CyclesTotal.WithLabelValues("success").Inc()
		o.state.ResetFailures()
		metrics.ConsecutiveFailures.Set(0)
		if o.state.Mode() == ModeRecovery {
			o.state.SetMode(ModeNormal)
			metrics.RecoveryMode.Set(0)
			o.log.Info("recovery mode exited", "cycle", cycle)
			o.sink.Send(ctx, o.newEvent(domain.EventRecoveryExited, "", nil))
		}
		return
	}

	metrics.CyclesTotal.WithLabelValues("failure").Inc()
	failures := o.state.RecordFailure()
	metrics.ConsecutiveFailures.Set(float64(failures))
	o.log.Warn("cycle failed", "cycle", cycle, "consecutive_failures", failures, "error", cycleErr)

	// Emit exactly once at the threshold crossing, not on every
	// subsequent failing cycle.
	if failures == o.cfg.FailureThreshold && o.state.Mode() == ModeNormal {
		o.state.SetMode(ModeRecovery)
		metrics.RecoveryMode.Set(1)
		o.session.Invalidate()
		o.log.Warn("recovery mode entered", "consecutive_failures", failures)
		ev := o.newEvent(domain.EventRecoveryEntered, fmt.Sprintf("%d", failures), nil)
		ev.Urgent = true
		o.sink.Send(ctx, ev)
	}
}

// interval returns the sleep before the next cycle: the normal check
// interval, or a progressively extended and capped delay in recovery.
func (o *Orchestrator) interval() time.Duration {
	if o.state.Mode() != ModeRecovery {
		return o.cfg.CheckInterval
	}
	over := o.state.Failures() - o.cfg.FailureThreshold
	if over < 0 {
		over = 0
	}
	delay := float64(o.cfg.RecoveryInterval) * math.Pow(2, float64(over))
	if delay > float64(o.cfg.RecoveryIntervalMax) {
		return o.cfg.RecoveryIntervalMax
	}
	return time.Duration(delay)
}

// runCycle performs one iteration: ensure session, scan, claim, report.
func (o *Orchestrator) runCycle(ctx context.Context, cycle int) (*domain.CycleStats, error) {
	stats := &domain.CycleStats{Cycle: cycle, StartedAt: o.now()}

	if err := o.session.EnsureValid(ctx); err != nil {
		if resilience.Classify(err) == resilience.ClassFatal {
			return stats, err
		}
		// ResourceUnusable: skip scanning and claiming this cycle.
		return stats, fmt.Errorf("session not usable: %w", err)
	}

	res := scan.FanOut(ctx, o.scanner, o.cfg.Targets, o.cfg.ParallelScan, o.log)
	stats.TargetsScanned = res.Scanned
	for target := range res.Failed {
		stats.TargetsFailed = append(stats.TargetsFailed, target)
	}
	if res.AllFailed() {
		return stats, fmt.Errorf("all %d scan targets failed", len(res.Failed))
	}

	opps := scan.Dedupe(ctx, o.seen, res.Opportunities, o.log)
	stats.OpportunitiesFound = len(opps)
	o.log.Info("scan complete", "cycle", cycle,
		"found", len(res.Opportunities), "fresh", len(opps),
		"targets_ok", len(res.Scanned), "targets_failed", len(res.Failed))

	if err := o.processOpportunities(ctx, cycle, opps, stats); err != nil {
		return stats, err
	}

	if cycle%o.cfg.SummaryEvery == 0 || stats.ClaimsSucceeded > 0 {
		ev := o.newEvent(domain.EventCycleSummary, "", nil)
		ev.Cycle = cycle
		ev.Stats = stats
		o.sink.Send(ctx, ev)
	}
	return stats, nil
}

// processOpportunities claims shifts strictly sequentially, honoring the
// daily quota, the per-cycle limit, and the claim policy.
func (o *Orchestrator) processOpportunities(ctx context.Context, cycle int, opps []domain.Opportunity, stats *domain.CycleStats) error {
	if len(opps) == 0 {
		return nil
	}

	booked, err := o.bookingsToday(ctx)
	if err != nil {
		return fmt.Errorf("ledger unavailable: %w", err)
	}

	claimedThisCycle := 0
	for _, opp := range opps {
		if ctx.Err() != nil {
			return nil
		}
		if booked >= o.cfg.DailyQuota {
			o.log.Info("daily quota reached, skipping remaining opportunities",
				"cycle", cycle, "booked", booked)
			return nil
		}
		if o.cfg.PerCycleLimit > 0 && claimedThisCycle >= o.cfg.PerCycleLimit {
			o.log.Info("per-cycle booking limit reached", "cycle", cycle, "limit", o.cfg.PerCycleLimit)
			return nil
		}

		stats.ClaimsAttempted++
		rec, claimErr := o.claim(ctx, cycle, opp)
		if claimErr != nil {
			metrics.ClaimsTotal.WithLabelValues("failure").Inc()
			o.log.Warn("claim failed", "cycle", cycle, "opportunity", opp.ID, "error", claimErr)
			failed := &domain.BookingRecord{
				ID:            uuid.New().String(),
				OpportunityID: opp.ID,
				Title:         opp.Title,
				Location:      opp.Location,
				Schedule:      opp.Schedule,
				CorrelationID: fmt.Sprintf("%d-%s", cycle, opp.ID),
				Outcome:       domain.BookingOutcomeFailed,
				BookedAt:      o.now(),
			}
			if err := o.ledger.Append(ctx, failed); err != nil {
				o.log.Warn("failed to record claim failure", "error", err)
			}
			ev := o.newEvent(domain.EventClaimFailure, claimErr.Error(), nil)
			ev.Cycle = cycle
			ev.Booking = failed
			ev.Urgent = true
			o.sink.Send(ctx, ev)
			if resilience.Classify(claimErr) == resilience.ClassFatal {
				return claimErr
			}
			// Recoverable failure: the shift may still be winnable, so
			// drop it from the seen store for the next cycle's scan.
			if o.seen != nil {
				if err := o.seen.Forget(ctx, opp.ID); err != nil {
					o.log.Warn("failed to unmark opportunity", "id", opp.ID, "error", err)
				}
			}
			continue
		}

		if err := o.ledger.Append(ctx, rec); err != nil {
			return fmt.Errorf("failed to append booking record: %w", err)
		}
		booked++
		claimedThisCycle++
		stats.ClaimsSucceeded++
		o.state.AddBooking()
		metrics.ClaimsTotal.WithLabelValues("success").Inc()
		metrics.BookingsToday.Set(float64(booked))
		o.log.Info("shift booked", "cycle", cycle, "opportunity", opp.ID,
			"strategy", rec.Strategy, "booked_today", booked)

		ev := o.newEvent(domain.EventClaimSuccess, "", nil)
		ev.Cycle = cycle
		ev.Booking = rec
		ev.Urgent = true
		o.sink.Send(ctx, ev)

		if booked >= o.cfg.DailyQuota {
			return nil
		}
		if o.cfg.ClaimPolicy == ClaimFirstSuccess {
			return nil
		}
		if o.cfg.PauseBetweenBookings > 0 {
			if err := resilience.Wait(ctx, o.cfg.PauseBetweenBookings); err != nil {
				return nil
			}
		}
	}
	return nil
}

// claim runs one opportunity through the claim strategy chain. The
// in-flight attempt finishes rather than being forcibly aborted so the
// portal is never left half-claimed.
func (o *Orchestrator) claim(ctx context.Context, cycle int, opp domain.Opportunity) (*domain.BookingRecord, error) {
	strategies := make([]resilience.Strategy, 0, len(o.claimers))
	for _, cl := range o.claimers {
		cl := cl
		strategies = append(strategies, resilience.Strategy{
			Name: cl.Name(),
			Run: func(ctx context.Context) (any, error) {
				return nil, cl.Attempt(ctx, opp)
			},
		})
	}

	res, err := o.exec.Execute(ctx, resilience.Operation{
		Name:        "claim-opportunity",
		Strategies:  strategies,
		MaxAttempts: o.cfg.ClaimMaxAttempts,
		BaseDelay:   o.cfg.ClaimBaseDelay,
		MaxDelay:    o.cfg.ClaimMaxDelay,
	})
	if err != nil {
		return nil, err
	}

	return &domain.BookingRecord{
		ID:            uuid.New().String(),
		OpportunityID: opp.ID,
		Title:         opp.Title,
		Location:      opp.Location,
		Schedule:      opp.Schedule,
		CorrelationID: fmt.Sprintf("%d-%s", cycle, opp.ID),
		Outcome:       domain.BookingOutcomeBooked,
		Strategy:      res.Strategy,
		BookedAt:      o.now(),
	}, nil
}

// finish flushes the final summary. The loop context may already be
// cancelled, so the last notification gets its own deadline.
func (o *Orchestrator) finish(runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if runErr != nil {
		// Fatal path already notified inside the loop.
		return
	}
	uptime := time.Since(o.state.SessionStart()).Round(time.Second)
	ev := o.newEvent(domain.EventShutdown, "", map[string]string{
		"uptime":         uptime.String(),
		"total_bookings": fmt.Sprintf("%d", o.state.TotalBookings()),
	})
	ev.Cycle = o.state.Cycle()
	o.sink.Send(ctx, ev)
}

func (o *Orchestrator) bookingsToday(ctx context.Context) (int, error) {
	return o.ledger.CountBookedSince(ctx, startOfDay(o.now()))
}

// startOfDay is the daily quota boundary, local time.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (o *Orchestrator) newEvent(t domain.EventType, reason string, meta map[string]string) *domain.Event {
	return &domain.Event{
		ID:         uuid.New().String(),
		Type:       t,
		OccurredAt: o.now(),
		Cycle:      o.state.Cycle(),
		Reason:     reason,
		Meta:       meta,
	}
}
