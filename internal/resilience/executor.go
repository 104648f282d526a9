// Package resilience implements the strategy-chain executor: a single
// retry/backoff/fallback policy reused by every fallible operation in
// the bot (session probes, claim attempts, notification delivery).
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/metrics"
)

// Strategy is one concrete way to attempt an operation's goal. Run
// classifies its own failures via Recoverable/Fatal wrapping; plain
// errors default to recoverable.
type Strategy struct {
	Name string
	Run  func(ctx context.Context) (any, error)
}

// Operation is a named fallible unit of work composed of an ordered
// strategy chain and a shared retry/backoff policy.
type Operation struct {
	Name        string
	Strategies  []Strategy
	MaxAttempts int           // per strategy
	BaseDelay   time.Duration // backoff base between attempts of one strategy
	MaxDelay    time.Duration // backoff ceiling
}

// Result reports a successful execution.
type Result struct {
	Payload  any
	Strategy string // strategy that succeeded
	Attempts int    // total attempts across all strategies
}

// Executor drives operations through their strategy chains.
type Executor struct {
	log *slog.Logger
}

// NewExecutor creates an executor. A nil logger falls back to the default.
func NewExecutor(log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{log: log}
}

// Execute tries the operation's strategies in declared order. Each
// strategy gets up to MaxAttempts tries with exponential backoff between
// attempts; exhausting a strategy advances to the next with a fresh
// attempt counter. A fatal failure short-circuits the whole chain. When
// every strategy is exhausted the result is a single aggregated
// ExhaustedError naming each strategy and its last reason.
func (e *Executor) Execute(ctx context.Context, op Operation) (Result, error) {
	maxAttempts := op.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	base := op.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	ceiling := op.MaxDelay
	if ceiling < base {
		ceiling = base
	}

	total := 0
	failures := make([]StrategyFailure, 0, len(op.Strategies))

	for i, st := range op.Strategies {
		var lastErr error

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return Result{Attempts: total}, err
			}

			total++
			metrics.ExecutorAttempts.WithLabelValues(op.Name, st.Name).Inc()

			payload, err := st.Run(ctx)
			if err == nil {
				return Result{Payload: payload, Strategy: st.Name, Attempts: total}, nil
			}
			lastErr = err

			if Classify(err) == ClassFatal {
				e.log.Warn("strategy failed fatally, aborting chain",
					"operation", op.Name, "strategy", st.Name, "error", err)
				return Result{Attempts: total},
					fmt.Errorf("operation %q: strategy %s: %w", op.Name, st.Name, err)
			}

			e.log.Debug("strategy attempt failed",
				"operation", op.Name, "strategy", st.Name,
				"attempt", attempt, "max", maxAttempts, "error", err)

			if attempt == maxAttempts {
				break
			}

			delay := withJitter(backoffDelay(attempt, base, ceiling), ceiling)
			var ra *RetryAfterError
			if errors.As(err, &ra) && ra.After > 0 {
				// Server told us when to come back; its word beats our schedule.
				delay = ra.After
			}
			if err := wait(ctx, delay); err != nil {
				return Result{Attempts: total}, err
			}
		}

		failures = append(failures, StrategyFailure{
			Strategy: st.Name,
			Attempts: maxAttempts,
			LastErr:  lastErr,
		})

		// A rate limit on the strategy's final attempt still mandates
		// the server's delay before anything else hits the resource.
		var ra *RetryAfterError
		if i < len(op.Strategies)-1 && errors.As(lastErr, &ra) && ra.After > 0 {
			if err := wait(ctx, ra.After); err != nil {
				return Result{Attempts: total}, err
			}
		}
	}

	return Result{Attempts: total}, &ExhaustedError{Operation: op.Name, Failures: failures}
}

// wait sleeps for d but returns promptly if ctx is cancelled.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Wait exposes the cancellable sleep for callers that schedule their own
// delays (inter-cycle sleeps, pauses between bookings).
func Wait(ctx context.Context, d time.Duration) error {
	return wait(ctx, d)
}
