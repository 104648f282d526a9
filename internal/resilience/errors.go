package resilience

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Class determines how the executor handles a strategy failure.
type Class int

const (
	// ClassRecoverable failures are retried within the strategy's
	// backoff policy, then escalated to the next strategy.
	ClassRecoverable Class = iota
	// ClassFatal failures abort the whole chain immediately.
	ClassFatal
)

// ClassifiedError carries an explicit failure class. Strategies classify
// their own failures by wrapping errors with Recoverable or Fatal.
type ClassifiedError struct {
	Class Class
	Err   error
}

func (e *ClassifiedError) Error() string { return e.Err.Error() }
func (e *ClassifiedError) Unwrap() error { return e.Err }

// Recoverable marks err as worth retrying.
func Recoverable(err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: ClassRecoverable, Err: err}
}

// Fatal marks err as not worth retrying. The executor stops the entire
// chain on a fatal failure, no further strategies are attempted.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: ClassFatal, Err: err}
}

// Classify returns the failure class of err. Unclassified errors default
// to recoverable: retrying something useless is cheaper than giving up
// on something transient.
func Classify(err error) Class {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	return ClassRecoverable
}

// RetryAfterError is a distinguished recoverable failure carrying a
// server-specified delay. The executor honors After instead of the
// scheduled backoff before the next attempt.
type RetryAfterError struct {
	After time.Duration
	Err   error
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.After, e.Err)
}
func (e *RetryAfterError) Unwrap() error { return e.Err }

// StrategyFailure records how a single strategy ended.
type StrategyFailure struct {
	Strategy string
	Attempts int
	LastErr  error
}

// ExhaustedError aggregates the failure of every strategy in a chain.
type ExhaustedError struct {
	Operation string
	Failures  []StrategyFailure
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s (%d attempts): %v", f.Strategy, f.Attempts, f.LastErr))
	}
	return fmt.Sprintf("operation %q exhausted all strategies: %s", e.Operation, strings.Join(parts, "; "))
}

// Unwrap exposes the last strategy's final error for errors.Is/As checks.
func (e *ExhaustedError) Unwrap() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[len(e.Failures)-1].LastErr
}
