package control

import (
	"sync"
	"time"
)

// Mode is the orchestrator's operating mode.
type Mode string

const (
	ModeNormal   Mode = "normal"
	ModeRecovery Mode = "recovery"
)

// EngineState is the process-wide mutable state: mode, failure streak,
// cycle counter, shutdown flag. Mutated only by the orchestrator's
// single control flow; the mutex exists for concurrent reads from the
// health endpoint.
type EngineState struct {
	mu                  sync.RWMutex
	mode                Mode
	cycle               int
	consecutiveFailures int
	totalBookings       int
	shutdown            bool
	sessionStart        time.Time
}

// NewEngineState creates the initial state in normal mode.
func NewEngineState() *EngineState {
	return &EngineState{mode: ModeNormal, sessionStart: time.Now()}
}

// BeginCycle increments and returns the cycle counter.
func (s *EngineState) BeginCycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle++
	return s.cycle
}

func (s *EngineState) Cycle() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycle
}

func (s *EngineState) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *EngineState) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

func (s *EngineState) Failures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consecutiveFailures
}

// RecordFailure increments the failure streak and returns the new count.
func (s *EngineState) RecordFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFailures++
	return s.consecutiveFailures
}

func (s *EngineState) ResetFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFailures = 0
}

// AddBooking bumps the lifetime booking counter.
func (s *EngineState) AddBooking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalBookings++
}

func (s *EngineState) TotalBookings() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalBookings
}

// RequestShutdown asks the loop to exit at the next iteration boundary.
func (s *EngineState) RequestShutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
}

func (s *EngineState) ShutdownRequested() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shutdown
}

// SessionStart reports when this process started monitoring.
func (s *EngineState) SessionStart() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionStart
}
