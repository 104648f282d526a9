package health

import (
	"context"
	"sync"
	"time"
)

// SnapshotSource exposes the orchestrator's current state.
type SnapshotSource interface {
	Snapshot(ctx context.Context) Snapshot
}

// Monitor derives a health status from the engine snapshot.
type Monitor struct {
	source           SnapshotSource
	failureThreshold int

	mu         sync.RWMutex
	lastCheck  time.Time
	lastReport Report
}

// NewMonitor creates a health monitor.
func NewMonitor(source SnapshotSource, failureThreshold int) *Monitor {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &Monitor{source: source, failureThreshold: failureThreshold}
}

// CheckHealth evaluates the current snapshot. Results are cached briefly
// so health probes do not hammer the engine.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 5*time.Second && m.lastReport.Status != "" {
		return m.lastReport
	}

	snap := m.source.Snapshot(ctx)
	report := Report{Status: StatusHealthy, Snapshot: snap}

	switch {
	case snap.SessionState == "invalid" || snap.ConsecutiveFailures >= 2*m.failureThreshold:
		report.Status = StatusCritical
	case snap.Mode == "recovery" || snap.ConsecutiveFailures > 0 || snap.FallbackEntries > 0:
		report.Status = StatusDegraded
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
