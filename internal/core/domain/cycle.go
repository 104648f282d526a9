package domain

import "time"

// CycleStats holds per-iteration counters. A fresh value is created each
// cycle and treated as immutable once the cycle ends.
type CycleStats struct {
	Cycle              int
	OpportunitiesFound int
	ClaimsAttempted    int
	ClaimsSucceeded    int
	TargetsScanned     []string
	TargetsFailed      []string
	StartedAt          time.Time
	Duration           time.Duration
}
