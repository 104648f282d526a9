package domain

import "time"

// EventType tags a notification event.
type EventType string

const (
	EventStartup         EventType = "startup"
	EventClaimSuccess    EventType = "claim_success"
	EventClaimFailure    EventType = "claim_failure"
	EventCycleSummary    EventType = "cycle_summary"
	EventRecoveryEntered EventType = "recovery_entered"
	EventRecoveryExited  EventType = "recovery_exited"
	EventFatalShutdown   EventType = "fatal_shutdown"
	EventShutdown        EventType = "shutdown"
)

// Event is a single-use notification payload. Immutable after creation.
type Event struct {
	ID         string
	Type       EventType
	OccurredAt time.Time
	Urgent     bool
	Cycle      int
	Reason     string
	Booking    *BookingRecord
	Stats      *CycleStats
	Meta       map[string]string
}
