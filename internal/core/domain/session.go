package domain

import "time"

// SessionState tracks the current belief about portal-session usability.
type SessionState string

const (
	SessionUnknown SessionState = "unknown"
	SessionValid   SessionState = "valid"
	SessionStale   SessionState = "stale"
	SessionInvalid SessionState = "invalid"
)

// SessionRecord is the session monitor's view of the held session.
// Owned exclusively by the session monitor; everyone else gets copies.
type SessionRecord struct {
	State              SessionState
	LastValidated      time.Time
	Method             string // probe that last succeeded
	ConsecutiveInvalid int
}
