package domain

import "time"

// Opportunity is a claimable shift discovered on the hiring portal.
// Descriptive fields are opaque to the engine; they only flow into
// notifications and booking records.
type Opportunity struct {
	ID           string
	Title        string
	Location     string
	Schedule     string
	PayRate      string
	Target       string // scan target (city) that produced it
	DiscoveredAt time.Time
}
