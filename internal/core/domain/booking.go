package domain

import "time"

// BookingOutcome describes how a claim attempt ended.
type BookingOutcome string

const (
	BookingOutcomeBooked BookingOutcome = "booked"
	BookingOutcomeFailed BookingOutcome = "failed"
)

// BookingRecord is proof of a claim attempt. Records are append-only:
// once written they are never mutated. Booked records count against
// the daily quota.
type BookingRecord struct {
	ID            string
	OpportunityID string
	Title         string
	Location      string
	Schedule      string
	CorrelationID string
	Outcome       BookingOutcome
	Strategy      string // claim strategy that succeeded
	BookedAt      time.Time
}
