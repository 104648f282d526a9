// Package storage defines the repository contracts for the booking ledger.
package storage

import (
	"context"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
)

// BookingLedger is the append-only daily ledger of claim outcomes.
// Records are never mutated after creation; the quota check counts
// booked records since the current day boundary.
type BookingLedger interface {
	// Append stores one booking record.
	Append(ctx context.Context, rec *domain.BookingRecord) error

	// CountBookedSince counts successful bookings at or after since.
	CountBookedSince(ctx context.Context, since time.Time) (int, error)

	// ListSince returns records at or after since, oldest first.
	ListSince(ctx context.Context, since time.Time) ([]*domain.BookingRecord, error)
}
