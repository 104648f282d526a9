// Package memory provides an in-memory booking ledger for runs without
// a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
)

// BookingRepo implements storage.BookingLedger in memory.
type BookingRepo struct {
	mu      sync.Mutex
	records []*domain.BookingRecord
}

// NewBookingRepo creates an empty in-memory ledger.
func NewBookingRepo() *BookingRepo {
	return &BookingRepo{}
}

func (r *BookingRepo) Append(ctx context.Context, rec *domain.BookingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

func (r *BookingRepo) CountBookedSince(ctx context.Context, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, rec := range r.records {
		if rec.Outcome == domain.BookingOutcomeBooked && !rec.BookedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *BookingRepo) ListSince(ctx context.Context, since time.Time) ([]*domain.BookingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BookingRecord
	for _, rec := range r.records {
		if !rec.BookedAt.Before(since) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}
