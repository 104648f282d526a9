package memory

import (
	"context"
	"testing"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
)

func TestBookingRepo_CountOnlyBooked(t *testing.T) {
	repo := NewBookingRepo()
	ctx := context.Background()
	now := time.Now()

	records := []*domain.BookingRecord{
		{ID: "1", Outcome: domain.BookingOutcomeBooked, BookedAt: now},
		{ID: "2", Outcome: domain.BookingOutcomeFailed, BookedAt: now},
		{ID: "3", Outcome: domain.BookingOutcomeBooked, BookedAt: now.Add(-48 * time.Hour)},
	}
	for _, rec := range records {
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	count, err := repo.CountBookedSince(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountBookedSince failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (failed and old records excluded)", count)
	}

	all, err := repo.ListSince(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListSince failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("listed %d records, want 2", len(all))
	}
}

func TestBookingRepo_CopiesRecords(t *testing.T) {
	repo := NewBookingRepo()
	ctx := context.Background()

	rec := &domain.BookingRecord{ID: "1", Outcome: domain.BookingOutcomeBooked, BookedAt: time.Now()}
	if err := repo.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	rec.Title = "mutated after append"

	got, err := repo.ListSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("ListSince failed: %v", err)
	}
	if got[0].Title != "" {
		t.Error("ledger shares memory with caller's record")
	}
}
