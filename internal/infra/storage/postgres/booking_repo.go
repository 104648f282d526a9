package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/core/domain"
)

// BookingRepo implements storage.BookingLedger using PostgreSQL.
type BookingRepo struct {
	db *DB
}

// NewBookingRepo creates a new PostgreSQL booking ledger.
func NewBookingRepo(db *DB) *BookingRepo {
	return &BookingRepo{db: db}
}

type bookingRow struct {
	ID            string    `db:"id"`
	OpportunityID string    `db:"opportunity_id"`
	Title         string    `db:"title"`
	Location      string    `db:"location"`
	Schedule      string    `db:"schedule"`
	CorrelationID string    `db:"correlation_id"`
	Outcome       string    `db:"outcome"`
	Strategy      string    `db:"strategy"`
	BookedAt      time.Time `db:"booked_at"`
}

func (r bookingRow) toDomain() *domain.BookingRecord {
	return &domain.BookingRecord{
		ID:            r.ID,
		OpportunityID: r.OpportunityID,
		Title:         r.Title,
		Location:      r.Location,
		Schedule:      r.Schedule,
		CorrelationID: r.CorrelationID,
		Outcome:       domain.BookingOutcome(r.Outcome),
		Strategy:      r.Strategy,
		BookedAt:      r.BookedAt,
	}
}

// Append stores one booking record.
func (r *BookingRepo) Append(ctx context.Context, rec *domain.BookingRecord) error {
	query := `
		INSERT INTO bookings (id, opportunity_id, title, location, schedule, correlation_id, outcome, strategy, booked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.OpportunityID,
		rec.Title,
		rec.Location,
		rec.Schedule,
		rec.CorrelationID,
		string(rec.Outcome),
		rec.Strategy,
		rec.BookedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append booking: %w", err)
	}
	return nil
}

// CountBookedSince counts successful bookings at or after since.
func (r *BookingRepo) CountBookedSince(ctx context.Context, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE outcome = 'booked' AND booked_at >= $1
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, since); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// ListSince returns records at or after since, oldest first.
func (r *BookingRepo) ListSince(ctx context.Context, since time.Time) ([]*domain.BookingRecord, error) {
	query := `
		SELECT id, opportunity_id, title, location, schedule, correlation_id, outcome, strategy, booked_at
		FROM bookings
		WHERE booked_at >= $1
		ORDER BY booked_at ASC
	`
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	records := make([]*domain.BookingRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records, nil
}
