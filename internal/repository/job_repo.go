package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// OverdueRental joins the contact details the reminder jobs need.
type OverdueRental struct {
	RentalID      int
	Code          string
	EndTime       time.Time
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

type JobStore interface {
	NoShowRentalIDs(ctx context.Context, cutoff time.Time) ([]int, error)
	OverdueRentals(ctx context.Context, now time.Time) ([]OverdueRental, error)
	MarkOverdueNotified(ctx context.Context, rentalIDs []int) error
}

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// NoShowRentalIDs returns reserved rentals whose start passed the grace
// cutoff without a check-in.
func (r *JobRepository) NoShowRentalIDs(ctx context.Context, cutoff time.Time) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id FROM rentals WHERE status = 'reserved' AND start_time < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query no-show rentals: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan rental id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// OverdueRentals returns active rentals past their scheduled end that have
// not been reminded yet.
func (r *JobRepository) OverdueRentals(ctx context.Context, now time.Time) ([]OverdueRental, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT r.id, r.code, r.end_time, c.name, c.email, c.phone
		FROM rentals r
		JOIN customers c ON c.id = r.customer_id
		WHERE r.status = 'active' AND r.end_time < $1 AND r.overdue_notified = FALSE`, now)
	if err != nil {
		return nil, fmt.Errorf("query overdue rentals: %w", err)
	}
	defer rows.Close()

	var overdue []OverdueRental
	for rows.Next() {
		var o OverdueRental
		if err := rows.Scan(&o.RentalID, &o.Code, &o.EndTime, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone); err != nil {
			return nil, fmt.Errorf("scan overdue rental: %w", err)
		}
		overdue = append(overdue, o)
	}
	return overdue, rows.Err()
}

func (r *JobRepository) MarkOverdueNotified(ctx context.Context, rentalIDs []int) error {
	if len(rentalIDs) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE rentals SET overdue_notified = TRUE, updated_at = NOW() WHERE id = ANY($1)`,
		pq.Array(rentalIDs))
	if err != nil {
		return fmt.Errorf("mark overdue notified: %w", err)
	}
	return nil
}
