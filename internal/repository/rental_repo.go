package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"locadora/internal/config"
	"locadora/internal/db"
	apperrors "locadora/internal/errors"
)

// RentalStore is the persistence contract the rental lifecycle runs on.
// Implementations must make CreateRental and ApplyTransition atomic: either
// every side effect commits or none does.
type RentalStore interface {
	CreateRental(ctx context.Context, rental *db.Rental) error
	GetRentalByID(ctx context.Context, id int) (*db.Rental, error)
	GetRentalByCode(ctx context.Context, code string) (*db.Rental, error)
	FindConflictingRental(ctx context.Context, vehicleID int, start, end time.Time) (*db.Rental, error)
	ListRentals(ctx context.Context, status string) ([]db.Rental, error)
	ListRentalsByCustomerEmail(ctx context.Context, email string) ([]db.Rental, error)
	ApplyTransition(ctx context.Context, params TransitionParams) error
	GetRentalByStripeSessionID(ctx context.Context, sessionID string) (*db.Rental, error)
	SetPaymentStatusBySessionID(ctx context.Context, sessionID, paymentStatus string) error
}

// TransitionParams carries a rental whose fields already hold their new
// values, plus the guards and vehicle side effects of the transition.
type TransitionParams struct {
	Rental *db.Rental

	// ExpectedStatus guards the rental row: the update only applies if the
	// stored status still matches, otherwise the transition lost a race and
	// ErrStaleState is returned.
	ExpectedStatus string

	// FreeVehicle releases the vehicle back to available, unless another
	// occupying rental still holds it.
	FreeVehicle bool

	// VehicleOdometer, when set, is written to the vehicle.
	VehicleOdometer *int
}

type RentalRepository struct {
	DB            *sql.DB
	OverlapPolicy string
}

func NewRentalRepository(database *sql.DB, overlapPolicy string) *RentalRepository {
	return &RentalRepository{DB: database, OverlapPolicy: overlapPolicy}
}

const rentalColumns = `id, code, vehicle_id, customer_id, start_time, end_time, returned_at,
	pickup_odometer, return_odometer, total_price, status, stripe_session_id, payment_status, created_at, updated_at`

func scanRental(row interface{ Scan(...interface{}) error }) (*db.Rental, error) {
	var r db.Rental
	err := row.Scan(
		&r.ID, &r.Code, &r.VehicleID, &r.CustomerID, &r.StartTime, &r.EndTime, &r.ReturnedAt,
		&r.PickupOdometer, &r.ReturnOdometer, &r.TotalPrice, &r.Status,
		&r.StripeSessionID, &r.PaymentStatus, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// overlapCondition builds the interval test against $2 (start) and $3 (end).
// Exclusive treats periods as half-open so back-to-back bookings touch without
// conflicting; inclusive keeps the legacy boundary behavior.
func (r *RentalRepository) overlapCondition() string {
	if r.OverlapPolicy == config.OverlapInclusive {
		return "start_time <= $3 AND end_time >= $2"
	}
	return "start_time < $3 AND end_time > $2"
}

// CreateRental performs the availability check and the insert as one
// transaction. The vehicle row is locked first so two concurrent bookings for
// the same vehicle serialize on it.
func (r *RentalRepository) CreateRental(ctx context.Context, rental *db.Rental) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback()

	var vehicleStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM vehicles WHERE id = $1 FOR UPDATE`, rental.VehicleID).Scan(&vehicleStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrVehicleUnavailable
		}
		return fmt.Errorf("lock vehicle row: %w", err)
	}
	if vehicleStatus == db.VehicleMaintenance {
		return apperrors.ErrVehicleUnavailable
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals
		WHERE vehicle_id = $1 AND status IN ('reserved', 'active') AND ` + r.overlapCondition() + `
		ORDER BY start_time LIMIT 1`
	_, err = scanRental(tx.QueryRowContext(ctx, query, rental.VehicleID, rental.StartTime, rental.EndTime))
	if err == nil {
		return apperrors.ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("conflict check: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO rentals (code, vehicle_id, customer_id, start_time, end_time, pickup_odometer,
			total_price, status, stripe_session_id, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		rental.Code, rental.VehicleID, rental.CustomerID, rental.StartTime, rental.EndTime,
		rental.PickupOdometer, rental.TotalPrice, rental.Status, rental.StripeSessionID, rental.PaymentStatus,
	).Scan(&rental.ID, &rental.CreatedAt, &rental.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert rental: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE vehicles SET status = $1, updated_at = NOW() WHERE id = $2`,
		db.VehicleRented, rental.VehicleID)
	if err != nil {
		return fmt.Errorf("mark vehicle rented: %w", err)
	}

	return tx.Commit()
}

func (r *RentalRepository) GetRentalByID(ctx context.Context, id int) (*db.Rental, error) {
	rental, err := scanRental(r.DB.QueryRowContext(ctx,
		`SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("query rental %d: %w", id, err)
	}
	return rental, nil
}

func (r *RentalRepository) GetRentalByCode(ctx context.Context, code string) (*db.Rental, error) {
	rental, err := scanRental(r.DB.QueryRowContext(ctx,
		`SELECT `+rentalColumns+` FROM rentals WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("query rental %s: %w", code, err)
	}
	return rental, nil
}

// FindConflictingRental is the read-only availability probe. nil, nil means
// the period is free.
func (r *RentalRepository) FindConflictingRental(ctx context.Context, vehicleID int, start, end time.Time) (*db.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
		WHERE vehicle_id = $1 AND status IN ('reserved', 'active') AND ` + r.overlapCondition() + `
		ORDER BY start_time LIMIT 1`
	rental, err := scanRental(r.DB.QueryRowContext(ctx, query, vehicleID, start, end))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("availability query: %w", err)
	}
	return rental, nil
}

func (r *RentalRepository) ListRentals(ctx context.Context, status string) ([]db.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY start_time DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	var rentals []db.Rental
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		rentals = append(rentals, *rental)
	}
	return rentals, rows.Err()
}

func (r *RentalRepository) ListRentalsByCustomerEmail(ctx context.Context, email string) ([]db.Rental, error) {
	query := `SELECT r.id, r.code, r.vehicle_id, r.customer_id, r.start_time, r.end_time, r.returned_at,
			r.pickup_odometer, r.return_odometer, r.total_price, r.status,
			r.stripe_session_id, r.payment_status, r.created_at, r.updated_at
		FROM rentals r
		JOIN customers c ON c.id = r.customer_id
		WHERE c.email = $1
		ORDER BY r.start_time DESC`

	rows, err := r.DB.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list rentals by customer: %w", err)
	}
	defer rows.Close()

	var rentals []db.Rental
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		rentals = append(rentals, *rental)
	}
	return rentals, rows.Err()
}

func (r *RentalRepository) GetRentalByStripeSessionID(ctx context.Context, sessionID string) (*db.Rental, error) {
	rental, err := scanRental(r.DB.QueryRowContext(ctx,
		`SELECT `+rentalColumns+` FROM rentals WHERE stripe_session_id = $1`, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("query rental by session: %w", err)
	}
	return rental, nil
}

func (r *RentalRepository) SetPaymentStatusBySessionID(ctx context.Context, sessionID, paymentStatus string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE rentals SET payment_status = $1, updated_at = NOW() WHERE stripe_session_id = $2`,
		paymentStatus, sessionID)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ApplyTransition persists a status change and its vehicle side effects in
// one transaction. Both updates are guarded with expected-current-value
// checks; losing either race rolls everything back with ErrStaleState.
func (r *RentalRepository) ApplyTransition(ctx context.Context, p TransitionParams) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE rentals
		SET status = $1, returned_at = $2, pickup_odometer = $3, return_odometer = $4,
			total_price = $5, updated_at = NOW()
		WHERE id = $6 AND status = $7`,
		p.Rental.Status, p.Rental.ReturnedAt, p.Rental.PickupOdometer, p.Rental.ReturnOdometer,
		p.Rental.TotalPrice, p.Rental.ID, p.ExpectedStatus)
	if err != nil {
		return fmt.Errorf("update rental: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrStaleState
	}

	vehicleStatus := db.VehicleRented
	if p.FreeVehicle {
		var occupying int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM rentals
			WHERE vehicle_id = $1 AND status IN ('reserved', 'active') AND id <> $2`,
			p.Rental.VehicleID, p.Rental.ID).Scan(&occupying)
		if err != nil {
			return fmt.Errorf("count occupying rentals: %w", err)
		}
		if occupying == 0 {
			vehicleStatus = db.VehicleAvailable
		}
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE vehicles
		SET status = $1, odometer = COALESCE($2::integer, odometer), updated_at = NOW()
		WHERE id = $3 AND status = $4`,
		vehicleStatus, p.VehicleOdometer, p.Rental.VehicleID, db.VehicleRented)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrStaleState
	}

	return tx.Commit()
}
