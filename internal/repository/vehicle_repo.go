package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"locadora/internal/db"
	"locadora/internal/entities"
	apperrors "locadora/internal/errors"
)

// VehicleStore holds per-vehicle state. SetVehicleStatus is a compare-and-set
// so administrative overrides and lifecycle transitions cannot silently
// clobber each other.
type VehicleStore interface {
	CreateVehicle(ctx context.Context, v *db.Vehicle) error
	GetVehicleByID(ctx context.Context, id int) (*db.Vehicle, error)
	GetVehicleByPlate(ctx context.Context, plate string) (*db.Vehicle, error)
	ListVehicles(ctx context.Context, category, status string) ([]db.Vehicle, error)
	UpdateVehicle(ctx context.Context, id int, upd entities.VehicleUpdate) (*db.Vehicle, error)
	SetVehicleStatus(ctx context.Context, id int, expected, next string) error
}

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(database *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: database}
}

const vehicleColumns = `id, plate, brand, model, year, category, daily_rate, odometer, status, created_at, updated_at`

func scanVehicle(row interface{ Scan(...interface{}) error }) (*db.Vehicle, error) {
	var v db.Vehicle
	err := row.Scan(
		&v.ID, &v.Plate, &v.Brand, &v.Model, &v.Year, &v.Category,
		&v.DailyRate, &v.Odometer, &v.Status, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) CreateVehicle(ctx context.Context, v *db.Vehicle) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO vehicles (plate, brand, model, year, category, daily_rate, odometer, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		v.Plate, v.Brand, v.Model, v.Year, v.Category, v.DailyRate, v.Odometer, v.Status,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

func (r *VehicleRepository) GetVehicleByID(ctx context.Context, id int) (*db.Vehicle, error) {
	v, err := scanVehicle(r.DB.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("query vehicle %d: %w", id, err)
	}
	return v, nil
}

func (r *VehicleRepository) GetVehicleByPlate(ctx context.Context, plate string) (*db.Vehicle, error) {
	v, err := scanVehicle(r.DB.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE plate = $1`, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("query vehicle %s: %w", plate, err)
	}
	return v, nil
}

func (r *VehicleRepository) ListVehicles(ctx context.Context, category, status string) ([]db.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if category != "" {
		query += " AND category = $" + strconv.Itoa(idx)
		args = append(args, category)
		idx++
	}
	if status != "" {
		query += " AND status = $" + strconv.Itoa(idx)
		args = append(args, status)
		idx++
	}
	query += " ORDER BY plate"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

// UpdateVehicle applies only the fields present in upd. Status is not part of
// the update struct on purpose; it changes through SetVehicleStatus.
func (r *VehicleRepository) UpdateVehicle(ctx context.Context, id int, upd entities.VehicleUpdate) (*db.Vehicle, error) {
	query := `UPDATE vehicles SET updated_at = NOW()`
	args := []interface{}{}
	idx := 1

	if upd.Brand != nil {
		query += ", brand = $" + strconv.Itoa(idx)
		args = append(args, *upd.Brand)
		idx++
	}
	if upd.Model != nil {
		query += ", model = $" + strconv.Itoa(idx)
		args = append(args, *upd.Model)
		idx++
	}
	if upd.Year != nil {
		query += ", year = $" + strconv.Itoa(idx)
		args = append(args, *upd.Year)
		idx++
	}
	if upd.Category != nil {
		query += ", category = $" + strconv.Itoa(idx)
		args = append(args, *upd.Category)
		idx++
	}
	if upd.DailyRate != nil {
		query += ", daily_rate = $" + strconv.Itoa(idx)
		args = append(args, *upd.DailyRate)
		idx++
	}

	query += " WHERE id = $" + strconv.Itoa(idx) + " RETURNING " + vehicleColumns
	args = append(args, id)

	v, err := scanVehicle(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("update vehicle %d: %w", id, err)
	}
	return v, nil
}

// SetVehicleStatus flips the status only when the stored value still matches
// expected. Zero rows affected means a concurrent writer won.
func (r *VehicleRepository) SetVehicleStatus(ctx context.Context, id int, expected, next string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE vehicles SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		next, id, expected)
	if err != nil {
		return fmt.Errorf("set vehicle status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set vehicle status: %w", err)
	}
	if n == 0 {
		return apperrors.ErrStaleState
	}
	return nil
}
