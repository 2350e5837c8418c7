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

type CustomerStore interface {
	CreateCustomer(ctx context.Context, c *db.Customer) error
	GetCustomerByID(ctx context.Context, id int) (*db.Customer, error)
	GetCustomerByDocument(ctx context.Context, document string) (*db.Customer, error)
	ListCustomers(ctx context.Context) ([]db.Customer, error)
	UpdateCustomer(ctx context.Context, id int, upd entities.CustomerUpdate) (*db.Customer, error)
}

type CustomerRepository struct {
	DB *sql.DB
}

func NewCustomerRepository(database *sql.DB) *CustomerRepository {
	return &CustomerRepository{DB: database}
}

const customerColumns = `id, document, name, email, phone, driver_license, license_expiry, address, active, created_at, updated_at`

func scanCustomer(row interface{ Scan(...interface{}) error }) (*db.Customer, error) {
	var c db.Customer
	err := row.Scan(
		&c.ID, &c.Document, &c.Name, &c.Email, &c.Phone, &c.DriverLicense,
		&c.LicenseExpiry, &c.Address, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) CreateCustomer(ctx context.Context, c *db.Customer) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO customers (document, name, email, phone, driver_license, license_expiry, address, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING id, active, created_at, updated_at`,
		c.Document, c.Name, c.Email, c.Phone, c.DriverLicense, c.LicenseExpiry, c.Address,
	).Scan(&c.ID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) GetCustomerByID(ctx context.Context, id int) (*db.Customer, error) {
	c, err := scanCustomer(r.DB.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("query customer %d: %w", id, err)
	}
	return c, nil
}

func (r *CustomerRepository) GetCustomerByDocument(ctx context.Context, document string) (*db.Customer, error) {
	c, err := scanCustomer(r.DB.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE document = $1`, document))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("query customer %s: %w", document, err)
	}
	return c, nil
}

func (r *CustomerRepository) ListCustomers(ctx context.Context) ([]db.Customer, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE active = TRUE ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []db.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) UpdateCustomer(ctx context.Context, id int, upd entities.CustomerUpdate) (*db.Customer, error) {
	query := `UPDATE customers SET updated_at = NOW()`
	args := []interface{}{}
	idx := 1

	if upd.Name != nil {
		query += ", name = $" + strconv.Itoa(idx)
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Email != nil {
		query += ", email = $" + strconv.Itoa(idx)
		args = append(args, *upd.Email)
		idx++
	}
	if upd.Phone != nil {
		query += ", phone = $" + strconv.Itoa(idx)
		args = append(args, *upd.Phone)
		idx++
	}
	if upd.DriverLicense != nil {
		query += ", driver_license = $" + strconv.Itoa(idx)
		args = append(args, *upd.DriverLicense)
		idx++
	}
	if upd.LicenseExpiry != nil {
		query += ", license_expiry = $" + strconv.Itoa(idx)
		args = append(args, *upd.LicenseExpiry)
		idx++
	}
	if upd.Address != nil {
		query += ", address = $" + strconv.Itoa(idx)
		args = append(args, *upd.Address)
		idx++
	}
	if upd.Active != nil {
		query += ", active = $" + strconv.Itoa(idx)
		args = append(args, *upd.Active)
		idx++
	}

	query += " WHERE id = $" + strconv.Itoa(idx) + " RETURNING " + customerColumns
	args = append(args, id)

	c, err := scanCustomer(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("update customer %d: %w", id, err)
	}
	return c, nil
}
