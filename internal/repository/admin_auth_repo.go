package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Admin struct {
	ID           int
	Email        string
	PasswordHash string
}

type AdminAuthRepository interface {
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	CreateAdmin(ctx context.Context, email, passwordHash string) error
}

type adminAuthRepository struct {
	db *sql.DB
}

func NewAdminAuthRepository(database *sql.DB) AdminAuthRepository {
	return &adminAuthRepository{db: database}
}

func (r *adminAuthRepository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	var admin Admin
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash FROM admins WHERE email = $1", email).
		Scan(&admin.ID, &admin.Email, &admin.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query admin: %w", err)
	}
	return &admin, nil
}

func (r *adminAuthRepository) CreateAdmin(ctx context.Context, email, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO admins (email, password_hash) VALUES ($1, $2)", email, passwordHash)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}
