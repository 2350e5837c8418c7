package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"locadora/internal/entities"
)

type DashboardStore interface {
	GetStats(ctx context.Context, monthStart time.Time) (*entities.DashboardStats, error)
}

type DashboardRepository struct {
	DB *sql.DB
}

func NewDashboardRepository(database *sql.DB) *DashboardRepository {
	return &DashboardRepository{DB: database}
}

func (r *DashboardRepository) GetStats(ctx context.Context, monthStart time.Time) (*entities.DashboardStats, error) {
	var stats entities.DashboardStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM vehicles),
			(SELECT COUNT(*) FROM vehicles WHERE status = 'available'),
			(SELECT COUNT(*) FROM customers WHERE active = TRUE),
			(SELECT COUNT(*) FROM rentals WHERE status = 'active'),
			COALESCE((SELECT SUM(total_price) FROM rentals WHERE status = 'finished' AND returned_at >= $1), 0)`,
		monthStart,
	).Scan(
		&stats.TotalVehicles, &stats.AvailableVehicles, &stats.TotalCustomers,
		&stats.ActiveRentals, &stats.MonthlyRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("query dashboard stats: %w", err)
	}
	return &stats, nil
}
