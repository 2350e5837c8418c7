package service

import (
	"context"
	"time"

	"locadora/internal/entities"
	"locadora/internal/repository"
)

type DashboardService struct {
	repo  repository.DashboardStore
	clock Clock
}

func NewDashboardService(repo repository.DashboardStore, clock Clock) *DashboardService {
	return &DashboardService{repo: repo, clock: clock}
}

// GetStats aggregates fleet and revenue numbers for the current month.
func (s *DashboardService) GetStats(ctx context.Context) (*entities.DashboardStats, error) {
	now := s.clock.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return s.repo.GetStats(ctx, monthStart)
}
