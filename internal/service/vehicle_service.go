package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"locadora/internal/db"
	"locadora/internal/entities"
	apperrors "locadora/internal/errors"
	"locadora/internal/repository"
)

type VehicleService struct {
	vehicles repository.VehicleStore
}

func NewVehicleService(vehicles repository.VehicleStore) *VehicleService {
	return &VehicleService{vehicles: vehicles}
}

func validCategory(category string) bool {
	switch category {
	case db.CategoryEconomy, db.CategoryIntermediate, db.CategoryLuxury, db.CategorySUV:
		return true
	}
	return false
}

func (s *VehicleService) CreateVehicle(ctx context.Context, v *db.Vehicle) error {
	v.Plate = strings.ToUpper(strings.TrimSpace(v.Plate))
	if v.Plate == "" {
		return fmt.Errorf("plate required")
	}
	if !validCategory(v.Category) {
		return fmt.Errorf("unknown vehicle category %q", v.Category)
	}
	if v.DailyRate <= 0 {
		return fmt.Errorf("daily rate must be positive")
	}
	if v.Odometer < 0 {
		return fmt.Errorf("odometer cannot be negative")
	}

	if _, err := s.vehicles.GetVehicleByPlate(ctx, v.Plate); err == nil {
		return fmt.Errorf("plate %s already registered", v.Plate)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	v.Status = db.VehicleAvailable
	return s.vehicles.CreateVehicle(ctx, v)
}

func (s *VehicleService) GetVehicle(ctx context.Context, id int) (*db.Vehicle, error) {
	return s.vehicles.GetVehicleByID(ctx, id)
}

func (s *VehicleService) ListVehicles(ctx context.Context, category, status string) ([]db.Vehicle, error) {
	return s.vehicles.ListVehicles(ctx, category, status)
}

func (s *VehicleService) UpdateVehicle(ctx context.Context, id int, upd entities.VehicleUpdate) (*db.Vehicle, error) {
	if upd.Category != nil && !validCategory(*upd.Category) {
		return nil, fmt.Errorf("unknown vehicle category %q", *upd.Category)
	}
	if upd.DailyRate != nil && *upd.DailyRate <= 0 {
		return nil, fmt.Errorf("daily rate must be positive")
	}
	return s.vehicles.UpdateVehicle(ctx, id, upd)
}

// SetMaintenance moves an available vehicle into maintenance or back. The
// compare-and-set refuses the override while a rental holds the vehicle.
func (s *VehicleService) SetMaintenance(ctx context.Context, id int, enable bool) (*db.Vehicle, error) {
	expected, next := db.VehicleAvailable, db.VehicleMaintenance
	if !enable {
		expected, next = db.VehicleMaintenance, db.VehicleAvailable
	}
	if err := s.vehicles.SetVehicleStatus(ctx, id, expected, next); err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return nil, apperrors.ErrInvalidState
		}
		return nil, err
	}
	return s.vehicles.GetVehicleByID(ctx, id)
}
