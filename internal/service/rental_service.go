package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"locadora/internal/db"
	"locadora/internal/entities"
	apperrors "locadora/internal/errors"
	"locadora/internal/repository"
)

// Notifier is implemented by SenderService. Notifications are best-effort and
// never block or fail a lifecycle operation.
type Notifier interface {
	NotifyRentalStatus(rental *db.Rental, customer *db.Customer, vehicle *db.Vehicle, status string)
}

// RentalService owns the rental lifecycle: booking with atomic conflict
// detection, check-in, check-out with penalty computation, and cancellation.
type RentalService struct {
	rentals   repository.RentalStore
	vehicles  repository.VehicleStore
	customers repository.CustomerStore
	pricing   *PricingService
	clock     Clock

	payments *PaymentService // optional
	sender   Notifier        // optional
}

func NewRentalService(
	rentals repository.RentalStore,
	vehicles repository.VehicleStore,
	customers repository.CustomerStore,
	pricing *PricingService,
	clock Clock,
) *RentalService {
	return &RentalService{
		rentals:   rentals,
		vehicles:  vehicles,
		customers: customers,
		pricing:   pricing,
		clock:     clock,
	}
}

// WithPayments enables Stripe deposit sessions on booking and refunds on
// cancellation.
func (s *RentalService) WithPayments(payments *PaymentService) *RentalService {
	s.payments = payments
	return s
}

// WithNotifier enables email/SMS notifications on lifecycle events.
func (s *RentalService) WithNotifier(sender Notifier) *RentalService {
	s.sender = sender
	return s
}

// CheckAvailability answers whether the vehicle is free for the period.
// Read-only; the authoritative check runs again inside the booking
// transaction.
func (s *RentalService) CheckAvailability(ctx context.Context, req entities.AvailabilityRequest) (*entities.AvailabilityResponse, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.ErrInvalidInterval
	}
	if _, err := s.vehicles.GetVehicleByID(ctx, req.VehicleID); err != nil {
		return nil, err
	}

	conflict, err := s.rentals.FindConflictingRental(ctx, req.VehicleID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	resp := &entities.AvailabilityResponse{
		Available:          conflict == nil,
		RequestedStartTime: req.StartTime,
		RequestedEndTime:   req.EndTime,
	}
	if conflict != nil {
		resp.ConflictingRental = conflict.Code
		resp.Message = "vehicle already booked for this period"
	}
	return resp, nil
}

// CreateRental books a vehicle. The availability check and the insert run in
// one repository transaction; two concurrent bookings for overlapping periods
// cannot both succeed. The vehicle flips to rented at booking time.
func (s *RentalService) CreateRental(ctx context.Context, req *entities.RentalRequest) (*db.Rental, string, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, "", apperrors.ErrInvalidInterval
	}

	vehicle, err := s.vehicles.GetVehicleByID(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.ErrVehicleUnavailable
		}
		return nil, "", err
	}
	if vehicle.Status == db.VehicleMaintenance {
		return nil, "", apperrors.ErrVehicleUnavailable
	}

	customer, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return nil, "", err
	}

	days := RentalDays(req.StartTime, req.EndTime)
	rental := &db.Rental{
		Code:       uuid.NewString(),
		VehicleID:  vehicle.ID,
		CustomerID: customer.ID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		TotalPrice: Round2(s.pricing.Quote(days, vehicle.DailyRate)),
		Status:     db.RentalReserved,
	}

	checkoutURL := ""
	if s.payments != nil {
		url, sessionID, err := s.payments.CreateCheckoutSession(rental.TotalPrice, rental.Code, customer.Email)
		if err != nil {
			return nil, "", fmt.Errorf("create checkout session: %w", err)
		}
		rental.StripeSessionID = sessionID
		rental.PaymentStatus = "pending"
		checkoutURL = url
	}

	if err := s.rentals.CreateRental(ctx, rental); err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return nil, "", apperrors.ErrConflict
		}
		return nil, "", err
	}

	logrus.WithFields(logrus.Fields{
		"rental":   rental.Code,
		"vehicle":  vehicle.Plate,
		"customer": customer.ID,
		"days":     days,
		"total":    rental.TotalPrice,
	}).Info("rental created")

	s.notify(rental, customer, vehicle, db.RentalReserved)
	return rental, checkoutURL, nil
}

// CheckIn activates a reserved rental and records the pickup odometer on the
// rental and the vehicle.
func (s *RentalService) CheckIn(ctx context.Context, id, odometer int) (*db.Rental, error) {
	rental, err := s.rentals.GetRentalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(rental.Status, db.RentalActive) {
		return nil, apperrors.ErrInvalidState
	}
	if odometer < 0 {
		return nil, apperrors.ErrInvalidOdometer
	}

	expected := rental.Status
	rental.Status = db.RentalActive
	rental.PickupOdometer = &odometer

	err = s.rentals.ApplyTransition(ctx, repository.TransitionParams{
		Rental:          rental,
		ExpectedStatus:  expected,
		VehicleOdometer: &odometer,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return nil, apperrors.ErrInvalidState
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"rental": rental.Code, "odometer": odometer}).Info("rental checked in")
	return rental, nil
}

// CheckOut finalizes an active rental: late penalty and mileage surcharge are
// added to the total, the vehicle returns to available with the new odometer.
// returnedAt defaults to the service clock when nil.
func (s *RentalService) CheckOut(ctx context.Context, id, odometer int, returnedAt *time.Time) (*db.Rental, error) {
	rental, err := s.rentals.GetRentalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(rental.Status, db.RentalFinished) {
		return nil, apperrors.ErrInvalidState
	}
	if rental.PickupOdometer == nil || odometer < *rental.PickupOdometer {
		return nil, apperrors.ErrInvalidOdometer
	}

	vehicle, err := s.vehicles.GetVehicleByID(ctx, rental.VehicleID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if returnedAt != nil {
		now = *returnedAt
	}

	days := RentalDays(rental.StartTime, rental.EndTime)
	penalty := s.pricing.LatePenalty(rental.EndTime, now, vehicle.DailyRate, rental.TotalPrice, days)
	surcharge := s.pricing.MileageSurcharge(float64(odometer - *rental.PickupOdometer))

	expected := rental.Status
	rental.Status = db.RentalFinished
	rental.ReturnedAt = &now
	rental.ReturnOdometer = &odometer
	rental.TotalPrice = Round2(rental.TotalPrice + penalty + surcharge)

	err = s.rentals.ApplyTransition(ctx, repository.TransitionParams{
		Rental:          rental,
		ExpectedStatus:  expected,
		FreeVehicle:     true,
		VehicleOdometer: &odometer,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return nil, apperrors.ErrInvalidState
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"rental":    rental.Code,
		"penalty":   penalty,
		"surcharge": surcharge,
		"total":     rental.TotalPrice,
	}).Info("rental checked out")

	if customer, err := s.customers.GetCustomerByID(ctx, rental.CustomerID); err == nil {
		s.notify(rental, customer, vehicle, db.RentalFinished)
	}
	return rental, nil
}

// Cancel cancels a reserved or active rental and releases the vehicle. A
// canceled active rental forfeits the quoted price; no refund math happens
// here beyond the optional Stripe deposit refund.
func (s *RentalService) Cancel(ctx context.Context, id int) (*db.Rental, error) {
	rental, err := s.rentals.GetRentalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(rental.Status, db.RentalCanceled) {
		return nil, apperrors.ErrInvalidState
	}

	expected := rental.Status
	rental.Status = db.RentalCanceled

	err = s.rentals.ApplyTransition(ctx, repository.TransitionParams{
		Rental:         rental,
		ExpectedStatus: expected,
		FreeVehicle:    true,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return nil, apperrors.ErrInvalidState
		}
		return nil, err
	}

	if s.payments != nil && rental.StripeSessionID != "" {
		if err := s.payments.RefundBySessionID(rental.StripeSessionID); err != nil {
			logrus.WithError(err).WithField("rental", rental.Code).Warn("deposit refund failed")
		}
	}

	logrus.WithField("rental", rental.Code).Info("rental canceled")

	if vehicle, verr := s.vehicles.GetVehicleByID(ctx, rental.VehicleID); verr == nil {
		if customer, cerr := s.customers.GetCustomerByID(ctx, rental.CustomerID); cerr == nil {
			s.notify(rental, customer, vehicle, db.RentalCanceled)
		}
	}
	return rental, nil
}

// ChangeStatus is the generalized status entry point. It dispatches to the
// dedicated operations so every caller goes through the same state machine.
func (s *RentalService) ChangeStatus(ctx context.Context, id int, req entities.ChangeStatusRequest) (*db.Rental, error) {
	switch req.Status {
	case db.RentalActive:
		if req.Odometer == nil {
			return nil, apperrors.ErrInvalidOdometer
		}
		return s.CheckIn(ctx, id, *req.Odometer)
	case db.RentalFinished:
		if req.Odometer == nil {
			return nil, apperrors.ErrInvalidOdometer
		}
		return s.CheckOut(ctx, id, *req.Odometer, nil)
	case db.RentalCanceled:
		return s.Cancel(ctx, id)
	default:
		return nil, apperrors.ErrInvalidState
	}
}

func (s *RentalService) GetRental(ctx context.Context, id int) (*db.Rental, error) {
	return s.rentals.GetRentalByID(ctx, id)
}

func (s *RentalService) GetRentalByCode(ctx context.Context, code string) (*db.Rental, error) {
	return s.rentals.GetRentalByCode(ctx, code)
}

func (s *RentalService) ListRentals(ctx context.Context, status string) ([]db.Rental, error) {
	return s.rentals.ListRentals(ctx, status)
}

func (s *RentalService) ListRentalsByCustomerEmail(ctx context.Context, email string) ([]db.Rental, error) {
	return s.rentals.ListRentalsByCustomerEmail(ctx, email)
}

func (s *RentalService) GetRentalBySessionID(ctx context.Context, sessionID string) (*db.Rental, error) {
	return s.rentals.GetRentalByStripeSessionID(ctx, sessionID)
}

func (s *RentalService) SetPaymentStatusBySessionID(ctx context.Context, sessionID, paymentStatus string) error {
	return s.rentals.SetPaymentStatusBySessionID(ctx, sessionID, paymentStatus)
}

func (s *RentalService) GetSessionIDByPaymentIntentID(paymentIntentID string) (string, error) {
	if s.payments == nil {
		return "", fmt.Errorf("payments not configured")
	}
	return s.payments.SessionIDByPaymentIntentID(paymentIntentID)
}

// resolveCustomer finds the customer by document, creating them on their
// first rental.
func (s *RentalService) resolveCustomer(ctx context.Context, req *entities.RentalRequest) (*db.Customer, error) {
	document := strings.TrimSpace(req.Document)
	if document == "" {
		return nil, fmt.Errorf("customer document required")
	}

	customer, err := s.customers.GetCustomerByDocument(ctx, document)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("customer name required for first rental")
	}
	customer = &db.Customer{
		Document:      document,
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		DriverLicense: strings.TrimSpace(req.DriverLicense),
		LicenseExpiry: req.LicenseExpiry,
		Address:       strings.TrimSpace(req.Address),
	}
	if err := s.customers.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *RentalService) notify(rental *db.Rental, customer *db.Customer, vehicle *db.Vehicle, status string) {
	if s.sender == nil {
		return
	}
	s.sender.NotifyRentalStatus(rental, customer, vehicle, status)
}
