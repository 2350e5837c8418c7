package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadora/internal/config"
	"locadora/internal/db"
	"locadora/internal/entities"
	apperrors "locadora/internal/errors"
	"locadora/internal/repository"
)

// memStore is an in-memory RentalStore + VehicleStore + CustomerStore with the
// same guard semantics as the SQL repositories: conflict detection inside
// CreateRental, expected-status checks inside ApplyTransition.
type memStore struct {
	mu           sync.Mutex
	rentals      map[int]*db.Rental
	vehicles     map[int]*db.Vehicle
	customers    map[int]*db.Customer
	nextRental   int
	nextCustomer int
}

func newMemStore() *memStore {
	return &memStore{
		rentals:   make(map[int]*db.Rental),
		vehicles:  make(map[int]*db.Vehicle),
		customers: make(map[int]*db.Customer),
	}
}

func (m *memStore) addVehicle(v db.Vehicle) *db.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.Status == "" {
		v.Status = db.VehicleAvailable
	}
	m.vehicles[v.ID] = &v
	return &v
}

func overlaps(r *db.Rental, start, end time.Time) bool {
	occupying := r.Status == db.RentalReserved || r.Status == db.RentalActive
	return occupying && r.StartTime.Before(end) && r.EndTime.After(start)
}

func (m *memStore) CreateRental(_ context.Context, rental *db.Rental) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vehicle, ok := m.vehicles[rental.VehicleID]
	if !ok || vehicle.Status == db.VehicleMaintenance {
		return apperrors.ErrVehicleUnavailable
	}
	for _, existing := range m.rentals {
		if existing.VehicleID == rental.VehicleID && overlaps(existing, rental.StartTime, rental.EndTime) {
			return apperrors.ErrConflict
		}
	}

	m.nextRental++
	rental.ID = m.nextRental
	stored := *rental
	m.rentals[rental.ID] = &stored
	vehicle.Status = db.VehicleRented
	return nil
}

func (m *memStore) GetRentalByID(_ context.Context, id int) (*db.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rentals[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

func (m *memStore) GetRentalByCode(_ context.Context, code string) (*db.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rentals {
		if r.Code == code {
			copy := *r
			return &copy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStore) FindConflictingRental(_ context.Context, vehicleID int, start, end time.Time) (*db.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rentals {
		if r.VehicleID == vehicleID && overlaps(r, start, end) {
			copy := *r
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListRentals(_ context.Context, status string) ([]db.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Rental
	for _, r := range m.rentals {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) ListRentalsByCustomerEmail(_ context.Context, email string) ([]db.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Rental
	for _, r := range m.rentals {
		if c, ok := m.customers[r.CustomerID]; ok && c.Email == email {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) ApplyTransition(_ context.Context, p repository.TransitionParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.rentals[p.Rental.ID]
	if !ok || stored.Status != p.ExpectedStatus {
		return apperrors.ErrStaleState
	}
	vehicle, ok := m.vehicles[p.Rental.VehicleID]
	if !ok || vehicle.Status != db.VehicleRented {
		return apperrors.ErrStaleState
	}

	*stored = *p.Rental

	next := db.VehicleRented
	if p.FreeVehicle {
		occupying := 0
		for _, r := range m.rentals {
			if r.VehicleID == p.Rental.VehicleID && r.ID != p.Rental.ID &&
				(r.Status == db.RentalReserved || r.Status == db.RentalActive) {
				occupying++
			}
		}
		if occupying == 0 {
			next = db.VehicleAvailable
		}
	}
	vehicle.Status = next
	if p.VehicleOdometer != nil {
		vehicle.Odometer = *p.VehicleOdometer
	}
	return nil
}

func (m *memStore) GetRentalByStripeSessionID(_ context.Context, sessionID string) (*db.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rentals {
		if r.StripeSessionID == sessionID {
			copy := *r
			return &copy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStore) SetPaymentStatusBySessionID(_ context.Context, sessionID, paymentStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rentals {
		if r.StripeSessionID == sessionID {
			r.PaymentStatus = paymentStatus
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *memStore) CreateVehicle(_ context.Context, v *db.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[v.ID] = v
	return nil
}

func (m *memStore) GetVehicleByID(_ context.Context, id int) (*db.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copy := *v
	return &copy, nil
}

func (m *memStore) GetVehicleByPlate(_ context.Context, plate string) (*db.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.Plate == plate {
			copy := *v
			return &copy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStore) ListVehicles(_ context.Context, category, status string) ([]db.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Vehicle
	for _, v := range m.vehicles {
		if (category == "" || v.Category == category) && (status == "" || v.Status == status) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *memStore) UpdateVehicle(_ context.Context, id int, _ entities.VehicleUpdate) (*db.Vehicle, error) {
	return m.GetVehicleByID(context.Background(), id)
}

func (m *memStore) SetVehicleStatus(_ context.Context, id int, expected, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok || v.Status != expected {
		return apperrors.ErrStaleState
	}
	v.Status = next
	return nil
}

func (m *memStore) CreateCustomer(_ context.Context, c *db.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCustomer++
	c.ID = m.nextCustomer
	stored := *c
	m.customers[c.ID] = &stored
	return nil
}

func (m *memStore) GetCustomerByID(_ context.Context, id int) (*db.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copy := *c
	return &copy, nil
}

func (m *memStore) GetCustomerByDocument(_ context.Context, document string) (*db.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.Document == document {
			copy := *c
			return &copy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStore) ListCustomers(_ context.Context) ([]db.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Customer
	for _, c := range m.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memStore) UpdateCustomer(_ context.Context, id int, _ entities.CustomerUpdate) (*db.Customer, error) {
	return m.GetCustomerByID(context.Background(), id)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testStart = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*RentalService, *memStore) {
	t.Helper()
	store := newMemStore()
	store.addVehicle(db.Vehicle{ID: 1, Plate: "ABC1D23", Category: db.CategoryEconomy, DailyRate: 100, Odometer: 900, Status: db.VehicleAvailable})
	svc := NewRentalService(store, store, store, NewPricingService(config.DefaultPricing()), fixedClock{now: testStart})
	return svc, store
}

func bookingRequest(start, end time.Time) *entities.RentalRequest {
	return &entities.RentalRequest{
		VehicleID: 1,
		StartTime: start,
		EndTime:   end,
		Document:  "12345678900",
		Name:      "Maria Silva",
		Email:     "maria@example.com",
	}
}

func TestCreateRentalQuotesAndReserves(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	rental, checkoutURL, err := svc.CreateRental(ctx, bookingRequest(testStart, testStart.Add(72*time.Hour)))
	require.NoError(t, err)
	assert.Empty(t, checkoutURL)
	assert.NotEmpty(t, rental.Code)
	assert.Equal(t, db.RentalReserved, rental.Status)
	assert.InDelta(t, 285.0, rental.TotalPrice, 1e-9)

	vehicle, err := store.GetVehicleByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, db.VehicleRented, vehicle.Status)

	customer, err := store.GetCustomerByDocument(ctx, "12345678900")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, rental.CustomerID)
}

func TestCreateRentalRejectsInvalidInterval(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.CreateRental(context.Background(), bookingRequest(testStart, testStart))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInterval)

	_, _, err = svc.CreateRental(context.Background(), bookingRequest(testStart, testStart.Add(-time.Hour)))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInterval)
}

func TestCreateRentalRejectsOverlap(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.CreateRental(ctx, bookingRequest(testStart, testStart.Add(72*time.Hour)))
	require.NoError(t, err)

	_, _, err = svc.CreateRental(ctx, bookingRequest(testStart.Add(24*time.Hour), testStart.Add(96*time.Hour)))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateRentalAllowsBackToBack(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	end := testStart.Add(72 * time.Hour)
	_, _, err := svc.CreateRental(ctx, bookingRequest(testStart, end))
	require.NoError(t, err)

	// Half-open periods: the next booking may start the instant the first ends.
	_, _, err = svc.CreateRental(ctx, bookingRequest(end, end.Add(48*time.Hour)))
	assert.NoError(t, err)
}

func TestCreateRentalRefusesMaintenanceVehicle(t *testing.T) {
	svc, store := newTestService(t)
	store.addVehicle(db.Vehicle{ID: 2, Plate: "XYZ9K88", DailyRate: 150, Status: db.VehicleMaintenance})

	req := bookingRequest(testStart, testStart.Add(24*time.Hour))
	req.VehicleID = 2
	_, _, err := svc.CreateRental(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrVehicleUnavailable)
}

func TestCreateRentalUnknownVehicle(t *testing.T) {
	svc, _ := newTestService(t)

	req := bookingRequest(testStart, testStart.Add(24*time.Hour))
	req.VehicleID = 99
	_, _, err := svc.CreateRental(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrVehicleUnavailable)
}

func TestCheckAvailability(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := entities.AvailabilityRequest{VehicleID: 1, StartTime: testStart, EndTime: testStart.Add(72 * time.Hour)}

	resp, err := svc.CheckAvailability(ctx, req)
	require.NoError(t, err)
	assert.True(t, resp.Available)

	rental, _, err := svc.CreateRental(ctx, bookingRequest(testStart, testStart.Add(72*time.Hour)))
	require.NoError(t, err)

	// Read-only: asking twice changes nothing.
	for i := 0; i < 2; i++ {
		resp, err = svc.CheckAvailability(ctx, req)
		require.NoError(t, err)
		assert.False(t, resp.Available)
		assert.Equal(t, rental.Code, resp.ConflictingRental)
	}
}

func TestCheckAvailabilityInvalidInterval(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CheckAvailability(context.Background(), entities.AvailabilityRequest{
		VehicleID: 1, StartTime: testStart, EndTime: testStart,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInterval)
}

func TestRentalLifecycleEndToEnd(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	end := testStart.Add(72 * time.Hour)
	rental, _, err := svc.CreateRental(ctx, bookingRequest(testStart, end))
	require.NoError(t, err)
	assert.InDelta(t, 285.0, rental.TotalPrice, 1e-9)

	rental, err = svc.CheckIn(ctx, rental.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, db.RentalActive, rental.Status)
	require.NotNil(t, rental.PickupOdometer)
	assert.Equal(t, 1000, *rental.PickupOdometer)

	vehicle, _ := store.GetVehicleByID(ctx, 1)
	assert.Equal(t, 1000, vehicle.Odometer)

	// On-time return, 120 km driven: 20 km over the allowance at 0.50 each.
	rental, err = svc.CheckOut(ctx, rental.ID, 1120, &end)
	require.NoError(t, err)
	assert.Equal(t, db.RentalFinished, rental.Status)
	assert.InDelta(t, 295.0, rental.TotalPrice, 1e-9)
	require.NotNil(t, rental.ReturnOdometer)
	assert.Equal(t, 1120, *rental.ReturnOdometer)
	require.NotNil(t, rental.ReturnedAt)
	assert.True(t, rental.ReturnedAt.Equal(end))

	vehicle, _ = store.GetVehicleByID(ctx, 1)
	assert.Equal(t, db.VehicleAvailable, vehicle.Status)
	assert.Equal(t, 1120, vehicle.Odometer)
}

func TestCheckOutLateReturn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	end := testStart.Add(72 * time.Hour)
	rental, _, err := svc.CreateRental(ctx, bookingRequest(testStart, end))
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, rental.ID, 1000)
	require.NoError(t, err)

	// Five hours late under the stepped policy: 5 * 10. No extra mileage.
	returned := end.Add(5 * time.Hour)
	rental, err = svc.CheckOut(ctx, rental.ID, 1050, &returned)
	require.NoError(t, err)
	assert.InDelta(t, 335.0, rental.TotalPrice, 1e-9)
}

func TestCheckOutUsesClockWhenReturnedAtAbsent(t *testing.T) {
	store := newMemStore()
	store.addVehicle(db.Vehicle{ID: 1, Plate: "ABC1D23", DailyRate: 100, Status: db.VehicleAvailable})
	end := testStart.Add(72 * time.Hour)
	clock := fixedClock{now: end.Add(2 * time.Hour)}
	svc := NewRentalService(store, store, store, NewPricingService(config.DefaultPricing()), clock)
	ctx := context.Background()

	rental, _, err := svc.CreateRental(ctx, bookingRequest(testStart, end))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, rental.ID, 0)
	require.NoError(t, err)

	rental, err = svc.CheckOut(ctx, rental.ID, 50, nil)
	require.NoError(t, err)
	// Two hours late at 10 per started hour.
	assert.InDelta(t, 305.0, rental.TotalPrice, 1e-9)
	require.NotNil(t, rental.ReturnedAt)
	assert.True(t, rental.ReturnedAt.Equal(clock.now))
}

func TestCheckInGuards(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rental, _, err := svc.CreateRental(ctx, bookingRequest(testStart, testStart.Add(48*time.Hour)))
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, rental.ID, -1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOdometer)

	_, err = svc.Cancel(ctx, rental.ID)
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, rental.ID, 1000)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestCheckOutGuards(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rental, _, err := svc.CreateRental(ctx, bookingRequest(testStart, testStart.Add(48*time.Hour)))
	require.NoError(t, err)

	// Still reserved: checkout is not a legal transition.
	_, err = svc.CheckOut(ctx, rental.ID, 1000, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = svc.CheckIn(ctx, rental.ID, 1000)
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, rental.ID, 999, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOdometer)
}

func TestCancelReleasesVehicleForRebooking(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	end := testStart.Add(72 * time.Hour)
	rental, _, err := svc.CreateRental(ctx, bookingRequest(testStart, end))
	require.NoError(t, err)

	canceled, err := svc.Cancel(ctx, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, db.RentalCanceled, canceled.Status)

	vehicle, _ := store.GetVehicleByID(ctx, 1)
	assert.Equal(t, db.VehicleAvailable, vehicle.Status)

	// Canceled rentals no longer occupy the period.
	_, _, err = svc.CreateRental(ctx, bookingRequest(testStart, end))
	assert.NoError(t, err)
}

func TestCancelActiveForfeitsQuotedPrice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rental, _, err := svc.CreateRental(ctx, bookingRequest(testStart, testStart.Add(72*time.Hour)))
	require.NoError(t, err)
	quoted := rental.TotalPrice

	_, err = svc.CheckIn(ctx, rental.ID, 1000)
	require.NoError(t, err)

	canceled, err := svc.Cancel(ctx, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, db.RentalCanceled, canceled.Status)
	assert.Equal(t, quoted, canceled.TotalPrice)
}

func TestCancelTerminalStates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	end := testStart.Add(48 * time.Hour)
	rental, _, err := svc.CreateRental(ctx, bookingRequest(testStart, end))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, rental.ID, 1000)
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, rental.ID, 1050, &end)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, rental.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestChangeStatusDispatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	end := testStart.Add(72 * time.Hour)
	rental, _, err := svc.CreateRental(ctx, bookingRequest(testStart, end))
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, rental.ID, entities.ChangeStatusRequest{Status: db.RentalActive})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOdometer)

	odo := 1000
	rental, err = svc.ChangeStatus(ctx, rental.ID, entities.ChangeStatusRequest{Status: db.RentalActive, Odometer: &odo})
	require.NoError(t, err)
	assert.Equal(t, db.RentalActive, rental.Status)

	_, err = svc.ChangeStatus(ctx, rental.ID, entities.ChangeStatusRequest{Status: "parked"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	rental, err = svc.ChangeStatus(ctx, rental.ID, entities.ChangeStatusRequest{Status: db.RentalCanceled})
	require.NoError(t, err)
	assert.Equal(t, db.RentalCanceled, rental.Status)
}

func TestAvailabilityMatchesOverlapRule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bookedStart := testStart.Add(240 * time.Hour)
	bookedEnd := bookedStart.Add(72 * time.Hour)
	_, _, err := svc.CreateRental(ctx, bookingRequest(bookedStart, bookedEnd))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		offset := time.Duration(rng.Intn(480)-240) * time.Hour
		length := time.Duration(rng.Intn(120)+1) * time.Hour
		start := bookedStart.Add(offset)
		end := start.Add(length)

		resp, err := svc.CheckAvailability(ctx, entities.AvailabilityRequest{VehicleID: 1, StartTime: start, EndTime: end})
		require.NoError(t, err)

		wantFree := !(start.Before(bookedEnd) && end.After(bookedStart))
		assert.Equalf(t, wantFree, resp.Available, "period [%v, %v)", start, end)
	}
}
