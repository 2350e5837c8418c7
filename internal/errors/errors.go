package errors

// DomainError is a typed error returned by the rental core. Handlers map it
// to an HTTP status; callers compare with errors.Is against the sentinels.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

var (
	// ErrInvalidInterval means end <= start on a requested rental period.
	ErrInvalidInterval = &DomainError{Code: "invalid_interval", Message: "end time must be after start time"}

	// ErrVehicleUnavailable means the vehicle is in maintenance or unknown.
	ErrVehicleUnavailable = &DomainError{Code: "vehicle_unavailable", Message: "vehicle not available for rental"}

	// ErrConflict means an occupying rental overlaps the requested period.
	ErrConflict = &DomainError{Code: "conflict", Message: "vehicle already booked for this period"}

	// ErrInvalidState means the rental does not permit the attempted transition.
	ErrInvalidState = &DomainError{Code: "invalid_state", Message: "operation not allowed in current rental status"}

	// ErrInvalidOdometer means the return reading is below the pickup reading.
	ErrInvalidOdometer = &DomainError{Code: "invalid_odometer", Message: "return odometer cannot be lower than pickup odometer"}

	// ErrNotFound means the rental, vehicle or customer does not exist.
	ErrNotFound = &DomainError{Code: "not_found", Message: "record not found"}

	// ErrStaleState means a compare-and-set lost against a concurrent update.
	ErrStaleState = &DomainError{Code: "stale_state", Message: "record was modified concurrently"}
)
