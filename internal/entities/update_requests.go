package entities

import "time"

// VehicleUpdate enumerates the fields an admin may change on a vehicle.
// Nil means "leave as is". Status changes go through the dedicated status
// endpoint so the rental invariants stay enforced.
type VehicleUpdate struct {
	Brand     *string  `json:"brand,omitempty"`
	Model     *string  `json:"model,omitempty"`
	Year      *int     `json:"year,omitempty"`
	Category  *string  `json:"category,omitempty"`
	DailyRate *float64 `json:"daily_rate,omitempty"`
}

// CustomerUpdate enumerates the mutable customer profile fields.
type CustomerUpdate struct {
	Name          *string    `json:"name,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	DriverLicense *string    `json:"driver_license,omitempty"`
	LicenseExpiry *time.Time `json:"license_expiry,omitempty"`
	Address       *string    `json:"address,omitempty"`
	Active        *bool      `json:"active,omitempty"`
}
