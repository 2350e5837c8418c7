package db

import "time"

// Vehicle statuses.
const (
	VehicleAvailable   = "available"
	VehicleRented      = "rented"
	VehicleMaintenance = "maintenance"
)

// Rental statuses.
const (
	RentalReserved = "reserved"
	RentalActive   = "active"
	RentalFinished = "finished"
	RentalCanceled = "canceled"
)

// Vehicle categories.
const (
	CategoryEconomy      = "economy"
	CategoryIntermediate = "intermediate"
	CategoryLuxury       = "luxury"
	CategorySUV          = "suv"
)

type Vehicle struct {
	ID        int       `json:"id"`
	Plate     string    `json:"plate"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Category  string    `json:"category"`
	DailyRate float64   `json:"daily_rate"`
	Odometer  int       `json:"odometer"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Customer struct {
	ID            int       `json:"id"`
	Document      string    `json:"document"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	DriverLicense string    `json:"driver_license"`
	LicenseExpiry time.Time `json:"license_expiry"`
	Address       string    `json:"address"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Rental rows are append-only: terminal statuses close them, nothing deletes them.
type Rental struct {
	ID             int        `json:"id"`
	Code           string     `json:"code"`
	VehicleID      int        `json:"vehicle_id"`
	CustomerID     int        `json:"customer_id"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	ReturnedAt     *time.Time `json:"returned_at,omitempty"`
	PickupOdometer *int       `json:"pickup_odometer,omitempty"`
	ReturnOdometer *int       `json:"return_odometer,omitempty"`
	TotalPrice     float64    `json:"total_price"`
	Status         string     `json:"status"`

	StripeSessionID string `json:"stripe_session_id,omitempty"`
	PaymentStatus   string `json:"payment_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
