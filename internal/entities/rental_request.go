package entities

import "time"

// RentalRequest is the booking payload. The customer block is used to create
// the customer on their first rental; afterwards the document alone resolves
// them.
type RentalRequest struct {
	VehicleID int       `json:"vehicle_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Document      string    `json:"document"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	DriverLicense string    `json:"driver_license"`
	LicenseExpiry time.Time `json:"license_expiry"`
	Address       string    `json:"address"`
}

type RentalResponse struct {
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
	CheckoutURL    string     `json:"checkout_url,omitempty"`
}

type CheckInRequest struct {
	Odometer int `json:"odometer"`
}

// CheckOutRequest carries the return reading. ReturnedAt lets back-office
// clients record the real return instant; when absent the server clock is
// used.
type CheckOutRequest struct {
	Odometer   int        `json:"odometer"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// ChangeStatusRequest is the generalized status entry point. Odometer is
// required when the target status needs a reading (active, finished).
type ChangeStatusRequest struct {
	Status   string `json:"status"`
	Odometer *int   `json:"odometer,omitempty"`
}

type RentalsList struct {
	Total   int              `json:"total"`
	Rentals []RentalResponse `json:"rentals"`
}
