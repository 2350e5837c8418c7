package entities

import "time"

type AvailabilityRequest struct {
	VehicleID int       `json:"vehicle_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type AvailabilityResponse struct {
	Available          bool      `json:"available"`
	RequestedStartTime time.Time `json:"requested_start_time"`
	RequestedEndTime   time.Time `json:"requested_end_time"`
	ConflictingRental  string    `json:"conflicting_rental,omitempty"`
	Message            string    `json:"message,omitempty"`
}
