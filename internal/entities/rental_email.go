package entities

type RentalEmailData struct {
	CustomerName       string
	RentalCode         string
	VehicleModel       string
	VehiclePlate       string
	StartTimeFormatted string
	EndTimeFormatted   string
	TotalPrice         float64
	Status             string
	CurrentYear        int
}
