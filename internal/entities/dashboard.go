package entities

type DashboardStats struct {
	TotalVehicles     int     `json:"total_vehicles"`
	AvailableVehicles int     `json:"available_vehicles"`
	TotalCustomers    int     `json:"total_customers"`
	ActiveRentals     int     `json:"active_rentals"`
	MonthlyRevenue    float64 `json:"monthly_revenue"`
}
