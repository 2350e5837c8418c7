package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"locadora/internal/api"
	"locadora/internal/auth"
	"locadora/internal/config"
	"locadora/internal/repository"
	"locadora/internal/service"
)

func main() {
	godotenv.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	database, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open DB")
	}
	if err := database.Ping(); err != nil {
		logrus.WithError(err).Fatal("failed to connect to DB")
	}

	clock := service.SystemClock()

	rentalRepo := repository.NewRentalRepository(database, cfg.OverlapPolicy)
	vehicleRepo := repository.NewVehicleRepository(database)
	customerRepo := repository.NewCustomerRepository(database)
	adminAuthRepo := repository.NewAdminAuthRepository(database)
	dashboardRepo := repository.NewDashboardRepository(database)
	jobRepo := repository.NewJobRepository(database)

	pricingSvc := service.NewPricingService(cfg.Pricing)
	senderSvc := service.NewSenderService()
	rentalSvc := service.NewRentalService(rentalRepo, vehicleRepo, customerRepo, pricingSvc, clock).
		WithNotifier(senderSvc)
	if payments := service.NewPaymentService(); payments != nil {
		rentalSvc.WithPayments(payments)
	}
	vehicleSvc := service.NewVehicleService(vehicleRepo)
	customerSvc := service.NewCustomerService(customerRepo)
	adminAuthSvc := service.NewAdminAuthService(adminAuthRepo)
	dashboardSvc := service.NewDashboardService(dashboardRepo, clock)
	jobSvc := service.NewJobService(jobRepo, rentalSvc, senderSvc, clock,
		time.Duration(cfg.NoShowGraceHours)*time.Hour)

	rentalHandler := api.NewRentalHandler(rentalSvc)
	vehicleHandler := api.NewVehicleHandler(vehicleSvc)
	customerHandler := api.NewCustomerHandler(customerSvc)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthSvc)
	dashboardHandler := api.NewDashboardHandler(dashboardSvc)
	stripeHandler := api.NewStripeWebhookHandler(cfg.StripeWebhookSecret, rentalSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/login", adminAuthHandler.Login).Methods("POST")
	r.HandleFunc("/api/availability", rentalHandler.CheckAvailability).Methods("POST")
	r.HandleFunc("/api/vehicles", vehicleHandler.ListVehicles).Methods("GET")
	r.HandleFunc("/api/vehicles/{id}", vehicleHandler.GetVehicle).Methods("GET")
	r.HandleFunc("/api/rentals", rentalHandler.CreateRental).Methods("POST")
	r.HandleFunc("/api/rentals/mine", rentalHandler.MyRentals).Methods("GET")
	r.HandleFunc("/api/webhooks/stripe", stripeHandler.HandleWebhook).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware)
	admin.HandleFunc("/auth/register", adminAuthHandler.CreateAdmin).Methods("POST")
	admin.HandleFunc("/vehicles", vehicleHandler.CreateVehicle).Methods("POST")
	admin.HandleFunc("/vehicles/{id}", vehicleHandler.UpdateVehicle).Methods("PUT")
	admin.HandleFunc("/vehicles/{id}/maintenance", vehicleHandler.SetMaintenance).Methods("POST")
	admin.HandleFunc("/customers", customerHandler.CreateCustomer).Methods("POST")
	admin.HandleFunc("/customers", customerHandler.ListCustomers).Methods("GET")
	admin.HandleFunc("/customers/{id}", customerHandler.GetCustomer).Methods("GET")
	admin.HandleFunc("/customers/{id}", customerHandler.UpdateCustomer).Methods("PUT")
	admin.HandleFunc("/rentals", rentalHandler.ListRentals).Methods("GET")
	admin.HandleFunc("/rentals/{id}", rentalHandler.GetRental).Methods("GET")
	admin.HandleFunc("/rentals/{id}/checkin", rentalHandler.CheckIn).Methods("POST")
	admin.HandleFunc("/rentals/{id}/checkout", rentalHandler.CheckOut).Methods("POST")
	admin.HandleFunc("/rentals/{id}/cancel", rentalHandler.CancelRental).Methods("POST")
	admin.HandleFunc("/rentals/{id}/status", rentalHandler.ChangeStatus).Methods("PATCH")
	admin.HandleFunc("/dashboard/stats", dashboardHandler.GetStats).Methods("GET")

	c := cron.New()
	c.AddFunc("@every 15m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := jobSvc.CancelNoShows(ctx); err != nil {
			logrus.WithError(err).Error("no-show job failed")
		}
		if err := jobSvc.NotifyOverdueRentals(ctx); err != nil {
			logrus.WithError(err).Error("overdue job failed")
		}
	})
	c.Start()
	defer c.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	logrus.WithField("port", cfg.Port).Info("server running")
	logrus.Fatal(http.ListenAndServe(":"+cfg.Port, cors(handlers.LoggingHandler(os.Stdout, r))))
}
