package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"locadora/internal/db"
	"locadora/internal/entities"
)

// SenderService sends rental status notifications over email and SMS. Both
// channels are best-effort: a delivery failure is logged, never propagated.
type SenderService struct{}

func NewSenderService() *SenderService {
	return &SenderService{}
}

func (s *SenderService) NotifyRentalStatus(rental *db.Rental, customer *db.Customer, vehicle *db.Vehicle, status string) {
	data := entities.RentalEmailData{
		CustomerName:       customer.Name,
		RentalCode:         rental.Code,
		VehicleModel:       vehicle.Brand + " " + vehicle.Model,
		VehiclePlate:       vehicle.Plate,
		StartTimeFormatted: rental.StartTime.Format("02 Jan 2006 15:04 MST"),
		EndTimeFormatted:   rental.EndTime.Format("02 Jan 2006 15:04 MST"),
		TotalPrice:         rental.TotalPrice,
		Status:             status,
		CurrentYear:        time.Now().Year(),
	}

	subject := fmt.Sprintf("Your rental is %s - Code: %s", status, data.RentalCode)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour rental is %s.\n\n"+
			"Rental details:\n"+
			"Code: %s\n"+
			"Vehicle: %s (Plate: %s)\n"+
			"Pickup: %s\n"+
			"Return: %s\n"+
			"Total: %.2f\n\n"+
			"Thank you for renting with us.",
		data.CustomerName, status, data.RentalCode, data.VehicleModel, data.VehiclePlate,
		data.StartTimeFormatted, data.EndTimeFormatted, data.TotalPrice,
	)

	go func(toEmail, toName, subject, body string) {
		if err := SendEmail(toEmail, toName, subject, body); err != nil {
			logrus.WithError(err).WithField("rental", data.RentalCode).Warn("rental email failed")
		}
	}(customer.Email, customer.Name, subject, body)

	sms := fmt.Sprintf("Rental %s is %s. Pickup: %s. Details in your email.",
		data.RentalCode, status, rental.StartTime.Format("02/01 15:04"))
	if err := SendSMS(customer.Phone, sms); err != nil {
		logrus.WithError(err).WithField("rental", data.RentalCode).Warn("rental SMS failed")
	}
}

// NotifyOverdue reminds a customer that an active rental passed its scheduled
// end.
func (s *SenderService) NotifyOverdue(code, customerName, customerEmail, customerPhone string, endTime time.Time) {
	subject := fmt.Sprintf("Rental %s is overdue", code)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour rental %s was due back on %s. Late fees apply until the vehicle is returned.\n\n"+
			"Please contact us if you need to extend the rental.",
		customerName, code, endTime.Format("02 Jan 2006 15:04 MST"),
	)

	if err := SendEmail(customerEmail, customerName, subject, body); err != nil {
		logrus.WithError(err).WithField("rental", code).Warn("overdue email failed")
	}
	sms := fmt.Sprintf("Rental %s was due back on %s. Late fees apply.", code, endTime.Format("02/01 15:04"))
	if err := SendSMS(customerPhone, sms); err != nil {
		logrus.WithError(err).WithField("rental", code).Warn("overdue SMS failed")
	}
}
