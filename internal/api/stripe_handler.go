package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"locadora/internal/service"
)

const (
	paymentSucceeded = "succeeded"
	paymentRefunded  = "refunded"
)

// StripeWebhookHandler keeps the rental's payment status in sync with
// Checkout events.
type StripeWebhookHandler struct {
	WebhookSecret string
	rentalService *service.RentalService
}

func NewStripeWebhookHandler(webhookSecret string, rentalService *service.RentalService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		WebhookSecret: webhookSecret,
		rentalService: rentalService,
	}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logrus.WithError(err).Warn("stripe webhook: reading body failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.WebhookSecret)
	if err != nil {
		logrus.WithError(err).Warn("stripe webhook: signature verification failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
			logrus.WithError(err).Warn("stripe webhook: bad checkout.session payload")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.rentalService.SetPaymentStatusBySessionID(r.Context(), sess.ID, paymentSucceeded); err != nil {
			logrus.WithError(err).WithField("session", sess.ID).Error("stripe webhook: payment update failed")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			logrus.WithError(err).Warn("stripe webhook: bad charge payload")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent != nil && charge.PaymentIntent.ID != "" {
			sessionID, err := h.rentalService.GetSessionIDByPaymentIntentID(charge.PaymentIntent.ID)
			if err != nil {
				logrus.WithError(err).Warn("stripe webhook: no session for payment intent")
				w.WriteHeader(http.StatusOK)
				return
			}
			if err := h.rentalService.SetPaymentStatusBySessionID(r.Context(), sessionID, paymentRefunded); err != nil {
				logrus.WithError(err).WithField("session", sessionID).Error("stripe webhook: refund update failed")
			}
		}

	default:
		logrus.WithField("type", event.Type).Debug("stripe webhook: event ignored")
	}

	w.WriteHeader(http.StatusOK)
}
