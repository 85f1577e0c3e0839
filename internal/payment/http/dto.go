package http

import (
	"time"

	"github.com/partypallet/decor-booking-backend/internal/payment"
)

type InitializePaymentRequest struct {
	BookingID string  `json:"bookingId" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

type RetryPaymentRequest struct {
	BookingID string `json:"bookingId" binding:"required,uuid"`
}

type ByBookingRequest struct {
	BookingID string `uri:"bookingId" binding:"required,uuid"`
}

type PaymentResponse struct {
	ID            string     `json:"id"`
	BookingID     string     `json:"bookingId"`
	Provider      string     `json:"provider"`
	Reference     string     `json:"reference"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
	Channel       *string    `json:"channel,omitempty"`
	FailureReason *string    `json:"failureReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func NewPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		BookingID:     p.BookingID,
		Provider:      p.Provider,
		Reference:     p.Reference,
		Amount:        float64(p.Amount) / 100,
		Currency:      p.Currency,
		Status:        string(p.Status),
		PaymentDate:   p.PaymentDate,
		Channel:       p.Channel,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
	}
}

type CheckoutResponse struct {
	Payment          PaymentResponse `json:"payment"`
	AuthorizationURL string          `json:"authorizationUrl"`
	AccessCode       string          `json:"accessCode"`
	Reference        string          `json:"reference"`
}
