package payment

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/partypallet/decor-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, apperror.KindNotFound, "payment not found")
	ErrInvalidSignature   = apperror.New(http.StatusUnauthorized, apperror.KindAuthentication, "invalid webhook signature")
	ErrAlreadyPaid        = apperror.New(http.StatusBadRequest, apperror.KindValidation, "booking already has a successful payment")
	ErrBelowDeposit       = apperror.New(http.StatusBadRequest, apperror.KindValidation, "amount is below the required deposit")
	ErrNoFailedPayment    = apperror.New(http.StatusBadRequest, apperror.KindValidation, "no failed payment to retry")
	ErrDuplicateReference = apperror.New(http.StatusConflict, apperror.KindValidation, "payment reference already exists")
)

// Status tracks a payment through the provider's lifecycle.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusPending     Status = "pending"
	StatusSuccess     Status = "success"
	StatusFailed      Status = "failed"
)

// Payment is one charge attempt against a booking's deposit or balance.
// Amount is in the currency's minor unit (kobo for NGN), matching what the
// provider reports on the wire.
type Payment struct {
	ID            string
	BookingID     string
	Provider      string
	Reference     string
	Amount        int64
	Currency      string
	Status        Status
	PaymentDate   *time.Time
	Channel       *string
	FailureReason *string
	Raw           json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
