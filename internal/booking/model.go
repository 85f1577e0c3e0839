package booking

import (
	"net/http"
	"time"

	"github.com/partypallet/decor-booking-backend/internal/pkg/apperror"
	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, apperror.KindNotFound, "booking not found")
	ErrSlotConflict      = apperror.New(http.StatusConflict, apperror.KindSlotConflict, "time slot conflicts with existing booking")
	ErrDayUnavailable    = apperror.New(http.StatusConflict, apperror.KindDayUnavailable, "selected date is unavailable")
	ErrSlotBlocked       = apperror.New(http.StatusConflict, apperror.KindSlotConflict, "time slot is blocked")
	ErrDepositTooHigh    = apperror.New(http.StatusBadRequest, apperror.KindValidation, "deposit cannot exceed the estimated amount")
	ErrInvalidTimeRange  = apperror.New(http.StatusBadRequest, apperror.KindValidation, "end time must be after start time")
	ErrInvalidTime       = apperror.New(http.StatusBadRequest, apperror.KindValidation, "time must be in HH:mm format")
	ErrPastEventDate     = apperror.New(http.StatusBadRequest, apperror.KindPastDate, "event date must be in the future")
	ErrInvalidStatus     = apperror.New(http.StatusBadRequest, apperror.KindValidation, "invalid booking status")
	ErrReasonRequired    = apperror.New(http.StatusBadRequest, apperror.KindValidation, "cancellation reason is required")
	ErrAlreadyCancelled  = apperror.New(http.StatusBadRequest, apperror.KindInvalidTransition, "booking is already cancelled")
	ErrDurationTooShort  = apperror.New(http.StatusBadRequest, apperror.KindValidation, "event duration must be at least 30 minutes")
	ErrInvalidEventType  = apperror.New(http.StatusBadRequest, apperror.KindValidation, "invalid event type")
	ErrInvalidConsultMode = apperror.New(http.StatusBadRequest, apperror.KindValidation, "invalid consultation mode")
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDepositPaid Status = "deposit-paid"
	StatusConfirmed   Status = "confirmed"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

// EventTypes enumerates the decoration services offered.
var EventTypes = map[string]bool{
	"Birthday":      true,
	"Bridal Shower": true,
	"Baby Shower":   true,
	"House":         true,
	"Hall":          true,
	"Other":         true,
}

// ConsultationModes enumerates how the pre-event consultation happens.
var ConsultationModes = map[string]bool{
	"in-person":  true,
	"whatsapp":   true,
	"video-call": true,
}

const DefaultConsultationMode = "whatsapp"

type Client struct {
	FullName string
	Email    string
	Phone    string
}

// Event is the reserved window plus the decoration details for it.
// Date is the calendar day at midnight UTC; StartTime/EndTime are normalized
// "HH:mm" strings.
type Event struct {
	Type             string
	Title            string
	Location         string
	Date             time.Time
	StartTime        string
	EndTime          string
	ConsultationMode string
	Notes            string
}

type Pricing struct {
	Estimate           float64
	OvernightSurcharge float64
	DepositRequired    float64
	Currency           string
	FinalAgreed        *float64
}

// HistoryEntry is one immutable status-change record. ChangedBy is the opaque
// actor id supplied by the identity boundary, nil for system transitions.
type HistoryEntry struct {
	Status    Status
	ChangedAt time.Time
	ChangedBy *string
	Note      string
}

type Booking struct {
	ID                 string
	Client             Client
	Event              Event
	Pricing            Pricing
	Notes              string
	IsOvernight        bool
	Status             Status
	StatusHistory      []HistoryEntry
	PaymentIDs         []string
	CancellationReason *string
	CancellationDate   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TotalAmount is the agreed estimate plus any overnight surcharge.
func (b *Booking) TotalAmount() float64 {
	return b.Pricing.Estimate + b.Pricing.OvernightSurcharge
}

// DurationMinutes is the event length in minutes, wrapping to the next day
// when the end clock time falls at or before the start.
func (b *Booking) DurationMinutes() int {
	start, err := clock.Parse(b.Event.StartTime)
	if err != nil {
		return 0
	}
	end, err := clock.Parse(b.Event.EndTime)
	if err != nil {
		return 0
	}
	d := int(end - start)
	if d <= 0 {
		d += 24 * 60
	}
	return d
}

// Filter defines parameters for listing bookings.
type Filter struct {
	Status   string
	Email    string
	Date     *time.Time
	Page     int
	PageSize int
}
