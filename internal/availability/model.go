package availability

import (
	"net/http"
	"time"

	"github.com/partypallet/decor-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, apperror.KindNotFound, "availability not found")
	ErrPastDate     = apperror.New(http.StatusBadRequest, apperror.KindPastDate, "cannot modify availability for past dates")
	ErrSlotBooked   = apperror.New(http.StatusBadRequest, apperror.KindSlotBooked, "cannot block a booked slot")
	ErrSlotOverlap  = apperror.New(http.StatusBadRequest, apperror.KindValidation, "time slots must not overlap")
	ErrSlotConflict = apperror.New(http.StatusConflict, apperror.KindSlotConflict, "time slot overlaps an existing booking")
	ErrInvalidTime  = apperror.New(http.StatusBadRequest, apperror.KindValidation, "time must be in HH:mm format")
	ErrInvalidRange = apperror.New(http.StatusBadRequest, apperror.KindValidation, "end time must be after start time")
	ErrInvalidDate  = apperror.New(http.StatusBadRequest, apperror.KindValidation, "invalid date format, use YYYY-MM-DD")
)

// SlotStatus indicates whether a time slot can accept a new booking.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBlocked   SlotStatus = "blocked"
	SlotBooked    SlotStatus = "booked"
)

// Slot is a time sub-range within a day. Start and End are normalized
// "HH:mm" strings; the interval is half-open, so touching endpoints are
// allowed.
type Slot struct {
	Start  string
	End    string
	Status SlotStatus
	Note   string
}

// Availability is the per-calendar-day record of whether the day accepts
// bookings and which slots exist. Date is normalized to midnight UTC and is
// the unique key.
type Availability struct {
	Date        time.Time
	IsAvailable bool
	Slots       []Slot
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
