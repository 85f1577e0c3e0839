package http

import (
	"time"

	"github.com/partypallet/decor-booking-backend/internal/booking"
	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
)

const (
	minDurationMinutes = 30
	maxDurationMinutes = 24 * 60
)

type ClientPayload struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
}

type CreateBookingRequest struct {
	Client           ClientPayload `json:"client" binding:"required"`
	EventType        string        `json:"eventType" binding:"required"`
	EventTitle       string        `json:"eventTitle"`
	EventLocation    string        `json:"eventLocation" binding:"required"`
	EventDate        string        `json:"eventDate" binding:"required"`
	StartTime        string        `json:"startTime" binding:"required"`
	EndTime          string        `json:"endTime" binding:"required"`
	ConsultationMode string        `json:"consultationMode"`
	EventNotes       string        `json:"eventNotes"`
	Estimate         float64       `json:"estimate" binding:"required,gt=0"`
	OvernightSurcharge float64     `json:"overnightSurcharge" binding:"omitempty,gte=0"`
	DepositRequired  float64       `json:"depositRequired" binding:"required,gt=0"`
	Currency         string        `json:"currency"`
	Notes            string        `json:"notes"`
}

// Validate normalizes times and checks the domain rules gin's binding tags
// cannot express. It returns the parsed date and normalized times.
func (r *CreateBookingRequest) Validate() (time.Time, string, string, error) {
	if !booking.EventTypes[r.EventType] {
		return time.Time{}, "", "", booking.ErrInvalidEventType
	}
	if r.ConsultationMode != "" && !booking.ConsultationModes[r.ConsultationMode] {
		return time.Time{}, "", "", booking.ErrInvalidConsultMode
	}
	if r.DepositRequired > r.Estimate {
		return time.Time{}, "", "", booking.ErrDepositTooHigh
	}

	date, err := clock.ParseDate(r.EventDate)
	if err != nil {
		return time.Time{}, "", "", booking.ErrInvalidTime
	}
	start, end, err := normalizeWindow(r.StartTime, r.EndTime)
	if err != nil {
		return time.Time{}, "", "", err
	}
	return date, start, end, nil
}

func normalizeWindow(startRaw, endRaw string) (string, string, error) {
	start, err := clock.Normalize(startRaw)
	if err != nil {
		return "", "", booking.ErrInvalidTime
	}
	end, err := clock.Normalize(endRaw)
	if err != nil {
		return "", "", booking.ErrInvalidTime
	}

	s, _ := clock.Parse(start)
	e, _ := clock.Parse(end)
	d := int(e - s)
	if d <= 0 {
		d += maxDurationMinutes
	}
	if d < minDurationMinutes {
		return "", "", booking.ErrDurationTooShort
	}
	return start, end, nil
}

type UpdateBookingRequest struct {
	Client *struct {
		FullName *string `json:"fullName"`
		Email    *string `json:"email" binding:"omitempty,email"`
		Phone    *string `json:"phone"`
	} `json:"client"`
	EventType        *string  `json:"eventType"`
	EventTitle       *string  `json:"eventTitle"`
	EventLocation    *string  `json:"eventLocation"`
	EventDate        *string  `json:"eventDate"`
	StartTime        *string  `json:"startTime"`
	EndTime          *string  `json:"endTime"`
	ConsultationMode *string  `json:"consultationMode"`
	EventNotes         *string  `json:"eventNotes"`
	Estimate           *float64 `json:"estimate" binding:"omitempty,gt=0"`
	OvernightSurcharge *float64 `json:"overnightSurcharge" binding:"omitempty,gte=0"`
	DepositRequired    *float64 `json:"depositRequired" binding:"omitempty,gt=0"`
	FinalAgreed      *float64 `json:"finalAgreedPrice" binding:"omitempty,gt=0"`
	Notes            *string  `json:"notes"`
}

// ToUpdateRequest validates the patch and converts it to the service shape.
// When only one of startTime/endTime changes, current supplies the other
// bound so the window can still be checked as a pair.
func (r *UpdateBookingRequest) ToUpdateRequest(current *booking.Booking) (booking.UpdateRequest, error) {
	var req booking.UpdateRequest

	if r.EventType != nil {
		if !booking.EventTypes[*r.EventType] {
			return req, booking.ErrInvalidEventType
		}
		req.EventType = r.EventType
	}
	if r.ConsultationMode != nil {
		if !booking.ConsultationModes[*r.ConsultationMode] {
			return req, booking.ErrInvalidConsultMode
		}
		req.ConsultationMode = r.ConsultationMode
	}
	if r.EventDate != nil {
		date, err := clock.ParseDate(*r.EventDate)
		if err != nil {
			return req, booking.ErrInvalidTime
		}
		req.EventDate = &date
	}

	if r.StartTime != nil || r.EndTime != nil {
		startRaw := current.Event.StartTime
		endRaw := current.Event.EndTime
		if r.StartTime != nil {
			startRaw = *r.StartTime
		}
		if r.EndTime != nil {
			endRaw = *r.EndTime
		}
		start, end, err := normalizeWindow(startRaw, endRaw)
		if err != nil {
			return req, err
		}
		req.StartTime = &start
		req.EndTime = &end
	}

	if r.Estimate != nil || r.DepositRequired != nil {
		estimate := current.Pricing.Estimate
		if r.Estimate != nil {
			estimate = *r.Estimate
		}
		deposit := current.Pricing.DepositRequired
		if r.DepositRequired != nil {
			deposit = *r.DepositRequired
		}
		if deposit > estimate {
			return req, booking.ErrDepositTooHigh
		}
	}

	if r.Client != nil {
		req.ClientName = r.Client.FullName
		req.ClientEmail = r.Client.Email
		req.ClientPhone = r.Client.Phone
	}
	req.EventTitle = r.EventTitle
	req.EventLocation = r.EventLocation
	req.EventNotes = r.EventNotes
	req.Estimate = r.Estimate
	req.OvernightSurcharge = r.OvernightSurcharge
	req.DepositRequired = r.DepositRequired
	req.FinalAgreed = r.FinalAgreed
	req.Notes = r.Notes
	return req, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ListBookingsRequest struct {
	Status   string `form:"status"`
	Email    string `form:"email" binding:"omitempty,email"`
	Date     string `form:"date"`
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

type HistoryEntryResponse struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
	ChangedBy *string   `json:"changedBy,omitempty"`
	Note      string    `json:"note,omitempty"`
}

type BookingResponse struct {
	ID     string `json:"id"`
	Client struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	} `json:"client"`
	EventType          string                 `json:"eventType"`
	EventTitle         string                 `json:"eventTitle,omitempty"`
	EventLocation      string                 `json:"eventLocation"`
	EventDate          string                 `json:"eventDate"`
	StartTime          string                 `json:"startTime"`
	EndTime            string                 `json:"endTime"`
	ConsultationMode   string                 `json:"consultationMode"`
	EventNotes         string                 `json:"eventNotes,omitempty"`
	Estimate           float64                `json:"estimate"`
	OvernightSurcharge float64                `json:"overnightSurcharge"`
	DepositRequired    float64                `json:"depositRequired"`
	Currency           string                 `json:"currency"`
	FinalAgreedPrice   *float64               `json:"finalAgreedPrice,omitempty"`
	TotalAmount        float64                `json:"totalAmount"`
	Notes              string                 `json:"notes,omitempty"`
	IsOvernight        bool                   `json:"isOvernight"`
	Status             string                 `json:"status"`
	StatusHistory      []HistoryEntryResponse `json:"statusHistory,omitempty"`
	PaymentIDs         []string               `json:"paymentIds,omitempty"`
	CancellationReason *string                `json:"cancellationReason,omitempty"`
	CancellationDate   *time.Time             `json:"cancellationDate,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                 b.ID,
		EventType:          b.Event.Type,
		EventTitle:         b.Event.Title,
		EventLocation:      b.Event.Location,
		EventDate:          b.Event.Date.Format(clock.DateLayout),
		StartTime:          b.Event.StartTime,
		EndTime:            b.Event.EndTime,
		ConsultationMode:   b.Event.ConsultationMode,
		EventNotes:         b.Event.Notes,
		Estimate:           b.Pricing.Estimate,
		OvernightSurcharge: b.Pricing.OvernightSurcharge,
		DepositRequired:    b.Pricing.DepositRequired,
		Currency:           b.Pricing.Currency,
		FinalAgreedPrice:   b.Pricing.FinalAgreed,
		TotalAmount:        b.TotalAmount(),
		Notes:              b.Notes,
		IsOvernight:        b.IsOvernight,
		Status:             string(b.Status),
		PaymentIDs:         b.PaymentIDs,
		CancellationReason: b.CancellationReason,
		CancellationDate:   b.CancellationDate,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	resp.Client.FullName = b.Client.FullName
	resp.Client.Email = b.Client.Email
	resp.Client.Phone = b.Client.Phone

	for _, e := range b.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, HistoryEntryResponse{
			Status:    string(e.Status),
			ChangedAt: e.ChangedAt,
			ChangedBy: e.ChangedBy,
			Note:      e.Note,
		})
	}
	return resp
}

type PaymentDetailsResponse struct {
	TotalAmount      float64 `json:"totalAmount"`
	DepositRequired  float64 `json:"depositRequired"`
	TotalPaid        float64 `json:"totalPaid"`
	RemainingBalance float64 `json:"remainingBalance"`
	Currency         string  `json:"currency"`
}
