package http

import (
	"github.com/partypallet/decor-booking-backend/internal/availability"
	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
)

// GetAvailabilityRequest accepts either a single date or a start/end range.
type GetAvailabilityRequest struct {
	Date  string `form:"date"`
	Start string `form:"start"`
	End   string `form:"end"`
}

type SlotPayload struct {
	Start  string `json:"start" binding:"required"`
	End    string `json:"end" binding:"required"`
	Status string `json:"status" binding:"omitempty,oneof=available blocked"`
	Note   string `json:"note"`
}

type SetAvailabilityRequest struct {
	Date        string         `json:"date" binding:"required"`
	IsAvailable *bool          `json:"isAvailable"`
	Slots       *[]SlotPayload `json:"slots"`
}

type BlockSlotRequest struct {
	Date  string `json:"date" binding:"required"`
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
	Note  string `json:"note"`
}

type SlotResponse struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type AvailabilityResponse struct {
	Date        string         `json:"date"`
	IsAvailable bool           `json:"isAvailable"`
	Slots       []SlotResponse `json:"slots"`
}

func NewAvailabilityResponse(a *availability.Availability) AvailabilityResponse {
	slots := make([]SlotResponse, len(a.Slots))
	for i, s := range a.Slots {
		slots[i] = SlotResponse{
			Start:  s.Start,
			End:    s.End,
			Status: string(s.Status),
			Note:   s.Note,
		}
	}
	return AvailabilityResponse{
		Date:        a.Date.Format(clock.DateLayout),
		IsAvailable: a.IsAvailable,
		Slots:       slots,
	}
}
