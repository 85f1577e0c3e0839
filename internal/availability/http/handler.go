package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partypallet/decor-booking-backend/internal/availability"
	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
	"github.com/partypallet/decor-booking-backend/internal/pkg/response"
)

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Get(c *gin.Context) {
	var req GetAvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, availability.ErrInvalidDate)
		return
	}

	var date, start, end *time.Time
	if req.Date != "" {
		d, err := clock.ParseDate(req.Date)
		if err != nil {
			response.Error(c, availability.ErrInvalidDate)
			return
		}
		date = &d
	} else if req.Start != "" && req.End != "" {
		s, err := clock.ParseDate(req.Start)
		if err != nil {
			response.Error(c, availability.ErrInvalidDate)
			return
		}
		e, err := clock.ParseDate(req.End)
		if err != nil {
			response.Error(c, availability.ErrInvalidDate)
			return
		}
		start, end = &s, &e
	}

	days, err := h.service.Get(c.Request.Context(), date, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]AvailabilityResponse, len(days))
	for i, d := range days {
		items[i] = NewAvailabilityResponse(d)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func (h *Handler) Set(c *gin.Context) {
	var body SetAvailabilityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, err := clock.ParseDate(body.Date)
	if err != nil {
		response.Error(c, availability.ErrInvalidDate)
		return
	}

	req := availability.SetRequest{
		Date:        date,
		IsAvailable: body.IsAvailable,
	}
	if body.Slots != nil {
		req.HasSlots = true
		req.Slots = make([]availability.Slot, len(*body.Slots))
		for i, s := range *body.Slots {
			req.Slots[i] = availability.Slot{
				Start:  s.Start,
				End:    s.End,
				Status: availability.SlotStatus(s.Status),
				Note:   s.Note,
			}
		}
	}

	a, err := h.service.Set(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "availability updated successfully",
		"availability": NewAvailabilityResponse(a),
	})
}

func (h *Handler) Block(c *gin.Context) {
	var body BlockSlotRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, err := clock.ParseDate(body.Date)
	if err != nil {
		response.Error(c, availability.ErrInvalidDate)
		return
	}

	a, err := h.service.Block(c.Request.Context(), date, body.Start, body.End, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "slot blocked successfully",
		"availability": NewAvailabilityResponse(a),
	})
}

func (h *Handler) Delete(c *gin.Context) {
	date, err := clock.ParseDate(c.Param("date"))
	if err != nil {
		response.Error(c, availability.ErrInvalidDate)
		return
	}

	if err := h.service.Delete(c.Request.Context(), date); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "availability deleted successfully"})
}
