package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partypallet/decor-booking-backend/internal/auth"
	"github.com/partypallet/decor-booking-backend/internal/booking"
	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
	"github.com/partypallet/decor-booking-backend/internal/pkg/request"
	"github.com/partypallet/decor-booking-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	date, start, end, err := body.Validate()
	if err != nil {
		response.Error(c, err)
		return
	}

	currency := body.Currency
	if currency == "" {
		currency = "NGN"
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		Client: booking.Client{
			FullName: body.Client.FullName,
			Email:    body.Client.Email,
			Phone:    body.Client.Phone,
		},
		EventType:        body.EventType,
		EventTitle:       body.EventTitle,
		EventLocation:    body.EventLocation,
		EventDate:        date,
		StartTime:        start,
		EndTime:          end,
		ConsultationMode: body.ConsultationMode,
		EventNotes:         body.EventNotes,
		Estimate:           body.Estimate,
		OvernightSurcharge: body.OvernightSurcharge,
		DepositRequired:    body.DepositRequired,
		Currency:         currency,
		Notes:            body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "booking created successfully",
		"booking": NewBookingResponse(b),
	})
}

func (h *Handler) GetByID(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": NewBookingResponse(b)})
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := booking.Filter{
		Status:   req.Status,
		Email:    req.Email,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Date != "" {
		d, err := clock.ParseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		filter.Date = &d
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	var body UpdateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	actorID := actorPtr(c)
	b, err := h.service.UpdateStatus(c.Request.Context(), req.ID, booking.Status(body.Status), actorID, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "booking status updated successfully",
		"booking": NewBookingResponse(b),
	})
}

func (h *Handler) Cancel(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	var body CancelBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, booking.ErrReasonRequired)
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), req.ID, body.Reason, actorPtr(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "booking cancelled successfully",
		"booking": NewBookingResponse(b),
	})
}

func (h *Handler) Update(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	var body UpdateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	current, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	update, err := body.ToUpdateRequest(current)
	if err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.Update(c.Request.Context(), req.ID, update, actorPtr(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "booking updated successfully",
		"booking": NewBookingResponse(b),
	})
}

func (h *Handler) PaymentDetails(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	details, err := h.service.PaymentDetails(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"paymentDetails": PaymentDetailsResponse{
			TotalAmount:      details.TotalAmount,
			DepositRequired:  details.DepositRequired,
			TotalPaid:        details.TotalPaid,
			RemainingBalance: details.RemainingBalance,
			Currency:         details.Currency,
		},
	})
}

func actorPtr(c *gin.Context) *string {
	if id := auth.GetActorID(c); id != "" {
		return &id
	}
	return nil
}
