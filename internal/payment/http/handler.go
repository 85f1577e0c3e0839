package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partypallet/decor-booking-backend/internal/payment"
	"github.com/partypallet/decor-booking-backend/internal/pkg/response"
)

// Paystack caps webhook payloads well under this; anything larger is junk.
const maxWebhookBody = 1 << 20

type Handler struct {
	service payment.Service
}

func NewHandler(service payment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Initialize(c *gin.Context) {
	var body InitializePaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, result, err := h.service.Initialize(c.Request.Context(), body.BookingID, body.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "payment initialized successfully",
		"data": CheckoutResponse{
			Payment:          NewPaymentResponse(p),
			AuthorizationURL: result.AuthorizationURL,
			AccessCode:       result.AccessCode,
			Reference:        result.Reference,
		},
	})
}

func (h *Handler) Retry(c *gin.Context) {
	var body RetryPaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, result, err := h.service.Retry(c.Request.Context(), body.BookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "payment retry initialized successfully",
		"data": CheckoutResponse{
			Payment:          NewPaymentResponse(p),
			AuthorizationURL: result.AuthorizationURL,
			AccessCode:       result.AccessCode,
			Reference:        result.Reference,
		},
	})
}

// Webhook applies a provider event delivery. The signature covers the raw
// body bytes, so it must be read before any JSON binding.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	signature := c.GetHeader("x-paystack-signature")
	if err := h.service.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Verify(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}

	p, err := h.service.Verify(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "payment": NewPaymentResponse(p)})
}

func (h *Handler) ListByBooking(c *gin.Context) {
	var req ByBookingRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	payments, err := h.service.GetByBooking(c.Request.Context(), req.BookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		items[i] = NewPaymentResponse(p)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}
