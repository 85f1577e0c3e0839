package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partypallet/decor-booking-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code and kind.
// If it's not an AppError, it defaults to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, ErrorResponse{Message: appErr.Message, Kind: appErr.Kind})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "internal server error",
		Kind:    apperror.KindInternal,
	})
}
