package handlers

import (
	"errors"
	"net/http"

	"golang-storefront-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// respondServiceError maps the service error taxonomy to HTTP statuses:
// invalid input 400, unknown product 404, everything else 500.
func respondServiceError(c *gin.Context, err error, action string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidQuantity):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrProductNotFound):
		status = http.StatusNotFound
	}

	c.JSON(status, ErrorResponse{
		Error:   action,
		Message: err.Error(),
	})
}
