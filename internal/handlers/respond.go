package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"referral-service/internal/services"
	"referral-service/pkg/common"
)

// respondServiceError maps a ledger error to the HTTP envelope. Statuses:
// validation problems are 400, authorization 403, lookup misses 404, and
// state-machine conflicts 409 so upstream retry logic can tell them apart.
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidCode),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrBelowMinimum),
		errors.Is(err, services.ErrInvalidPayout):
		status = http.StatusBadRequest
	}
	c.JSON(status, common.NewErrorResponse(err.Error(), nil, status))
}
