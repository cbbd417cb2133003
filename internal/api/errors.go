package api

import (
	"alcyxob/coach-dashboard/internal/repository"
	"alcyxob/coach-dashboard/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorStatuses maps service errors to HTTP status codes. The first match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrValidationFailed, http.StatusBadRequest},
	{service.ErrInvalidRole, http.StatusBadRequest},
	{service.ErrAuthenticationFailed, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrAccessDenied, http.StatusForbidden},
	{service.ErrProgramAccessDenied, http.StatusForbidden},
	{service.ErrClientAccessDenied, http.StatusForbidden},
	{service.ErrClientNotRole, http.StatusForbidden},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrProgramNotFound, http.StatusNotFound},
	{service.ErrSessionNotFound, http.StatusNotFound},
	{service.ErrDayNotFound, http.StatusNotFound},
	{service.ErrBlockNotFound, http.StatusNotFound},
	{service.ErrFoodNotFound, http.StatusNotFound},
	{service.ErrMealPlanNotFound, http.StatusNotFound},
	{service.ErrMealNotFound, http.StatusNotFound},
	{service.ErrClientNotFound, http.StatusNotFound},
	{repository.ErrNotFound, http.StatusNotFound},
	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrClientAlreadyAssigned, http.StatusConflict},
	{service.ErrTooManySessions, http.StatusServiceUnavailable},
}

// statusFor returns the status code for a service error.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError aborts with the status mapped from err. Internal errors are
// recorded on the context for the gin logger and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		abortWithError(c, status, "An unexpected error occurred")
		return
	}
	abortWithError(c, status, err.Error())
}
