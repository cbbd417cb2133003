package api

import (
	"alcyxob/coach-dashboard/internal/repository"
	"alcyxob/coach-dashboard/internal/service"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: name is required", service.ErrValidationFailed), http.StatusBadRequest},
		{service.ErrAuthenticationFailed, http.StatusUnauthorized},
		{service.ErrProgramAccessDenied, http.StatusForbidden},
		{fmt.Errorf("load: %w", service.ErrProgramNotFound), http.StatusNotFound},
		{service.ErrSessionNotFound, http.StatusNotFound},
		{repository.ErrNotFound, http.StatusNotFound},
		{service.ErrUserAlreadyExists, http.StatusConflict},
		{service.ErrTooManySessions, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
