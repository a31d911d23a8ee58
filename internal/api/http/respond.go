package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/service"
)

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Shortfall int32  `json:"shortfall,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps a service failure onto an HTTP status.
func statusFor(err error) int {
	var (
		validation   *domain.ValidationError
		insufficient *domain.InsufficientAvailabilityError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &insufficient),
		errors.Is(err, domain.ErrRentalNotActive),
		errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrCustomerHasActiveRentals):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExhaustedRetries):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var (
		validation   *domain.ValidationError
		insufficient *domain.InsufficientAvailabilityError
	)
	if errors.As(err, &validation) {
		resp.Field = validation.Field
	}
	if errors.As(err, &insufficient) {
		resp.Shortfall = insufficient.Shortfall()
	}
	if service.IsRetryable(err) {
		resp.Retryable = true
		w.Header().Set("Retry-After", "1")
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}
