package api

import (
	"errors"
	"net/http"

	"github.com/okian/dancefloor/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrRateLimited = errors.New("rate limited")
)

// Error codes carried in error bodies.
const (
	CodeValidation         = "validation_error"
	CodeNotFound           = "not_found"
	CodeInvalidPhase       = "invalid_phase"
	CodeStorageUnavailable = "storage_unavailable"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal_error"
)

// statusFor maps a domain error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, model.ErrInvalidPhase):
		return http.StatusConflict, CodeInvalidPhase
	case errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, CodeStorageUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
