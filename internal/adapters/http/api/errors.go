package api

import (
	"errors"
	"net/http"

	service "github.com/okian/nailbiter/internal/app"
	"github.com/okian/nailbiter/internal/adapters/repository"
	"github.com/okian/nailbiter/internal/domain/excitement"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// statusFor maps an error from the service layer to a status and a stable code.
func statusFor(err error) (int, string) {
	if kind := excitement.Kind(err); kind != "" {
		return http.StatusUnprocessableEntity, kind
	}
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrInvalidDate):
		return http.StatusBadRequest, "invalid_date"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrSourceUnavailable):
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
