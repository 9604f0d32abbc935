package api

import (
	"errors"
	"net/http"

	service "github.com/okian/bnet/internal/app"
	"github.com/okian/bnet/internal/catalog"
	"github.com/okian/bnet/internal/domain/endpoint"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrBatchTooLarge = errors.New("batch too large")
)

// statusFor maps a lookup error to the HTTP status and error code returned
// to the caller.
func statusFor(err error) (int, string) {
	var (
		se *endpoint.StatusError
		te *endpoint.TransportError
	)
	switch {
	case errors.Is(err, catalog.ErrUnknownEndpoint):
		return http.StatusNotFound, "unknown_endpoint"
	case errors.Is(err, endpoint.ErrInvalidRequest), errors.Is(err, ErrBadRequest), errors.Is(err, ErrBatchTooLarge):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &se):
		if se.StatusCode >= http.StatusBadRequest {
			return se.StatusCode, "upstream_status"
		}
		return http.StatusBadGateway, "upstream_status"
	case errors.Is(err, endpoint.ErrDecode):
		return http.StatusBadGateway, "decode_failed"
	case errors.As(err, &te):
		if te.Timeout() {
			return http.StatusGatewayTimeout, "upstream_timeout"
		}
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
