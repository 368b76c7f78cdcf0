// Package api wires the BFF HTTP surface: router, error handling, handlers,
// middleware, and metrics.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/api/metrics"
	"github.com/mesavista/storefront-core/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Passes application errors from the backend through verbatim.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *domain.APIError
		if errors.As(err, &apiErr) {
			// The core does not interpret these payloads; the UI decides.
			_ = c.JSONBlob(apiErr.Status, apiErr.Body)
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		metrics.SessionsInvalidatedTotal.WithLabelValues("401").Inc()
		return http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, domain.ErrForbidden):
		metrics.SessionsInvalidatedTotal.WithLabelValues("403").Inc()
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrLoginInFlight):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrBackendUnreachable):
		return http.StatusBadGateway, "storefront backend unreachable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
