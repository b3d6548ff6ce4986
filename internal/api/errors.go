// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package api

import (
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/thrifttags/internal/auth"
	"github.com/tomtom215/thrifttags/internal/geo"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/models"
	"github.com/tomtom215/thrifttags/internal/validation"
)

// ErrNotAuthenticated is returned when a protected handler runs without an
// identity in the context.
var ErrNotAuthenticated = errors.New("authentication required")

// respondError maps a domain error to its status code and envelope.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var reqErr *validation.RequestValidationError
	var valErr *models.ValidationError
	var perErr *models.PersistenceError

	switch {
	case errors.As(err, &reqErr):
		apiErr := reqErr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
	case errors.As(err, &valErr):
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed, valErr.Error(),
			map[string]string{"field": valErr.Field})
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		rw.Unauthorized(err.Error())
	case errors.Is(err, models.ErrNotFound):
		rw.NotFound("Not found")
	case errors.Is(err, models.ErrConflict):
		rw.Conflict(err.Error())
	case errors.Is(err, models.ErrForbidden):
		rw.Forbidden("You can only view your friends' data")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("request rejected by open circuit breaker")
		rw.ServiceUnavailable("Service temporarily unavailable, try again shortly")
	case errors.Is(err, geo.ErrGeocoderDisabled):
		rw.ServiceUnavailable("Reverse geocoding is disabled")
	case errors.As(err, &perErr):
		rw.DatabaseError(err)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("unhandled API error")
		rw.InternalError("An internal error occurred")
	}
}
