// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/thrifttags/internal/auth"
	"github.com/tomtom215/thrifttags/internal/geo"
	"github.com/tomtom215/thrifttags/internal/models"
	"github.com/tomtom215/thrifttags/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 * 1024

// decodeBody reads a JSON body into v and validates it. Unknown fields are
// rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return models.NewValidationError("body", "request body is required")
		}
		return models.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr
	}
	return nil
}

// identity returns the caller's email, or ErrNotAuthenticated.
func identity(r *http.Request) (string, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok || id.Email == "" {
		return "", ErrNotAuthenticated
	}
	return id.Email, nil
}

// RestoreRequest is the body of POST /events/history/{entryID}/restore.
type RestoreRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,timeofday"`
}

// FriendRequestBody is the body of POST /friends/requests.
type FriendRequestBody struct {
	Email string `json:"email" validate:"required,email"`
}

// ProfileUpdate is the body of PATCH /profile.
type ProfileUpdate struct {
	Bio string `json:"bio" validate:"max=500"`
}

// parsePosition reads lat and lng. Both absent yields nil; one absent or
// either unparsable is a ValidationError.
func parsePosition(r *http.Request) (*geo.Point, error) {
	latStr := strings.TrimSpace(r.URL.Query().Get("lat"))
	lngStr := strings.TrimSpace(r.URL.Query().Get("lng"))
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, models.NewValidationError("lat", "must be a number")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, models.NewValidationError("lng", "must be a number")
	}
	return &geo.Point{Lat: lat, Lng: lng}, nil
}
