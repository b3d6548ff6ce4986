// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package geo

import (
	"strings"

	"github.com/tomtom215/thrifttags/internal/metrics"
)

// DefaultReference is used whenever the client's position is unknown.
var DefaultReference = Point{Lat: 39.9526, Lng: -75.1652}

// GeolocationError is the failure reported by the client's geolocation API.
type GeolocationError string

const (
	GeoErrNone        GeolocationError = ""
	GeoErrDenied      GeolocationError = "denied"
	GeoErrUnavailable GeolocationError = "unavailable"
	GeoErrTimeout     GeolocationError = "timeout"
	GeoErrUnknown     GeolocationError = "unknown"
)

// ParseGeolocationError maps a query value (name or W3C numeric code) to a
// GeolocationError. Unrecognized non-empty values map to GeoErrUnknown.
func ParseGeolocationError(s string) GeolocationError {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return GeoErrNone
	case "denied", "permission_denied", "1":
		return GeoErrDenied
	case "unavailable", "position_unavailable", "2":
		return GeoErrUnavailable
	case "timeout", "3":
		return GeoErrTimeout
	default:
		return GeoErrUnknown
	}
}

// Advisory returns the user-facing message for the error.
func (e GeolocationError) Advisory() string {
	switch e {
	case GeoErrNone:
		return ""
	case GeoErrDenied:
		return "User denied the request for Geolocation."
	case GeoErrUnavailable:
		return "Location information is unavailable."
	case GeoErrTimeout:
		return "The request to get user location timed out."
	default:
		return "An unknown error occurred."
	}
}

// Reference is a resolved reference point.
type Reference struct {
	Point    Point  `json:"point"`
	Fallback bool   `json:"fallback"`
	Message  string `json:"message,omitempty"`
}

// ResolveReference picks the reference point for a store search. A valid pos
// with no geolocation error is used as is; every other combination falls
// back to fallback (DefaultReference when fallback is invalid) with an
// advisory message. It never fails.
func ResolveReference(pos *Point, geoErr GeolocationError, fallback Point) Reference {
	if !fallback.Valid() {
		fallback = DefaultReference
	}

	if geoErr == GeoErrNone && pos != nil && pos.Valid() {
		return Reference{Point: *pos}
	}

	reason := geoErr
	if reason == GeoErrNone {
		// A position that is missing or out of range is treated as unavailable.
		reason = GeoErrUnavailable
	}
	metrics.GeolocationFallbacks.WithLabelValues(string(reason)).Inc()

	return Reference{
		Point:    fallback,
		Fallback: true,
		Message:  reason.Advisory() + " Showing stores near the default location.",
	}
}
