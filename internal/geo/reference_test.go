// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package geo

import (
	"strings"
	"testing"
)

func TestResolveReferenceUsesPosition(t *testing.T) {
	pos := &Point{Lat: 40.0, Lng: -75.0}
	ref := ResolveReference(pos, GeoErrNone, DefaultReference)

	if ref.Fallback {
		t.Error("expected no fallback for a valid position")
	}
	if ref.Point != *pos {
		t.Errorf("expected %v, got %v", *pos, ref.Point)
	}
	if ref.Message != "" {
		t.Errorf("expected no advisory, got %q", ref.Message)
	}
}

func TestResolveReferenceFallbacks(t *testing.T) {
	valid := &Point{Lat: 40.0, Lng: -75.0}

	tests := []struct {
		name       string
		pos        *Point
		geoErr     GeolocationError
		wantPrefix string
	}{
		{"denied", nil, GeoErrDenied, "User denied the request for Geolocation."},
		{"unavailable", nil, GeoErrUnavailable, "Location information is unavailable."},
		{"timeout", nil, GeoErrTimeout, "The request to get user location timed out."},
		{"unknown", nil, GeoErrUnknown, "An unknown error occurred."},
		{"error wins over position", valid, GeoErrDenied, "User denied"},
		{"missing position", nil, GeoErrNone, "Location information is unavailable."},
		{"out of range position", &Point{Lat: 120, Lng: 0}, GeoErrNone, "Location information is unavailable."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ResolveReference(tt.pos, tt.geoErr, DefaultReference)
			if !ref.Fallback {
				t.Error("expected fallback")
			}
			if ref.Point != DefaultReference {
				t.Errorf("expected default reference, got %v", ref.Point)
			}
			if !strings.HasPrefix(ref.Message, tt.wantPrefix) {
				t.Errorf("message %q does not start with %q", ref.Message, tt.wantPrefix)
			}
		})
	}
}

func TestResolveReferenceInvalidFallback(t *testing.T) {
	ref := ResolveReference(nil, GeoErrTimeout, Point{Lat: 999, Lng: 0})
	if ref.Point != DefaultReference {
		t.Errorf("expected DefaultReference when configured fallback is invalid, got %v", ref.Point)
	}
}

func TestParseGeolocationError(t *testing.T) {
	tests := map[string]GeolocationError{
		"":                     GeoErrNone,
		"denied":               GeoErrDenied,
		"PERMISSION_DENIED":    GeoErrDenied,
		"1":                    GeoErrDenied,
		"2":                    GeoErrUnavailable,
		"position_unavailable": GeoErrUnavailable,
		"timeout":              GeoErrTimeout,
		"3":                    GeoErrTimeout,
		"weird":                GeoErrUnknown,
	}
	for in, want := range tests {
		if got := ParseGeolocationError(in); got != want {
			t.Errorf("ParseGeolocationError(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidCoordinates(t *testing.T) {
	if !ValidCoordinates(90, -180) {
		t.Error("expected boundary coordinates to be valid")
	}
	if ValidCoordinates(90.0001, 0) || ValidCoordinates(0, 180.5) {
		t.Error("expected out-of-range coordinates to be invalid")
	}
}
