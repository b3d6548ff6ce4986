// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package geo selects thrift stores near a reference point.
//
// FilterStores is a pure function over its inputs: a minimum rating filter
// followed by a great-circle radius filter, with input order preserved.
// ResolveReference turns a browser geolocation result (or its failure) into a
// reference point and an advisory message, and Geocoder turns coordinates into
// a human-readable "City, State" label through Nominatim.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used for distance calculations.
const EarthRadiusMiles = 3958.8

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String formats the point with three decimals.
func (p Point) String() string {
	return fmt.Sprintf("%.3f, %.3f", p.Lat, p.Lng)
}

// Valid reports whether the point is a finite coordinate within range.
func (p Point) Valid() bool {
	return ValidCoordinates(p.Lat, p.Lng)
}

// ValidCoordinates reports whether lat/lng are finite and within
// [-90, 90] and [-180, 180].
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// HaversineMiles returns the great-circle distance between a and b in miles.
func HaversineMiles(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h past 1 for antipodal points.
	h = math.Min(h, 1)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMiles * c
}
