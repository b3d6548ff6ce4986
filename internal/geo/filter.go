// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package geo

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/thrifttags/internal/models"
)

// NoRadiusLimit is the radius sentinel that includes every store.
var NoRadiusLimit = math.Inf(1)

// RadiusOptions are the radius choices offered to clients, in miles.
// "All" maps to NoRadiusLimit.
var RadiusOptions = []string{"All", "1", "5", "10", "25"}

// RatingOptions are the minimum-rating choices offered to clients.
var RatingOptions = []float64{0, 3.5, 4.0, 4.5}

// FilterStores keeps the stores with Rating >= minRating and a distance from
// ref of at most radiusMiles. Input order is preserved; each result carries
// its distance.
func FilterStores(ref Point, stores []models.StoreLocation, minRating, radiusMiles float64) []models.StoreWithDistance {
	out := make([]models.StoreWithDistance, 0, len(stores))
	for _, s := range stores {
		if s.Rating < minRating {
			continue
		}
		d := HaversineMiles(ref, Point{Lat: s.Latitude, Lng: s.Longitude})
		if math.IsNaN(d) || d > radiusMiles {
			continue
		}
		out = append(out, models.StoreWithDistance{StoreLocation: s, DistanceMiles: d})
	}
	return out
}

// SortByDistance orders stores nearest first. Equal distances keep their
// relative order.
func SortByDistance(stores []models.StoreWithDistance) {
	sort.SliceStable(stores, func(i, j int) bool {
		return stores[i].DistanceMiles < stores[j].DistanceMiles
	})
}

// ParseRadius parses a radius query value. "", "All" and "any" mean no limit.
func ParseRadius(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") || strings.EqualFold(s, "any") {
		return NoRadiusLimit, nil
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(r) {
		return 0, models.NewValidationError("radius", "must be a number of miles or All")
	}
	if r < 0 {
		return 0, models.NewValidationError("radius", "must not be negative")
	}
	return r, nil
}

// ParseMinRating parses a minimum-rating query value. Empty means 0; anything
// else must be one of RatingOptions.
func ParseMinRating(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return 0, nil
	}
	r, err := strconv.ParseFloat(strings.TrimSuffix(s, "+"), 64)
	if err != nil {
		return 0, models.NewValidationError("min_rating", "must be a number")
	}
	for _, opt := range RatingOptions {
		if r == opt {
			return r, nil
		}
	}
	return 0, models.NewValidationError("min_rating", "must be one of 0, 3.5, 4.0, 4.5")
}
