// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/thrifttags/internal/geo"
	"github.com/tomtom215/thrifttags/internal/models"
	"github.com/tomtom215/thrifttags/internal/stores"
)

// storeSearchResult is the body of GET /stores.
type storeSearchResult struct {
	Reference geo.Reference              `json:"reference"`
	Stores    []models.StoreWithDistance `json:"stores"`
}

// SearchStores runs the geo filter around the client's position, or around
// the configured default when the position is missing or failed.
//
// Query parameters: lat, lng, geo_error, radius (miles or "All"),
// min_rating and sort=distance.
func (h *Handler) SearchStores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pos, err := parsePosition(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	radius, err := geo.ParseRadius(q.Get("radius"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	minRating, err := geo.ParseMinRating(q.Get("min_rating"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	ref := geo.ResolveReference(pos, geo.ParseGeolocationError(q.Get("geo_error")), h.fallback)
	results := h.catalog.Search(stores.Query{
		Reference:      ref.Point,
		MinRating:      minRating,
		RadiusMiles:    radius,
		SortByDistance: strings.EqualFold(q.Get("sort"), "distance"),
	})

	NewResponseWriter(w, r).List(storeSearchResult{Reference: ref, Stores: results}, len(results), ref.Message)
}

// ReverseGeocode labels a coordinate. Lookup failures degrade to a
// "Near lat, lng" label rather than an error.
func (h *Handler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	pos, err := parsePosition(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if pos == nil {
		respondError(w, r, models.NewValidationError("lat", "lat and lng are required"))
		return
	}
	if !pos.Valid() {
		respondError(w, r, models.NewValidationError("lat", "coordinates out of range"))
		return
	}
	if h.geocoder == nil {
		respondError(w, r, geo.ErrGeocoderDisabled)
		return
	}

	NewResponseWriter(w, r).Success(h.geocoder.Describe(r.Context(), *pos))
}
