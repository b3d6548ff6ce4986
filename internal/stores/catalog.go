// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package stores ingests thrift store documents and answers nearby-store
// searches.
//
// Store documents are stored the way they were originally imported: string
// coordinates under "Latitude"/"Longitude" and a rating that may be a number
// or a string. Ingestion normalizes them into models.StoreLocation and drops
// every record whose coordinates do not parse or are out of range, so those
// stores never reach the geo filter.
package stores

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/geo"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/metrics"
	"github.com/tomtom215/thrifttags/internal/models"
)

// FlexString decodes a JSON string or number into its string form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// RawStore is a store document as imported.
type RawStore struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"Business Name"`
	Address   string     `json:"Address,omitempty"`
	Phone     string     `json:"Phone,omitempty"`
	Email     string     `json:"Email,omitempty"`
	Reviews   string     `json:"Reviews,omitempty"`
	ImageLink string     `json:"imgLink,omitempty"`
	Rating    FlexString `json:"Rating"`
	Latitude  FlexString `json:"Latitude"`
	Longitude FlexString `json:"Longitude"`
}

// Normalize converts a raw document into a StoreLocation. It fails when the
// coordinates are missing, unparsable or out of range.
func Normalize(raw RawStore) (models.StoreLocation, error) {
	lat, err := parseCoordinate(string(raw.Latitude))
	if err != nil {
		return models.StoreLocation{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := parseCoordinate(string(raw.Longitude))
	if err != nil {
		return models.StoreLocation{}, fmt.Errorf("longitude: %w", err)
	}
	if !geo.ValidCoordinates(lat, lng) {
		return models.StoreLocation{}, fmt.Errorf("coordinates out of range: %v, %v", lat, lng)
	}

	return models.StoreLocation{
		ID:        raw.ID,
		Name:      strings.TrimSpace(raw.Name),
		Address:   raw.Address,
		Phone:     raw.Phone,
		Email:     raw.Email,
		Reviews:   raw.Reviews,
		ImageURL:  raw.ImageLink,
		Rating:    parseRating(string(raw.Rating)),
		Latitude:  lat,
		Longitude: lng,
	}, nil
}

func parseCoordinate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

// parseRating returns 0 for anything that is not a finite number in [0, 5].
func parseRating(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 5 {
		return 0
	}
	return v
}

// Query describes a nearby-store search.
type Query struct {
	Reference      geo.Point
	MinRating      float64
	RadiusMiles    float64
	SortByDistance bool
}

// Catalog holds the normalized store list loaded from the docstore.
type Catalog struct {
	store docstore.Store

	mu       sync.RWMutex
	stores   []models.StoreLocation
	loadedAt time.Time
	skipped  int
}

// NewCatalog creates an empty catalog backed by store.
func NewCatalog(store docstore.Store) *Catalog {
	return &Catalog{store: store}
}

// Load reads the stores collection and replaces the catalog contents.
// Records with invalid coordinates are skipped and logged at debug level.
func (c *Catalog) Load(ctx context.Context) error {
	records, err := c.store.List(ctx, models.StoresCollection)
	if err != nil {
		return err
	}

	loaded := make([]models.StoreLocation, 0, len(records))
	skipped := 0
	for _, rec := range records {
		var raw RawStore
		if err := rec.Decode(&raw); err != nil {
			skipped++
			logging.Debug().Err(err).Str("store_id", rec.ID).Msg("Skipping undecodable store record")
			continue
		}
		raw.ID = rec.ID
		loc, err := Normalize(raw)
		if err != nil {
			skipped++
			logging.Debug().Err(err).Str("store_id", rec.ID).Str("name", raw.Name).
				Msg("Skipping store with invalid coordinates")
			continue
		}
		loaded = append(loaded, loc)
	}

	c.mu.Lock()
	c.stores = loaded
	c.skipped = skipped
	c.loadedAt = time.Now()
	c.mu.Unlock()

	logging.Info().Int("stores", len(loaded)).Int("skipped", skipped).Msg("Store catalog loaded")
	return nil
}

// Stores returns a copy of the loaded stores.
func (c *Catalog) Stores() []models.StoreLocation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.StoreLocation, len(c.stores))
	copy(out, c.stores)
	return out
}

// Skipped returns how many records the last Load rejected.
func (c *Catalog) Skipped() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.skipped
}

// Search runs the geo filter over the catalog.
func (c *Catalog) Search(q Query) []models.StoreWithDistance {
	out := geo.FilterStores(q.Reference, c.Stores(), q.MinRating, q.RadiusMiles)
	if q.SortByDistance {
		geo.SortByDistance(out)
	}
	metrics.GeoFilterResults.Observe(float64(len(out)))
	return out
}

// Seed imports the JSON array of raw store documents at path into an empty
// stores collection. A collection that already holds documents is left
// alone. It returns the number of documents written.
func (c *Catalog) Seed(ctx context.Context, path string) (int, error) {
	existing, err := c.store.List(ctx, models.StoresCollection)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		logging.Debug().Int("stores", len(existing)).Msg("Store collection already populated, skipping seed")
		return 0, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return 0, fmt.Errorf("read store seed file: %w", err)
	}
	var raws []RawStore
	if err := json.Unmarshal(data, &raws); err != nil {
		return 0, fmt.Errorf("parse store seed file: %w", err)
	}

	written := 0
	for _, raw := range raws {
		raw.ID = ""
		if _, err := c.store.CreateRecord(ctx, models.StoresCollection, raw); err != nil {
			return written, err
		}
		written++
	}
	logging.Info().Int("stores", written).Str("path", path).Msg("Seeded store collection")
	return written, nil
}
