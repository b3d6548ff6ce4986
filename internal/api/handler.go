// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package api

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/thrifttags/internal/auth"
	"github.com/tomtom215/thrifttags/internal/config"
	"github.com/tomtom215/thrifttags/internal/friends"
	"github.com/tomtom215/thrifttags/internal/geo"
	"github.com/tomtom215/thrifttags/internal/lifecycle"
	"github.com/tomtom215/thrifttags/internal/reviews"
	"github.com/tomtom215/thrifttags/internal/stores"
	ws "github.com/tomtom215/thrifttags/internal/websocket"
)

// Dependencies are the services the handlers call into.
type Dependencies struct {
	Config   *config.Config
	Registry *lifecycle.Registry
	Catalog  *stores.Catalog
	Geocoder *geo.Geocoder
	Reviews  *reviews.Service
	Friends  *friends.Service
	Auth     *auth.Service
	JWT      *auth.JWTManager
	Hub      *ws.Hub

	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler serves the /api/v1 routes.
type Handler struct {
	cfg      *config.Config
	registry *lifecycle.Registry
	catalog  *stores.Catalog
	geocoder *geo.Geocoder
	reviews  *reviews.Service
	friends  *friends.Service
	auth     *auth.Service
	jwt      *auth.JWTManager
	hub      *ws.Hub
	upgrader websocket.Upgrader
	fallback geo.Point
	now      func() time.Time
	started  time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Dependencies) *Handler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	fallback := geo.Point{Lat: cfg.Geo.DefaultLatitude, Lng: cfg.Geo.DefaultLongitude}
	if !fallback.Valid() || (fallback.Lat == 0 && fallback.Lng == 0) {
		fallback = geo.DefaultReference
	}

	return &Handler{
		cfg:      cfg,
		registry: deps.Registry,
		catalog:  deps.Catalog,
		geocoder: deps.Geocoder,
		reviews:  deps.Reviews,
		friends:  deps.Friends,
		auth:     deps.Auth,
		jwt:      deps.JWT,
		hub:      deps.Hub,
		upgrader: ws.Upgrader(cfg.Security.CORSOrigins),
		fallback: fallback,
		now:      now,
		started:  now(),
	}
}
