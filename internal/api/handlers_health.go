// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package api

import (
	"net/http"

	"github.com/tomtom215/thrifttags/internal/logging"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status           string  `json:"status"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	ActiveManagers   int     `json:"active_managers"`
	WebSocketClients int     `json:"websocket_clients"`
	StoresLoaded     int     `json:"stores_loaded"`
	StoresSkipped    int     `json:"stores_skipped"`
}

// Health reports liveness and a few gauges.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        "healthy",
		UptimeSeconds: h.now().Sub(h.started).Seconds(),
	}
	if h.registry != nil {
		status.ActiveManagers = h.registry.Len()
	}
	if h.hub != nil {
		status.WebSocketClients = h.hub.GetClientCount()
	}
	if h.catalog != nil {
		status.StoresLoaded = len(h.catalog.Stores())
		status.StoresSkipped = h.catalog.Skipped()
	}
	NewResponseWriter(w, r).Success(status)
}

// HealthLive always answers 200 while the process serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// WebSocket upgrades the connection and subscribes it to the caller's
// event notifications.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	me, err := identity(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.hub.Serve(&h.upgrader, w, r, me); err != nil {
		// The upgrader has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
	}
}
