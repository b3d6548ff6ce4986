// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Document store
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docstore_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"operation", "collection"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstore_operation_errors_total",
			Help: "Total number of failed document store operations",
		},
		[]string{"operation", "collection"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Event lifecycle
	EventTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_transitions_total",
			Help: "Event state transitions by kind (created, deleted, expired, restored)",
		},
		[]string{"transition"},
	)

	HistoryDuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_history_duplicates_skipped_total",
			Help: "History inserts skipped because an entry with the same key exists",
		},
	)

	ExpiryRemoteDeleteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_expiry_remote_delete_failures_total",
			Help: "Remote deletes that failed during the expiry sweep",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_sweep_duration_seconds",
			Help:    "Duration of a full expiry sweep across all loaded users",
			Buckets: prometheus.DefBuckets,
		},
	)

	ManagersLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_managers_loaded",
			Help: "Number of per-user event managers held in memory",
		},
	)

	// Backups
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_backups_total",
			Help: "Store snapshots by result (success, failure)",
		},
		[]string{"result"},
	)

	BackupSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_backup_last_size_bytes",
			Help: "Size of the most recent successful snapshot",
		},
	)

	// Geo
	GeoFilterResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geo_filter_result_size",
			Help:    "Number of stores returned by the geo filter",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	GeolocationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geolocation_fallbacks_total",
			Help: "Requests that fell back to the default reference point",
		},
		[]string{"reason"},
	)

	GeocoderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocoder_requests_total",
			Help: "Reverse geocoder lookups by result (hit, miss, error, fallback)",
		},
		[]string{"result"},
	)

	// WebSocket
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages queued to clients",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Messages dropped because a client send buffer was full",
		},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordStoreOperation records one document store call.
func RecordStoreOperation(operation, collection string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, collection).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordEventTransition counts a lifecycle transition.
func RecordEventTransition(transition string) {
	EventTransitions.WithLabelValues(transition).Inc()
}

// RecordSweep records a completed expiry sweep.
func RecordSweep(duration time.Duration, managers int) {
	SweepDuration.Observe(duration.Seconds())
	ManagersLoaded.Set(float64(managers))
}
