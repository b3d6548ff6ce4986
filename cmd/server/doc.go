// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

/*
Package main is the entry point for the ThriftTags server.

ThriftTags helps people find nearby thrift stores and keep track of thrift
events. Each signed-in user has a list of active events that expire on
their own once their date and time pass, a history of removed events that
can be restored, store reviews and a friends list that unlocks each other's
events and reviews.

# Application Architecture

	thrifttags (root)
	├── background-layer
	│   ├── expiry sweeper (robfig/cron schedule)
	│   ├── store backups (optional)
	│   └── geocoder cache cleanup
	├── messaging-layer
	│   └── websocket hub (per-user event notifications)
	└── api-layer
	    └── HTTP server (chi router, /api/v1)

Component initialization order:

 1. Configuration: koanf with defaults, config.yaml, .env and environment
 2. Logging: zerolog, JSON or console
 3. Storage: embedded BadgerDB document store behind a circuit breaker,
    optionally restored from a snapshot
 4. Store catalog: optional seed import, then load and normalize
 5. Event registry, sweeper, websocket hub
 6. Authentication: bcrypt credentials and HS256 JWT sessions
 7. Supervisor tree and HTTP server

# Configuration

The most common environment variables:

	HTTP_PORT            listen port (default 8080)
	BADGER_PATH          BadgerDB directory
	STORES_SEED_PATH     JSON array of store documents imported on first start
	BACKUP_DIR           enable scheduled snapshots (BACKUP_SCHEDULE, BACKUP_RETAIN)
	RESTORE_FROM         snapshot to replay into an empty store at startup
	JWT_SECRET           32+ character signing secret (required)
	EVENT_SWEEP_INTERVAL expiry sweep interval (default 60s)
	EVENT_TIMEZONE       IANA zone event dates are interpreted in
	GEOCODER_ENABLED     enable Nominatim reverse geocoding
	LOG_LEVEL, LOG_FORMAT

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests, the sweeper finishes a running sweep, websocket clients
receive a close frame and the store is closed last.
*/
package main
