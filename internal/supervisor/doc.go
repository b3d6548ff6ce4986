// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package supervisor runs the long-lived parts of the server under a suture
// supervisor tree, restarting any that fail.
//
// The tree has three layers:
//
//	thrifttags (root)
//	├── background-layer: expiry sweeper, store backups, geocoder cache cleanup
//	├── messaging-layer:  websocket hub
//	└── api-layer:        HTTP server
//
// A crash in one layer is restarted without touching the others. Supervisor
// events are logged through sutureslog into the zerolog-backed slog logger.
package supervisor
