// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package services adapts the server's long-running components to
// suture.Service. Each wrapper depends on a small interface so the
// supervisor packages never import the components directly.
package services
