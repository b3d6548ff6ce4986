// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

/*
Package backup takes scheduled snapshots of the BadgerDB document store.

A snapshot is a gzip-compressed badger backup stream written next to a
".sha256" checksum file:

	thrifttags-20300615T120000.000Z.badger.gz
	thrifttags-20300615T120000.000Z.badger.gz.sha256

Files are written to a temporary name and renamed when complete, so a
listed snapshot is never partial. After each scheduled snapshot the
retention policy keeps the newest N files and removes the rest.

Restore verifies the checksum (when present) and replays the stream into an
empty store. It is meant to run at startup, before the server accepts
writes.
*/
package backup
