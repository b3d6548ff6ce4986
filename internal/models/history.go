// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package models

import "time"

// RemovalReason records why an event left the active set.
type RemovalReason string

const (
	ReasonDeleted RemovalReason = "deleted"
	ReasonExpired RemovalReason = "expired"
)

// HistoryRecord is a snapshot of a removed event.
//
// EntryID identifies the record inside one user's history so that a restore
// removes exactly the record it was asked for, even when another record has
// identical content.
type HistoryRecord struct {
	EntryID string `json:"entry_id"`
	Event
	RemovedOn time.Time     `json:"removed_on"`
	Reason    RemovalReason `json:"reason"`
}

// RemovedOnDisplay is the human-readable removal time.
func (h HistoryRecord) RemovedOnDisplay() string {
	return h.RemovedOn.Format("1/2/2006, 3:04:05 PM")
}

// Snapshot returns the event with history-only fields and the old identity
// stripped, ready to be created again.
func (h HistoryRecord) Snapshot() Event {
	ev := h.Event
	ev.ID = ""
	return ev
}
