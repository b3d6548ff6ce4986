// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package lifecycle

import (
	"strings"

	"github.com/tomtom215/thrifttags/internal/models"
)

// FilterEvents returns the events where any of name, location, host,
// privacy label, date or time contains q, ignoring case. An empty q returns
// every event. The input is not modified.
func FilterEvents(events []models.Event, q string) []models.Event {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return cloneEvents(events)
	}

	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if matches(ev, q) {
			out = append(out, ev)
		}
	}
	return out
}

func matches(ev models.Event, q string) bool {
	for _, field := range []string{ev.Name, ev.Location, ev.Host, ev.Privacy.Label(), ev.Date, ev.Time} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// PublicEvents returns the events not marked private. Views of another
// user's list go through it.
func PublicEvents(events []models.Event) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if !bool(ev.Privacy) {
			out = append(out, ev)
		}
	}
	return out
}
