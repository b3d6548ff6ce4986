// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package lifecycle

import (
	"time"

	"github.com/tomtom215/thrifttags/internal/models"
)

// Countdown is the time remaining until an event starts.
type Countdown struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Expired bool `json:"expired"`
	// Known is false when the event's date or time does not parse.
	Known bool `json:"known"`
}

// TimeLeft returns the countdown from now to ev's instant in loc. A passed
// instant yields all zeros with Expired set.
func TimeLeft(ev models.Event, now time.Time, loc *time.Location) Countdown {
	instant, ok := ev.Instant(loc)
	if !ok {
		return Countdown{}
	}
	diff := instant.Sub(now)
	if diff <= 0 {
		return Countdown{Expired: true, Known: true}
	}

	total := int64(diff / time.Second)
	return Countdown{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
		Known:   true,
	}
}
