// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package calendar renders active events as an iCalendar feed.
package calendar

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/tomtom215/thrifttags/internal/models"
)

// ProductID identifies the generator in PRODID.
const ProductID = "-//ThriftTags//Events//EN"

// EventDuration is the length given to every exported event.
const EventDuration = time.Hour

// Export renders events as a VCALENDAR. Each event with a valid instant in
// loc becomes one VEVENT; events whose date or time does not parse are
// skipped. now is used for DTSTAMP.
func Export(owner string, events []models.Event, loc *time.Location, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName("ThriftTags events")
	cal.SetXWRCalName("ThriftTags events")

	for _, ev := range events {
		start, ok := ev.Instant(loc)
		if !ok {
			continue
		}

		uid := ev.ID
		if uid == "" {
			uid = ev.Name + "-" + ev.Date + "-" + ev.Time
		}

		vevent := cal.AddEvent(uid)
		vevent.SetDtStampTime(now.UTC())
		vevent.SetStartAt(start.UTC())
		vevent.SetEndAt(start.Add(EventDuration).UTC())
		vevent.SetSummary(ev.Name)
		vevent.SetLocation(ev.Location)
		if owner != "" {
			vevent.SetOrganizer("mailto:"+owner, ical.WithCN(ev.Host))
		}
		vevent.SetProperty(ical.ComponentPropertyClass, classOf(ev.Privacy))
	}

	return cal.Serialize()
}

func classOf(p models.Privacy) string {
	if p {
		return "PRIVATE"
	}
	return "PUBLIC"
}
