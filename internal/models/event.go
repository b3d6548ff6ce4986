// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package models

import (
	"bytes"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Collection names in the document store.
const (
	EventsCollection  = "events"
	StoresCollection  = "stores"
	ReviewsCollection = "reviews"
	UsersCollection   = "users"
)

// Defaults applied to an event draft.
const (
	DefaultEventLocation = "TBD"
	DefaultEventHost     = "Me"
	DefaultEventTime     = "00:00"
)

// DateLayout is the calendar date format of Event.Date.
const DateLayout = "2006-01-02"

// TimeLayouts are the accepted time-of-day formats of Event.Time.
var TimeLayouts = []string{"15:04", "15:04:05"}

// Event is a scheduled happening owned by one user.
type Event struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	Host       string  `json:"host"`
	Privacy    Privacy `json:"privacy"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	OwnerEmail string  `json:"owner_email"`
}

// EventKey is the history dedup tuple.
type EventKey struct {
	Name string
	Date string
	Time string
	Host string
}

// Key returns the dedup tuple of e.
func (e Event) Key() EventKey {
	return EventKey{Name: e.Name, Date: e.Date, Time: e.Time, Host: e.Host}
}

// Instant combines Date and Time in loc. ok is false when either part does
// not parse; such an event has no instant and never expires.
func (e Event) Instant(loc *time.Location) (t time.Time, ok bool) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(e.Date), loc)
	if err != nil {
		return time.Time{}, false
	}
	tod, ok := ParseTimeOfDay(e.Time)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(d.Year(), d.Month(), d.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc), true
}

// IsMine reports whether the host field names the owner.
func (e Event) IsMine() bool {
	h := strings.ToLower(strings.TrimSpace(e.Host))
	return h == "me" || h == "myself"
}

// ParseTimeOfDay parses s with any of TimeLayouts.
func ParseTimeOfDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Privacy is true for private events. It decodes from a JSON bool or from
// the labels "Private" and "Public", and always encodes as a bool.
type Privacy bool

// Privacy labels used for display and filtering.
const (
	PrivacyLabelPrivate = "private"
	PrivacyLabelPublic  = "public"
)

// ParsePrivacy normalizes a label. Only "private" (any case) is private.
func ParsePrivacy(label string) Privacy {
	return Privacy(strings.EqualFold(strings.TrimSpace(label), PrivacyLabelPrivate))
}

// Label returns "private" or "public".
func (p Privacy) Label() string {
	if p {
		return PrivacyLabelPrivate
	}
	return PrivacyLabelPublic
}

// UnmarshalJSON accepts true, false, null, "Private" and "Public".
func (p *Privacy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = false
		return nil
	}
	if data[0] == '"' {
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		*p = ParsePrivacy(label)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*p = Privacy(b)
	return nil
}

// EventDraft is the caller input for creating an event. Only Name is required.
type EventDraft struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Location string  `json:"location" validate:"max=200"`
	Host     string  `json:"host" validate:"max=100"`
	Privacy  Privacy `json:"privacy"`
	Date     string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time     string  `json:"time" validate:"omitempty,timeofday"`
}
