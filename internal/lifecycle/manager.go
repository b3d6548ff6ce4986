// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package lifecycle manages a user's thrift events as they move between the
// active set and the removal history.
//
// An event is active from creation until it is deleted or its date and time
// pass; it then becomes a history record with reason "deleted" or
// "expired". History never holds two records with the same name, date,
// time and host. A history record can be restored with a new date and time,
// which creates a new event with a new id.
//
// A Manager serves one identity. The Registry keeps one Manager per identity
// and the Sweeper runs the periodic expiry check over all of them.
package lifecycle

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/metrics"
	"github.com/tomtom215/thrifttags/internal/models"
)

// Transition names used for notifications and metrics.
const (
	TransitionCreated  = "created"
	TransitionDeleted  = "deleted"
	TransitionExpired  = "expired"
	TransitionRestored = "restored"
)

// Notification types delivered to a Notifier.
const (
	NotifyEventCreated  = "event_created"
	NotifyEventRemoved  = "event_removed"
	NotifyEventRestored = "event_restored"
)

// Notification describes one state transition of one event.
type Notification struct {
	Type    string               `json:"type"`
	Event   models.Event         `json:"event"`
	Reason  models.RemovalReason `json:"reason,omitempty"`
	EntryID string               `json:"entry_id,omitempty"`
	At      time.Time            `json:"at"`
}

// Notifier receives transitions for an owner. Implementations must not block.
type Notifier interface {
	Notify(owner string, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(owner string, n Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(owner string, n Notification) { f(owner, n) }

type nopNotifier struct{}

func (nopNotifier) Notify(string, Notification) {}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLocation sets the timezone event dates and times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// WithNotifier sets the transition listener.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// Manager owns one user's active events and removal history.
//
// State changes replace the active and history slices under mu. mu is never
// held across a docstore call.
type Manager struct {
	owner    string
	store    docstore.Store
	now      func() time.Time
	loc      *time.Location
	notifier Notifier

	mu      sync.Mutex
	active  []models.Event
	history []models.HistoryRecord
}

// NewManager creates a Manager for owner. An empty owner yields a manager
// that loads nothing and rejects Create.
func NewManager(owner string, store docstore.Store, opts ...Option) *Manager {
	m := &Manager{
		owner:    strings.TrimSpace(owner),
		store:    store,
		now:      time.Now,
		loc:      time.Local,
		notifier: nopNotifier{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Owner returns the identity this manager serves.
func (m *Manager) Owner() string { return m.owner }

// Location returns the timezone used for event instants.
func (m *Manager) Location() *time.Location { return m.loc }

// Now returns the manager's current time.
func (m *Manager) Now() time.Time { return m.now() }

// Load replaces the active set with the owner's stored events and then runs
// an expiry check. History is kept.
func (m *Manager) Load(ctx context.Context) error {
	if m.owner == "" {
		m.mu.Lock()
		m.active = nil
		m.mu.Unlock()
		return nil
	}

	events, err := docstore.QueryDecoded[models.Event](ctx, m.store, models.EventsCollection, "owner_email", m.owner)
	if err != nil {
		return models.NewPersistenceError("query", models.EventsCollection, err)
	}

	m.mu.Lock()
	m.active = events
	m.mu.Unlock()

	logging.Ctx(ctx).Debug().Str("owner", m.owner).Int("events", len(events)).Msg("Loaded events")

	m.CheckExpiry(ctx, m.now())
	return nil
}

// Create validates draft, applies defaults, persists it and adds it to the
// active set. On a persistence failure nothing changes locally.
func (m *Manager) Create(ctx context.Context, draft models.EventDraft) (models.Event, error) {
	if m.owner == "" {
		return models.Event{}, models.NewValidationError("owner", "you must be logged in to create an event")
	}
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return models.Event{}, models.NewValidationError("name", "event name is required")
	}

	ev := models.Event{
		Name:       name,
		Location:   orDefault(draft.Location, models.DefaultEventLocation),
		Host:       orDefault(draft.Host, models.DefaultEventHost),
		Privacy:    draft.Privacy,
		Date:       orDefault(draft.Date, m.now().In(m.loc).Format(models.DateLayout)),
		Time:       orDefault(draft.Time, models.DefaultEventTime),
		OwnerEmail: m.owner,
	}

	id, err := m.store.CreateRecord(ctx, models.EventsCollection, ev)
	if err != nil {
		return models.Event{}, models.NewPersistenceError("create", models.EventsCollection, err)
	}
	ev.ID = id

	m.mu.Lock()
	m.active = append(cloneEvents(m.active), ev)
	m.mu.Unlock()

	metrics.RecordEventTransition(TransitionCreated)
	m.notify(Notification{Type: NotifyEventCreated, Event: ev})
	return ev, nil
}

// DeleteByID deletes the active event with id. It returns models.ErrNotFound
// when no active event has that id.
func (m *Manager) DeleteByID(ctx context.Context, id string) (models.HistoryRecord, error) {
	ev, ok := m.findActive(func(e models.Event) bool { return e.ID == id })
	if !ok || id == "" {
		return models.HistoryRecord{}, models.ErrNotFound
	}
	return m.Delete(ctx, ev)
}

// Delete removes ev. A persisted event is deleted remotely first; if that
// fails the error is a PersistenceError and neither the active set nor the
// history changes. Otherwise a history record with reason "deleted" is
// appended (unless an equal record exists) and the event leaves the active
// set. The returned record is the one now in history for the event.
func (m *Manager) Delete(ctx context.Context, ev models.Event) (models.HistoryRecord, error) {
	if ev.ID != "" {
		if err := m.store.DeleteRecord(ctx, models.EventsCollection, ev.ID); err != nil {
			return models.HistoryRecord{}, models.NewPersistenceError("delete", models.EventsCollection, err)
		}
	}

	now := m.now()
	m.mu.Lock()
	active, removed := removeEvent(m.active, ev)
	if removed != nil {
		ev = *removed
	}
	history, rec, _ := appendHistory(m.history, ev, models.ReasonDeleted, now)
	m.active = active
	m.history = history
	m.mu.Unlock()

	metrics.RecordEventTransition(TransitionDeleted)
	m.notify(Notification{Type: NotifyEventRemoved, Event: ev, Reason: models.ReasonDeleted, EntryID: rec.EntryID})
	return rec, nil
}

// CheckExpiry moves every active event whose instant is at or before now into
// history with reason "expired", then deletes them remotely on a best-effort
// basis. Remote failures are logged and counted, never returned. Calling it
// again with no new events is a no-op.
func (m *Manager) CheckExpiry(ctx context.Context, now time.Time) []models.Event {
	m.mu.Lock()
	var keep, expired []models.Event
	for _, ev := range m.active {
		if isExpired(ev, now, m.loc) {
			expired = append(expired, ev)
		} else {
			keep = append(keep, ev)
		}
	}
	if len(expired) == 0 {
		m.mu.Unlock()
		return nil
	}

	history := m.history
	records := make([]models.HistoryRecord, len(expired))
	for i, ev := range expired {
		history, records[i], _ = appendHistory(history, ev, models.ReasonExpired, now)
	}
	m.active = keep
	m.history = history
	m.mu.Unlock()

	for i, ev := range expired {
		if ev.ID != "" {
			if err := m.store.DeleteRecord(ctx, models.EventsCollection, ev.ID); err != nil {
				metrics.ExpiryRemoteDeleteFailures.Inc()
				logging.Ctx(ctx).Warn().Err(err).Str("owner", m.owner).Str("event_id", ev.ID).
					Msg("Failed to delete expired event from store")
			}
		}
		metrics.RecordEventTransition(TransitionExpired)
		m.notify(Notification{Type: NotifyEventRemoved, Event: ev, Reason: models.ReasonExpired, EntryID: records[i].EntryID})
	}

	logging.Ctx(ctx).Debug().Str("owner", m.owner).Int("expired", len(expired)).Msg("Expired events moved to history")
	return expired
}

// Restore re-creates the history record entryID as a new active event on
// newDate at newTime. The new event gets a new id. On success exactly that
// history record is removed; on failure history is unchanged.
func (m *Manager) Restore(ctx context.Context, entryID, newDate, newTime string) (models.Event, error) {
	newDate = strings.TrimSpace(newDate)
	newTime = strings.TrimSpace(newTime)
	if newDate == "" || newTime == "" {
		return models.Event{}, models.NewValidationError("date", "please select both date and time")
	}
	if _, err := time.Parse(models.DateLayout, newDate); err != nil {
		return models.Event{}, models.NewValidationError("date", "must be YYYY-MM-DD")
	}
	if _, ok := models.ParseTimeOfDay(newTime); !ok {
		return models.Event{}, models.NewValidationError("time", "must be HH:MM or HH:MM:SS")
	}

	rec, ok := m.findHistory(entryID)
	if !ok {
		return models.Event{}, models.ErrNotFound
	}

	ev := rec.Snapshot()
	ev.Date = newDate
	ev.Time = newTime
	if ev.OwnerEmail == "" {
		ev.OwnerEmail = m.owner
	}

	id, err := m.store.CreateRecord(ctx, models.EventsCollection, ev)
	if err != nil {
		return models.Event{}, models.NewPersistenceError("create", models.EventsCollection, err)
	}
	ev.ID = id

	m.mu.Lock()
	m.history = removeHistoryEntry(m.history, entryID)
	m.active = append(cloneEvents(m.active), ev)
	m.mu.Unlock()

	metrics.RecordEventTransition(TransitionRestored)
	m.notify(Notification{Type: NotifyEventRestored, Event: ev, EntryID: entryID})
	return ev, nil
}

// Active returns a copy of the active events.
func (m *Manager) Active() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneEvents(m.active)
}

// History returns a copy of the history records.
func (m *Manager) History() []models.HistoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.HistoryRecord, len(m.history))
	copy(out, m.history)
	return out
}

// SortActive stably reorders the active events by column using mode.
func (m *Manager) SortActive(column string, mode SortMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := cloneEvents(m.active)
	if err := SortEvents(sorted, column, mode); err != nil {
		return err
	}
	m.active = sorted
	return nil
}

// SortHistory reorders the history: newest first for "removed_on", otherwise
// ascending on the named field.
func (m *Manager) SortHistory(column string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := make([]models.HistoryRecord, len(m.history))
	copy(sorted, m.history)
	if err := SortHistoryRecords(sorted, column); err != nil {
		return err
	}
	m.history = sorted
	return nil
}

func (m *Manager) notify(n Notification) {
	if n.At.IsZero() {
		n.At = m.now()
	}
	m.notifier.Notify(m.owner, n)
}

func (m *Manager) findActive(match func(models.Event) bool) (models.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.active {
		if match(ev) {
			return ev, true
		}
	}
	return models.Event{}, false
}

func (m *Manager) findHistory(entryID string) (models.HistoryRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.history {
		if rec.EntryID == entryID {
			return rec, true
		}
	}
	return models.HistoryRecord{}, false
}

// isExpired reports whether ev's instant is at or before now. Events whose
// date or time does not parse never expire.
func isExpired(ev models.Event, now time.Time, loc *time.Location) bool {
	instant, ok := ev.Instant(loc)
	return ok && !instant.After(now)
}

// appendHistory returns history plus a record for ev, unless a record with the
// same dedup key already exists, in which case history is returned unchanged
// along with the existing record.
func appendHistory(history []models.HistoryRecord, ev models.Event, reason models.RemovalReason, now time.Time) ([]models.HistoryRecord, models.HistoryRecord, bool) {
	key := ev.Key()
	for _, rec := range history {
		if rec.Key() == key {
			metrics.HistoryDuplicatesSkipped.Inc()
			return history, rec, false
		}
	}
	rec := models.HistoryRecord{
		EntryID:   uuid.NewString(),
		Event:     ev,
		RemovedOn: now,
		Reason:    reason,
	}
	next := make([]models.HistoryRecord, len(history), len(history)+1)
	copy(next, history)
	return append(next, rec), rec, true
}

// removeEvent returns events without ev. A persisted event matches on id,
// an unpersisted one on its dedup key; only the first match is removed.
func removeEvent(events []models.Event, ev models.Event) ([]models.Event, *models.Event) {
	idx := -1
	for i, cur := range events {
		if (ev.ID != "" && cur.ID == ev.ID) || (ev.ID == "" && cur.ID == "" && cur.Key() == ev.Key()) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return events, nil
	}
	found := events[idx]
	next := make([]models.Event, 0, len(events)-1)
	next = append(next, events[:idx]...)
	next = append(next, events[idx+1:]...)
	return next, &found
}

func removeHistoryEntry(history []models.HistoryRecord, entryID string) []models.HistoryRecord {
	next := make([]models.HistoryRecord, 0, len(history))
	for _, rec := range history {
		if rec.EntryID != entryID {
			next = append(next, rec)
		}
	}
	return next
}

func cloneEvents(events []models.Event) []models.Event {
	out := make([]models.Event, len(events))
	copy(out, events)
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
