// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/thrifttags/internal/calendar"
	"github.com/tomtom215/thrifttags/internal/lifecycle"
	"github.com/tomtom215/thrifttags/internal/models"
)

// eventView is an active event as returned to the client.
type eventView struct {
	models.Event
	IsMine    bool                `json:"is_mine"`
	Countdown lifecycle.Countdown `json:"countdown"`
}

func (h *Handler) manager(r *http.Request) (*lifecycle.Manager, error) {
	email, err := identity(r)
	if err != nil {
		return nil, err
	}
	return h.registry.Get(r.Context(), email)
}

// sortParams reads sort and mode. An empty sort means insertion order.
func sortParams(r *http.Request) (string, lifecycle.SortMode, error) {
	column := strings.TrimSpace(r.URL.Query().Get("sort"))
	if column == "" {
		return "", "", nil
	}
	mode := lifecycle.DefaultSortMode(column)
	if raw := r.URL.Query().Get("mode"); raw != "" {
		parsed, err := lifecycle.ParseSortMode(raw)
		if err != nil {
			return "", "", err
		}
		mode = parsed
	}
	return column, mode, nil
}

func (h *Handler) views(events []models.Event) []eventView {
	now := h.now()
	loc := h.registry.Location()
	out := make([]eventView, 0, len(events))
	for _, ev := range events {
		out = append(out, eventView{
			Event:     ev,
			IsMine:    ev.IsMine(),
			Countdown: lifecycle.TimeLeft(ev, now, loc),
		})
	}
	return out
}

// ListEvents returns the caller's active events, filtered by q. A sort
// reorders the caller's list and the order sticks for later requests.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	column, mode, err := sortParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if column != "" {
		if err := m.SortActive(column, mode); err != nil {
			respondError(w, r, err)
			return
		}
	}
	events := lifecycle.FilterEvents(m.Active(), r.URL.Query().Get("q"))

	NewResponseWriter(w, r).List(h.views(events), len(events), "")
}

// CreateEvent adds an event for the caller.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var draft models.EventDraft
	if err := decodeBody(w, r, &draft); err != nil {
		respondError(w, r, err)
		return
	}

	ev, err := m.Create(r.Context(), draft)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(h.views([]models.Event{ev})[0])
}

// DeleteEvent moves an active event to history.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	record, err := m.DeleteByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(record)
}

// ListHistory returns the caller's removed events.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if column := strings.TrimSpace(r.URL.Query().Get("sort")); column != "" {
		if err := m.SortHistory(column); err != nil {
			respondError(w, r, err)
			return
		}
	}
	history := m.History()
	NewResponseWriter(w, r).List(history, len(history), "")
}

// RestoreEvent re-creates a history entry with a new date and time.
func (h *Handler) RestoreEvent(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req RestoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	ev, err := m.Restore(r.Context(), chi.URLParam(r, "entryID"), req.Date, req.Time)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(h.views([]models.Event{ev})[0])
}

// SweepEvents runs the expiry check for the caller now.
func (h *Handler) SweepEvents(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	expired := m.CheckExpiry(r.Context(), h.now())
	NewResponseWriter(w, r).List(expired, len(expired), "")
}

// ExportCalendar renders the caller's active events as text/calendar.
func (h *Handler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	body := calendar.Export(m.Owner(), m.Active(), h.registry.Location(), h.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="thrifttags.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
