// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package lifecycle

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/metrics"
	"github.com/tomtom215/thrifttags/internal/models"
)

// registryEntry loads its manager once; concurrent callers wait on ready.
type registryEntry struct {
	manager *Manager
	ready   chan struct{}
	err     error
}

// Registry holds one Manager per identity, created and loaded on first use.
type Registry struct {
	store docstore.Store
	opts  []Option
	loc   *time.Location

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry creates a registry whose managers share store and opts.
func NewRegistry(store docstore.Store, opts ...Option) *Registry {
	return &Registry{
		store:   store,
		opts:    opts,
		loc:     NewManager("", store, opts...).Location(),
		entries: make(map[string]*registryEntry),
	}
}

// Location is the zone managers use to resolve event instants.
func (r *Registry) Location() *time.Location { return r.loc }

// Get returns the loaded manager for owner, loading it on first access. A
// failed load is not cached.
func (r *Registry) Get(ctx context.Context, owner string) (*Manager, error) {
	owner = strings.TrimSpace(owner)

	r.mu.Lock()
	e, ok := r.entries[owner]
	if !ok {
		e = &registryEntry{
			manager: NewManager(owner, r.store, r.opts...),
			ready:   make(chan struct{}),
		}
		r.entries[owner] = e
	}
	r.mu.Unlock()

	if !ok {
		e.err = e.manager.Load(ctx)
		if e.err != nil {
			r.mu.Lock()
			if r.entries[owner] == e {
				delete(r.entries, owner)
			}
			r.mu.Unlock()
		}
		close(e.ready)
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.manager, nil
}

// Len returns the number of loaded managers.
func (r *Registry) Len() int {
	return len(r.managers())
}

// managers returns the successfully loaded managers, ordered by owner.
func (r *Registry) managers() []*Manager {
	r.mu.Lock()
	entries := make([]*registryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	out := make([]*Manager, 0, len(entries))
	for _, e := range entries {
		select {
		case <-e.ready:
			if e.err == nil {
				out = append(out, e.manager)
			}
		default:
			// Still loading; Load runs its own expiry check.
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner() < out[j].Owner() })
	return out
}

// SweepAll runs an expiry check on every loaded manager at that manager's
// current time and returns the number of events expired. It never fails.
func (r *Registry) SweepAll(ctx context.Context) int {
	start := time.Now()
	managers := r.managers()

	total := 0
	for _, m := range managers {
		if ctx.Err() != nil {
			break
		}
		total += len(m.CheckExpiry(ctx, m.Now()))
	}

	metrics.RecordSweep(time.Since(start), len(managers))
	if total > 0 {
		logging.Ctx(ctx).Info().Int("managers", len(managers)).Int("expired", total).Msg("Expiry sweep completed")
	}
	return total
}

// PeekActive returns owner's active events without creating, loading or
// changing any manager. When the owner has a loaded manager its active set
// is used; otherwise the stored events are read directly. Events that are
// already due are left out either way.
func (r *Registry) PeekActive(ctx context.Context, owner string, now time.Time) ([]models.Event, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, nil
	}

	var events []models.Event
	r.mu.Lock()
	e, ok := r.entries[owner]
	r.mu.Unlock()

	loaded := false
	if ok {
		select {
		case <-e.ready:
			if e.err == nil {
				events = e.manager.Active()
				loaded = true
			}
		default:
		}
	}
	if !loaded {
		stored, err := docstore.QueryDecoded[models.Event](ctx, r.store, models.EventsCollection, "owner_email", owner)
		if err != nil {
			return nil, models.NewPersistenceError("query", models.EventsCollection, err)
		}
		events = stored
	}

	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if !isExpired(ev, now, r.loc) {
			out = append(out, ev)
		}
	}
	return out, nil
}
