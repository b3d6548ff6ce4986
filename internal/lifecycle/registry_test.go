// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/thrifttags/internal/models"
)

func seedEvent(t *testing.T, store *memStore, ev models.Event) {
	t.Helper()
	if _, err := store.CreateRecord(context.Background(), models.EventsCollection, ev); err != nil {
		t.Fatal(err)
	}
}

func TestRegistryLoadsOncePerOwner(t *testing.T) {
	store := newMemStore()
	seedEvent(t, store, models.Event{Name: "Sale", Date: "2030-07-01", Time: "10:00", OwnerEmail: testOwner})
	clock := newTestClock(testNow)
	reg := NewRegistry(store, WithClock(clock.Now), WithLocation(time.UTC))

	var wg sync.WaitGroup
	managers := make([]*Manager, 8)
	for i := range managers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := reg.Get(context.Background(), testOwner)
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			managers[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range managers[1:] {
		if m != managers[0] {
			t.Fatal("expected the same manager for every caller")
		}
	}
	if reg.Len() != 1 {
		t.Errorf("expected one manager, got %d", reg.Len())
	}
	if len(managers[0].Active()) != 1 {
		t.Errorf("expected the stored event loaded, got %+v", managers[0].Active())
	}
}

func TestRegistryDoesNotCacheFailedLoad(t *testing.T) {
	store := newMemStore()
	store.failQuery = true
	reg := NewRegistry(store)

	if _, err := reg.Get(context.Background(), testOwner); !models.IsPersistence(err) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if reg.Len() != 0 {
		t.Error("failed load must not be cached")
	}

	store.mu.Lock()
	store.failQuery = false
	store.mu.Unlock()
	if _, err := reg.Get(context.Background(), testOwner); err != nil {
		t.Errorf("expected retry to succeed, got %v", err)
	}
}

func TestRegistrySweepAll(t *testing.T) {
	store := newMemStore()
	clock := newTestClock(testNow)
	reg := NewRegistry(store, WithClock(clock.Now), WithLocation(time.UTC))
	ctx := context.Background()

	for _, owner := range []string{"a@x.io", "b@x.io"} {
		m, err := reg.Get(ctx, owner)
		if err != nil {
			t.Fatal(err)
		}
		mustCreate(t, m, models.EventDraft{Name: "Soon", Date: "2030-06-15", Time: "13:00"})
		mustCreate(t, m, models.EventDraft{Name: "Later", Date: "2030-06-16", Time: "13:00"})
	}

	if n := reg.SweepAll(ctx); n != 0 {
		t.Errorf("expected nothing expired yet, got %d", n)
	}

	clock.Set(testNow.Add(90 * time.Minute))
	if n := reg.SweepAll(ctx); n != 2 {
		t.Errorf("expected one expired event per owner, got %d", n)
	}
	if n := reg.SweepAll(ctx); n != 0 {
		t.Errorf("expected repeated sweep to expire nothing, got %d", n)
	}
}

func TestRegistryPeekActiveIsReadOnly(t *testing.T) {
	store := newMemStore()
	seedEvent(t, store, models.Event{Name: "Past", Date: "2030-01-01", Time: "10:00", OwnerEmail: "bob@x.io"})
	seedEvent(t, store, models.Event{Name: "Future", Date: "2030-12-01", Time: "10:00", OwnerEmail: "bob@x.io"})
	reg := NewRegistry(store, WithLocation(time.UTC))

	events, err := reg.PeekActive(context.Background(), "bob@x.io", testNow)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Name != "Future" {
		t.Errorf("expected only the future event, got %+v", events)
	}
	if reg.Len() != 0 {
		t.Error("PeekActive must not create a manager")
	}
	if store.count(models.EventsCollection) != 2 {
		t.Error("PeekActive must not delete anything")
	}
}
