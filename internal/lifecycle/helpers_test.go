// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/models"
)

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory docstore.Store with failure injection.
type memStore struct {
	mu         sync.Mutex
	docs       map[string]map[string][]byte
	nextID     int
	failCreate bool
	failDelete bool
	failQuery  bool
	deletes    []string
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]map[string][]byte)}
}

func (s *memStore) CreateRecord(_ context.Context, collection string, doc interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return "", errStoreDown
	}
	s.nextID++
	id := fmt.Sprintf("ev-%d", s.nextID)
	return id, s.putLocked(collection, id, doc)
}

func (s *memStore) putLocked(collection, id string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	fields["id"] = id
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string][]byte)
	}
	s.docs[collection][id] = data
	return nil
}

func (s *memStore) DeleteRecord(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return errStoreDown
	}
	s.deletes = append(s.deletes, id)
	delete(s.docs[collection], id)
	return nil
}

func (s *memStore) QueryByEquality(_ context.Context, collection, field string, value interface{}) ([]docstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failQuery {
		return nil, errStoreDown
	}
	var out []docstore.Record
	for id, data := range s.docs[collection] {
		fields := map[string]interface{}{}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
		if fields[field] == value {
			out = append(out, docstore.Record{ID: id, Data: data})
		}
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, collection, id string) (docstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[collection][id]
	if !ok {
		return docstore.Record{}, models.ErrNotFound
	}
	return docstore.Record{ID: id, Data: data}, nil
}

func (s *memStore) Put(_ context.Context, collection, id string, doc interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(collection, id, doc)
}

func (s *memStore) Update(ctx context.Context, collection, id string, fn docstore.UpdateFunc) error {
	rec, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	next, err := fn(rec)
	if err != nil {
		return err
	}
	return s.Put(ctx, collection, id, next)
}

func (s *memStore) List(_ context.Context, collection string) ([]docstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []docstore.Record
	for id, data := range s.docs[collection] {
		out = append(out, docstore.Record{ID: id, Data: data})
	}
	return out, nil
}

func (s *memStore) count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[collection])
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// recorder collects notifications.
type recorder struct {
	mu    sync.Mutex
	items []Notification
	owner []string
}

func (r *recorder) Notify(owner string, n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.owner = append(r.owner, owner)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	for i, n := range r.items {
		out[i] = n.Type
	}
	return out
}

const testOwner = "alice@example.com"

var testNow = time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *memStore, *testClock, *recorder) {
	t.Helper()
	store := newMemStore()
	clock := newTestClock(testNow)
	rec := &recorder{}
	m := NewManager(testOwner, store, WithClock(clock.Now), WithLocation(time.UTC), WithNotifier(rec))
	return m, store, clock, rec
}

func mustCreate(t *testing.T, m *Manager, draft models.EventDraft) models.Event {
	t.Helper()
	ev, err := m.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("Create(%+v) failed: %v", draft, err)
	}
	return ev
}
