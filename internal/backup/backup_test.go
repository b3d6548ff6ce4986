// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package backup

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/tomtom215/thrifttags/internal/config"
	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/models"
)

func openStore(t *testing.T) *docstore.BadgerStore {
	t.Helper()
	s, err := docstore.Open(config.StorageConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type steppingClock struct{ t time.Time }

func (c *steppingClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func TestSnapshotAndRestore(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	id, err := src.CreateRecord(ctx, models.EventsCollection, models.Event{Name: "Flea Market", OwnerEmail: "a@x.io"})
	if err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(t.TempDir(), src, 3)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if snap.Size == 0 || snap.Checksum == "" {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	listed, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].Name != snap.Name || listed[0].Checksum != snap.Checksum {
		t.Fatalf("unexpected listing %+v", listed)
	}

	dst := openStore(t)
	if err := Restore(snap.Path, dst); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	ev, err := docstore.GetDecoded[models.Event](ctx, dst, models.EventsCollection, id)
	if err != nil {
		t.Fatalf("restored record missing: %v", err)
	}
	if ev.Name != "Flea Market" {
		t.Errorf("unexpected restored event %+v", ev)
	}
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	src := openStore(t)
	m, err := NewManager(t.TempDir(), src, 1)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := m.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(snap.Path, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Restore(snap.Path, openStore(t)); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestRetentionKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	clock := &steppingClock{t: time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)}
	m, err := NewManager(dir, openStore(t), 2)
	if err != nil {
		t.Fatal(err)
	}
	m.WithClock(clock.Now)

	var names []string
	for i := 0; i < 4; i++ {
		snap, err := m.Create(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, snap.Name)
	}

	removed, err := m.ApplyRetention()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	listed, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 || listed[0].Name != names[3] || listed[1].Name != names[2] {
		t.Errorf("expected the two newest kept, got %+v", listed)
	}
	if _, err := os.Stat(listed[0].Path + checksumSuffix); err != nil {
		t.Errorf("expected checksum sidecar kept: %v", err)
	}
	if _, err := os.Stat(dir + "/" + names[0] + checksumSuffix); !os.IsNotExist(err) {
		t.Error("expected pruned sidecar removed")
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	m, err := NewManager(t.TempDir(), openStore(t), 1)
	if err != nil {
		t.Fatal(err)
	}
	s := NewScheduler(m, "whenever")
	if err := s.Start(context.Background()); err == nil {
		s.Stop()
		t.Fatal("expected an invalid schedule error")
	}

	s = NewScheduler(m, "@daily")
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrSchedulerRunning) {
		t.Errorf("expected ErrSchedulerRunning, got %v", err)
	}
	s.Stop()
	s.Stop()
}
