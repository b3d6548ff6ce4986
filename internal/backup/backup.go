// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package backup

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/metrics"
)

const (
	filePrefix     = "thrifttags-"
	fileSuffix     = ".badger.gz"
	checksumSuffix = ".sha256"
	timeLayout     = "20060102T150405.000Z"
)

// ErrChecksumMismatch is returned by Restore when the file does not match
// its recorded checksum.
var ErrChecksumMismatch = errors.New("backup checksum mismatch")

// Source is satisfied by *docstore.BadgerStore.
type Source interface {
	Backup(w io.Writer, since uint64) (uint64, error)
}

// Target is satisfied by *docstore.BadgerStore.
type Target interface {
	Load(r io.Reader) error
}

// Snapshot describes one backup file.
type Snapshot struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum,omitempty"`
}

// Manager writes, lists, prunes and restores snapshots in one directory.
type Manager struct {
	dir    string
	source Source
	retain int
	now    func() time.Time

	mu sync.Mutex
}

// NewManager creates dir if needed. retain below 1 keeps one snapshot.
func NewManager(dir string, source Source, retain int) (*Manager, error) {
	if dir == "" {
		return nil, errors.New("backup directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	if retain < 1 {
		retain = 1
	}
	return &Manager{dir: dir, source: source, retain: retain, now: time.Now}, nil
}

// WithClock replaces the clock used to name snapshots.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Create writes a full snapshot.
func (m *Manager) Create(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	created := m.now().UTC()
	name := filePrefix + created.Format(timeLayout) + fileSuffix
	path := filepath.Join(m.dir, name)

	snap, err := m.write(path, created)
	if err != nil {
		metrics.BackupsTotal.WithLabelValues("failure").Inc()
		return Snapshot{}, err
	}
	snap.Name = name

	metrics.BackupsTotal.WithLabelValues("success").Inc()
	metrics.BackupSizeBytes.Set(float64(snap.Size))
	logging.Ctx(ctx).Info().Str("file", name).Int64("bytes", snap.Size).Msg("Store snapshot written")
	return snap, nil
}

func (m *Manager) write(path string, created time.Time) (Snapshot, error) {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot file: %w", err)
	}

	hasher := sha256.New()
	counter := &countingWriter{}
	gz := gzip.NewWriter(io.MultiWriter(f, hasher, counter))

	_, backupErr := m.source.Backup(gz, 0)
	gzErr := gz.Close()
	syncErr := f.Sync()
	closeErr := f.Close()
	if err := errors.Join(backupErr, gzErr, syncErr, closeErr); err != nil {
		_ = os.Remove(tmp)
		return Snapshot{}, fmt.Errorf("write snapshot: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Snapshot{}, fmt.Errorf("finalize snapshot: %w", err)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if err := os.WriteFile(path+checksumSuffix, []byte(sum+"\n"), 0o640); err != nil {
		logging.Warn().Err(err).Str("file", path).Msg("Failed to write snapshot checksum")
	}

	return Snapshot{Path: path, CreatedAt: created, Size: counter.n, Checksum: sum}, nil
}

// List returns the snapshots in the directory, newest first.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var out []Snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		created, err := time.Parse(timeLayout, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(m.dir, name)
		out = append(out, Snapshot{
			Name:      name,
			Path:      path,
			CreatedAt: created,
			Size:      info.Size(),
			Checksum:  readChecksum(path),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ApplyRetention removes all but the newest retain snapshots and returns how
// many were removed.
func (m *Manager) ApplyRetention() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(snaps) <= m.retain {
		return 0, nil
	}

	removed := 0
	var errs []error
	for _, s := range snaps[m.retain:] {
		if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		_ = os.Remove(s.Path + checksumSuffix)
		removed++
	}
	if removed > 0 {
		logging.Info().Int("removed", removed).Int("kept", m.retain).Msg("Backup retention applied")
	}
	return removed, errors.Join(errs...)
}

// Run writes a snapshot and then applies retention. It is the scheduled job.
func (m *Manager) Run(ctx context.Context) {
	if _, err := m.Create(ctx); err != nil {
		logging.Error().Err(err).Msg("Scheduled backup failed")
		return
	}
	if _, err := m.ApplyRetention(); err != nil {
		logging.Error().Err(err).Msg("Backup retention failed")
	}
}

// Restore verifies the snapshot at path and replays it into target.
func Restore(path string, target Target) error {
	if want := readChecksum(path); want != "" {
		got, err := fileChecksum(path)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%w: %s", ErrChecksumMismatch, filepath.Base(path))
		}
	}

	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	defer gz.Close()

	if err := target.Load(gz); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	logging.Info().Str("file", filepath.Base(path)).Msg("Store restored from snapshot")
	return nil
}

func readChecksum(path string) string {
	b, err := os.ReadFile(path + checksumSuffix) //nolint:gosec // sidecar of a listed file
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return "", fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash snapshot: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
