// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package backup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/thrifttags/internal/logging"
)

// ErrSchedulerRunning is returned by Start when already started.
var ErrSchedulerRunning = errors.New("backup scheduler already running")

// Scheduler runs Manager.Run on a cron schedule.
type Scheduler struct {
	manager *Manager
	spec    string

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. spec is a standard cron expression or
// a descriptor such as "@daily".
func NewScheduler(manager *Manager, spec string) *Scheduler {
	return &Scheduler{manager: manager, spec: spec}
}

// Start schedules backups. Unlike the expiry sweep it does not run
// immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrSchedulerRunning
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	runCtx, cancel := context.WithCancel(ctx)
	if _, err := c.AddFunc(s.spec, func() { s.manager.Run(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid backup schedule %q: %w", s.spec, err)
	}
	c.Start()

	s.cron = c
	s.cancel = cancel
	logging.Info().Str("schedule", s.spec).Str("dir", s.manager.dir).Msg("Backup scheduler started")
	return nil
}

// Stop cancels the schedule and waits for a running backup.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	<-done.Done()
	s.cancel()
	s.cron = nil
	s.cancel = nil
}
