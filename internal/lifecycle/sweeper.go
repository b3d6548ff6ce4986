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
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/thrifttags/internal/logging"
)

// ErrSweeperRunning is returned by Start when the sweeper is already running.
var ErrSweeperRunning = errors.New("sweeper already running")

// Sweeper runs Registry.SweepAll on a cron schedule. Start runs one sweep
// immediately; Stop waits for a sweep in progress to finish.
type Sweeper struct {
	registry *Registry
	spec     string
	loc      *time.Location

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// NewSweeper creates a sweeper for registry. spec is any robfig/cron
// schedule, for example "@every 60s".
func NewSweeper(registry *Registry, spec string, loc *time.Location) *Sweeper {
	if loc == nil {
		loc = time.UTC
	}
	return &Sweeper{registry: registry, spec: spec, loc: loc}
}

// Start schedules the sweep. The sweeps run with a context derived from ctx
// that is canceled by Stop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSweeperRunning
	}

	logger := cronLogger{log: logging.WithComponent("sweeper")}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	runCtx, cancel := context.WithCancel(ctx)
	if _, err := c.AddFunc(s.spec, func() { s.registry.SweepAll(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid sweep schedule %q: %w", s.spec, err)
	}

	s.registry.SweepAll(runCtx)
	c.Start()

	s.cron = c
	s.cancel = cancel
	s.running = true

	logging.Info().Str("schedule", s.spec).Msg("Event expiry sweeper started")
	return nil
}

// Stop cancels the schedule and waits for a running sweep to return.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()

	s.running = false
	s.cron = nil
	s.cancel = nil
	logging.Info().Msg("Event expiry sweeper stopped")
}

// IsRunning reports whether the schedule is active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
