// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package services

import (
	"context"
	"time"
)

// Scheduler is satisfied by *lifecycle.Sweeper and *backup.Scheduler.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop()
}

// SchedulerService starts a cron-driven job and stops it when the context
// is canceled. A scheduler that fails to start is reported to the
// supervisor.
type SchedulerService struct {
	scheduler Scheduler
	name      string
}

// NewSchedulerService wraps scheduler under name.
func NewSchedulerService(name string, scheduler Scheduler) *SchedulerService {
	return &SchedulerService{scheduler: scheduler, name: name}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.scheduler.Stop()
	return ctx.Err()
}

func (s *SchedulerService) String() string {
	return s.name
}

// Cleaner is satisfied by *cache.TTL.
type Cleaner interface {
	RunCleanup(ctx context.Context, interval time.Duration)
}

// CacheCleanupService evicts expired cache entries on an interval.
type CacheCleanupService struct {
	cache    Cleaner
	interval time.Duration
	name     string
}

// NewCacheCleanupService wraps cache. interval defaults to 10 minutes.
func NewCacheCleanupService(name string, cache Cleaner, interval time.Duration) *CacheCleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CacheCleanupService{cache: cache, interval: interval, name: name}
}

// Serve implements suture.Service.
func (c *CacheCleanupService) Serve(ctx context.Context) error {
	c.cache.RunCleanup(ctx, c.interval)
	return ctx.Err()
}

func (c *CacheCleanupService) String() string {
	return c.name
}
