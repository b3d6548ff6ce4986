// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	minJWTSecretLength = 32

	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour

	minSweepInterval = time.Second
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateStorage,
		c.validateLifecycle,
		c.validateGeo,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
	}
	if c.Storage.BackupDir != "" {
		if c.Storage.BackupRetain < 1 {
			return fmt.Errorf("BACKUP_RETAIN must be at least 1")
		}
		if _, err := cron.ParseStandard(c.Storage.BackupSchedule); err != nil {
			return fmt.Errorf("BACKUP_SCHEDULE is invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) validateLifecycle() error {
	if c.Lifecycle.SweepInterval < minSweepInterval {
		return fmt.Errorf("EVENT_SWEEP_INTERVAL must be at least %v", minSweepInterval)
	}
	if _, err := c.Lifecycle.Location(); err != nil {
		return fmt.Errorf("EVENT_TIMEZONE is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateGeo() error {
	if c.Geo.DefaultLatitude < -90 || c.Geo.DefaultLatitude > 90 {
		return fmt.Errorf("DEFAULT_LATITUDE must be between -90 and 90")
	}
	if c.Geo.DefaultLongitude < -180 || c.Geo.DefaultLongitude > 180 {
		return fmt.Errorf("DEFAULT_LONGITUDE must be between -180 and 180")
	}
	if !c.Geo.GeocoderEnabled {
		return nil
	}
	u, err := url.Parse(c.Geo.GeocoderURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("GEOCODER_URL must be an http(s) URL")
	}
	if c.Geo.GeocoderRate <= 0 {
		return fmt.Errorf("GEOCODER_RATE must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed when ENVIRONMENT=production")
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
