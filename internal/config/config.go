// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package config loads ThriftTags configuration from struct defaults, an
// optional YAML file and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Lifecycle  LifecycleConfig  `koanf:"lifecycle"`
	Geo        GeoConfig        `koanf:"geo"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StorageConfig configures the embedded document store.
type StorageConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// StoresSeedPath points at a JSON array of raw store records imported
	// into the stores collection on startup. Empty disables seeding.
	StoresSeedPath string `koanf:"stores_seed_path"`

	// BackupDir enables scheduled snapshots of the store into this
	// directory. Empty disables backups.
	BackupDir      string `koanf:"backup_dir"`
	BackupSchedule string `koanf:"backup_schedule"`
	BackupRetain   int    `koanf:"backup_retain"`

	// RestoreFrom is a snapshot replayed into the store before startup.
	RestoreFrom string `koanf:"restore_from"`
}

// BreakerConfig tunes the circuit breaker in front of the document store.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// LifecycleConfig controls event expiry.
type LifecycleConfig struct {
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// Timezone is the IANA zone used to turn an event's date and time into
	// an instant. "Local" uses the host zone.
	Timezone string `koanf:"timezone"`
}

// SweepSpec is the cron spec for the expiry sweep.
func (l LifecycleConfig) SweepSpec() string {
	return fmt.Sprintf("@every %s", l.SweepInterval)
}

// Location resolves Timezone.
func (l LifecycleConfig) Location() (*time.Location, error) {
	if l.Timezone == "" || l.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(l.Timezone)
}

// GeoConfig holds map defaults and the reverse geocoder settings.
type GeoConfig struct {
	DefaultLatitude  float64 `koanf:"default_latitude"`
	DefaultLongitude float64 `koanf:"default_longitude"`

	GeocoderEnabled   bool          `koanf:"geocoder_enabled"`
	GeocoderURL       string        `koanf:"geocoder_url"`
	GeocoderUserAgent string        `koanf:"geocoder_user_agent"`
	GeocoderRate      float64       `koanf:"geocoder_rate"`
	GeocoderTimeout   time.Duration `koanf:"geocoder_timeout"`
	GeocoderCacheTTL  time.Duration `koanf:"geocoder_cache_ttl"`
}

// SecurityConfig holds authentication and HTTP hardening settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config for the parts that are configurable.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes suture restart behaviour.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// IsProduction reports whether Environment is "production".
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
