// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/thrifttags/internal/api"
	"github.com/tomtom215/thrifttags/internal/backup"
	"github.com/tomtom215/thrifttags/internal/auth"
	"github.com/tomtom215/thrifttags/internal/config"
	"github.com/tomtom215/thrifttags/internal/docstore"
	"github.com/tomtom215/thrifttags/internal/friends"
	"github.com/tomtom215/thrifttags/internal/geo"
	"github.com/tomtom215/thrifttags/internal/lifecycle"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/reviews"
	"github.com/tomtom215/thrifttags/internal/stores"
	"github.com/tomtom215/thrifttags/internal/supervisor"
	"github.com/tomtom215/thrifttags/internal/supervisor/services"
	ws "github.com/tomtom215/thrifttags/internal/websocket"
)

//nolint:gocyclo // sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("storage", cfg.Storage.Path).
		Bool("in_memory", cfg.Storage.InMemory).
		Msg("Starting ThriftTags with supervisor tree")

	loc, err := cfg.Lifecycle.Location()
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid event timezone")
	}

	// === STORAGE ===
	badgerStore, err := docstore.Open(cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer func() {
		if err := badgerStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing document store")
		}
	}()
	if path := cfg.Storage.RestoreFrom; path != "" {
		if err := backup.Restore(path, badgerStore); err != nil {
			logging.Fatal().Err(err).Str("file", path).Msg("Failed to restore snapshot")
		}
	}
	store := docstore.NewBreakerStore(badgerStore, cfg.Breaker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === STORE CATALOG ===
	catalog := stores.NewCatalog(store)
	if cfg.Storage.StoresSeedPath != "" {
		n, err := catalog.Seed(ctx, cfg.Storage.StoresSeedPath)
		if err != nil {
			logging.Warn().Err(err).Str("path", cfg.Storage.StoresSeedPath).Msg("Store seed import failed")
		} else if n > 0 {
			logging.Info().Int("count", n).Msg("Imported store seed data")
		}
	}
	if err := catalog.Load(ctx); err != nil {
		// The catalog is read-only at runtime; start empty rather than refuse to serve events.
		logging.Error().Err(err).Msg("Failed to load store catalog")
	}

	// === EVENTS AND NOTIFICATIONS ===
	wsHub := ws.NewHub()
	registry := lifecycle.NewRegistry(store,
		lifecycle.WithLocation(loc),
		lifecycle.WithNotifier(wsHub),
	)
	sweeper := lifecycle.NewSweeper(registry, cfg.Lifecycle.SweepSpec(), loc)
	geocoder := geo.NewGeocoder(cfg.Geo, cfg.Breaker)

	// === AUTHENTICATION ===
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create JWT manager")
	}
	authService := auth.NewService(store, jwtManager)

	// === HTTP ===
	handler := api.NewHandler(api.Dependencies{
		Config:   cfg,
		Registry: registry,
		Catalog:  catalog,
		Geocoder: geocoder,
		Reviews:  reviews.NewService(store, nil),
		Friends:  friends.NewService(store),
		Auth:     authService,
		JWT:      jwtManager,
		Hub:      wsHub,
	})
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager),
		api.NewChiMiddleware(api.NewChiMiddlewareConfig(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddBackgroundService(services.NewSchedulerService("expiry-sweeper", sweeper))
	if cfg.Storage.BackupDir != "" && !cfg.Storage.InMemory {
		backups, err := backup.NewManager(cfg.Storage.BackupDir, badgerStore, cfg.Storage.BackupRetain)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize backups")
		}
		tree.AddBackgroundService(services.NewSchedulerService("store-backup",
			backup.NewScheduler(backups, cfg.Storage.BackupSchedule)))
	}
	tree.AddBackgroundService(services.NewCacheCleanupService("geocoder-cache", geocoder.Cache(), 0))
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Str("sweep", cfg.Lifecycle.SweepSpec()).Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
