// Package di provides dependency injection configuration for the launcher backend.
package di

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/colin969/exodos-launcher/internal/backend"
	"github.com/colin969/exodos-launcher/internal/config"
	"github.com/colin969/exodos-launcher/internal/di/providers"
	"github.com/colin969/exodos-launcher/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideGameStore)
	do.Provide(injector, providers.ProvidePlaylistStore)
	do.Provide(injector, providers.ProvideWriters)

	// Services
	do.Provide(injector, providers.ProvideQueue)
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideDispatcher)

	// Workers
	do.Provide(injector, providers.ProvideFileWatcher)

	return injector
}

// Bootstrap initializes all services, loads platforms then playlists, and
// starts the file watcher. Broken files are logged; only an unreadable
// directory fails the bootstrap.
func Bootstrap(ctx context.Context, injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	log := do.MustInvoke[*logger.Logger](injector)
	svc := do.MustInvoke[*providers.LibraryServiceHandle](injector)
	_ = do.MustInvoke[*backend.Dispatcher](injector)

	platforms, err := svc.LoadPlatforms(ctx, "")
	if err != nil {
		return fmt.Errorf("load platforms: %w", err)
	}
	for _, le := range platforms.Errors {
		log.Warn("Platform file not loaded", "path", le.FilePath, "error", le.Cause)
	}
	log.Info("Platforms loaded", "platforms", len(platforms.Platforms), "failed", len(platforms.Errors))

	playlists, err := svc.LoadPlaylists(ctx, "")
	if err != nil {
		return fmt.Errorf("load playlists: %w", err)
	}
	for _, le := range playlists.Errors {
		log.Warn("Playlist file not loaded", "path", le.FilePath, "error", le.Cause)
	}
	log.Info("Playlists loaded", "playlists", len(playlists.Loaded), "failed", len(playlists.Errors))

	_ = do.MustInvoke[*providers.FileWatcherHandle](injector)
	return nil
}
