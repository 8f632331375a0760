package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/colin969/exodos-launcher/internal/backend"
	"github.com/colin969/exodos-launcher/internal/cache"
	"github.com/colin969/exodos-launcher/internal/config"
	"github.com/colin969/exodos-launcher/internal/logger"
	"github.com/colin969/exodos-launcher/internal/service"
	"github.com/colin969/exodos-launcher/internal/store"
	"github.com/colin969/exodos-launcher/internal/taskqueue"
	"github.com/colin969/exodos-launcher/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideQueue provides the per-file write queue.
func ProvideQueue(i do.Injector) (*taskqueue.Queue, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return taskqueue.New(log.Logger), nil
}

// ProvideCache provides the query cache.
func ProvideCache(i do.Injector) (*cache.Cache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	games := do.MustInvoke[*store.Store](i)
	playlists := do.MustInvoke[*store.PlaylistStore](i)

	return cache.New(games, playlists, cache.Options{
		EntriesPerView: cfg.Cache.EntriesPerView,
		Logger:         log.Logger,
	}), nil
}

// LibraryServiceHandle wraps the library service with shutdown capability.
type LibraryServiceHandle struct {
	*service.LibraryService
	log *logger.Logger
}

// Shutdown implements do.Shutdownable. Queued writes are drained first.
func (h *LibraryServiceHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	h.log.Info("Draining queued writes...")
	return h.LibraryService.Shutdown(ctx)
}

// ProvideLibraryService provides the library service.
func ProvideLibraryService(i do.Injector) (*LibraryServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	writers := do.MustInvoke[*Writers](i)

	svc := service.New(service.Deps{
		Games:          do.MustInvoke[*store.Store](i),
		Playlists:      do.MustInvoke[*store.PlaylistStore](i),
		Cache:          do.MustInvoke[*cache.Cache](i),
		Queue:          do.MustInvoke[*taskqueue.Queue](i),
		PlatformWriter: writers.Platforms,
		PlaylistWriter: writers.Playlists,
		Validator:      do.MustInvoke[*validation.Validator](i),
		Logger:         log.Logger,
	}, service.Config{
		PlatformsPath: cfg.Library.PlatformsPath,
		PlaylistsPath: cfg.Library.PlaylistsPath,
		PageSize:      cfg.Cache.PageSize,
	})

	return &LibraryServiceHandle{LibraryService: svc, log: log}, nil
}

// ProvideDispatcher provides the request dispatcher.
func ProvideDispatcher(i do.Injector) (*backend.Dispatcher, error) {
	svcHandle := do.MustInvoke[*LibraryServiceHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backend.NewDispatcher(svcHandle.LibraryService, log.Logger), nil
}
