package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/colin969/exodos-launcher/internal/backend"
	"github.com/colin969/exodos-launcher/internal/config"
	"github.com/colin969/exodos-launcher/internal/logger"
	"github.com/colin969/exodos-launcher/internal/watcher"
)

// FileWatcherHandle wraps the file watcher with shutdown capability. Watcher
// is nil when file watching is disabled.
type FileWatcherHandle struct {
	*watcher.Watcher
	Reloader *watcher.Reloader
	cancel   context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideFileWatcher provides the platform and playlist file watcher. It
// must be invoked after the initial load so reloads know which directory
// a file belongs to.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	svcHandle := do.MustInvoke[*LibraryServiceHandle](i)

	if !cfg.Watch.Enabled {
		log.Info("File watcher disabled")
		return &FileWatcherHandle{}, nil
	}

	w, err := watcher.New(log.Logger, watcher.Options{SettleDelay: cfg.Watch.SettleDelay})
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{cfg.Library.PlatformsPath, cfg.Library.PlaylistsPath} {
		if err := w.Watch(dir); err != nil {
			log.Warn("Not watching directory", "path", dir, "error", err)
			continue
		}
		log.Info("Watching directory", "path", dir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	reloader := watcher.NewReloader(svcHandle.LibraryService, cfg.Watch.ReloadRate, log.Logger)
	do.MustInvoke[*backend.Dispatcher](i).ReportReloads(reloader)

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("File watcher error", "error", err)
		}
	}()

	go func() {
		if err := reloader.Run(ctx, w.Events()); err != nil {
			log.Error("File reloader error", "error", err)
		}
	}()

	go func() {
		for {
			select {
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				log.Warn("file watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("File watcher started", "settle_delay", cfg.Watch.SettleDelay, "reload_rate", cfg.Watch.ReloadRate)

	return &FileWatcherHandle{
		Watcher:  w,
		Reloader: reloader,
		cancel:   cancel,
	}, nil
}
