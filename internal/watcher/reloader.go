package watcher

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/colin969/exodos-launcher/internal/store"
)

// FileHandler applies a settled change to the loaded library.
type FileHandler interface {
	ReloadFile(ctx context.Context, path string) (bool, error)
	RemoveFile(ctx context.Context, path string) (bool, error)
}

// ReloaderStats counts what the reloader did.
type ReloaderStats struct {
	Reloaded uint64 `json:"reloaded"`
	Removed  uint64 `json:"removed"`
	Skipped  uint64 `json:"skipped"`
	Failed   uint64 `json:"failed"`
}

// Reloader feeds watcher events to a FileHandler. Reloads are throttled
// so a bulk copy into the platforms directory cannot starve requests.
type Reloader struct {
	handler FileHandler
	limiter *rate.Limiter
	logger  *slog.Logger

	reloaded atomic.Uint64
	removed  atomic.Uint64
	skipped  atomic.Uint64
	failed   atomic.Uint64
}

// NewReloader creates a reloader allowing perSecond reloads per second.
func NewReloader(handler FileHandler, perSecond float64, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if perSecond <= 0 {
		perSecond = 4
	}
	burst := max(1, int(perSecond))
	return &Reloader{
		handler: handler,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger,
	}
}

// Run consumes events until the channel is closed or ctx is done.
func (r *Reloader) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := r.apply(ctx, ev); err != nil {
				return nil
			}
		}
	}
}

// apply returns an error only when ctx ended while throttled.
func (r *Reloader) apply(ctx context.Context, ev Event) error {
	if !store.IsXMLFile(ev.Path) {
		return nil
	}

	if ev.Type == EventRemoved {
		removed, err := r.handler.RemoveFile(ctx, ev.Path)
		r.record("remove", ev.Path, removed, err, &r.removed)
		return nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	changed, err := r.handler.ReloadFile(ctx, ev.Path)
	r.record("reload", ev.Path, changed, err, &r.reloaded)
	return nil
}

func (r *Reloader) record(op, path string, changed bool, err error, counter *atomic.Uint64) {
	switch {
	case err != nil:
		r.failed.Add(1)
		r.logger.Warn("file "+op+" failed", "path", path, "error", err)
	case changed:
		counter.Add(1)
		r.logger.Debug("file "+op+" applied", "path", path)
	default:
		r.skipped.Add(1)
	}
}

// Stats returns counters since the reloader was created.
func (r *Reloader) Stats() ReloaderStats {
	return ReloaderStats{
		Reloaded: r.reloaded.Load(),
		Removed:  r.removed.Load(),
		Skipped:  r.skipped.Load(),
		Failed:   r.failed.Load(),
	}
}
