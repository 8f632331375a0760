// Package service implements the launcher backend operations on top of the
// store, the query cache and the per-resource write queue.
package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/colin969/exodos-launcher/internal/cache"
	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/launchbox"
	"github.com/colin969/exodos-launcher/internal/store"
	"github.com/colin969/exodos-launcher/internal/taskqueue"
	"github.com/colin969/exodos-launcher/internal/validation"
)

// Pagination bounds for Search.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Stage names an initialization step consumers can wait for.
type Stage string

// Initialization stages.
const (
	StagePlatforms Stage = "platforms"
	StagePlaylists Stage = "playlists"
)

// Stages lists every stage in the order they normally complete.
var Stages = []Stage{StagePlatforms, StagePlaylists}

type stageSignal struct {
	once sync.Once
	done chan struct{}
}

func (s *stageSignal) complete() {
	s.once.Do(func() { close(s.done) })
}

func (s *stageSignal) isDone() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Config holds the service settings.
type Config struct {
	PlatformsPath string
	PlaylistsPath string
	PageSize      int
}

// Deps are the collaborators the service composes.
type Deps struct {
	Games          *store.Store
	Playlists      *store.PlaylistStore
	Cache          *cache.Cache
	Queue          *taskqueue.Queue
	PlatformWriter *launchbox.PlatformWriter
	PlaylistWriter *launchbox.PlaylistWriter
	Validator      *validation.Validator
	Logger         *slog.Logger
}

// LibraryService is the single entry point for backend operations.
// Reads go through the cache; writes go through the store and are
// persisted on the queue lane of the file they touch.
type LibraryService struct {
	games          *store.Store
	playlists      *store.PlaylistStore
	cache          *cache.Cache
	queue          *taskqueue.Queue
	platformWriter *launchbox.PlatformWriter
	playlistWriter *launchbox.PlaylistWriter
	validator      *validation.Validator
	logger         *slog.Logger
	cfg            Config

	stages map[Stage]*stageSignal
}

// New creates a LibraryService and subscribes the cache to store changes.
func New(deps Deps, cfg Config) *LibraryService {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	s := &LibraryService{
		games:          deps.Games,
		playlists:      deps.Playlists,
		cache:          deps.Cache,
		queue:          deps.Queue,
		platformWriter: deps.PlatformWriter,
		playlistWriter: deps.PlaylistWriter,
		validator:      deps.Validator,
		logger:         deps.Logger,
		cfg:            cfg,
		stages:         make(map[Stage]*stageSignal, len(Stages)),
	}
	for _, st := range Stages {
		s.stages[st] = &stageSignal{done: make(chan struct{})}
	}

	s.games.OnChange(func(c store.Change) {
		if c.Reload {
			s.cache.InvalidateAll()
			return
		}
		s.cache.InvalidateLibrary(c.Library)
	})
	return s
}

// AwaitStage blocks until stage has completed or ctx is done.
func (s *LibraryService) AwaitStage(ctx context.Context, stage Stage) error {
	sig, ok := s.stages[stage]
	if !ok {
		return errors.Validationf("unknown stage %q", stage)
	}
	select {
	case <-sig.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InitStatus reports which stages have completed.
func (s *LibraryService) InitStatus() map[Stage]bool {
	out := make(map[Stage]bool, len(s.stages))
	for st, sig := range s.stages {
		out[st] = sig.isDone()
	}
	return out
}

// Stats are runtime counters for diagnostics.
type Stats struct {
	Cache cache.Stats `json:"cache"`
	// PendingWrites counts queued or running writes per lane, e.g.
	// "platform:MS-DOS". Idle lanes are left out.
	PendingWrites map[string]int `json:"pending_writes"`
}

// Stats reports query cache counters and the write backlog.
func (s *LibraryService) Stats() Stats {
	return Stats{Cache: s.cache.Stats(), PendingWrites: s.queue.Backlog()}
}

// Shutdown waits for queued writes to finish.
func (s *LibraryService) Shutdown(ctx context.Context) error {
	return s.queue.Shutdown(ctx)
}

func platformKey(name string) string { return "platform:" + name }

func playlistKey(id string) string { return "playlist:" + id }

// persistPlatform saves a platform and reports what the writer did. The
// store records the written bytes once the change is committed.
func (s *LibraryService) persistPlatform(outcome *launchbox.SaveOutcome) store.PersistFunc {
	return func(_ context.Context, p *domain.Platform) ([]byte, error) {
		o, data, err := s.platformWriter.Save(p)
		if err != nil {
			return nil, err
		}
		*outcome = o
		if o != launchbox.OutcomeWritten {
			return nil, nil
		}
		return data, nil
	}
}

func (s *LibraryService) removePlatformFile(outcome *launchbox.SaveOutcome) store.PersistFunc {
	return func(_ context.Context, p *domain.Platform) ([]byte, error) {
		o, err := s.platformWriter.Remove(p.FilePath)
		if err != nil {
			return nil, err
		}
		*outcome = o
		return nil, nil
	}
}

func (s *LibraryService) persistPlaylist(outcome *launchbox.SaveOutcome) store.PlaylistPersistFunc {
	return func(_ context.Context, p *domain.Playlist) ([]byte, error) {
		o, data, err := s.playlistWriter.Save(p.FilePath, p)
		if err != nil {
			return nil, err
		}
		*outcome = o
		if o != launchbox.OutcomeWritten {
			return nil, nil
		}
		return data, nil
	}
}

func (s *LibraryService) removePlaylistFile(outcome *launchbox.SaveOutcome) store.PlaylistPersistFunc {
	return func(_ context.Context, p *domain.Playlist) ([]byte, error) {
		o, err := s.playlistWriter.Remove(p.FilePath)
		if err != nil {
			return nil, err
		}
		*outcome = o
		return nil, nil
	}
}
