package store

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/launchbox"
	"github.com/colin969/exodos-launcher/internal/normalize"
)

// PlaylistPersistFunc writes (or deletes) a playlist file and returns the
// bytes written, or nil when nothing was.
type PlaylistPersistFunc func(ctx context.Context, p *domain.Playlist) ([]byte, error)

type playlistEntry struct {
	playlist *domain.Playlist
	revision uint64
}

// PlaylistStore holds every loaded playlist by id. Each playlist carries
// a revision that changes whenever its contents do.
type PlaylistStore struct {
	logger *slog.Logger
	echoes *echoSet
	gate   writeGate

	mu        sync.RWMutex
	dir       string
	playlists map[string]playlistEntry
	byPath    map[string]string // file path -> id
	revision  uint64
}

// NewPlaylistStore creates an empty playlist store.
func NewPlaylistStore(logger *slog.Logger) *PlaylistStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PlaylistStore{
		logger:    logger,
		echoes:    newEchoSet(),
		playlists: make(map[string]playlistEntry),
		byPath:    make(map[string]string),
	}
}

// Dir returns the directory playlists were last loaded from.
func (s *PlaylistStore) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// LoadPlaylists loads every playlist file under dir, replacing what was
// loaded before. Unparseable content yields an empty playlist rather than
// an error; only unreadable files are reported.
func (s *PlaylistStore) LoadPlaylists(ctx context.Context, dir string) (*LoadResult, error) {
	defer s.gate.lockAll()()

	files, err := listXMLFiles(dir)
	if err != nil {
		return nil, err
	}

	loaded := make([]*domain.Playlist, len(files))
	loadErrs := make([]*LoadError, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				loadErrs[i] = newLoadError(path, err)
				return nil
			}
			loaded[i] = s.decode(path, raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load playlists: %w", err)
	}

	result := &LoadResult{Loaded: []string{}, Errors: []*LoadError{}}
	playlists := make(map[string]playlistEntry, len(files))
	byPath := make(map[string]string, len(files))

	s.mu.Lock()
	for i, p := range loaded {
		if p == nil {
			result.Errors = append(result.Errors, loadErrs[i])
			continue
		}
		if other, dup := playlists[p.ID]; dup {
			result.Errors = append(result.Errors, newLoadError(p.FilePath,
				errors.Conflictf("playlist %q already loaded from %s", p.ID, other.playlist.FilePath)))
			continue
		}
		s.revision++
		playlists[p.ID] = playlistEntry{playlist: p, revision: s.revision}
		byPath[p.FilePath] = p.ID
		result.Loaded = append(result.Loaded, p.ID)
	}
	s.dir = dir
	s.playlists = playlists
	s.byPath = byPath
	s.mu.Unlock()

	for _, e := range result.Errors {
		s.logger.Warn("playlist failed to load", "path", e.FilePath, "error", e.Cause)
	}
	s.logger.Info("playlists loaded", "dir", dir, "playlists", len(result.Loaded), "errors", len(result.Errors))
	return result, nil
}

func (s *PlaylistStore) decode(path string, raw []byte) *domain.Playlist {
	p := launchbox.DecodePlaylist(raw, func(msg string) {
		s.logger.Warn("playlist parse problem", "path", path, "problem", msg)
	})
	p.FilePath = path
	if p.ID == "" {
		p.ID = PlatformName(path)
	}
	return p
}

// Get returns the playlist and its revision. The playlist is shared and
// must not be modified.
func (s *PlaylistStore) Get(id string) (*domain.Playlist, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.playlists[id]
	return e.playlist, e.revision, ok
}

// Revision returns the current revision of the playlist.
func (s *PlaylistStore) Revision(id string) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.playlists[id]
	return e.revision, ok
}

// All returns every playlist ordered by title.
func (s *PlaylistStore) All() []*domain.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Playlist, 0, len(s.playlists))
	for _, id := range slices.Sorted(maps.Keys(s.playlists)) {
		out = append(out, s.playlists[id].playlist)
	}
	slices.SortStableFunc(out, func(a, b *domain.Playlist) int {
		return cmp.Compare(normalize.Fold(a.Title), normalize.Fold(b.Title))
	})
	return out
}

// PlaylistPath returns the file a playlist with the given id is saved to.
func (s *PlaylistStore) PlaylistPath(id string) string {
	return filepath.Join(s.Dir(), id+".xml")
}

// Create adds a new playlist. Its file path is assigned when empty.
func (s *PlaylistStore) Create(ctx context.Context, p *domain.Playlist, persist PlaylistPersistFunc) (*domain.Playlist, error) {
	if p.ID == "" {
		return nil, errors.Validationf("playlist id is required")
	}

	defer s.gate.lock(p.ID)()
	if _, _, exists := s.Get(p.ID); exists {
		return nil, errors.AlreadyExistsf("playlist %q already exists", p.ID)
	}

	next := p.Clone()
	if next.FilePath == "" {
		next.FilePath = s.PlaylistPath(next.ID)
	}
	written, err := runPlaylistPersist(ctx, persist, next)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.putLocked(next)
	s.mu.Unlock()

	s.recordWrite(next.FilePath, written)
	return next, nil
}

// Update applies edit to a copy of the playlist, persists it, and swaps
// it in. On failure the stored playlist is unchanged.
func (s *PlaylistStore) Update(ctx context.Context, id string, edit func(*domain.Playlist) error, persist PlaylistPersistFunc) (*domain.Playlist, error) {
	defer s.gate.lock(id)()

	current, _, ok := s.Get(id)
	if !ok {
		return nil, errors.NotFoundf("playlist %q not found", id)
	}

	next := current.Clone()
	if err := edit(next); err != nil {
		return nil, err
	}
	next.ID = id
	next.FilePath = current.FilePath
	written, err := runPlaylistPersist(ctx, persist, next)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.playlists[id].playlist != current {
		s.mu.Unlock()
		return nil, errors.Internalf("playlist %q replaced while locked for update", id)
	}
	s.putLocked(next)
	s.mu.Unlock()

	s.recordWrite(next.FilePath, written)
	return next, nil
}

func (s *PlaylistStore) putLocked(p *domain.Playlist) {
	s.revision++
	s.playlists[p.ID] = playlistEntry{playlist: p, revision: s.revision}
	s.byPath[p.FilePath] = p.ID
}

// Delete removes the playlist, after persist (if any) succeeded.
func (s *PlaylistStore) Delete(ctx context.Context, id string, persist PlaylistPersistFunc) (*domain.Playlist, error) {
	defer s.gate.lock(id)()

	current, _, ok := s.Get(id)
	if !ok {
		return nil, errors.NotFoundf("playlist %q not found", id)
	}
	if _, err := runPlaylistPersist(ctx, persist, current); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(current)
	return current, nil
}

func (s *PlaylistStore) deleteLocked(p *domain.Playlist) {
	delete(s.playlists, p.ID)
	delete(s.byPath, p.FilePath)
	s.echoes.forget(p.FilePath)
	// Bump so a cached result for the deleted id can never be revived by
	// a new playlist that reuses it.
	s.revision++
}

// ReloadFile re-reads one playlist file after an outside edit. Content
// this process wrote itself is skipped.
func (s *PlaylistStore) ReloadFile(path string) (bool, error) {
	defer s.gate.lockAll()()

	raw, err := os.ReadFile(path)
	if err != nil {
		return false, newLoadError(path, err)
	}
	if s.echoes.matches(path, raw) {
		s.logger.Debug("skipping reload of own write", "path", path)
		return false, nil
	}

	p := s.decode(path, raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := s.playlists[p.ID]; ok && other.playlist.FilePath != path {
		return false, newLoadError(path, errors.Conflictf("playlist %q already loaded from %s", p.ID, other.playlist.FilePath))
	}
	if oldID, ok := s.byPath[path]; ok && oldID != p.ID {
		delete(s.playlists, oldID)
	}
	s.putLocked(p)
	s.logger.Info("playlist reloaded", "playlist", p.ID, "games", len(p.Games))
	return true, nil
}

// RemoveFile drops the playlist loaded from path, if any.
func (s *PlaylistStore) RemoveFile(path string) bool {
	defer s.gate.lockAll()()

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPath[path]
	if !ok {
		return false
	}
	s.deleteLocked(s.playlists[id].playlist)
	s.logger.Info("playlist file removed", "playlist", id)
	return true
}

func runPlaylistPersist(ctx context.Context, persist PlaylistPersistFunc, p *domain.Playlist) ([]byte, error) {
	if persist == nil {
		return nil, nil
	}
	return persist(ctx, p)
}

// recordWrite remembers committed content this process wrote to path.
func (s *PlaylistStore) recordWrite(path string, data []byte) {
	if data != nil {
		s.echoes.record(path, data)
	}
}
