// Package store holds the loaded platforms and playlists in memory.
//
// Platforms are copy-on-write: a mutation edits a clone, optionally
// persists it, and only then swaps it in. Readers therefore always see
// either the old or the new platform, never a half-applied edit.
package store

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/normalize"
)

// Change describes a store mutation to listeners.
type Change struct {
	// Library is the affected library. Empty for a full reload.
	Library    string
	Generation uint64
	// Reload is set when the whole platform set was replaced.
	Reload bool
}

// ChangeListener is called after every committed mutation, outside the
// store lock.
type ChangeListener func(Change)

// Store owns every loaded platform.
type Store struct {
	logger         *slog.Logger
	defaultLibrary string
	echoes         *echoSet
	gate           writeGate

	mu        sync.RWMutex
	dir       string
	platforms map[string]*domain.Platform // by name
	byPath    map[string]string           // file path -> platform name
	index     map[string]string           // game id -> platform name

	generation uint64
	libGen     map[string]uint64
	reloadGen  uint64

	listenerMu sync.RWMutex
	listeners  []ChangeListener
}

// New creates an empty store. Platforms found directly in the platforms
// directory belong to defaultLibrary.
func New(logger *slog.Logger, defaultLibrary string) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if defaultLibrary == "" {
		defaultLibrary = domain.DefaultLibrary
	}
	return &Store{
		logger:         logger,
		defaultLibrary: defaultLibrary,
		echoes:         newEchoSet(),
		platforms:      make(map[string]*domain.Platform),
		byPath:         make(map[string]string),
		index:          make(map[string]string),
		libGen:         make(map[string]uint64),
	}
}

// OnChange registers a listener.
func (s *Store) OnChange(l ChangeListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(c Change) {
	s.listenerMu.RLock()
	listeners := slices.Clone(s.listeners)
	s.listenerMu.RUnlock()
	for _, l := range listeners {
		l(c)
	}
}

// Dir returns the directory the platforms were last loaded from.
func (s *Store) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// DefaultLibrary returns the library of platforms outside a library folder.
func (s *Store) DefaultLibrary() string {
	return s.defaultLibrary
}

// Generation returns the store-wide generation. It grows with every
// mutation and reload.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// LibraryGeneration returns the generation of the last change that
// affected lib. An empty lib means every library.
func (s *Store) LibraryGeneration(lib string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.libraryGenerationLocked(lib)
}

func (s *Store) libraryGenerationLocked(lib string) uint64 {
	if lib == "" {
		return s.generation
	}
	return max(s.libGen[lib], s.reloadGen)
}

// Platforms returns summaries of every platform ordered by name.
func (s *Store) Platforms() []domain.PlatformSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PlatformSummary, 0, len(s.platforms))
	for _, p := range s.sortedLocked() {
		out = append(out, p.Summary())
	}
	return out
}

// Platform returns the named platform. The result is shared and must not
// be modified.
func (s *Store) Platform(name string) (*domain.Platform, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.platforms[name]
	return p, ok
}

// Libraries returns the distinct libraries, sorted.
func (s *Store) Libraries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]struct{})
	for _, p := range s.platforms {
		set[p.Library] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Games returns every game of lib (all libraries when empty), platform
// by platform in name order.
func (s *Store) Games(lib string) []*domain.Game {
	games, _ := s.Snapshot(lib)
	return games
}

// Snapshot returns the games of lib together with the generation they
// belong to. Both are read under one lock, so the pair is consistent.
// Games are never edited in place; the slice stays valid after later
// mutations.
func (s *Store) Snapshot(lib string) ([]*domain.Game, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	platforms := s.sortedLocked()
	for _, p := range platforms {
		if lib == "" || p.Library == lib {
			n += len(p.Games)
		}
	}
	games := make([]*domain.Game, 0, n)
	for _, p := range platforms {
		if lib == "" || p.Library == lib {
			games = append(games, p.Games...)
		}
	}
	return games, s.libraryGenerationLocked(lib)
}

// FindGame looks a game up by id and returns it with its platform.
func (s *Store) FindGame(id string) (*domain.Game, *domain.Platform, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findGameLocked(id)
}

func (s *Store) findGameLocked(id string) (*domain.Game, *domain.Platform, bool) {
	name, ok := s.index[id]
	if !ok {
		return nil, nil, false
	}
	p := s.platforms[name]
	if p == nil {
		return nil, nil, false
	}
	g, ok := p.Game(id)
	if !ok {
		return nil, nil, false
	}
	return g, p, true
}

// HasGame reports whether a game with the given id is loaded.
func (s *Store) HasGame(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

func (s *Store) sortedLocked() []*domain.Platform {
	out := slices.Collect(maps.Values(s.platforms))
	slices.SortFunc(out, func(a, b *domain.Platform) int {
		return cmp.Or(
			cmp.Compare(normalize.Fold(a.Name), normalize.Fold(b.Name)),
			cmp.Compare(a.Name, b.Name),
		)
	})
	return out
}

// swapLocked replaces (or removes, when next is nil) the platform called
// name and keeps the path and id indexes in step. It bumps the generation
// of every library it touches and returns the new generation.
func (s *Store) swapLocked(name string, next *domain.Platform) uint64 {
	prev := s.platforms[name]
	var dropped []string
	if prev != nil {
		delete(s.byPath, prev.FilePath)
		for _, g := range prev.Games {
			if s.index[g.ID] == name {
				delete(s.index, g.ID)
				dropped = append(dropped, g.ID)
			}
		}
	}

	if next != nil {
		s.platforms[name] = next
		s.byPath[next.FilePath] = name
		s.indexLocked(next)
	} else {
		delete(s.platforms, name)
	}
	s.reindexLocked(dropped)

	s.generation++
	if prev != nil {
		s.libGen[prev.Library] = s.generation
	}
	if next != nil {
		s.libGen[next.Library] = s.generation
	}
	return s.generation
}

// reindexLocked hands ids that lost their owner to the first remaining
// platform, in name order, that still holds a game with that id.
func (s *Store) reindexLocked(ids []string) {
	orphans := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, owned := s.index[id]; !owned {
			orphans[id] = struct{}{}
		}
	}
	if len(orphans) == 0 {
		return
	}
	for _, p := range s.sortedLocked() {
		for _, g := range p.Games {
			if _, ok := orphans[g.ID]; ok {
				s.index[g.ID] = p.Name
				delete(orphans, g.ID)
			}
		}
		if len(orphans) == 0 {
			return
		}
	}
}

func (s *Store) indexLocked(p *domain.Platform) {
	for _, g := range p.Games {
		if owner, dup := s.index[g.ID]; dup && owner != p.Name {
			s.logger.Debug("duplicate game id across platforms",
				"id", g.ID, "kept", owner, "ignored", p.Name)
			continue
		}
		s.index[g.ID] = p.Name
	}
}
