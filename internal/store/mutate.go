package store

import (
	"context"
	"slices"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
)

// PersistFunc writes a platform before it becomes visible and returns the
// bytes that reached disk, or nil when nothing was written. A nil
// PersistFunc keeps the change in memory only. For removals the platform
// passed is the one being dropped.
type PersistFunc func(ctx context.Context, p *domain.Platform) ([]byte, error)

// AddGame appends g to the named platform. The game gets the platform's
// name and library when it has none.
func (s *Store) AddGame(ctx context.Context, platform string, g *domain.Game, persist PersistFunc) (*domain.Game, error) {
	if g == nil || g.ID == "" {
		return nil, errors.Validationf("game id is required")
	}
	if s.HasGame(g.ID) {
		return nil, errors.AlreadyExistsf("game %q already exists", g.ID)
	}

	added := g.Clone()
	err := s.mutate(ctx, platform, persist, func(p *domain.Platform) error {
		if p.IndexOf(added.ID) >= 0 {
			return errors.AlreadyExistsf("game %q already exists in %s", added.ID, p.Name)
		}
		if added.Platform == "" {
			added.Platform = p.Name
		}
		if added.Library == "" {
			added.Library = p.Library
		}
		added.Derive()
		p.Games = append(p.Games, added)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// UpdateGame replaces the game with the same id by a patched copy. The
// edit function receives a private clone.
func (s *Store) UpdateGame(ctx context.Context, id string, edit func(*domain.Game) error, persist PersistFunc) (*domain.Game, error) {
	_, owner, ok := s.FindGame(id)
	if !ok {
		return nil, errors.NotFoundf("game %q not found", id)
	}

	var updated *domain.Game
	err := s.mutate(ctx, owner.Name, persist, func(p *domain.Platform) error {
		i := p.IndexOf(id)
		if i < 0 {
			return errors.NotFoundf("game %q not found in %s", id, p.Name)
		}
		next := p.Games[i].Clone()
		if err := edit(next); err != nil {
			return err
		}
		next.ID = id
		p.Games[i] = next
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveGame drops the game with the given id and returns it.
func (s *Store) RemoveGame(ctx context.Context, id string, persist PersistFunc) (*domain.Game, error) {
	_, owner, ok := s.FindGame(id)
	if !ok {
		return nil, errors.NotFoundf("game %q not found", id)
	}

	var removed *domain.Game
	err := s.mutate(ctx, owner.Name, persist, func(p *domain.Platform) error {
		i := p.IndexOf(id)
		if i < 0 {
			return errors.NotFoundf("game %q not found in %s", id, p.Name)
		}
		removed = p.Games[i]
		p.Games = slices.Delete(p.Games, i, i+1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// AddPlatform creates an empty platform called name in lib.
func (s *Store) AddPlatform(ctx context.Context, name, lib string, persist PersistFunc) (*domain.Platform, error) {
	if name == "" {
		return nil, errors.Validationf("platform name is required")
	}
	if lib == "" {
		lib = s.defaultLibrary
	}

	p := &domain.Platform{
		Name:     name,
		Library:  lib,
		FilePath: s.PlatformPath(name, lib),
		Games:    []*domain.Game{},
	}
	gen, err := s.addPlatform(ctx, p, persist)
	if err != nil {
		return nil, err
	}
	s.notify(Change{Library: lib, Generation: gen})
	return p, nil
}

func (s *Store) addPlatform(ctx context.Context, p *domain.Platform, persist PersistFunc) (uint64, error) {
	defer s.gate.lock(p.Name)()

	if _, exists := s.Platform(p.Name); exists {
		return 0, errors.AlreadyExistsf("platform %q already exists", p.Name)
	}
	written, err := runPersist(ctx, persist, p)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	gen := s.swapLocked(p.Name, p)
	s.mu.Unlock()

	s.recordWrite(p.FilePath, written)
	return gen, nil
}

// RemovePlatform drops the named platform and all of its games.
func (s *Store) RemovePlatform(ctx context.Context, name string, persist PersistFunc) error {
	p, gen, err := s.removePlatform(ctx, name, persist)
	if err != nil {
		return err
	}
	s.notify(Change{Library: p.Library, Generation: gen})
	return nil
}

func (s *Store) removePlatform(ctx context.Context, name string, persist PersistFunc) (*domain.Platform, uint64, error) {
	defer s.gate.lock(name)()

	p, ok := s.Platform(name)
	if !ok {
		return nil, 0, errors.NotFoundf("platform %q not found", name)
	}
	if _, err := runPersist(ctx, persist, p); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	gen := s.swapLocked(name, nil)
	s.mu.Unlock()

	s.echoes.forget(p.FilePath)
	return p, gen, nil
}

// mutate applies edit to a clone of the named platform, persists the
// clone, then swaps it in. If any step fails the store is unchanged.
// Reloads from disk wait until the swap is done, so a persisted change is
// never lost to a reload that read the file first.
func (s *Store) mutate(ctx context.Context, name string, persist PersistFunc, edit func(*domain.Platform) error) error {
	next, gen, err := s.commit(ctx, name, persist, edit)
	if err != nil {
		return err
	}
	s.notify(Change{Library: next.Library, Generation: gen})
	return nil
}

func (s *Store) commit(ctx context.Context, name string, persist PersistFunc, edit func(*domain.Platform) error) (*domain.Platform, uint64, error) {
	defer s.gate.lock(name)()

	current, ok := s.Platform(name)
	if !ok {
		return nil, 0, errors.NotFoundf("platform %q not found", name)
	}

	next := current.Clone()
	if err := edit(next); err != nil {
		return nil, 0, err
	}
	written, err := runPersist(ctx, persist, next)
	if err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	if s.platforms[name] != current {
		s.mu.Unlock()
		return nil, 0, errors.Internalf("platform %q replaced while locked for update", name)
	}
	gen := s.swapLocked(name, next)
	s.mu.Unlock()

	s.recordWrite(next.FilePath, written)
	return next, gen, nil
}

func runPersist(ctx context.Context, persist PersistFunc, p *domain.Platform) ([]byte, error) {
	if persist == nil {
		return nil, nil
	}
	return persist(ctx, p)
}

// recordWrite remembers content this process wrote to path, so the
// watcher event it triggers does not cause a reload. Only committed
// writes are recorded.
func (s *Store) recordWrite(path string, data []byte) {
	if data != nil {
		s.echoes.record(path, data)
	}
}
