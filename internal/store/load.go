package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/launchbox"
)

// maxParallelLoads bounds concurrent file reads during a full load.
const maxParallelLoads = 8

// LoadError reports one file that could not be loaded.
type LoadError struct {
	FilePath string `json:"file_path"`
	Cause    string `json:"cause"`
	err      error
}

func newLoadError(path string, err error) *LoadError {
	return &LoadError{FilePath: path, Cause: err.Error(), err: err}
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s", e.FilePath, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.err }

// LoadResult is the best-effort outcome of a batch load.
type LoadResult struct {
	Loaded []string     `json:"loaded"`
	Errors []*LoadError `json:"errors"`
}

// Err joins the collected load errors, or returns nil.
func (r *LoadResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// IsXMLFile reports whether path looks like a LaunchBox data file.
func IsXMLFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}

// listXMLFiles returns every xml file below dir, sorted.
func listXMLFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeLoad, "read directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(fmt.Errorf("not a directory"), errors.CodeLoad, "read directory %s", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// An unreadable subdirectory is skipped, not fatal.
			if path != dir && d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() && IsXMLFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeLoad, "walk directory %s", dir)
	}
	slices.Sort(files)
	return files, nil
}

// LoadPlatforms loads every platform file under dir and replaces the
// loaded set. Files that fail are reported in the result; the rest still
// load. A missing or unreadable dir is an error and leaves the store as
// it was. Writes in flight finish before the files are read.
func (s *Store) LoadPlatforms(ctx context.Context, dir string) (*LoadResult, error) {
	result, gen, err := s.loadPlatforms(ctx, dir)
	if err != nil {
		return nil, err
	}

	for _, e := range result.Errors {
		s.logger.Warn("platform failed to load", "path", e.FilePath, "error", e.Cause)
	}
	s.logger.Info("platforms loaded", "dir", dir, "platforms", len(result.Loaded), "errors", len(result.Errors))

	s.notify(Change{Generation: gen, Reload: true})
	return result, nil
}

func (s *Store) loadPlatforms(ctx context.Context, dir string) (*LoadResult, uint64, error) {
	defer s.gate.lockAll()()

	files, err := listXMLFiles(dir)
	if err != nil {
		return nil, 0, err
	}

	loaded := make([]*domain.Platform, len(files))
	loadErrs := make([]*LoadError, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := s.readPlatform(dir, path)
			if err != nil {
				loadErrs[i] = newLoadError(path, err)
				return nil
			}
			loaded[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("load platforms: %w", err)
	}

	result := &LoadResult{Loaded: []string{}, Errors: []*LoadError{}}
	platforms := make(map[string]*domain.Platform, len(files))
	for i, p := range loaded {
		if p == nil {
			result.Errors = append(result.Errors, loadErrs[i])
			continue
		}
		if other, dup := platforms[p.Name]; dup {
			result.Errors = append(result.Errors, newLoadError(p.FilePath,
				errors.Conflictf("platform %q already loaded from %s", p.Name, other.FilePath)))
			continue
		}
		platforms[p.Name] = p
		result.Loaded = append(result.Loaded, p.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = dir
	s.platforms = platforms
	s.byPath = make(map[string]string, len(platforms))
	s.index = make(map[string]string)
	for _, name := range result.Loaded {
		p := platforms[name]
		s.byPath[p.FilePath] = name
		s.indexLocked(p)
	}
	s.generation++
	s.reloadGen = s.generation
	return result, s.generation, nil
}

// ReloadPlatformFile re-reads one platform file after an outside edit.
// Content this process wrote itself is recognised and skipped; the
// returned bool reports whether the store changed.
func (s *Store) ReloadPlatformFile(path string) (bool, error) {
	p, gen, err := s.reloadPlatformFile(path)
	if err != nil || p == nil {
		return false, err
	}
	s.logger.Info("platform reloaded", "platform", p.Name, "games", len(p.Games))
	s.notify(Change{Library: p.Library, Generation: gen})
	return true, nil
}

func (s *Store) reloadPlatformFile(path string) (*domain.Platform, uint64, error) {
	defer s.gate.lockAll()()

	dir := s.Dir()
	if dir == "" {
		return nil, 0, errors.Internalf("platforms have not been loaded")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, newLoadError(path, err)
	}
	if s.echoes.matches(path, raw) {
		s.logger.Debug("skipping reload of own write", "path", path)
		return nil, 0, nil
	}

	p, err := s.decodePlatform(dir, path, raw)
	if err != nil {
		return nil, 0, newLoadError(path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.platforms[p.Name]; ok && owner.FilePath != path {
		return nil, 0, newLoadError(path, errors.Conflictf("platform %q already loaded from %s", p.Name, owner.FilePath))
	}
	return p, s.swapLocked(p.Name, p), nil
}

// RemovePlatformFile drops the platform loaded from path, if any.
func (s *Store) RemovePlatformFile(path string) bool {
	release := s.gate.lockAll()

	s.mu.Lock()
	name, ok := s.byPath[path]
	if !ok {
		s.mu.Unlock()
		release()
		return false
	}
	lib := s.platforms[name].Library
	gen := s.swapLocked(name, nil)
	s.mu.Unlock()

	s.echoes.forget(path)
	release()

	s.logger.Info("platform file removed", "platform", name)
	s.notify(Change{Library: lib, Generation: gen})
	return true
}

func (s *Store) readPlatform(dir, path string) (*domain.Platform, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.decodePlatform(dir, path, raw)
}

func (s *Store) decodePlatform(dir, path string, raw []byte) (*domain.Platform, error) {
	var warns int
	file, err := launchbox.DecodePlatform(raw, func(msg string) {
		warns++
		s.logger.Debug("platform field coerced", "path", path, "problem", msg)
	})
	if err != nil {
		return nil, err
	}

	p := &domain.Platform{
		Name:     PlatformName(path),
		FilePath: path,
		Library:  s.libraryFor(dir, path),
		Games:    file.Games,
		Extra:    file.Extra,
	}
	for _, g := range p.Games {
		if g.Library == "" {
			g.Library = p.Library
		}
		if g.Platform == "" {
			g.Platform = p.Name
		}
	}
	if warns > 0 {
		s.logger.Warn("platform loaded with coerced fields", "platform", p.Name, "count", warns)
	}
	return p, nil
}

// PlatformName derives a platform name from its file name.
func PlatformName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// libraryFor returns the first directory below dir that contains path,
// or the default library for files directly in dir.
func (s *Store) libraryFor(dir, path string) string {
	rel, err := filepath.Rel(dir, filepath.Dir(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return s.defaultLibrary
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first
}

// PlatformPath returns where a new platform file for name in lib lives.
func (s *Store) PlatformPath(name, lib string) string {
	dir := s.Dir()
	if lib == "" || lib == s.defaultLibrary {
		return filepath.Join(dir, name+".xml")
	}
	return filepath.Join(dir, lib, name+".xml")
}
