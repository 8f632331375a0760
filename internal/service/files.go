package service

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/colin969/exodos-launcher/internal/store"
	"github.com/colin969/exodos-launcher/internal/taskqueue"
)

// FileKind says which store a changed file belongs to.
type FileKind int

const (
	FileOther FileKind = iota
	FilePlatform
	FilePlaylist
)

// ClassifyFile reports whether path is a platform or playlist file in the
// loaded directories.
func (s *LibraryService) ClassifyFile(path string) FileKind {
	if !store.IsXMLFile(path) {
		return FileOther
	}
	switch {
	case within(s.games.Dir(), path):
		return FilePlatform
	case within(s.playlists.Dir(), path):
		return FilePlaylist
	}
	return FileOther
}

// ReloadFile applies an outside edit of a platform or playlist file. It
// runs on the same queue lane as edits made through the service, so an
// outside edit never interleaves with a save of the same file.
func (s *LibraryService) ReloadFile(ctx context.Context, path string) (bool, error) {
	switch s.ClassifyFile(path) {
	case FilePlatform:
		fut := taskqueue.Enqueue(s.queue, platformKey(store.PlatformName(path)), func(context.Context) (bool, error) {
			return s.games.ReloadPlatformFile(path)
		})
		return fut.Wait(ctx)
	case FilePlaylist:
		playlistID := store.PlatformName(path)
		fut := taskqueue.Enqueue(s.queue, playlistKey(playlistID), func(context.Context) (bool, error) {
			return s.playlists.ReloadFile(path)
		})
		changed, err := fut.Wait(ctx)
		if changed {
			s.cache.InvalidatePlaylist(playlistID)
		}
		return changed, err
	}
	return false, nil
}

// RemoveFile drops whatever was loaded from a deleted file.
func (s *LibraryService) RemoveFile(ctx context.Context, path string) (bool, error) {
	switch s.ClassifyFile(path) {
	case FilePlatform:
		fut := taskqueue.Enqueue(s.queue, platformKey(store.PlatformName(path)), func(context.Context) (bool, error) {
			return s.games.RemovePlatformFile(path), nil
		})
		return fut.Wait(ctx)
	case FilePlaylist:
		playlistID := store.PlatformName(path)
		fut := taskqueue.Enqueue(s.queue, playlistKey(playlistID), func(context.Context) (bool, error) {
			return s.playlists.RemoveFile(path), nil
		})
		removed, err := fut.Wait(ctx)
		if removed {
			s.cache.InvalidatePlaylist(playlistID)
		}
		return removed, err
	}
	return false, nil
}

func within(dir, path string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
