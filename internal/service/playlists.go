package service

import (
	"context"
	"slices"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/id"
	"github.com/colin969/exodos-launcher/internal/launchbox"
	"github.com/colin969/exodos-launcher/internal/store"
	"github.com/colin969/exodos-launcher/internal/taskqueue"
)

// PlaylistResult is a changed playlist and what happened to its file.
// With playlist writing disabled the change is live in memory and
// Outcome is "suppressed".
type PlaylistResult struct {
	Playlist *domain.Playlist      `json:"playlist"`
	Outcome  launchbox.SaveOutcome `json:"outcome"`
}

// PlaylistGame joins an entry with its game.
type PlaylistGame struct {
	Entry domain.PlaylistEntry `json:"entry"`
	Game  *domain.Game         `json:"game"`
}

// PlaylistGamesResult is a playlist's entries resolved against the loaded
// games. Entries whose game is not loaded are listed in Missing, and
// Reference carries a REFERENCE error naming them.
type PlaylistGamesResult struct {
	Playlist  *domain.Playlist `json:"playlist"`
	Games     []PlaylistGame   `json:"games"`
	Missing   []string         `json:"missing"`
	Reference *errors.Error    `json:"reference,omitempty"`
}

// LoadPlaylists (re)loads every playlist file under path, or under the
// configured directory when path is empty.
func (s *LibraryService) LoadPlaylists(ctx context.Context, path string) (*store.LoadResult, error) {
	if path == "" {
		path = s.cfg.PlaylistsPath
	}
	res, err := s.playlists.LoadPlaylists(ctx, path)
	if err != nil {
		return nil, err
	}
	s.stages[StagePlaylists].complete()
	return res, nil
}

// Playlists returns every playlist ordered by title.
func (s *LibraryService) Playlists(ctx context.Context) ([]*domain.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.playlists.All(), nil
}

// GetPlaylist returns one playlist.
func (s *LibraryService) GetPlaylist(ctx context.Context, playlistID string) (*domain.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, _, ok := s.playlists.Get(playlistID)
	if !ok {
		return nil, errors.NotFoundf("playlist %q not found", playlistID)
	}
	return p, nil
}

// PlaylistGames resolves a playlist's entries in playlist order. Dangling
// entries are reported, not dropped from the playlist.
func (s *LibraryService) PlaylistGames(ctx context.Context, playlistID string) (*PlaylistGamesResult, error) {
	p, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	res := &PlaylistGamesResult{Playlist: p, Games: []PlaylistGame{}, Missing: []string{}}
	for _, e := range p.Games {
		g, _, ok := s.games.FindGame(e.ID)
		if !ok {
			res.Missing = append(res.Missing, e.ID)
			continue
		}
		res.Games = append(res.Games, PlaylistGame{Entry: e, Game: g})
	}
	if len(res.Missing) > 0 {
		res.Reference = errors.Referencef("playlist %q references %d games that are not loaded",
			playlistID, len(res.Missing)).WithDetails(map[string]any{"missing": res.Missing})
		s.logger.Debug("playlist references games that are not loaded",
			"playlist_id", playlistID, "missing", len(res.Missing))
	}
	return res, nil
}

// CreatePlaylist creates an empty playlist.
func (s *LibraryService) CreatePlaylist(ctx context.Context, in domain.PlaylistInput) (*PlaylistResult, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	playlistID, err := id.NewPlaylistID()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate playlist id")
	}

	p := domain.NewPlaylist()
	p.ID = playlistID
	in.Apply(p)

	res, err := s.writePlaylist(ctx, playlistID, func(ctx context.Context, outcome *launchbox.SaveOutcome) (*domain.Playlist, error) {
		return s.playlists.Create(ctx, p, s.persistPlaylist(outcome))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("playlist created", "playlist_id", playlistID, "title", p.Title, "outcome", res.Outcome)
	return res, nil
}

// EditPlaylist replaces the editable fields of a playlist. Entries are
// left alone.
func (s *LibraryService) EditPlaylist(ctx context.Context, playlistID string, in domain.PlaylistInput) (*PlaylistResult, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	res, err := s.updatePlaylist(ctx, playlistID, func(p *domain.Playlist) error {
		in.Apply(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("playlist edited", "playlist_id", playlistID, "outcome", res.Outcome)
	return res, nil
}

// DeletePlaylist removes a playlist and its file.
func (s *LibraryService) DeletePlaylist(ctx context.Context, playlistID string) (*PlaylistResult, error) {
	res, err := s.writePlaylist(ctx, playlistID, func(ctx context.Context, outcome *launchbox.SaveOutcome) (*domain.Playlist, error) {
		return s.playlists.Delete(ctx, playlistID, s.removePlaylistFile(outcome))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("playlist deleted", "playlist_id", playlistID, "outcome", res.Outcome)
	return res, nil
}

// AddPlaylistEntry appends a game to a playlist. The game must be loaded
// and not already listed.
func (s *LibraryService) AddPlaylistEntry(ctx context.Context, playlistID, gameID string) (*PlaylistResult, error) {
	if !s.games.HasGame(gameID) {
		return nil, errors.NotFoundf("game %q not found", gameID)
	}
	res, err := s.updatePlaylist(ctx, playlistID, func(p *domain.Playlist) error {
		if p.Contains(gameID) {
			return errors.AlreadyExistsf("game %q is already in playlist %q", gameID, playlistID)
		}
		p.Games = append(p.Games, domain.PlaylistEntry{ID: gameID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("playlist entry added", "playlist_id", playlistID, "game_id", gameID, "outcome", res.Outcome)
	return res, nil
}

// RemovePlaylistEntry removes a game from a playlist. Dangling entries
// can be removed too.
func (s *LibraryService) RemovePlaylistEntry(ctx context.Context, playlistID, gameID string) (*PlaylistResult, error) {
	res, err := s.updatePlaylist(ctx, playlistID, func(p *domain.Playlist) error {
		n := len(p.Games)
		p.Games = slices.DeleteFunc(p.Games, func(e domain.PlaylistEntry) bool { return e.ID == gameID })
		if len(p.Games) == n {
			return errors.NotFoundf("game %q is not in playlist %q", gameID, playlistID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("playlist entry removed", "playlist_id", playlistID, "game_id", gameID, "outcome", res.Outcome)
	return res, nil
}

func (s *LibraryService) updatePlaylist(ctx context.Context, playlistID string, edit func(*domain.Playlist) error) (*PlaylistResult, error) {
	if _, _, ok := s.playlists.Get(playlistID); !ok {
		return nil, errors.NotFoundf("playlist %q not found", playlistID)
	}
	return s.writePlaylist(ctx, playlistID, func(ctx context.Context, outcome *launchbox.SaveOutcome) (*domain.Playlist, error) {
		return s.playlists.Update(ctx, playlistID, edit, s.persistPlaylist(outcome))
	})
}

// writePlaylist runs op on the playlist's queue lane and evicts cached
// results restricted to it.
func (s *LibraryService) writePlaylist(ctx context.Context, playlistID string, op func(context.Context, *launchbox.SaveOutcome) (*domain.Playlist, error)) (*PlaylistResult, error) {
	fut := taskqueue.Enqueue(s.queue, playlistKey(playlistID), func(ctx context.Context) (*PlaylistResult, error) {
		var outcome launchbox.SaveOutcome
		p, err := op(ctx, &outcome)
		if err != nil {
			return nil, err
		}
		return &PlaylistResult{Playlist: p, Outcome: outcome}, nil
	})
	res, err := fut.Wait(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePlaylist(playlistID)
	return res, nil
}
