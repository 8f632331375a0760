package backend

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/service"
	"github.com/colin969/exodos-launcher/internal/store"
	"github.com/colin969/exodos-launcher/internal/watcher"
)

// Request kinds.
const (
	KindSearch              Kind = "search"
	KindMutateGame          Kind = "mutateGame"
	KindAddGame             Kind = "addGame"
	KindRemoveGame          Kind = "removeGame"
	KindAddPlatform         Kind = "addPlatform"
	KindRemovePlatform      Kind = "removePlatform"
	KindCreatePlaylist      Kind = "createPlaylist"
	KindEditPlaylist        Kind = "editPlaylist"
	KindDeletePlaylist      Kind = "deletePlaylist"
	KindAddPlaylistEntry    Kind = "addPlaylistEntry"
	KindRemovePlaylistEntry Kind = "removePlaylistEntry"
	KindLoadPlatforms       Kind = "loadPlatforms"
	KindLoadPlaylists       Kind = "loadPlaylists"
	KindGetGame             Kind = "getGame"
	KindGetPlatforms        Kind = "getPlatforms"
	KindGetPlaylists        Kind = "getPlaylists"
	KindGetPlaylistGames    Kind = "getPlaylistGames"
	KindGetFilterValues     Kind = "getFilterValues"
	KindCloseView           Kind = "closeView"
	KindInitStatus          Kind = "initStatus"
)

// Payloads.
type (
	// IDPayload names one game, playlist or platform.
	IDPayload struct {
		ID string `json:"id"`
	}

	// PathPayload names a directory to load. Empty means the configured one.
	PathPayload struct {
		Path string `json:"path"`
	}

	// MutateGamePayload patches one game.
	MutateGamePayload struct {
		ID    string           `json:"id"`
		Patch domain.GamePatch `json:"patch"`
	}

	// PlatformPayload creates a platform.
	PlatformPayload struct {
		Name    string `json:"name"`
		Library string `json:"library"`
	}

	// EditPlaylistPayload replaces a playlist's editable fields.
	EditPlaylistPayload struct {
		ID       string               `json:"id"`
		Playlist domain.PlaylistInput `json:"playlist"`
	}

	// PlaylistEntryPayload adds or removes one playlist entry.
	PlaylistEntryPayload struct {
		PlaylistID string `json:"playlist_id"`
		GameID     string `json:"game_id"`
	}

	// FilterValuesPayload asks for filter picker values.
	FilterValuesPayload struct {
		View  string       `json:"view"`
		Query domain.Query `json:"query"`
	}

	// ViewPayload names a view.
	ViewPayload struct {
		View string `json:"view"`
	}
)

// InitStatus reports which initialization stages are done, with runtime
// counters. Watch is absent while file watching is off.
type InitStatus struct {
	Stages map[service.Stage]bool `json:"stages"`
	Ready  bool                   `json:"ready"`
	Stats  service.Stats          `json:"stats"`
	Watch  *watcher.ReloaderStats `json:"watch,omitempty"`
}

// handle adapts a typed operation to a handlerFunc. A missing payload
// decodes as the zero value.
func handle[In, Out any](fn func(ctx context.Context, in In) (Out, error)) handlerFunc {
	return func(ctx context.Context, payload jsontext.Value) (any, error) {
		var in In
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &in); err != nil {
				return nil, errors.Validationf("invalid payload: %v", err)
			}
		}
		return fn(ctx, in)
	}
}

func requireID(kind, id string) error {
	if id == "" {
		return errors.ValidationWithDetails("validation failed: id is required", map[string]string{kind: "is required"})
	}
	return nil
}

func (d *Dispatcher) registerHandlers() {
	svc := d.svc

	d.handlers[KindSearch] = handle(svc.Search)

	d.handlers[KindMutateGame] = handle(func(ctx context.Context, in MutateGamePayload) (*service.GameResult, error) {
		if err := requireID("id", in.ID); err != nil {
			return nil, err
		}
		return svc.MutateGame(ctx, in.ID, in.Patch)
	})
	d.handlers[KindAddGame] = handle(svc.AddGame)
	d.handlers[KindRemoveGame] = handle(func(ctx context.Context, in IDPayload) (*service.GameResult, error) {
		if err := requireID("id", in.ID); err != nil {
			return nil, err
		}
		return svc.RemoveGame(ctx, in.ID)
	})
	d.handlers[KindGetGame] = handle(func(ctx context.Context, in IDPayload) (*domain.Game, error) {
		return svc.GetGame(ctx, in.ID)
	})

	d.handlers[KindAddPlatform] = handle(func(ctx context.Context, in PlatformPayload) (*service.PlatformResult, error) {
		return svc.AddPlatform(ctx, in.Name, in.Library)
	})
	d.handlers[KindRemovePlatform] = handle(func(ctx context.Context, in IDPayload) (*service.PlatformResult, error) {
		return svc.RemovePlatform(ctx, in.ID)
	})
	d.handlers[KindGetPlatforms] = handle(func(ctx context.Context, _ struct{}) ([]domain.PlatformSummary, error) {
		return svc.Platforms(ctx)
	})
	d.handlers[KindLoadPlatforms] = handle(func(ctx context.Context, in PathPayload) (*service.LoadPlatformsResult, error) {
		return svc.LoadPlatforms(ctx, in.Path)
	})

	d.handlers[KindCreatePlaylist] = handle(svc.CreatePlaylist)
	d.handlers[KindEditPlaylist] = handle(func(ctx context.Context, in EditPlaylistPayload) (*service.PlaylistResult, error) {
		if err := requireID("id", in.ID); err != nil {
			return nil, err
		}
		return svc.EditPlaylist(ctx, in.ID, in.Playlist)
	})
	d.handlers[KindDeletePlaylist] = handle(func(ctx context.Context, in IDPayload) (*service.PlaylistResult, error) {
		if err := requireID("id", in.ID); err != nil {
			return nil, err
		}
		return svc.DeletePlaylist(ctx, in.ID)
	})
	d.handlers[KindAddPlaylistEntry] = handle(func(ctx context.Context, in PlaylistEntryPayload) (*service.PlaylistResult, error) {
		return svc.AddPlaylistEntry(ctx, in.PlaylistID, in.GameID)
	})
	d.handlers[KindRemovePlaylistEntry] = handle(func(ctx context.Context, in PlaylistEntryPayload) (*service.PlaylistResult, error) {
		return svc.RemovePlaylistEntry(ctx, in.PlaylistID, in.GameID)
	})
	d.handlers[KindGetPlaylists] = handle(func(ctx context.Context, _ struct{}) ([]*domain.Playlist, error) {
		return svc.Playlists(ctx)
	})
	d.handlers[KindGetPlaylistGames] = handle(func(ctx context.Context, in IDPayload) (*service.PlaylistGamesResult, error) {
		return svc.PlaylistGames(ctx, in.ID)
	})
	d.handlers[KindLoadPlaylists] = handle(func(ctx context.Context, in PathPayload) (*store.LoadResult, error) {
		return svc.LoadPlaylists(ctx, in.Path)
	})

	d.handlers[KindGetFilterValues] = handle(func(ctx context.Context, in FilterValuesPayload) (*domain.FilterValues, error) {
		return svc.FilterValues(ctx, in.View, in.Query)
	})
	d.handlers[KindCloseView] = handle(func(_ context.Context, in ViewPayload) (bool, error) {
		svc.CloseView(in.View)
		return true, nil
	})
	d.handlers[KindInitStatus] = handle(func(_ context.Context, _ struct{}) (*InitStatus, error) {
		stages := svc.InitStatus()
		ready := true
		for _, done := range stages {
			ready = ready && done
		}
		status := &InitStatus{Stages: stages, Ready: ready, Stats: svc.Stats()}
		if r := d.reloader.Load(); r != nil {
			watch := r.Stats()
			status.Watch = &watch
		}
		return status, nil
	})
}
