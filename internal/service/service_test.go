package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colin969/exodos-launcher/internal/cache"
	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/launchbox"
	"github.com/colin969/exodos-launcher/internal/store"
	"github.com/colin969/exodos-launcher/internal/taskqueue"
)

const msdosXML = `<?xml version="1.0" standalone="yes"?>
<LaunchBox>
  <Game><ID>g1</ID><Title>Zork</Title><Developer>Infocom</Developer><Genre>Adventure</Genre></Game>
  <Game><ID>g2</ID><Title>Doom</Title><Developer>id Software</Developer><Genre>Action; Shooter</Genre><Installed>true</Installed></Game>
  <Game><ID>g3</ID><Title>Alone in the Dark</Title><Developer>Infogrames</Developer><Genre>Adventure; Horror</Genre></Game>
</LaunchBox>
`

const picksXML = `<LaunchBox>
  <Playlist><Name>Picks</Name><Notes>Best of</Notes></Playlist>
  <PlaylistGame><GameId>g2</GameId></PlaylistGame>
  <PlaylistGame><GameId>not-loaded</GameId></PlaylistGame>
  <PlaylistGame><GameId>g1</GameId></PlaylistGame>
</LaunchBox>
`

type testEnv struct {
	svc           *LibraryService
	platformsPath string
	playlistsPath string
}

type envOptions struct {
	playlistWrites launchbox.WriteMode
	platformWrites launchbox.WriteMode
}

func setupService(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	if opts.playlistWrites == "" {
		opts.playlistWrites = launchbox.WriteDisabled
	}
	if opts.platformWrites == "" {
		opts.platformWrites = launchbox.WriteEnabled
	}

	root := t.TempDir()
	platformsPath := filepath.Join(root, "Platforms")
	playlistsPath := filepath.Join(root, "Playlists")
	writeFile(t, filepath.Join(platformsPath, "MS-DOS.xml"), msdosXML)
	writeFile(t, filepath.Join(platformsPath, "theatre", "Shows.xml"),
		`<LaunchBox><Game><ID>t1</ID><Title>Computer Chronicles</Title></Game></LaunchBox>`)
	writeFile(t, filepath.Join(playlistsPath, "picks.xml"), picksXML)

	games := store.New(nil, "arcade")
	playlists := store.NewPlaylistStore(nil)
	queue := taskqueue.New(nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue.Shutdown(ctx)
	})

	svc := New(Deps{
		Games:          games,
		Playlists:      playlists,
		Cache:          cache.New(games, playlists, cache.Options{}),
		Queue:          queue,
		PlatformWriter: launchbox.NewPlatformWriter(opts.platformWrites, nil),
		PlaylistWriter: launchbox.NewPlaylistWriter(opts.playlistWrites, nil),
	}, Config{PlatformsPath: platformsPath, PlaylistsPath: playlistsPath, PageSize: 2})

	ctx := context.Background()
	_, err := svc.LoadPlatforms(ctx, "")
	require.NoError(t, err)
	_, err = svc.LoadPlaylists(ctx, "")
	require.NoError(t, err)

	return &testEnv{svc: svc, platformsPath: platformsPath, playlistsPath: playlistsPath}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func ptr[T any](v T) *T { return &v }

func gameIDs(games []*domain.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.ID
	}
	return out
}

func TestSearch_Pagination(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()

	res, err := env.svc.Search(ctx, SearchRequest{Query: domain.Query{Library: "arcade"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []string{"g3", "g2"}, gameIDs(res.Games), "configured page size applies")

	res, err = env.svc.Search(ctx, SearchRequest{Query: domain.Query{Library: "arcade"}, Offset: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, gameIDs(res.Games))

	res, err = env.svc.Search(ctx, SearchRequest{Query: domain.Query{Library: "arcade"}, Offset: 50})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Empty(t, res.Games)
	assert.NotNil(t, res.Games, "an empty page is still a page")
}

func TestSearch_TextAndFilter(t *testing.T) {
	env := setupService(t, envOptions{})

	res, err := env.svc.Search(context.Background(), SearchRequest{
		Query: domain.Query{
			Library: "arcade",
			Text:    "genre:adventure",
			Filter:  domain.AdvancedFilter{Developer: []string{"Infocom"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, gameIDs(res.Games))
}

func TestSearch_RejectsBadRequests(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  SearchRequest
	}{
		{"unknown order", SearchRequest{Query: domain.Query{OrderBy: "rating"}}},
		{"unknown direction", SearchRequest{Query: domain.Query{OrderReverse: "sideways"}}},
		{"negative offset", SearchRequest{Offset: -1}},
		{"negative limit", SearchRequest{Limit: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Search(ctx, tt.req)
			assert.True(t, errors.Is(err, errors.ErrValidation))
		})
	}
}

func TestSearch_UnknownPlaylistIsNotAnEmptyResult(t *testing.T) {
	env := setupService(t, envOptions{})

	res, err := env.svc.Search(context.Background(), SearchRequest{Query: domain.Query{Playlist: "missing"}})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestMutateGame_PersistsAndRefreshesSearch(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()
	q := SearchRequest{Query: domain.Query{Library: "arcade", Text: "doom"}}

	before, err := env.svc.Search(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 1, before.Total)

	res, err := env.svc.MutateGame(ctx, "g2", domain.GamePatch{Title: ptr("Heretic"), Favorite: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, launchbox.OutcomeWritten, res.Outcome)
	assert.Equal(t, "Heretic", res.Game.Title)
	assert.True(t, res.Game.Favorite)

	after, err := env.svc.Search(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Total)

	data, err := os.ReadFile(filepath.Join(env.platformsPath, "MS-DOS.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<Title>Heretic</Title>")
}

func TestMutateGame_PlatformWritesDisabled(t *testing.T) {
	env := setupService(t, envOptions{platformWrites: launchbox.WriteDisabled})
	path := filepath.Join(env.platformsPath, "MS-DOS.xml")

	res, err := env.svc.MutateGame(context.Background(), "g1", domain.GamePatch{Installed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, launchbox.OutcomeSuppressed, res.Outcome)
	assert.True(t, errors.Is(res.Outcome.Err(), errors.ErrWriteSuppressed))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, msdosXML, string(data))

	g, err := env.svc.GetGame(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, g.Installed, "the change is live in memory")
}

func TestMutateGame_Errors(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()

	_, err := env.svc.MutateGame(ctx, "nope", domain.GamePatch{Title: ptr("x")})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = env.svc.MutateGame(ctx, "g1", domain.GamePatch{})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = env.svc.MutateGame(ctx, "g1", domain.GamePatch{Title: ptr("   ")})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestMutateGame_ConcurrentEditsOnOnePlatform(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"g1", "g2", "g3"} {
		for i := range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.svc.MutateGame(ctx, id, domain.GamePatch{Notes: ptr(fmt.Sprintf("edit %d", i))})
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	raw, err := os.ReadFile(filepath.Join(env.platformsPath, "MS-DOS.xml"))
	require.NoError(t, err)
	file, err := launchbox.DecodePlatform(raw, nil)
	require.NoError(t, err)
	require.Len(t, file.Games, 3)
	for _, g := range file.Games {
		assert.True(t, strings.HasPrefix(g.Notes, "edit "), "every game kept its edit: %s", g.ID)
	}
}

func TestAddAndRemoveGame(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()

	_, err := env.svc.AddGame(ctx, AddGameRequest{Platform: "MS-DOS"})
	assert.True(t, errors.Is(err, errors.ErrValidation), "title is required")

	_, err = env.svc.AddGame(ctx, AddGameRequest{Platform: "Amiga", Fields: domain.GamePatch{Title: ptr("x")}})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	res, err := env.svc.AddGame(ctx, AddGameRequest{
		Platform: "MS-DOS",
		Fields:   domain.GamePatch{Title: ptr("Quake"), Developer: ptr("id Software")},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Game.ID)
	assert.Equal(t, "MS-DOS", res.Game.Platform)
	assert.NotEmpty(t, res.Game.DateAdded)

	found, err := env.svc.Search(ctx, SearchRequest{Query: domain.Query{Text: "quake"}})
	require.NoError(t, err)
	assert.Equal(t, 1, found.Total)

	_, err = env.svc.RemoveGame(ctx, res.Game.ID)
	require.NoError(t, err)
	_, err = env.svc.GetGame(ctx, res.Game.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestPlatforms_AddRemove(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()

	res, err := env.svc.AddPlatform(ctx, "Demos", "theatre")
	require.NoError(t, err)
	assert.Equal(t, launchbox.OutcomeWritten, res.Outcome)
	assert.FileExists(t, filepath.Join(env.platformsPath, "theatre", "Demos.xml"))

	_, err = env.svc.AddPlatform(ctx, "../evil", "")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = env.svc.RemovePlatform(ctx, "Demos")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(env.platformsPath, "theatre", "Demos.xml"))

	platforms, err := env.svc.Platforms(ctx)
	require.NoError(t, err)
	assert.Len(t, platforms, 2)
}

func TestLoadPlatforms_ReportsBrokenFiles(t *testing.T) {
	env := setupService(t, envOptions{})
	writeFile(t, filepath.Join(env.platformsPath, "Broken.xml"), "<LaunchBox><Game>")

	res, err := env.svc.LoadPlatforms(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, res.Platforms, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, filepath.Join(env.platformsPath, "Broken.xml"), res.Errors[0].FilePath)

	_, err = env.svc.LoadPlatforms(context.Background(), filepath.Join(env.platformsPath, "missing"))
	assert.Error(t, err)
}

func TestAwaitStage(t *testing.T) {
	games := store.New(nil, "")
	playlists := store.NewPlaylistStore(nil)
	svc := New(Deps{
		Games:     games,
		Playlists: playlists,
		Cache:     cache.New(games, playlists, cache.Options{}),
		Queue:     taskqueue.New(nil),
	}, Config{PlatformsPath: t.TempDir()})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.AwaitStage(ctx, StagePlatforms), context.DeadlineExceeded)
	assert.False(t, svc.InitStatus()[StagePlatforms])

	_, err := svc.LoadPlatforms(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, svc.AwaitStage(context.Background(), StagePlatforms))
	assert.True(t, svc.InitStatus()[StagePlatforms])
	assert.False(t, svc.InitStatus()[StagePlaylists])

	assert.True(t, errors.Is(svc.AwaitStage(context.Background(), "bogus"), errors.ErrValidation))
}

func TestFilterValues(t *testing.T) {
	env := setupService(t, envOptions{})

	values, err := env.svc.FilterValues(context.Background(), "", domain.Query{
		Library: "arcade",
		Filter:  domain.AdvancedFilter{Developer: []string{"Infocom"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id Software", "Infocom", "Infogrames"}, values.Developers)
	assert.Equal(t, []string{"Action", "Adventure", "Horror", "Shooter"}, values.Genres)
}

func TestPlaylistGames_ReportsDanglingEntries(t *testing.T) {
	env := setupService(t, envOptions{})

	res, err := env.svc.PlaylistGames(context.Background(), "picks")
	require.NoError(t, err)

	require.Len(t, res.Games, 2)
	assert.Equal(t, "g2", res.Games[0].Game.ID)
	assert.Equal(t, "g1", res.Games[1].Game.ID)
	assert.Equal(t, []string{"not-loaded"}, res.Missing)

	require.NotNil(t, res.Reference)
	assert.True(t, errors.Is(res.Reference, errors.ErrReference))
	assert.Equal(t, map[string]any{"missing": []string{"not-loaded"}}, res.Reference.Details)

	p, err := env.svc.GetPlaylist(context.Background(), "picks")
	require.NoError(t, err)
	assert.Len(t, p.Games, 3, "dangling entries stay in the playlist")
}

func TestStats(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()

	_, err := env.svc.Search(ctx, SearchRequest{View: "browse", Query: domain.Query{Library: "arcade"}})
	require.NoError(t, err)
	_, err = env.svc.Search(ctx, SearchRequest{View: "browse", Query: domain.Query{Library: "arcade"}})
	require.NoError(t, err)

	release := make(chan struct{})
	taskqueue.Do(env.svc.queue, platformKey("MS-DOS"), func(context.Context) error {
		<-release
		return nil
	})

	stats := env.svc.Stats()
	assert.Equal(t, uint64(1), stats.Cache.Hits)
	assert.Equal(t, uint64(1), stats.Cache.Misses)
	assert.Equal(t, map[string]int{"platform:MS-DOS": 1}, stats.PendingWrites)

	close(release)
	require.NoError(t, env.svc.queue.Drain(ctx))
	assert.Empty(t, env.svc.Stats().PendingWrites)
}
