package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
)

func TestClassifyFile(t *testing.T) {
	env := setupService(t, envOptions{})

	tests := []struct {
		name string
		path string
		want FileKind
	}{
		{"platform", filepath.Join(env.platformsPath, "MS-DOS.xml"), FilePlatform},
		{"library platform", filepath.Join(env.platformsPath, "theatre", "Shows.xml"), FilePlatform},
		{"playlist", filepath.Join(env.playlistsPath, "picks.xml"), FilePlaylist},
		{"not xml", filepath.Join(env.platformsPath, "notes.txt"), FileOther},
		{"outside", filepath.Join(filepath.Dir(env.platformsPath), "Other.xml"), FileOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, env.svc.ClassifyFile(tt.path))
		})
	}
}

func TestReloadFile_OutsidePlatformEdit(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()
	q := domain.Query{Library: "arcade"}

	before, err := env.svc.Search(ctx, SearchRequest{Query: q, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 3, before.Total)

	path := filepath.Join(env.platformsPath, "MS-DOS.xml")
	edited := strings.Replace(msdosXML, "</LaunchBox>",
		"  <Game><ID>g4</ID><Title>Commander Keen</Title></Game>\n</LaunchBox>", 1)
	writeFile(t, path, edited)

	changed, err := env.svc.ReloadFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, changed)

	after, err := env.svc.Search(ctx, SearchRequest{Query: q, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, after.Total)
}

func TestReloadFile_OwnWriteIsIgnored(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()

	_, err := env.svc.MutateGame(ctx, "g1", domain.GamePatch{Favorite: ptr(true)})
	require.NoError(t, err)

	changed, err := env.svc.ReloadFile(ctx, filepath.Join(env.platformsPath, "MS-DOS.xml"))
	require.NoError(t, err)
	assert.False(t, changed)

	g, err := env.svc.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, g.Favorite)
}

func TestReloadFile_OutsidePlaylistEdit(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()
	q := domain.Query{Playlist: "picks"}

	res, err := env.svc.Search(ctx, SearchRequest{Query: q})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	path := filepath.Join(env.playlistsPath, "picks.xml")
	writeFile(t, path, `<LaunchBox>
  <Playlist><Name>Picks</Name></Playlist>
  <PlaylistGame><GameId>g1</GameId></PlaylistGame>
</LaunchBox>`)

	changed, err := env.svc.ReloadFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, changed)

	res, err = env.svc.Search(ctx, SearchRequest{Query: q})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, gameIDs(res.Games))
}

func TestRemoveFile(t *testing.T) {
	env := setupService(t, envOptions{})
	ctx := context.Background()

	path := filepath.Join(env.platformsPath, "theatre", "Shows.xml")
	require.NoError(t, os.Remove(path))

	removed, err := env.svc.RemoveFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = env.svc.GetGame(ctx, "t1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	removed, err = env.svc.RemoveFile(ctx, path)
	require.NoError(t, err)
	assert.False(t, removed, "second removal finds nothing")

	playlist := filepath.Join(env.playlistsPath, "picks.xml")
	removed, err = env.svc.RemoveFile(ctx, playlist)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = env.svc.Search(ctx, SearchRequest{Query: domain.Query{Playlist: "picks"}})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
