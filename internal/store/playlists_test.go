package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/launchbox"
)

const favoritesXML = `<LaunchBox>
  <Playlist><Name>Favorites</Name><Notes>My picks</Notes></Playlist>
  <PlaylistGame><GameId>abc-123</GameId></PlaylistGame>
  <PlaylistGame><GameId>def-456</GameId></PlaylistGame>
</LaunchBox>`

func setupPlaylistStore(t *testing.T) (*PlaylistStore, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Favorites.xml"), favoritesXML)
	writeFile(t, filepath.Join(dir, "Adventure.xml"),
		`<LaunchBox><Playlist><PlaylistId>adv</PlaylistId><Name>Adventure</Name></Playlist></LaunchBox>`)

	s := NewPlaylistStore(nil)
	res, err := s.LoadPlaylists(context.Background(), dir)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	return s, dir
}

func TestLoadPlaylists(t *testing.T) {
	s, dir := setupPlaylistStore(t)

	fav, rev, ok := s.Get("Favorites")
	require.True(t, ok, "id falls back to the file name")
	assert.NotZero(t, rev)
	assert.Equal(t, "My picks", fav.Description)
	assert.Equal(t, filepath.Join(dir, "Favorites.xml"), fav.FilePath)
	assert.Equal(t, []domain.PlaylistEntry{{ID: "abc-123"}, {ID: "def-456"}}, fav.Games)

	_, _, ok = s.Get("adv")
	assert.True(t, ok)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Adventure", all[0].Title)
	assert.Equal(t, "Favorites", all[1].Title)
}

func TestLoadPlaylists_MalformedFileBecomesEmptyPlaylist(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Broken.xml"), "<LaunchBox><Playlist>")

	s := NewPlaylistStore(nil)
	res, err := s.LoadPlaylists(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)

	p, _, ok := s.Get("Broken")
	require.True(t, ok)
	assert.Equal(t, "", p.Title)
	assert.Empty(t, p.Games)
}

func TestPlaylistStore_CreateUpdateDelete(t *testing.T) {
	s, dir := setupPlaylistStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, &domain.Playlist{ID: "new", Title: "New", Games: []domain.PlaylistEntry{}}, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.xml"), created.FilePath)

	_, err = s.Create(ctx, &domain.Playlist{ID: "new"}, nil)
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))

	rev, _ := s.Revision("new")
	updated, err := s.Update(ctx, "new", func(p *domain.Playlist) error {
		p.Games = append(p.Games, domain.PlaylistEntry{ID: "g1"})
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Len(t, updated.Games, 1)
	assert.Empty(t, created.Games, "the stored value is replaced, not edited")

	next, _ := s.Revision("new")
	assert.Greater(t, next, rev)

	_, err = s.Delete(ctx, "new", nil)
	require.NoError(t, err)
	_, _, ok := s.Get("new")
	assert.False(t, ok)

	_, err = s.Delete(ctx, "new", nil)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestPlaylistStore_FailedPersistKeepsOldValue(t *testing.T) {
	s, _ := setupPlaylistStore(t)
	rev, _ := s.Revision("Favorites")

	_, err := s.Update(context.Background(), "Favorites", func(p *domain.Playlist) error {
		p.Title = "Renamed"
		return nil
	}, func(context.Context, *domain.Playlist) ([]byte, error) { return nil, errors.Internalf("read-only disk") })
	require.Error(t, err)

	p, after, _ := s.Get("Favorites")
	assert.Equal(t, "Favorites", p.Title)
	assert.Equal(t, rev, after)
}

func TestPlaylistStore_ReloadAndRemoveFile(t *testing.T) {
	s, dir := setupPlaylistStore(t)
	path := filepath.Join(dir, "Favorites.xml")

	_, err := s.Update(context.Background(), "Favorites", func(p *domain.Playlist) error {
		p.Description = "saved here"
		return nil
	}, func(_ context.Context, p *domain.Playlist) ([]byte, error) {
		_, data, err := launchbox.NewPlaylistWriter(launchbox.WriteEnabled, nil).Save(p.FilePath, p)
		return data, err
	})
	require.NoError(t, err)

	changed, err := s.ReloadFile(path)
	require.NoError(t, err)
	assert.False(t, changed, "own write is not reloaded")

	require.NoError(t, os.WriteFile(path, []byte(`<LaunchBox><Playlist><Name>Edited</Name></Playlist></LaunchBox>`), 0o644))
	changed, err = s.ReloadFile(path)
	require.NoError(t, err)
	assert.True(t, changed)
	p, _, _ := s.Get("Favorites")
	assert.Equal(t, "Edited", p.Title)

	assert.True(t, s.RemoveFile(path))
	_, _, ok := s.Get("Favorites")
	assert.False(t, ok)
}
