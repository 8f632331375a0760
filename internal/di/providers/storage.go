package providers

import (
	"github.com/samber/do/v2"

	"github.com/colin969/exodos-launcher/internal/config"
	"github.com/colin969/exodos-launcher/internal/launchbox"
	"github.com/colin969/exodos-launcher/internal/logger"
	"github.com/colin969/exodos-launcher/internal/store"
)

// Writers groups the LaunchBox file writers.
type Writers struct {
	Platforms *launchbox.PlatformWriter
	Playlists *launchbox.PlaylistWriter
}

// ProvideGameStore provides the in-memory platform store.
func ProvideGameStore(i do.Injector) (*store.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return store.New(log.Logger, cfg.Library.DefaultLibrary), nil
}

// ProvidePlaylistStore provides the in-memory playlist store.
func ProvidePlaylistStore(i do.Injector) (*store.PlaylistStore, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return store.NewPlaylistStore(log.Logger), nil
}

// ProvideWriters provides the platform and playlist file writers.
func ProvideWriters(i do.Injector) (*Writers, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &Writers{
		Platforms: launchbox.NewPlatformWriter(launchbox.WriteMode(cfg.Writes.Platforms), log.Logger),
		Playlists: launchbox.NewPlaylistWriter(launchbox.WriteMode(cfg.Writes.Playlists), log.Logger),
	}, nil
}
