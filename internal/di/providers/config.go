package providers

import (
	"github.com/samber/do/v2"

	"github.com/colin969/exodos-launcher/internal/config"
	"github.com/colin969/exodos-launcher/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
		File:        logger.FileConfig{Path: cfg.Logger.File},
	})

	log.Info("Starting eXoDOS backend",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"platforms_path", cfg.Library.PlatformsPath,
		"playlists_path", cfg.Library.PlaylistsPath,
		"playlist_writes", cfg.Writes.Playlists,
		"platform_writes", cfg.Writes.Platforms,
	)

	return log, nil
}
