// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Write modes for playlist and platform files.
const (
	WriteDisabled = "disabled"
	WriteEnabled  = "enabled"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Library LibraryConfig
	Writes  WriteConfig
	Watch   WatchConfig
	Cache   CacheConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
	// File is an optional rotating log file. Empty logs to stderr only.
	File string
}

// LibraryConfig describes where the collection lives on disk.
type LibraryConfig struct {
	// ExodosPath is the root of the install. Platform and playlist
	// directories default to Data/Platforms and Data/Playlists below it.
	ExodosPath     string
	PlatformsPath  string
	PlaylistsPath  string
	DefaultLibrary string
}

// WriteConfig controls whether mutations reach disk.
type WriteConfig struct {
	Playlists string // disabled (default) or enabled
	Platforms string // enabled (default) or disabled
}

// WatchConfig controls reloading on external file edits.
type WatchConfig struct {
	Enabled     bool
	SettleDelay time.Duration
	// ReloadRate caps file reloads per second.
	ReloadRate float64
}

// CacheConfig sizes the query cache and default page.
type CacheConfig struct {
	EntriesPerView int
	PageSize       int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(flag.CommandLine, os.Args[1:])
}

// LoadConfigFrom is LoadConfig with an explicit flag set and arguments.
func LoadConfigFrom(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := fs.String("log-file", "", "Rotating log file path")

	exodosPath := fs.String("exodos-path", "", "Root of the eXoDOS install")
	platformsPath := fs.String("platforms-path", "", "Directory of platform XML files")
	playlistsPath := fs.String("playlists-path", "", "Directory of playlist XML files")
	defaultLibrary := fs.String("default-library", "", "Library for platforms outside a library folder (default: arcade)")

	playlistWrites := fs.String("playlist-write-mode", "", "Playlist persistence: disabled or enabled (default: disabled)")
	platformWrites := fs.String("platform-write-mode", "", "Platform persistence: disabled or enabled (default: enabled)")

	watchFiles := fs.String("watch-files", "", "Reload files edited outside the launcher (default: true)")
	settleDelay := fs.String("watch-settle-delay", "", "Quiet period before a changed file is reloaded (default: 500ms)")
	reloadRate := fs.String("reload-rate", "", "Max file reloads per second (default: 4)")

	entriesPerView := fs.String("cache-entries-per-view", "", "Cached queries per view (default: 4)")
	pageSize := fs.String("page-size", "", "Default search page size (default: 100)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine. Existing env vars win over the file.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			File:  getConfigValue(*logFile, "LOG_FILE", ""),
		},
		Library: LibraryConfig{
			ExodosPath:     getConfigValue(*exodosPath, "EXODOS_PATH", ""),
			PlatformsPath:  getConfigValue(*platformsPath, "PLATFORMS_PATH", ""),
			PlaylistsPath:  getConfigValue(*playlistsPath, "PLAYLISTS_PATH", ""),
			DefaultLibrary: getConfigValue(*defaultLibrary, "DEFAULT_LIBRARY", "arcade"),
		},
		Writes: WriteConfig{
			Playlists: strings.ToLower(getConfigValue(*playlistWrites, "PLAYLIST_WRITE_MODE", WriteDisabled)),
			Platforms: strings.ToLower(getConfigValue(*platformWrites, "PLATFORM_WRITE_MODE", WriteEnabled)),
		},
		Watch: WatchConfig{
			Enabled:    getBoolConfigValue(*watchFiles, "WATCH_FILES", true),
			ReloadRate: getFloatConfigValue(*reloadRate, "RELOAD_RATE", 4),
		},
		Cache: CacheConfig{
			EntriesPerView: getIntConfigValue(*entriesPerView, "CACHE_ENTRIES_PER_VIEW", 4),
			PageSize:       getIntConfigValue(*pageSize, "PAGE_SIZE", 100),
		},
	}

	settleStr := getConfigValue(*settleDelay, "WATCH_SETTLE_DELAY", "500ms")
	settle, err := time.ParseDuration(settleStr)
	if err != nil {
		return nil, fmt.Errorf("invalid watch settle delay %q: %w", settleStr, err)
	}
	cfg.Watch.SettleDelay = settle

	if err := cfg.expandLibraryPaths(); err != nil {
		return nil, fmt.Errorf("invalid library path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Library.PlatformsPath == "" {
		return errors.New("platforms path is required (set EXODOS_PATH or PLATFORMS_PATH)")
	}
	if c.Library.PlaylistsPath == "" {
		return errors.New("playlists path is required (set EXODOS_PATH or PLAYLISTS_PATH)")
	}
	if strings.TrimSpace(c.Library.DefaultLibrary) == "" {
		return errors.New("default library cannot be empty")
	}

	for name, mode := range map[string]string{
		"PLAYLIST_WRITE_MODE": c.Writes.Playlists,
		"PLATFORM_WRITE_MODE": c.Writes.Platforms,
	} {
		if mode != WriteDisabled && mode != WriteEnabled {
			return fmt.Errorf("invalid %s: %s (must be disabled or enabled)", name, mode)
		}
	}

	if c.Watch.SettleDelay < 0 {
		return fmt.Errorf("watch settle delay must not be negative: %s", c.Watch.SettleDelay)
	}
	if c.Watch.ReloadRate <= 0 {
		return fmt.Errorf("reload rate must be positive: %v", c.Watch.ReloadRate)
	}
	if c.Cache.EntriesPerView < 1 {
		return fmt.Errorf("cache entries per view must be at least 1: %d", c.Cache.EntriesPerView)
	}
	if c.Cache.PageSize < 1 {
		return fmt.Errorf("page size must be at least 1: %d", c.Cache.PageSize)
	}

	return nil
}

// PlaylistWritesEnabled reports whether playlist mutations are persisted.
func (c *Config) PlaylistWritesEnabled() bool {
	return c.Writes.Playlists == WriteEnabled
}

// PlatformWritesEnabled reports whether platform mutations are persisted.
func (c *Config) PlatformWritesEnabled() bool {
	return c.Writes.Platforms == WriteEnabled
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandLibraryPaths resolves the root and derives the platform and
// playlist directories from it when they are not set explicitly.
func (c *Config) expandLibraryPaths() error {
	root, err := expandPath(c.Library.ExodosPath, "")
	if err != nil {
		return err
	}
	c.Library.ExodosPath = root

	var platformsDefault, playlistsDefault string
	if root != "" {
		platformsDefault = filepath.Join(root, "Data", "Platforms")
		playlistsDefault = filepath.Join(root, "Data", "Playlists")
	}

	if c.Library.PlatformsPath, err = expandPath(c.Library.PlatformsPath, platformsDefault); err != nil {
		return err
	}
	if c.Library.PlaylistsPath, err = expandPath(c.Library.PlaylistsPath, playlistsDefault); err != nil {
		return err
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}
