package launchbox

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
)

// WriteMode selects whether a file kind is persisted.
type WriteMode string

// Write modes.
const (
	WriteDisabled WriteMode = "disabled"
	WriteEnabled  WriteMode = "enabled"
)

// SaveOutcome tells a caller what a save actually did.
type SaveOutcome string

// Outcomes.
const (
	OutcomeWritten    SaveOutcome = "written"
	OutcomeSuppressed SaveOutcome = "suppressed"
)

// Err returns a WRITE_SUPPRESSED error for suppressed saves, nil otherwise.
func (o SaveOutcome) Err() error {
	if o == OutcomeSuppressed {
		return errors.ErrWriteSuppressed
	}
	return nil
}

// FileWriter persists one kind of file, or deliberately does not.
type FileWriter struct {
	kind   string
	mode   WriteMode
	logger *slog.Logger
}

// NewFileWriter creates a writer for files of the given kind ("playlist",
// "platform"). Anything but WriteEnabled suppresses writes.
func NewFileWriter(kind string, mode WriteMode, logger *slog.Logger) *FileWriter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileWriter{kind: kind, mode: mode, logger: logger}
}

// Enabled reports whether writes reach disk.
func (w *FileWriter) Enabled() bool {
	return w.mode == WriteEnabled
}

// Write atomically replaces path with data. With writing disabled the
// file is left untouched and OutcomeSuppressed is returned.
func (w *FileWriter) Write(path string, data []byte) (SaveOutcome, error) {
	if !w.Enabled() {
		w.logger.Info(w.kind+" writing disabled, save skipped", "path", path)
		return OutcomeSuppressed, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrapf(err, errors.CodeInternal, "create %s directory", w.kind)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", errors.Wrapf(err, errors.CodeInternal, "write %s file %s", w.kind, path)
	}

	w.logger.Debug(w.kind+" saved", "path", path, "bytes", len(data))
	return OutcomeWritten, nil
}

// Remove deletes path. With writing disabled the file stays.
func (w *FileWriter) Remove(path string) (SaveOutcome, error) {
	if !w.Enabled() {
		w.logger.Info(w.kind+" writing disabled, delete skipped", "path", path)
		return OutcomeSuppressed, nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", errors.Wrapf(err, errors.CodeInternal, "remove %s file %s", w.kind, path)
	}
	return OutcomeWritten, nil
}

// PlaylistWriter saves playlists.
type PlaylistWriter struct {
	*FileWriter
}

// NewPlaylistWriter creates a playlist writer.
func NewPlaylistWriter(mode WriteMode, logger *slog.Logger) *PlaylistWriter {
	return &PlaylistWriter{FileWriter: NewFileWriter("playlist", mode, logger)}
}

// Save encodes p and writes it to path. The encoded bytes are returned
// even when the write is suppressed.
func (w *PlaylistWriter) Save(path string, p *domain.Playlist) (SaveOutcome, []byte, error) {
	data, err := EncodePlaylist(p)
	if err != nil {
		return "", nil, err
	}
	outcome, err := w.Write(path, data)
	if err != nil {
		return "", nil, fmt.Errorf("save playlist %q: %w", p.ID, err)
	}
	return outcome, data, nil
}

// PlatformWriter saves platforms.
type PlatformWriter struct {
	*FileWriter
}

// NewPlatformWriter creates a platform writer.
func NewPlatformWriter(mode WriteMode, logger *slog.Logger) *PlatformWriter {
	return &PlatformWriter{FileWriter: NewFileWriter("platform", mode, logger)}
}

// Save encodes p and writes it to p.FilePath.
func (w *PlatformWriter) Save(p *domain.Platform) (SaveOutcome, []byte, error) {
	data, err := EncodePlatform(p)
	if err != nil {
		return "", nil, err
	}
	outcome, err := w.Write(p.FilePath, data)
	if err != nil {
		return "", nil, fmt.Errorf("save platform %q: %w", p.Name, err)
	}
	return outcome, data, nil
}
