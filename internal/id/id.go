// Package id generates identifiers for records created by the launcher.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// PlaylistPrefix prefixes generated playlist ids. Playlist ids double as
// file base names, so they must stay filesystem safe.
const PlaylistPrefix = "playlist"

// filenameAlphabet is the nanoid alphabet without '-' and '_' so generated
// names never collide with the prefix separator.
const filenameAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "playlist-V1StGXR8Z5jdHi6BmyTqa").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(filenameAlphabet, 21)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewPlaylistID returns a fresh playlist id.
func NewPlaylistID() (string, error) {
	return Generate(PlaylistPrefix)
}

// NewGameID returns a fresh game id. LaunchBox keys games by UUID.
func NewGameID() string {
	return uuid.NewString()
}
