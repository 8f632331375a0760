package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"playlist", PlaylistPrefix},
		{"custom", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Generate(tt.prefix)
			require.NoError(t, err)

			suffix, ok := strings.CutPrefix(id, tt.prefix+"-")
			require.True(t, ok, "id %q should start with %q", id, tt.prefix+"-")
			assert.Len(t, suffix, 21)
			assert.NotContains(t, suffix, "-")
			assert.NotContains(t, suffix, "_")
		})
	}
}

func TestNewPlaylistID(t *testing.T) {
	id, err := NewPlaylistID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "playlist-"))
}

func TestNewGameID(t *testing.T) {
	a, b := NewGameID(), NewGameID()

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
