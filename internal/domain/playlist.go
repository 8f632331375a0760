package domain

import "slices"

// PlaylistEntry references a game by id. The game may not be loaded.
type PlaylistEntry struct {
	ID    string `json:"id"`
	Notes string `json:"notes"`
}

// Playlist is a user-ordered list of game references kept in its own file.
type Playlist struct {
	ID          string          `json:"id"`
	FilePath    string          `json:"file_path,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Author      string          `json:"author"`
	Icon        string          `json:"icon,omitempty"`
	Library     string          `json:"library,omitempty"`
	Games       []PlaylistEntry `json:"games"`
}

// NewPlaylist returns an empty playlist with every field present.
func NewPlaylist() *Playlist {
	return &Playlist{Games: []PlaylistEntry{}}
}

// Clone returns a deep copy.
func (p *Playlist) Clone() *Playlist {
	c := *p
	c.Games = slices.Clone(p.Games)
	if c.Games == nil {
		c.Games = []PlaylistEntry{}
	}
	return &c
}

// Contains reports whether the playlist references gameID.
func (p *Playlist) Contains(gameID string) bool {
	return slices.ContainsFunc(p.Games, func(e PlaylistEntry) bool { return e.ID == gameID })
}

// GameIDs returns the referenced ids as a set.
func (p *Playlist) GameIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(p.Games))
	for _, e := range p.Games {
		ids[e.ID] = struct{}{}
	}
	return ids
}

// PlaylistInput carries the editable fields of a playlist.
type PlaylistInput struct {
	Title       string `json:"title" validate:"notblank,max=256"`
	Description string `json:"description" validate:"max=4096"`
	Author      string `json:"author" validate:"max=256"`
	Icon        string `json:"icon,omitempty"`
	Library     string `json:"library,omitempty" validate:"omitempty,excludesall=/\\"`
}

// Apply copies the input fields onto p.
func (in PlaylistInput) Apply(p *Playlist) {
	p.Title = in.Title
	p.Description = in.Description
	p.Author = in.Author
	p.Icon = in.Icon
	p.Library = in.Library
}
