package domain

import "slices"

// Platform is a named collection of games loaded from one file.
type Platform struct {
	Name     string  `json:"name"`
	FilePath string  `json:"file_path"`
	Library  string  `json:"library"`
	Games    []*Game `json:"games,omitempty"`

	// Extra holds root-level elements other than games (additional
	// applications, custom fields) so they survive a save.
	Extra []ExtraElement `json:"-"`
}

// Clone returns a copy with its own game slice. Games themselves are
// shared; replace a game instead of editing it in place.
func (p *Platform) Clone() *Platform {
	c := *p
	c.Games = slices.Clone(p.Games)
	c.Extra = slices.Clone(p.Extra)
	return &c
}

// IndexOf returns the position of the game with the given id, or -1.
func (p *Platform) IndexOf(id string) int {
	return slices.IndexFunc(p.Games, func(g *Game) bool { return g.ID == id })
}

// Game returns the game with the given id.
func (p *Platform) Game(id string) (*Game, bool) {
	if i := p.IndexOf(id); i >= 0 {
		return p.Games[i], true
	}
	return nil, false
}

// PlatformSummary is a platform without its games.
type PlatformSummary struct {
	Name      string `json:"name"`
	FilePath  string `json:"file_path"`
	Library   string `json:"library"`
	GameCount int    `json:"game_count"`
}

// Summary describes p without its games.
func (p *Platform) Summary() PlatformSummary {
	return PlatformSummary{
		Name:      p.Name,
		FilePath:  p.FilePath,
		Library:   p.Library,
		GameCount: len(p.Games),
	}
}
