// Package domain contains the game, platform and playlist records the
// launcher backend serves, plus the query types used to search them.
package domain

import (
	"slices"
	"strings"

	"github.com/colin969/exodos-launcher/internal/normalize"
)

// DefaultLibrary is the library for platforms that sit directly in the
// platforms directory.
const DefaultLibrary = "arcade"

// Game is one record of a platform file. Every text field is always
// present; missing source values are "".
type Game struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	ConvertedTitle      string `json:"converted_title"`
	AlternateTitles     string `json:"alternate_titles"`
	OrderTitle          string `json:"order_title"`
	Developer           string `json:"developer"`
	Publisher           string `json:"publisher"`
	Series              string `json:"series"`
	Genre               string `json:"genre"`
	Platform            string `json:"platform"`
	PlayMode            string `json:"play_mode"`
	Source              string `json:"source"`
	Region              string `json:"region"`
	Language            string `json:"language"`
	Status              string `json:"status"`
	Notes               string `json:"notes"`
	OriginalDescription string `json:"original_description"`
	Library             string `json:"library"`
	Rating              string `json:"rating"`
	ApplicationPath     string `json:"application_path"`
	RootFolder          string `json:"root_folder"`
	LaunchCommand       string `json:"launch_command"`
	ManualPath          string `json:"manual_path"`
	MusicPath           string `json:"music_path"`
	ThumbnailPath       string `json:"thumbnail_path"`
	ConfigurationPath   string `json:"configuration_path"`
	ReleaseDate         string `json:"release_date"`
	DateAdded           string `json:"date_added"`
	Version             string `json:"version"`
	Installed           bool   `json:"installed"`
	Favorite            bool   `json:"favorite"`
	Placeholder         bool   `json:"placeholder"`
	Recommended         bool   `json:"recommended"`

	// Extra holds source elements the backend does not model, in document
	// order, so saving a platform never drops them.
	Extra []ExtraElement `json:"-"`
}

// ExtraElement is an unmodeled XML element kept verbatim.
type ExtraElement struct {
	Name     string
	InnerXML string
}

// Derive fills the derived fields from the stored ones.
func (g *Game) Derive() {
	if g.ConvertedTitle == "" {
		g.ConvertedTitle = normalize.ConvertedTitle(g.Title)
	}
	g.OrderTitle = normalize.Fold(g.Title)
}

// Clone returns a copy that shares nothing mutable with g.
func (g *Game) Clone() *Game {
	c := *g
	c.Extra = slices.Clone(g.Extra)
	return &c
}

// SplitMulti splits a ';'-delimited multi-value field, trimming entries
// and dropping empty ones. "A; B;" yields ["A", "B"].
func SplitMulti(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GamePatch is a partial update. Nil fields are left unchanged.
type GamePatch struct {
	Title               *string `json:"title,omitempty" validate:"omitnil,notblank,max=512"`
	AlternateTitles     *string `json:"alternate_titles,omitempty"`
	Developer           *string `json:"developer,omitempty"`
	Publisher           *string `json:"publisher,omitempty"`
	Series              *string `json:"series,omitempty"`
	Genre               *string `json:"genre,omitempty"`
	PlayMode            *string `json:"play_mode,omitempty"`
	Source              *string `json:"source,omitempty"`
	Region              *string `json:"region,omitempty"`
	Language            *string `json:"language,omitempty"`
	Status              *string `json:"status,omitempty"`
	Notes               *string `json:"notes,omitempty"`
	OriginalDescription *string `json:"original_description,omitempty"`
	Rating              *string `json:"rating,omitempty"`
	ApplicationPath     *string `json:"application_path,omitempty"`
	RootFolder          *string `json:"root_folder,omitempty"`
	LaunchCommand       *string `json:"launch_command,omitempty"`
	ManualPath          *string `json:"manual_path,omitempty"`
	MusicPath           *string `json:"music_path,omitempty"`
	ThumbnailPath       *string `json:"thumbnail_path,omitempty"`
	ConfigurationPath   *string `json:"configuration_path,omitempty"`
	ReleaseDate         *string `json:"release_date,omitempty"`
	Version             *string `json:"version,omitempty"`
	Installed           *bool   `json:"installed,omitempty"`
	Favorite            *bool   `json:"favorite,omitempty"`
	Placeholder         *bool   `json:"placeholder,omitempty"`
	Recommended         *bool   `json:"recommended,omitempty"`
}

// Apply writes the set fields of p onto g and re-derives. ID, platform,
// library and date added are not patchable.
func (p GamePatch) Apply(g *Game) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = normalize.String(*src)
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	if p.Title != nil && normalize.String(*p.Title) != g.Title {
		// Converted title follows the title unless the source set one.
		g.ConvertedTitle = ""
	}
	setString(&g.Title, p.Title)
	setString(&g.AlternateTitles, p.AlternateTitles)
	setString(&g.Developer, p.Developer)
	setString(&g.Publisher, p.Publisher)
	setString(&g.Series, p.Series)
	setString(&g.Genre, p.Genre)
	setString(&g.PlayMode, p.PlayMode)
	setString(&g.Source, p.Source)
	setString(&g.Region, p.Region)
	setString(&g.Language, p.Language)
	setString(&g.Status, p.Status)
	setString(&g.Notes, p.Notes)
	setString(&g.OriginalDescription, p.OriginalDescription)
	setString(&g.Rating, p.Rating)
	setString(&g.ApplicationPath, p.ApplicationPath)
	setString(&g.RootFolder, p.RootFolder)
	setString(&g.LaunchCommand, p.LaunchCommand)
	setString(&g.ManualPath, p.ManualPath)
	setString(&g.MusicPath, p.MusicPath)
	setString(&g.ThumbnailPath, p.ThumbnailPath)
	setString(&g.ConfigurationPath, p.ConfigurationPath)
	setString(&g.ReleaseDate, p.ReleaseDate)
	setString(&g.Version, p.Version)
	setBool(&g.Installed, p.Installed)
	setBool(&g.Favorite, p.Favorite)
	setBool(&g.Placeholder, p.Placeholder)
	setBool(&g.Recommended, p.Recommended)

	g.Derive()
}

// IsEmpty reports whether the patch changes nothing.
func (p GamePatch) IsEmpty() bool {
	return p == GamePatch{}
}
