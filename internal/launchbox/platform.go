package launchbox

import (
	"encoding/xml"
	"fmt"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/normalize"
)

// PlatformFile is the decoded content of a platform XML file.
type PlatformFile struct {
	Games []*domain.Game
	// Extra holds root elements other than <Game>.
	Extra []domain.ExtraElement
}

type stringField struct {
	element string
	field   func(*domain.Game) *string
}

type boolField struct {
	element string
	field   func(*domain.Game) *bool
}

// gameStrings lists modeled text elements in the order they are written.
var gameStrings = []stringField{
	{"ID", func(g *domain.Game) *string { return &g.ID }},
	{"Title", func(g *domain.Game) *string { return &g.Title }},
	{"ConvertedTitle", func(g *domain.Game) *string { return &g.ConvertedTitle }},
	{"AlternateTitles", func(g *domain.Game) *string { return &g.AlternateTitles }},
	{"Developer", func(g *domain.Game) *string { return &g.Developer }},
	{"Publisher", func(g *domain.Game) *string { return &g.Publisher }},
	{"Series", func(g *domain.Game) *string { return &g.Series }},
	{"Genre", func(g *domain.Game) *string { return &g.Genre }},
	{"Platform", func(g *domain.Game) *string { return &g.Platform }},
	{"PlayMode", func(g *domain.Game) *string { return &g.PlayMode }},
	{"Source", func(g *domain.Game) *string { return &g.Source }},
	{"Region", func(g *domain.Game) *string { return &g.Region }},
	{"Language", func(g *domain.Game) *string { return &g.Language }},
	{"Status", func(g *domain.Game) *string { return &g.Status }},
	{"Notes", func(g *domain.Game) *string { return &g.Notes }},
	{"OriginalDescription", func(g *domain.Game) *string { return &g.OriginalDescription }},
	{"Library", func(g *domain.Game) *string { return &g.Library }},
	{"Rating", func(g *domain.Game) *string { return &g.Rating }},
	{"ApplicationPath", func(g *domain.Game) *string { return &g.ApplicationPath }},
	{"RootFolder", func(g *domain.Game) *string { return &g.RootFolder }},
	{"CommandLine", func(g *domain.Game) *string { return &g.LaunchCommand }},
	{"ManualPath", func(g *domain.Game) *string { return &g.ManualPath }},
	{"MusicPath", func(g *domain.Game) *string { return &g.MusicPath }},
	{"ThumbnailPath", func(g *domain.Game) *string { return &g.ThumbnailPath }},
	{"ConfigurationPath", func(g *domain.Game) *string { return &g.ConfigurationPath }},
	{"ReleaseDate", func(g *domain.Game) *string { return &g.ReleaseDate }},
	{"DateAdded", func(g *domain.Game) *string { return &g.DateAdded }},
	{"Version", func(g *domain.Game) *string { return &g.Version }},
}

var gameBools = []boolField{
	{"Installed", func(g *domain.Game) *bool { return &g.Installed }},
	{"Favorite", func(g *domain.Game) *bool { return &g.Favorite }},
	{"Placeholder", func(g *domain.Game) *bool { return &g.Placeholder }},
	{"Recommended", func(g *domain.Game) *bool { return &g.Recommended }},
}

var (
	stringIndex = make(map[string]stringField, len(gameStrings))
	boolIndex   = make(map[string]boolField, len(gameBools))
)

func init() {
	for _, f := range gameStrings {
		stringIndex[f.element] = f
	}
	for _, f := range gameBools {
		boolIndex[f.element] = f
	}
}

// DecodePlatform parses a platform file. Malformed XML is a PARSE error;
// individual fields never fail, they coerce to defaults. onError, when
// set, receives one message per coerced value that could not be read.
func DecodePlatform(raw []byte, onError func(string)) (*PlatformFile, error) {
	if onError == nil {
		onError = func(string) {}
	}
	out := &PlatformFile{Games: []*domain.Game{}}
	if isBlank(raw) {
		return out, nil
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "malformed platform xml")
	}

	for _, item := range doc.Items {
		if item.XMLName.Local != "Game" {
			out.Extra = append(out.Extra, domain.ExtraElement{Name: item.XMLName.Local, InnerXML: item.Inner})
			continue
		}
		out.Games = append(out.Games, decodeGame(item, onError))
	}
	return out, nil
}

func decodeGame(item node, onError func(string)) *domain.Game {
	g := &domain.Game{}
	for _, child := range item.Children {
		name := child.XMLName.Local
		if f, ok := stringIndex[name]; ok {
			*f.field(g) = normalize.String(child.Text)
			continue
		}
		if f, ok := boolIndex[name]; ok {
			v, ok := normalize.Bool(child.Text)
			if !ok && normalize.String(child.Text) != "" {
				onError(fmt.Sprintf("game %q: %s has non-boolean value %q", g.ID, name, child.Text))
			}
			*f.field(g) = v
			continue
		}
		g.Extra = append(g.Extra, domain.ExtraElement{Name: name, InnerXML: child.Inner})
	}
	g.Derive()
	return g
}

// EncodePlatform renders games and extra root elements as platform XML.
// Games come first, in order, followed by the extra elements.
func EncodePlatform(p *domain.Platform) ([]byte, error) {
	doc := &outDocument{Items: make([]outNode, 0, len(p.Games)+len(p.Extra))}
	for _, g := range p.Games {
		doc.Items = append(doc.Items, encodeGame(g))
	}
	for _, e := range p.Extra {
		doc.Items = append(doc.Items, outNode{XMLName: xml.Name{Local: e.Name}, Inner: e.InnerXML})
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "encode platform %s", p.Name)
	}
	return data, nil
}

func encodeGame(g *domain.Game) outNode {
	n := outNode{
		XMLName:  xml.Name{Local: "Game"},
		Children: make([]outLeaf, 0, len(gameStrings)+len(gameBools)+len(g.Extra)),
	}
	for _, f := range gameStrings {
		n.Children = append(n.Children, textLeaf(f.element, *f.field(g)))
	}
	for _, f := range gameBools {
		value := "false"
		if *f.field(g) {
			value = "true"
		}
		n.Children = append(n.Children, textLeaf(f.element, value))
	}
	for _, e := range g.Extra {
		n.Children = append(n.Children, rawLeaf(e.Name, e.InnerXML))
	}
	return n
}
