package launchbox

import (
	"encoding/xml"
	"fmt"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/normalize"
)

// DecodePlaylist parses a playlist file. It never fails: empty or
// malformed input yields the empty playlist, and problems are reported to
// onError (which may be nil).
//
// The first <Playlist> block supplies title (Name), description (Notes),
// author, icon and library. Each <PlaylistGame> becomes an entry, in
// document order.
func DecodePlaylist(raw []byte, onError func(string)) *domain.Playlist {
	if onError == nil {
		onError = func(string) {}
	}
	p := domain.NewPlaylist()
	if isBlank(raw) {
		return p
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		onError(fmt.Sprintf("Error while converting Playlist: %v", err))
		return p
	}

	seenInfo := false
	for _, item := range doc.Items {
		switch item.XMLName.Local {
		case "Playlist":
			if seenInfo {
				onError("Error while converting Playlist: duplicate <Playlist> block ignored")
				continue
			}
			seenInfo = true
			decodePlaylistInfo(p, item)
		case "PlaylistGame":
			entry, ok := decodePlaylistEntry(item)
			if !ok {
				onError("Error while converting Playlist: <PlaylistGame> has no <GameId>")
			}
			p.Games = append(p.Games, entry)
		}
	}
	return p
}

func decodePlaylistInfo(p *domain.Playlist, item node) {
	for _, child := range item.Children {
		value := normalize.String(child.Text)
		switch child.XMLName.Local {
		case "PlaylistId":
			p.ID = value
		case "Name":
			p.Title = value
		case "Notes":
			p.Description = value
		case "Author":
			p.Author = value
		case "Icon":
			p.Icon = value
		case "Library":
			p.Library = value
		}
	}
}

func decodePlaylistEntry(item node) (domain.PlaylistEntry, bool) {
	var (
		entry domain.PlaylistEntry
		found bool
	)
	for _, child := range item.Children {
		switch child.XMLName.Local {
		case "GameId":
			entry.ID = normalize.String(child.Text)
			found = true
		case "Notes":
			entry.Notes = normalize.String(child.Text)
		}
	}
	return entry, found && entry.ID != ""
}

// EncodePlaylist renders p as playlist XML. Optional fields are written
// only when set, so decoding the output yields p again.
func EncodePlaylist(p *domain.Playlist) ([]byte, error) {
	info := outNode{
		XMLName: xml.Name{Local: "Playlist"},
		Children: []outLeaf{
			textLeaf("PlaylistId", p.ID),
			textLeaf("Name", p.Title),
			textLeaf("Notes", p.Description),
		},
	}
	for _, opt := range []struct{ name, value string }{
		{"Author", p.Author},
		{"Icon", p.Icon},
		{"Library", p.Library},
	} {
		if opt.value != "" {
			info.Children = append(info.Children, textLeaf(opt.name, opt.value))
		}
	}

	doc := &outDocument{Items: make([]outNode, 0, len(p.Games)+1)}
	doc.Items = append(doc.Items, info)
	for i, e := range p.Games {
		entry := outNode{
			XMLName: xml.Name{Local: "PlaylistGame"},
			Children: []outLeaf{
				textLeaf("GameId", e.ID),
				textLeaf("ManualOrder", fmt.Sprint(i)),
			},
		}
		if e.Notes != "" {
			entry.Children = append(entry.Children, textLeaf("Notes", e.Notes))
		}
		doc.Items = append(doc.Items, entry)
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "encode playlist %q", p.Title)
	}
	return data, nil
}
