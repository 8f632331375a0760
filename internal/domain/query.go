package domain

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// OrderBy names the field a result list is ordered by.
type OrderBy string

// Supported orderings.
const (
	OrderByTitle       OrderBy = "title"
	OrderByDateAdded   OrderBy = "dateAdded"
	OrderByReleaseDate OrderBy = "releaseDate"
	OrderByDeveloper   OrderBy = "developer"
	OrderByPublisher   OrderBy = "publisher"
	OrderBySeries      OrderBy = "series"
	OrderByGenre       OrderBy = "genre"
	OrderByPlatform    OrderBy = "platform"
	OrderByInstalled   OrderBy = "installed"
	OrderByFavorite    OrderBy = "favorite"
)

// Valid reports whether o is a known ordering. Empty means title.
func (o OrderBy) Valid() bool {
	switch o {
	case "", OrderByTitle, OrderByDateAdded, OrderByReleaseDate, OrderByDeveloper,
		OrderByPublisher, OrderBySeries, OrderByGenre, OrderByPlatform,
		OrderByInstalled, OrderByFavorite:
		return true
	}
	return false
}

// Direction is the ordering direction.
type Direction string

// Directions.
const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// Valid reports whether d is a known direction. Empty means ascending.
func (d Direction) Valid() bool {
	return d == "" || d == Ascending || d == Descending
}

// AdvancedFilter narrows a search beyond its text. Nil flags and empty
// sets match everything.
type AdvancedFilter struct {
	Installed   *bool    `json:"installed,omitempty"`
	Recommended *bool    `json:"recommended,omitempty"`
	Developer   []string `json:"developer,omitempty"`
	Publisher   []string `json:"publisher,omitempty"`
	Series      []string `json:"series,omitempty"`
	Genre       []string `json:"genre,omitempty"`
}

// IsEmpty reports whether the filter matches every game.
func (f AdvancedFilter) IsEmpty() bool {
	return f.Installed == nil && f.Recommended == nil &&
		len(f.Developer) == 0 && len(f.Publisher) == 0 &&
		len(f.Series) == 0 && len(f.Genre) == 0
}

// Query is a complete search request against the store.
type Query struct {
	Text         string         `json:"text"`
	Library      string         `json:"library"`
	Playlist     string         `json:"playlist,omitempty"`
	OrderBy      OrderBy        `json:"order_by"`
	OrderReverse Direction      `json:"order_reverse"`
	Filter       AdvancedFilter `json:"filter"`
}

// Canonical returns q with defaults applied and multi-selects trimmed,
// sorted and deduplicated, so equal queries have equal canonical forms.
func (q Query) Canonical() Query {
	c := q
	if c.OrderBy == "" {
		c.OrderBy = OrderByTitle
	}
	if c.OrderReverse == "" {
		c.OrderReverse = Ascending
	}
	c.Filter.Developer = canonicalSet(q.Filter.Developer)
	c.Filter.Publisher = canonicalSet(q.Filter.Publisher)
	c.Filter.Series = canonicalSet(q.Filter.Series)
	c.Filter.Genre = canonicalSet(q.Filter.Genre)
	if q.Filter.Installed != nil {
		v := *q.Filter.Installed
		c.Filter.Installed = &v
	}
	if q.Filter.Recommended != nil {
		v := *q.Filter.Recommended
		c.Filter.Recommended = &v
	}
	return c
}

// Reverse reports whether results are ordered descending.
func (q Query) Reverse() bool {
	return q.OrderReverse == Descending
}

// Equal reports whether q and o select and order the same results.
func (q Query) Equal(o Query) bool {
	a, b := q.Canonical(), o.Canonical()
	return a.Text == b.Text &&
		a.Library == b.Library &&
		a.Playlist == b.Playlist &&
		a.OrderBy == b.OrderBy &&
		a.OrderReverse == b.OrderReverse &&
		tristateEqual(a.Filter.Installed, b.Filter.Installed) &&
		tristateEqual(a.Filter.Recommended, b.Filter.Recommended) &&
		slices.Equal(a.Filter.Developer, b.Filter.Developer) &&
		slices.Equal(a.Filter.Publisher, b.Filter.Publisher) &&
		slices.Equal(a.Filter.Series, b.Filter.Series) &&
		slices.Equal(a.Filter.Genre, b.Filter.Genre)
}

// Key returns a fingerprint of the canonical query. Equal queries have
// equal keys.
func (q Query) Key() uint64 {
	c := q.Canonical()
	d := xxhash.New()
	write := func(s string) {
		_, _ = d.WriteString(strconv.Itoa(len(s)))
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(s)
	}
	write(c.Text)
	write(c.Library)
	write(c.Playlist)
	write(string(c.OrderBy))
	write(string(c.OrderReverse))
	write(tristateString(c.Filter.Installed))
	write(tristateString(c.Filter.Recommended))
	for _, set := range [][]string{c.Filter.Developer, c.Filter.Publisher, c.Filter.Series, c.Filter.Genre} {
		write(strconv.Itoa(len(set)))
		for _, v := range set {
			write(v)
		}
	}
	return d.Sum64()
}

func canonicalSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func tristateEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func tristateString(b *bool) string {
	switch {
	case b == nil:
		return "unset"
	case *b:
		return "true"
	default:
		return "false"
	}
}

// CachedResult is the full ordered match list of a query, stamped with
// the data version it was computed from.
type CachedResult struct {
	Query            Query
	Total            int
	Games            []*Game
	Generation       uint64
	PlaylistRevision uint64
}

// FilterValues are the distinct values offered by filter pickers.
type FilterValues struct {
	Developers []string `json:"developers"`
	Publishers []string `json:"publishers"`
	Series     []string `json:"series"`
	Genres     []string `json:"genres"`
}
