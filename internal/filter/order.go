package filter

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/normalize"
)

// dateLayouts are tried in order when parsing release and added dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseDate parses the date formats found in platform files.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sortKey is the value a game is ordered by for one OrderBy.
type sortKey struct {
	text   string
	when   time.Time
	parsed bool
	flag   bool
}

func keyOf(g *domain.Game, orderBy domain.OrderBy) sortKey {
	switch orderBy {
	case domain.OrderByDateAdded:
		t, ok := ParseDate(g.DateAdded)
		return sortKey{text: g.DateAdded, when: t, parsed: ok}
	case domain.OrderByReleaseDate:
		t, ok := ParseDate(g.ReleaseDate)
		return sortKey{text: g.ReleaseDate, when: t, parsed: ok}
	case domain.OrderByDeveloper:
		return sortKey{text: normalize.Fold(g.Developer)}
	case domain.OrderByPublisher:
		return sortKey{text: normalize.Fold(g.Publisher)}
	case domain.OrderBySeries:
		return sortKey{text: normalize.Fold(g.Series)}
	case domain.OrderByGenre:
		return sortKey{text: normalize.Fold(g.Genre)}
	case domain.OrderByPlatform:
		return sortKey{text: normalize.Fold(g.Platform)}
	case domain.OrderByInstalled:
		return sortKey{flag: g.Installed}
	case domain.OrderByFavorite:
		return sortKey{flag: g.Favorite}
	default:
		return sortKey{text: g.OrderTitle}
	}
}

// compareKeys orders two keys of the same OrderBy. Unparseable dates sort
// before parseable ones and among themselves by their text.
func compareKeys(a, b sortKey, orderBy domain.OrderBy) int {
	switch orderBy {
	case domain.OrderByDateAdded, domain.OrderByReleaseDate:
		switch {
		case a.parsed && b.parsed:
			return a.when.Compare(b.when)
		case a.parsed != b.parsed:
			if a.parsed {
				return 1
			}
			return -1
		default:
			return strings.Compare(a.text, b.text)
		}
	case domain.OrderByInstalled, domain.OrderByFavorite:
		return compareBool(a.flag, b.flag)
	default:
		return strings.Compare(a.text, b.text)
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// tieBreak orders by title, then id, then platform, always ascending.
// Ids are unique within a platform, so distinct records never tie.
func tieBreak(a, b *domain.Game) int {
	return cmp.Or(
		strings.Compare(a.OrderTitle, b.OrderTitle),
		strings.Compare(a.Title, b.Title),
		strings.Compare(a.ID, b.ID),
		strings.Compare(a.Platform, b.Platform),
	)
}

// Compare orders a and b by orderBy. reverse flips the field comparison
// only; ties are always broken ascending.
func Compare(a, b *domain.Game, orderBy domain.OrderBy, reverse bool) int {
	c := compareKeys(keyOf(a, orderBy), keyOf(b, orderBy), orderBy)
	if reverse {
		c = -c
	}
	if c != 0 {
		return c
	}
	return tieBreak(a, b)
}

// Sort orders games in place.
func Sort(games []*domain.Game, orderBy domain.OrderBy, reverse bool) {
	type keyed struct {
		game *domain.Game
		key  sortKey
	}
	items := make([]keyed, len(games))
	for i, g := range games {
		items[i] = keyed{game: g, key: keyOf(g, orderBy)}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		c := compareKeys(a.key, b.key, orderBy)
		if reverse {
			c = -c
		}
		if c != 0 {
			return c
		}
		return tieBreak(a.game, b.game)
	})

	for i := range items {
		games[i] = items[i].game
	}
}
