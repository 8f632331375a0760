package filter

import (
	"slices"
	"strings"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/normalize"
)

// FilterValues collects the distinct developer, publisher, series and
// genre values of games, split on ';', trimmed and sorted.
func FilterValues(games []*domain.Game) domain.FilterValues {
	developers := make(map[string]struct{})
	publishers := make(map[string]struct{})
	series := make(map[string]struct{})
	genres := make(map[string]struct{})

	for _, g := range games {
		addAll(developers, g.Developer)
		addAll(publishers, g.Publisher)
		addAll(series, g.Series)
		addAll(genres, g.Genre)
	}

	return domain.FilterValues{
		Developers: sortedKeys(developers),
		Publishers: sortedKeys(publishers),
		Series:     sortedKeys(series),
		Genres:     sortedKeys(genres),
	}
}

func addAll(set map[string]struct{}, field string) {
	for _, v := range domain.SplitMulti(field) {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b string) int {
		if c := strings.Compare(normalize.Fold(a), normalize.Fold(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
