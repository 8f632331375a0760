package filter

import (
	"slices"
	"strings"

	"github.com/colin969/exodos-launcher/internal/domain"
)

// MatchesFilter reports whether g passes the advanced filter.
//
// A nil tri-state flag matches everything, a set one requires equality.
// An empty multi-select matches everything; otherwise at least one
// selected value must equal (case-sensitive, trimmed) one of the
// ';'-separated values of the field.
func MatchesFilter(g *domain.Game, f domain.AdvancedFilter) bool {
	if f.Installed != nil && *f.Installed != g.Installed {
		return false
	}
	if f.Recommended != nil && *f.Recommended != g.Recommended {
		return false
	}
	return matchesAny(g.Developer, f.Developer) &&
		matchesAny(g.Publisher, f.Publisher) &&
		matchesAny(g.Series, f.Series) &&
		matchesAny(g.Genre, f.Genre)
}

func matchesAny(field string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	values := domain.SplitMulti(field)
	for _, want := range selected {
		if slices.Contains(values, strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// Matches reports whether g passes the filter and every search token.
func Matches(g *domain.Game, tokens []Token, f domain.AdvancedFilter) bool {
	if !MatchesFilter(g, f) {
		return false
	}
	for _, t := range tokens {
		if !MatchToken(g, t) {
			return false
		}
	}
	return true
}

// Apply returns the games of src that match query text and filter, in
// src order. src is not modified.
func Apply(src []*domain.Game, text string, f domain.AdvancedFilter) []*domain.Game {
	tokens := ParseSearch(text)
	if len(tokens) == 0 && f.IsEmpty() {
		return slices.Clone(src)
	}
	out := make([]*domain.Game, 0, len(src)/4)
	for _, g := range src {
		if Matches(g, tokens, f) {
			out = append(out, g)
		}
	}
	return out
}
