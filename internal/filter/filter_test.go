package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colin969/exodos-launcher/internal/domain"
)

func game(id, title string, mutate ...func(*domain.Game)) *domain.Game {
	g := &domain.Game{ID: id, Title: title, Platform: "MS-DOS"}
	for _, m := range mutate {
		m(g)
	}
	g.Derive()
	return g
}

func ptr[T any](v T) *T { return &v }

func TestMatchesFilter_MultiValue(t *testing.T) {
	g := game("1", "X", func(g *domain.Game) { g.Developer = "A; B" })

	assert.True(t, MatchesFilter(g, domain.AdvancedFilter{Developer: []string{"B"}}))
	assert.False(t, MatchesFilter(g, domain.AdvancedFilter{Developer: []string{"C"}}))
	assert.True(t, MatchesFilter(g, domain.AdvancedFilter{Developer: []string{"C", " A "}}))
	assert.False(t, MatchesFilter(g, domain.AdvancedFilter{Developer: []string{"a"}}), "selection is case-sensitive")
	assert.True(t, MatchesFilter(g, domain.AdvancedFilter{}))
}

func TestMatchesFilter_TriState(t *testing.T) {
	installed := game("1", "X", func(g *domain.Game) { g.Installed = true })
	notInstalled := game("2", "Y")

	tests := []struct {
		name   string
		filter domain.AdvancedFilter
		game   *domain.Game
		want   bool
	}{
		{"unset matches installed", domain.AdvancedFilter{}, installed, true},
		{"unset matches not installed", domain.AdvancedFilter{}, notInstalled, true},
		{"true requires installed", domain.AdvancedFilter{Installed: ptr(true)}, notInstalled, false},
		{"false requires not installed", domain.AdvancedFilter{Installed: ptr(false)}, notInstalled, true},
		{"recommended true", domain.AdvancedFilter{Recommended: ptr(true)}, installed, false},
		{"recommended false", domain.AdvancedFilter{Recommended: ptr(false)}, installed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesFilter(tt.game, tt.filter))
		})
	}
}

func TestMatchesFilter_AllSetsMustPass(t *testing.T) {
	g := game("1", "X", func(g *domain.Game) {
		g.Developer = "id Software"
		g.Genre = "Shooter; Action"
	})

	assert.True(t, MatchesFilter(g, domain.AdvancedFilter{Developer: []string{"id Software"}, Genre: []string{"Action"}}))
	assert.False(t, MatchesFilter(g, domain.AdvancedFilter{Developer: []string{"id Software"}, Genre: []string{"Puzzle"}}))
}

func TestMatches_FilterAndEveryToken(t *testing.T) {
	g := game("1", "Commander Keen", func(g *domain.Game) {
		g.Developer = "id Software"
		g.Installed = true
	})

	assert.True(t, Matches(g, ParseSearch("keen id"), domain.AdvancedFilter{Installed: ptr(true)}))
	assert.False(t, Matches(g, ParseSearch("keen doom"), domain.AdvancedFilter{}))
	assert.False(t, Matches(g, ParseSearch("keen"), domain.AdvancedFilter{Installed: ptr(false)}))
}

func TestApply_EmptyQueryReturnsEverythingInOrder(t *testing.T) {
	src := []*domain.Game{game("1", "B"), game("2", "A")}

	out := Apply(src, "  ", domain.AdvancedFilter{})

	assert.Equal(t, src, out)
	out[0] = nil
	assert.NotNil(t, src[0], "source slice is not shared")
}

func TestFilterValues(t *testing.T) {
	games := []*domain.Game{
		game("1", "X", func(g *domain.Game) { g.Developer = "id Software; Apogee"; g.Genre = "Action" }),
		game("2", "Y", func(g *domain.Game) { g.Developer = " Apogee ;"; g.Series = "Keen" }),
		game("3", "Z", func(g *domain.Game) { g.Publisher = "apogee" }),
	}

	v := FilterValues(games)

	assert.Equal(t, []string{"Apogee", "id Software"}, v.Developers)
	assert.Equal(t, []string{"apogee"}, v.Publishers)
	assert.Equal(t, []string{"Keen"}, v.Series)
	assert.Equal(t, []string{"Action"}, v.Genres)
}
