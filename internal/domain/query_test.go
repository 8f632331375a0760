package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_SetEqualityIgnoresOrder(t *testing.T) {
	a := Query{Library: "arcade", Filter: AdvancedFilter{Developer: []string{"id Software", "Apogee"}}}
	b := Query{Library: "arcade", Filter: AdvancedFilter{Developer: []string{"Apogee", " id Software ", "Apogee"}}}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
}

func TestQuery_DefaultsAreCanonical(t *testing.T) {
	a := Query{Text: "doom"}
	b := Query{Text: "doom", OrderBy: OrderByTitle, OrderReverse: Ascending}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
}

func TestQuery_DifferentFieldsDiffer(t *testing.T) {
	yes, no := true, false
	base := Query{Text: "doom", Library: "arcade"}

	variants := map[string]Query{
		"text":        {Text: "quake", Library: "arcade"},
		"library":     {Text: "doom", Library: "theatre"},
		"playlist":    {Text: "doom", Library: "arcade", Playlist: "p1"},
		"order":       {Text: "doom", Library: "arcade", OrderBy: OrderByDeveloper},
		"reverse":     {Text: "doom", Library: "arcade", OrderReverse: Descending},
		"installed":   {Text: "doom", Library: "arcade", Filter: AdvancedFilter{Installed: &yes}},
		"uninstalled": {Text: "doom", Library: "arcade", Filter: AdvancedFilter{Installed: &no}},
		"genre":       {Text: "doom", Library: "arcade", Filter: AdvancedFilter{Genre: []string{"Action"}}},
	}

	for name, q := range variants {
		t.Run(name, func(t *testing.T) {
			assert.False(t, base.Equal(q))
			assert.NotEqual(t, base.Key(), q.Key())
		})
	}
}

func TestQuery_KeyDoesNotConfuseSetBoundaries(t *testing.T) {
	a := Query{Filter: AdvancedFilter{Developer: []string{"A"}, Publisher: []string{}}}
	b := Query{Filter: AdvancedFilter{Publisher: []string{"A"}}}

	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestQuery_CanonicalDoesNotAlias(t *testing.T) {
	yes := true
	q := Query{Filter: AdvancedFilter{Installed: &yes, Genre: []string{"b", "a"}}}

	c := q.Canonical()
	*c.Filter.Installed = false

	assert.True(t, *q.Filter.Installed)
	assert.Equal(t, []string{"b", "a"}, q.Filter.Genre)
	assert.Equal(t, []string{"a", "b"}, c.Filter.Genre)
}

func TestOrderBy_Valid(t *testing.T) {
	assert.True(t, OrderBy("").Valid())
	assert.True(t, OrderByReleaseDate.Valid())
	assert.False(t, OrderBy("rating").Valid())
	assert.True(t, Direction("").Valid())
	assert.False(t, Direction("sideways").Valid())
}

func TestAdvancedFilter_IsEmpty(t *testing.T) {
	yes := true
	assert.True(t, AdvancedFilter{}.IsEmpty())
	assert.False(t, AdvancedFilter{Recommended: &yes}.IsEmpty())
	assert.False(t, AdvancedFilter{Series: []string{"Commander Keen"}}.IsEmpty())
}
