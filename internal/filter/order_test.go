package filter

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colin969/exodos-launcher/internal/domain"
)

var allOrders = []domain.OrderBy{
	domain.OrderByTitle, domain.OrderByDateAdded, domain.OrderByReleaseDate,
	domain.OrderByDeveloper, domain.OrderByPublisher, domain.OrderBySeries,
	domain.OrderByGenre, domain.OrderByPlatform, domain.OrderByInstalled,
	domain.OrderByFavorite,
}

// sampleGames has duplicate titles, missing and malformed dates, and the
// same id on two platforms.
func sampleGames() []*domain.Game {
	return []*domain.Game{
		game("3", "Doom", func(g *domain.Game) { g.ReleaseDate = "1993-12-10"; g.Developer = "id Software"; g.Installed = true }),
		game("1", "doom", func(g *domain.Game) { g.ReleaseDate = "1993-12-10T00:00:00Z"; g.Developer = "id Software" }),
		game("2", "Doom", func(g *domain.Game) { g.DateAdded = "2020-01-01"; g.Favorite = true }),
		game("2", "Doom", func(g *domain.Game) { g.Platform = "Windows 3x" }),
		game("4", "Keen", func(g *domain.Game) { g.ReleaseDate = "unknown"; g.Developer = "Apogee" }),
		game("5", "Another World", func(g *domain.Game) { g.ReleaseDate = "1991"; g.Genre = "Action" }),
		game("6", "Über Racer", func(g *domain.Game) { g.DateAdded = "2019-05-05T10:00:00-05:00" }),
	}
}

func TestCompare_IsTotalOrder(t *testing.T) {
	games := sampleGames()

	for _, orderBy := range allOrders {
		for _, reverse := range []bool{false, true} {
			for _, a := range games {
				for _, b := range games {
					ab := Compare(a, b, orderBy, reverse)
					ba := Compare(b, a, orderBy, reverse)
					assert.Equal(t, -ab, ba, "antisymmetry %s %v", orderBy, reverse)
					if a != b {
						assert.NotZero(t, ab, "distinct records never tie: %s/%s vs %s/%s", a.Platform, a.ID, b.Platform, b.ID)
					}
					for _, c := range games {
						if ab < 0 && Compare(b, c, orderBy, reverse) < 0 {
							assert.Negative(t, Compare(a, c, orderBy, reverse), "transitivity %s", orderBy)
						}
					}
				}
			}
		}
	}
}

func TestSort_IndependentOfInputOrder(t *testing.T) {
	for _, orderBy := range allOrders {
		want := sampleGames()
		Sort(want, orderBy, false)

		for range 10 {
			shuffled := sampleGames()
			rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			Sort(shuffled, orderBy, false)

			require.Equal(t, len(want), len(shuffled))
			for i := range want {
				assert.Equal(t, want[i].ID+want[i].Platform+want[i].Title, shuffled[i].ID+shuffled[i].Platform+shuffled[i].Title)
			}
		}
	}
}

func TestSort_AgreesWithCompare(t *testing.T) {
	games := sampleGames()
	Sort(games, domain.OrderByReleaseDate, true)

	assert.True(t, slices.IsSortedFunc(games, func(a, b *domain.Game) int {
		return Compare(a, b, domain.OrderByReleaseDate, true)
	}))
}

func TestCompare_Title(t *testing.T) {
	games := []*domain.Game{game("1", "zork"), game("2", "Another World"), game("3", "Über Racer")}
	Sort(games, domain.OrderByTitle, false)

	assert.Equal(t, []string{"Another World", "Über Racer", "zork"}, titles(games))
}

func TestCompare_ReverseKeepsTieBreakAscending(t *testing.T) {
	a := game("a", "Alpha", func(g *domain.Game) { g.Developer = "Same" })
	b := game("b", "Beta", func(g *domain.Game) { g.Developer = "Same" })
	c := game("c", "Gamma", func(g *domain.Game) { g.Developer = "Zed" })

	games := []*domain.Game{a, b, c}
	Sort(games, domain.OrderByDeveloper, true)

	assert.Equal(t, []string{"Gamma", "Alpha", "Beta"}, titles(games))
}

func TestCompare_Dates(t *testing.T) {
	early := game("1", "A", func(g *domain.Game) { g.ReleaseDate = "1990-06-01" })
	late := game("2", "B", func(g *domain.Game) { g.ReleaseDate = "1991-01-01T00:00:00+02:00" })
	bad := game("3", "C", func(g *domain.Game) { g.ReleaseDate = "soon" })
	none := game("4", "D")

	games := []*domain.Game{late, early, bad, none}
	Sort(games, domain.OrderByReleaseDate, false)

	// Unparseable and empty dates come first, ordered by their text.
	assert.Equal(t, []string{"D", "C", "A", "B"}, titles(games))
}

func TestCompare_BooleansFalseFirst(t *testing.T) {
	yes := game("1", "B", func(g *domain.Game) { g.Installed = true })
	no := game("2", "A")

	assert.Positive(t, Compare(yes, no, domain.OrderByInstalled, false))
	assert.Negative(t, Compare(yes, no, domain.OrderByInstalled, true))
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"1993-12-10", "1993-12-10T00:00:00Z", "1993-12-10T00:00:00.5-08:00", "1993-12", "1993", "1993-12-10 08:00:00"} {
		_, ok := ParseDate(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseDate("December 1993")
	assert.False(t, ok)
}

func titles(games []*domain.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Title
	}
	return out
}
