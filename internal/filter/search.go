// Package filter evaluates searches and advanced filters against games and
// orders result lists. Everything here is a pure function of its inputs.
package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/normalize"
)

// Field is a search qualifier. The empty Field matches the default set.
type Field string

// Qualifiable fields.
const (
	FieldAny         Field = ""
	FieldTitle       Field = "title"
	FieldDeveloper   Field = "developer"
	FieldPublisher   Field = "publisher"
	FieldSeries      Field = "series"
	FieldGenre       Field = "genre"
	FieldPlatform    Field = "platform"
	FieldNotes       Field = "notes"
	FieldReleaseDate Field = "releaseDate"
	FieldPlayMode    Field = "playMode"
	FieldSource      Field = "source"
	FieldRegion      Field = "region"
	FieldLanguage    Field = "language"
	FieldStatus      Field = "status"
	FieldVersion     Field = "version"
	FieldLibrary     Field = "library"
	FieldID          Field = "id"
)

// qualifiers maps the lower-cased spelling users type to a Field.
var qualifiers = map[string]Field{
	"title":       FieldTitle,
	"developer":   FieldDeveloper,
	"dev":         FieldDeveloper,
	"publisher":   FieldPublisher,
	"pub":         FieldPublisher,
	"series":      FieldSeries,
	"genre":       FieldGenre,
	"tag":         FieldGenre,
	"platform":    FieldPlatform,
	"notes":       FieldNotes,
	"releasedate": FieldReleaseDate,
	"year":        FieldReleaseDate,
	"playmode":    FieldPlayMode,
	"source":      FieldSource,
	"region":      FieldRegion,
	"language":    FieldLanguage,
	"lang":        FieldLanguage,
	"status":      FieldStatus,
	"version":     FieldVersion,
	"library":     FieldLibrary,
	"id":          FieldID,
}

// Token is one term of a parsed search.
type Token struct {
	Field  Field
	Value  string
	Negate bool

	folded string
}

// NewToken builds a token, precomputing its comparison key.
func NewToken(field Field, value string, negate bool) Token {
	return Token{Field: field, Value: value, Negate: negate, folded: normalize.Fold(value)}
}

// ParseSearch splits search text into tokens.
//
// Tokens are separated by whitespace. Double quotes group a phrase, also
// after a qualifier (developer:"id Software"). A known qualifier followed
// by ':' restricts the token to that field; an unknown one is plain text.
// A leading '-' negates the token.
func ParseSearch(text string) []Token {
	var tokens []Token
	for _, word := range splitWords(text) {
		negate := false
		if len(word) > 1 && word[0] == '-' {
			negate = true
			word = word[1:]
		}

		field := FieldAny
		value := word
		if name, rest, ok := strings.Cut(word, ":"); ok && !strings.HasPrefix(word, `"`) {
			if f, known := qualifiers[strings.ToLower(name)]; known {
				field, value = f, rest
			}
		}

		value = strings.TrimSpace(strings.ReplaceAll(value, `"`, ""))
		if value == "" {
			continue
		}
		tokens = append(tokens, NewToken(field, value, negate))
	}
	return tokens
}

// splitWords splits on whitespace outside double quotes. An unterminated
// quote runs to the end of the text.
func splitWords(text string) []string {
	var (
		words   []string
		current strings.Builder
		quoted  bool
	)
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}

// MatchToken reports whether g satisfies one token, honoring negation.
func MatchToken(g *domain.Game, t Token) bool {
	hit := matchField(g, t)
	if t.Negate {
		return !hit
	}
	return hit
}

func matchField(g *domain.Game, t Token) bool {
	switch t.Field {
	case FieldAny:
		return normalize.Contains(g.Title, t.folded) ||
			normalize.Contains(g.Developer, t.folded) ||
			normalize.Contains(g.Publisher, t.folded) ||
			normalize.Contains(g.Series, t.folded) ||
			normalize.Contains(g.Genre, t.folded) ||
			normalize.Contains(g.Notes, t.folded)
	case FieldTitle:
		return normalize.Contains(g.Title, t.folded) || normalize.Contains(g.AlternateTitles, t.folded)
	case FieldDeveloper:
		return normalize.Contains(g.Developer, t.folded)
	case FieldPublisher:
		return normalize.Contains(g.Publisher, t.folded)
	case FieldSeries:
		return normalize.Contains(g.Series, t.folded)
	case FieldGenre:
		return normalize.Contains(g.Genre, t.folded)
	case FieldPlatform:
		return normalize.Contains(g.Platform, t.folded)
	case FieldNotes:
		return normalize.Contains(g.Notes, t.folded)
	case FieldReleaseDate:
		if isYear(t.Value) {
			return ReleaseYear(g.ReleaseDate) == t.Value
		}
		return normalize.Contains(g.ReleaseDate, t.folded)
	case FieldPlayMode:
		return normalize.Contains(g.PlayMode, t.folded)
	case FieldSource:
		return normalize.Contains(g.Source, t.folded)
	case FieldRegion:
		return normalize.Contains(g.Region, t.folded)
	case FieldLanguage:
		return matchLanguage(g.Language, t)
	case FieldStatus:
		return normalize.Contains(g.Status, t.folded)
	case FieldVersion:
		return normalize.Contains(g.Version, t.folded)
	case FieldLibrary:
		return normalize.Fold(g.Library) == t.folded
	case FieldID:
		return strings.EqualFold(g.ID, t.Value)
	default:
		return false
	}
}

// matchLanguage accepts codes and names ("de", "deu", "German") for each
// listed language, then falls back to substring matching.
func matchLanguage(languages string, t Token) bool {
	for part := range strings.FieldsFuncSeq(languages, func(r rune) bool { return r == ';' || r == ',' }) {
		if normalize.SameLanguage(strings.TrimSpace(part), t.Value) {
			return true
		}
	}
	return normalize.Contains(languages, t.folded)
}

// ReleaseYear returns the four-digit year a release date starts with, as
// written. "1991-12-15T00:00:00-08:00" yields "1991" whatever the offset.
func ReleaseYear(releaseDate string) string {
	s := strings.TrimSpace(releaseDate)
	if len(s) < 4 || !isYear(s[:4]) {
		return ""
	}
	return s[:4]
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := range 4 {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
