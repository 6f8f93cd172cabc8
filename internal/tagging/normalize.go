package tagging

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics lowercases s and strips combining marks, keeping punctuation.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Normalize folds case and diacritics, drops apostrophes and turns every other
// non alphanumeric rune into a single space.
func Normalize(s string) string {
	folded := foldDiacritics(s)

	var sb strings.Builder
	sb.Grow(len(folded))
	space := true
	for _, r := range folded {
		switch {
		case r == '\'' || r == '’' || r == '`' || r == '´':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			space = false
		default:
			if !space {
				sb.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// Slug is Normalize with words joined by '-'.
func Slug(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "-")
}

// Fold is the comparison key for case and diacritic insensitive equality.
func Fold(s string) string {
	return Slug(s)
}

// EqualFold reports whether a and b are equal ignoring case and diacritics.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Humanize turns a slug back into a display label: "a-prova-dagua" -> "A prova dagua".
func Humanize(slug string) string {
	s := strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func containsPhrase(normalizedText, phrase string) bool {
	if phrase == "" || normalizedText == "" {
		return false
	}
	return strings.Contains(" "+normalizedText+" ", " "+phrase+" ")
}
