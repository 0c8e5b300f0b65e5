package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes diacritics ("Pond´s Crème" -> "Pond´s Creme"). A transformer
// is built per call because transform.Chain keeps state between writes.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldLower is Fold followed by lowercasing.
func FoldLower(s string) string {
	return strings.ToLower(Fold(s))
}

// Compact folds, lowercases and drops everything that is not a letter or a
// digit, so "Pond´s Crème" becomes "pondscreme".
func Compact(s string) string {
	var b strings.Builder
	for _, r := range FoldLower(s) {
		if isWordRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
