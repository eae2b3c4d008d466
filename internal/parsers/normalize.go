package parsers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining diacritical marks so that "Poblaciòn" and
// "Poblacion" normalize identically. Captions mix English, Filipino and
// decorative Unicode freely.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips diacritics from s, leaving casing intact.
func Fold(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// Collapse lowercases s, strips diacritics and collapses runs of
// whitespace to single spaces.
func Collapse(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(Fold(s))), " ")
}
