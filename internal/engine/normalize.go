package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes and drops combining marks, so "Güímar" folds to
// "Guimar" and "ñ" to "n".
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, trims, collapses whitespace runs to a single space
// and folds accented vowels and ñ to plain ASCII. Every matching operation
// in the engine compares through this.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if folded, _, err := transform.String(stripAccents, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// municipalityAliases maps short colloquial spellings to the canonical long
// form, so that equivalent names compare equal after normalization.
var municipalityAliases = map[string]string{
	"la laguna":                  "san cristobal de la laguna",
	"san cristobal de la laguna": "san cristobal de la laguna",
	"santa cruz":                 "santa cruz de tenerife",
	"santa cruz de tenerife":     "santa cruz de tenerife",
	"vilaflor":                   "vilaflor de chasna",
	"vilaflor de chasna":         "vilaflor de chasna",
}

// NormalizeMunicipality applies Normalize and resolves the alias table.
func NormalizeMunicipality(s string) string {
	x := Normalize(s)
	if canonical, ok := municipalityAliases[x]; ok {
		return canonical
	}
	return x
}
