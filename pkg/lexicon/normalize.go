package lexicon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	// NFKD then drop everything outside ASCII: combining marks and any letter
	// without a decomposition (ß, ø) disappear.
	foldASCII = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
)

// NormalizeLowercaseASCII lowercases and strips accents (e.g. DUPONT, Élodie -> elodie).
func NormalizeLowercaseASCII(s string) string {
	result, _, _ := transform.String(stripAccents, strings.ToLower(s))
	return result
}

// FoldNFKD applies canonical decomposition, removes every non-ASCII rune and
// lowercases the result. "José" -> "jose", "Müller" -> "muller", "ß" -> "".
func FoldNFKD(s string) string {
	result, _, err := transform.String(foldASCII, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(result)
}

// CollapseSpaces trims s and replaces runs of whitespace with one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
