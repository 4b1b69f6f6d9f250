package template

import (
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/touchstone-templates/pkg/names"
)

// LocalPartTokenizer matches email local-parts against decomposed person
// names. Scan is safe for concurrent use; Tokenize updates Stats and is not.
type LocalPartTokenizer struct {
	dec *names.Decomposer
	gen *names.Generator

	Stats Stats
}

// NewLocalPartTokenizer returns a tokenizer sharing the given decomposer and
// variant generator (and their caches).
func NewLocalPartTokenizer(dec *names.Decomposer, gen *names.Generator) *LocalPartTokenizer {
	return &LocalPartTokenizer{dec: dec, gen: gen}
}

// Tokenize scans localPart against fullName and records the outcome in
// t.Stats. It returns a nil template when any character is unmatched, and a
// *names.DecompositionError (without touching Stats) when fullName cannot
// be decomposed.
func (t *LocalPartTokenizer) Tokenize(fullName, localPart string) (Template, error) {
	sc, err := t.Scan(fullName, localPart)
	if err != nil {
		return nil, err
	}
	return t.Stats.Record(fullName, sc), nil
}

// Scan decomposes fullName and scans localPart without recording anything.
func (t *LocalPartTokenizer) Scan(fullName, localPart string) (Scan, error) {
	n, err := t.dec.Decompose(fullName)
	if err != nil {
		return Scan{}, err
	}
	return t.ScanName(n, localPart), nil
}

// ScanName scans localPart against an already decomposed name.
func (t *LocalPartTokenizer) ScanName(n *names.DecomposedName, localPart string) Scan {
	var parts [len(names.Groups)][]*names.VariantSet
	for _, g := range names.Groups {
		words := n.Group(g)
		vs := make([]*names.VariantSet, len(words))
		for i, w := range words {
			vs[i] = t.gen.Variants(w, g == names.Last)
		}
		parts[g] = vs
	}
	return scanLocalPart(strings.ToLower(localPart), parts)
}

func scanLocalPart(lp string, parts [len(names.Groups)][]*names.VariantSet) Scan {
	sc := Scan{Input: lp, Tokens: make(Template, 0, 8)}

	for i := 0; i < len(lp); {
		rest := lp[i:]

		if tok, n := matchVariant(rest, parts); n > 0 {
			sc.Tokens = append(sc.Tokens, tok)
			i += n
			continue
		}
		if tok, n := matchInitial(rest, parts); n > 0 {
			sc.Tokens = append(sc.Tokens, tok)
			i += n
			continue
		}

		r, size := utf8.DecodeRuneInString(rest)
		switch r {
		case '.', '-', '_':
			sc.Tokens = append(sc.Tokens, string(r))
		default:
			sc.Tokens = append(sc.Tokens, UNK)
			sc.Unknown++
		}
		i += size
	}
	return sc
}

// matchVariant finds the first spelling, in group, word and spelling order,
// that rest starts with. The token always carries the original marker.
func matchVariant(rest string, parts [len(names.Groups)][]*names.VariantSet) (string, int) {
	for _, g := range names.Groups {
		for idx, vs := range parts[g] {
			for _, sp := range vs.Spellings() {
				if sp != "" && strings.HasPrefix(rest, sp) {
					return nameToken(g, idx), len(sp)
				}
			}
		}
	}
	return "", 0
}

// matchInitial compares the next character with the first character of
// each word's original spelling.
func matchInitial(rest string, parts [len(names.Groups)][]*names.VariantSet) (string, int) {
	r, size := utf8.DecodeRuneInString(rest)
	for _, g := range names.Groups {
		for idx, vs := range parts[g] {
			first, _ := utf8.DecodeRuneInString(vs.Original)
			if vs.Original != "" && first == r {
				return initialToken(g, idx), size
			}
		}
	}
	return "", 0
}
