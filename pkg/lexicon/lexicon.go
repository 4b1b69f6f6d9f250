// Package lexicon holds the static lookup tables behind template encoding
// (Germanic transliteration, surname particles, titles, firm suffixes,
// nicknames) together with the lexical normalizers built on them.
//
// A Lexicon is immutable once built and safe for concurrent use.
package lexicon

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Lexicon is a loaded manifest with its lookup structures precomputed.
type Lexicon struct {
	Manifest *Manifest

	translit  *strings.Replacer
	particles []string
	prefixes  map[string]struct{}
	titles    map[string]struct{}
	suffixes  map[string]struct{}
	nicknames map[string][]string
	formalOf  map[string][]string
	formal    []string
}

// Default returns the lexicon embedded in the binary.
func Default() *Lexicon {
	m, err := parseManifest(defaultManifest)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return New(m)
}

// Load reads a lexicon from path. Files ending in .gob are decoded with
// LoadGob, anything else is parsed as a YAML manifest. An empty path
// returns the embedded default.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}
	if filepath.Ext(path) == ".gob" {
		m, err := LoadGob(path)
		if err != nil {
			return nil, err
		}
		return New(m), nil
	}
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return New(m), nil
}

// New builds the lookup structures for m. Table entries are lowercased.
func New(m *Manifest) *Lexicon {
	pairs := make([]string, 0, 2*len(m.Transliterations))
	for _, s := range m.Transliterations {
		pairs = append(pairs, s.From, s.To)
	}

	l := &Lexicon{
		Manifest:  m,
		translit:  strings.NewReplacer(pairs...),
		particles: dedupLower(m.SurnameParticles),
		prefixes:  toSet(m.NamePrefixes),
		titles:    toSet(m.Titles),
		suffixes:  toSet(m.NameSuffixes),
		nicknames: make(map[string][]string, len(m.Nicknames)),
		formalOf:  make(map[string][]string),
	}
	for formal, nicks := range m.Nicknames {
		key := strings.ToLower(formal)
		l.nicknames[key] = dedupLower(nicks)
		l.formal = append(l.formal, key)
	}
	sort.Strings(l.formal)
	for _, formal := range l.formal {
		for _, nick := range l.nicknames[formal] {
			l.formalOf[nick] = append(l.formalOf[nick], formal)
		}
	}
	return l
}

// Transliterate replaces every Germanic letter with its ASCII spelling
// (ü -> ue, ß -> ss). Other characters pass through unchanged.
func (l *Lexicon) Transliterate(s string) string {
	return l.translit.Replace(s)
}

// HasTransliteration reports whether s contains a character of the
// transliteration table.
func (l *Lexicon) HasTransliteration(s string) bool {
	for _, sub := range l.Manifest.Transliterations {
		if strings.Contains(s, sub.From) {
			return true
		}
	}
	return false
}

// SurnameParticles returns the particles fused in front of surname words, in
// manifest order. The slice must not be modified.
func (l *Lexicon) SurnameParticles() []string { return l.particles }

// IsNamePrefix reports whether word starts a compound surname.
func (l *Lexicon) IsNamePrefix(word string) bool { return has(l.prefixes, word) }

// IsTitle reports whether word is an honorific (mr, dr, prof...).
func (l *Lexicon) IsTitle(word string) bool { return has(l.titles, word) }

// IsNameSuffix reports whether word is a generational or degree suffix.
func (l *Lexicon) IsNameSuffix(word string) bool { return has(l.suffixes, word) }

// DomainSuffixes returns industry suffixes followed by legal suffixes, the
// order in which the domain-root tokenizer tries them.
func (l *Lexicon) DomainSuffixes() []string {
	out := make([]string, 0, len(l.Manifest.IndustrySuffixes)+len(l.Manifest.LegalSuffixes))
	out = append(out, l.Manifest.IndustrySuffixes...)
	out = append(out, l.Manifest.LegalSuffixes...)
	return out
}

// Nicknames returns the known nicknames of a formal given name.
func (l *Lexicon) Nicknames(formal string) []string {
	return l.nicknames[strings.ToLower(formal)]
}

// FormalOf returns the formal given names that nick is a nickname of,
// sorted.
func (l *Lexicon) FormalOf(nick string) []string {
	return l.formalOf[strings.ToLower(nick)]
}

// HasNicknameEntry reports whether word is a formal name with nicknames or
// a known nickname.
func (l *Lexicon) HasNicknameEntry(word string) bool {
	return len(l.Nicknames(word)) > 0 || len(l.FormalOf(word)) > 0
}

// FormalNames returns every given name with a nickname entry, sorted.
func (l *Lexicon) FormalNames() []string { return l.formal }

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

func has(set map[string]struct{}, word string) bool {
	_, ok := set[word]
	return ok
}

func dedupLower(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
