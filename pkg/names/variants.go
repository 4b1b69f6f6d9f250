package names

import (
	"sort"
	"strings"

	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
	"github.com/hazyhaar/touchstone-templates/pkg/memo"
)

// VariantSet holds the interchangeable spellings of one name word.
type VariantSet struct {
	Original     string   `json:"original"`
	Translit     string   `json:"translit"`
	NFKD         string   `json:"nfkd"`
	NFKDTranslit string   `json:"nfkd_translit"`
	Particles    []string `json:"particles,omitempty"` // surname words only, longest first

	spellings []string
}

// Spellings returns every spelling in matching order: original, translit,
// nfkd, nfkd_translit, then particle composites. Empty spellings are kept in
// place; matchers skip them. The slice must not be modified.
func (v *VariantSet) Spellings() []string { return v.spellings }

// Contains reports whether s is one of the spellings.
func (v *VariantSet) Contains(s string) bool {
	if s == "" {
		return false
	}
	for _, sp := range v.spellings {
		if sp == s {
			return true
		}
	}
	return false
}

type variantKey struct {
	word    string
	surname bool
}

// Generator derives VariantSets and memoizes them per (word, surname) pair.
// It is safe for concurrent use.
type Generator struct {
	lex   *lexicon.Lexicon
	cache memo.Cache[variantKey, *VariantSet]
}

// NewGenerator returns a Generator backed by lex. cacheSize <= 0 keeps every
// distinct word for the life of the Generator.
func NewGenerator(lex *lexicon.Lexicon, cacheSize int) *Generator {
	return &Generator{
		lex:   lex,
		cache: memo.New[variantKey, *VariantSet](cacheSize),
	}
}

// Variants returns the spellings of word. When surname is set, the set also
// carries one composite per surname particle (van + dijk -> vandijk).
// The returned value is shared and must not be modified.
func (g *Generator) Variants(word string, surname bool) *VariantSet {
	return g.cache.Get(variantKey{word: word, surname: surname}, g.generate)
}

// CacheLen reports how many (word, surname) pairs are memoized.
func (g *Generator) CacheLen() int { return g.cache.Len() }

func (g *Generator) generate(k variantKey) *VariantSet {
	original := strings.ToLower(strings.TrimSpace(k.word))
	translit := g.lex.Transliterate(original)

	v := &VariantSet{
		Original:     original,
		Translit:     translit,
		NFKD:         lexicon.FoldNFKD(original),
		NFKDTranslit: lexicon.FoldNFKD(translit),
	}
	if k.surname && original != "" {
		v.Particles = particleVariants(g.lex.SurnameParticles(), original)
	}

	v.spellings = make([]string, 0, 4+len(v.Particles))
	v.spellings = append(v.spellings, v.Original, v.Translit, v.NFKD, v.NFKDTranslit)
	v.spellings = append(v.spellings, v.Particles...)
	return v
}

func particleVariants(particles []string, surname string) []string {
	out := make([]string, 0, len(particles))
	for _, p := range particles {
		out = append(out, p+surname)
	}
	// Longest first; equal lengths keep lexicon order.
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
