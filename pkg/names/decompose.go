// Package names splits full person names into first, middle and last word
// groups and generates the spellings under which each word may appear in an
// email local-part.
package names

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
	"github.com/hazyhaar/touchstone-templates/pkg/memo"
)

// ErrNoGivenName is wrapped by DecompositionError when neither a given name
// nor a title could be found.
var ErrNoGivenName = errors.New("no given name or title")

// DecompositionError reports a full name that cannot be decomposed. It is a
// per-row failure: callers count it and skip the row.
type DecompositionError struct {
	Input string
	Err   error
}

func (e *DecompositionError) Error() string {
	return fmt.Sprintf("decompose name %q: %v", e.Input, e.Err)
}

func (e *DecompositionError) Unwrap() error { return e.Err }

// DecomposedName holds the elementary, lowercased words of each name role.
// Values returned by a Decomposer are shared through its cache and must not
// be modified.
type DecomposedName struct {
	First  []string `json:"first"`
	Middle []string `json:"middle"`
	Last   []string `json:"last"`
}

// Group returns the words of one role.
func (n *DecomposedName) Group(g Group) []string {
	switch g {
	case First:
		return n.First
	case Middle:
		return n.Middle
	case Last:
		return n.Last
	}
	return nil
}

// Group identifies a name role.
type Group int

const (
	First Group = iota
	Middle
	Last
)

// Groups lists the roles in matching order.
var Groups = [...]Group{First, Middle, Last}

func (g Group) String() string {
	switch g {
	case First:
		return "first"
	case Middle:
		return "middle"
	case Last:
		return "last"
	}
	return "unknown"
}

// Initial returns the one-letter label used by initial tokens (f, m, l).
func (g Group) Initial() string {
	return g.String()[:1]
}

type decomposition struct {
	name *DecomposedName
	err  error
}

// Decomposer parses full names. Results, failures included, are memoized per
// exact input string; a Decomposer is safe for concurrent use.
type Decomposer struct {
	lex   *lexicon.Lexicon
	cache memo.Cache[string, decomposition]
}

// NewDecomposer returns a Decomposer backed by lex. cacheSize <= 0 keeps every
// distinct input for the life of the Decomposer.
func NewDecomposer(lex *lexicon.Lexicon, cacheSize int) *Decomposer {
	return &Decomposer{
		lex:   lex,
		cache: memo.New[string, decomposition](cacheSize),
	}
}

// Decompose splits fullName into first, middle and last words. It returns a
// *DecompositionError when no given name (and no title to stand in for it)
// is present.
func (d *Decomposer) Decompose(fullName string) (*DecomposedName, error) {
	r := d.cache.Get(fullName, d.decompose)
	return r.name, r.err
}

// CacheLen reports how many distinct inputs are memoized.
func (d *Decomposer) CacheLen() int { return d.cache.Len() }

func (d *Decomposer) decompose(fullName string) decomposition {
	roles := d.assignRoles(fullName)

	first := splitWords(roles.first)
	if len(first) == 0 {
		first = splitWords(roles.title)
	}
	if len(first) == 0 {
		return decomposition{err: &DecompositionError{Input: fullName, Err: ErrNoGivenName}}
	}

	return decomposition{name: &DecomposedName{
		First:  first,
		Middle: splitWords(roles.middle),
		Last:   splitWords(roles.last),
	}}
}

// roles are the raw pieces assigned to each grammatical role.
type roles struct {
	title, first, middle, last []string
}

// assignRoles implements the grammar: optional leading titles, a given name,
// middle names, and a surname that starts at the first name prefix (van,
// bin, de...) or is the final piece. "Last, First Middle" is accepted, and
// trailing generational or degree suffixes are dropped.
func (d *Decomposer) assignRoles(fullName string) roles {
	var r roles

	s := strings.Map(func(c rune) rune {
		switch c {
		case '"', '<', '>', '(', ')':
			return ' '
		}
		return c
	}, fullName)

	segments := splitSegments(s)
	if len(segments) == 0 {
		return r
	}

	main := strings.Fields(segments[0])
	rest := segments[1:]

	// "Smith, John" puts the surname first unless what follows the comma is
	// only suffixes ("John Smith, Jr.").
	var lastFirst []string
	if len(rest) > 0 && !d.allSuffixes(strings.Fields(rest[0])) {
		lastFirst = main
		main = strings.Fields(rest[0])
	}

	for len(main) > 0 && d.lex.IsTitle(key(main[0])) {
		r.title = append(r.title, main[0])
		main = main[1:]
	}
	for len(main) > 1 && d.lex.IsNameSuffix(key(main[len(main)-1])) {
		main = main[:len(main)-1]
	}
	if lastFirst != nil {
		for len(lastFirst) > 1 && d.lex.IsNameSuffix(key(lastFirst[len(lastFirst)-1])) {
			lastFirst = lastFirst[:len(lastFirst)-1]
		}
		r.last = lastFirst
		if len(main) > 0 {
			r.first = main[:1]
			r.middle = main[1:]
		}
		return r
	}

	switch n := len(main); {
	case n == 0:
	case n == 1 && len(r.title) > 0:
		// "Dr. Smith": the lone piece is a surname, the title stands in
		// for the given name.
		r.last = main
	case n == 1:
		r.first = main
	default:
		r.first = main[:1]
		for i := 1; i < n; i++ {
			if d.lex.IsNamePrefix(key(main[i])) {
				r.last = main[i:]
				break
			}
			if i < n-1 {
				r.middle = append(r.middle, main[i])
			} else {
				r.last = main[i:]
			}
		}
	}
	return r
}

func (d *Decomposer) allSuffixes(words []string) bool {
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if !d.lex.IsNameSuffix(key(w)) {
			return false
		}
	}
	return true
}

func splitSegments(s string) []string {
	var out []string
	for _, seg := range strings.Split(s, ",") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// key is the lookup form of a piece: lowercased, periods removed ("Ph.D." -> "phd").
func key(piece string) string {
	return strings.ToLower(strings.ReplaceAll(piece, ".", ""))
}

// splitWords lowercases pieces, removes apostrophes and other punctuation,
// and splits on hyphens: "O'Neill-Jones" -> [oneill jones].
func splitWords(pieces []string) []string {
	var out []string
	for _, p := range pieces {
		cleaned := strings.Map(func(c rune) rune {
			switch {
			case c == '-' || unicode.IsSpace(c):
				return ' '
			case unicode.IsLetter(c) || unicode.IsMark(c) || unicode.IsDigit(c):
				return unicode.ToLower(c)
			}
			return -1
		}, p)
		out = append(out, strings.Fields(cleaned)...)
	}
	return out
}
