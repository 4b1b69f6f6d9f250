// Package template turns identifiers into structural templates: ordered
// token sequences describing how an email local-part was built from a
// person's name, or how a domain root was built from a firm's name.
//
// Both tokenizers are greedy left-to-right scanners with a fixed candidate
// order and no backtracking. An identifier with any unmatched character
// yields no template.
package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hazyhaar/touchstone-templates/pkg/names"
)

// UNK is emitted for a character that matches nothing. A template holding
// UNK is discarded.
const UNK = "UNK"

// ErrMalformedToken is returned by ParseToken for strings outside the token
// grammar.
var ErrMalformedToken = errors.New("malformed template token")

// Template is an ordered sequence of tokens for one identifier.
type Template []string

// HasUnknown reports whether t contains the UNK sentinel.
func (t Template) HasUnknown() bool {
	for _, tok := range t {
		if tok == UNK {
			return true
		}
	}
	return false
}

// Equal reports whether both templates hold the same tokens in order.
func (t Template) Equal(o Template) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

// Key is a canonical single-string form, used to count distinct templates.
func (t Template) Key() string { return strings.Join(t, " ") }

// Kind classifies a parsed token.
type Kind int

const (
	KindSeparator  Kind = iota // . - _
	KindName                   // first_original_0
	KindInitial                // f_0
	KindFirmWord               // 0
	KindFirmPrefix             // 0_sub_3
	KindSuffix                 // capital, llc
)

func (k Kind) String() string {
	switch k {
	case KindSeparator:
		return "separator"
	case KindName:
		return "name"
	case KindInitial:
		return "initial"
	case KindFirmWord:
		return "firm_word"
	case KindFirmPrefix:
		return "firm_prefix"
	case KindSuffix:
		return "suffix"
	}
	return "unknown"
}

// Flags record which spelling transforms a name token declares.
type Flags uint8

const (
	FlagOriginal Flags = 1 << iota
	FlagNFKD
	FlagTranslit
	FlagNickname
	FlagSurnameParticle
)

var flagNames = []struct {
	name string
	flag Flags
}{
	{"original", FlagOriginal},
	{"nfkd", FlagNFKD},
	{"translit", FlagTranslit},
	{"nickname", FlagNickname},
	{"surp", FlagSurnameParticle},
}

// Token is the structured form of one template token.
type Token struct {
	Kind      Kind
	Group     names.Group // KindName, KindInitial
	Index     int         // word index: name, initial, firm word and firm prefix tokens
	Flags     Flags       // KindName
	Separator string      // KindSeparator
	Suffix    string      // KindSuffix
	PrefixLen int         // KindFirmPrefix
}

// ParseToken parses one token string.
//
//	.  -  _                        separators
//	<first|middle|last>[_flag]*_N  full name word N; flags among original,
//	                               nfkd, translit, nickname, surp
//	<f|m|l>_N                      initial of name word N
//	N                              firm word N
//	N_sub_K                        first K bytes of firm word N
//	[a-z]+                         industry or legal suffix
func ParseToken(s string) (Token, error) {
	if len(s) == 1 && isSeparator(s[0]) {
		return Token{Kind: KindSeparator, Separator: s}, nil
	}
	if s == UNK || s == "" {
		return Token{}, malformed(s)
	}
	if n, ok := parseIndex(s); ok {
		return Token{Kind: KindFirmWord, Index: n}, nil
	}

	parts := strings.Split(s, "_")
	if len(parts) == 1 {
		if !isLowerWord(s) || groupByLabel(s) >= 0 {
			return Token{}, malformed(s)
		}
		return Token{Kind: KindSuffix, Suffix: s}, nil
	}

	idx, ok := parseIndex(parts[len(parts)-1])
	if !ok {
		return Token{}, malformed(s)
	}

	if len(parts) == 3 && parts[1] == "sub" {
		word, ok := parseIndex(parts[0])
		if !ok || idx == 0 {
			return Token{}, malformed(s)
		}
		return Token{Kind: KindFirmPrefix, Index: word, PrefixLen: idx}, nil
	}

	if len(parts[0]) == 1 {
		g := groupByInitial(parts[0])
		if g < 0 || len(parts) != 2 {
			return Token{}, malformed(s)
		}
		return Token{Kind: KindInitial, Group: g, Index: idx}, nil
	}

	g := groupByLabel(parts[0])
	if g < 0 {
		return Token{}, malformed(s)
	}
	t := Token{Kind: KindName, Group: g, Index: idx}
	for _, p := range parts[1 : len(parts)-1] {
		f, ok := flagByName(p)
		if !ok {
			return Token{}, malformed(s)
		}
		t.Flags |= f
	}
	return t, nil
}

// ParseTemplate parses every token of t.
func ParseTemplate(t Template) ([]Token, error) {
	out := make([]Token, 0, len(t))
	for _, s := range t {
		tok, err := ParseToken(s)
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

// String renders the token back to its string form. Name tokens render
// their flags in grammar order.
func (t Token) String() string {
	switch t.Kind {
	case KindSeparator:
		return t.Separator
	case KindName:
		var b strings.Builder
		b.WriteString(t.Group.String())
		for _, fn := range flagNames {
			if t.Flags&fn.flag != 0 {
				b.WriteByte('_')
				b.WriteString(fn.name)
			}
		}
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(t.Index))
		return b.String()
	case KindInitial:
		return t.Group.Initial() + "_" + strconv.Itoa(t.Index)
	case KindFirmWord:
		return strconv.Itoa(t.Index)
	case KindFirmPrefix:
		return strconv.Itoa(t.Index) + "_sub_" + strconv.Itoa(t.PrefixLen)
	case KindSuffix:
		return t.Suffix
	}
	return UNK
}

func nameToken(g names.Group, idx int) string {
	return g.String() + "_original_" + strconv.Itoa(idx)
}

func initialToken(g names.Group, idx int) string {
	return g.Initial() + "_" + strconv.Itoa(idx)
}

func malformed(s string) error {
	return fmt.Errorf("%w: %q", ErrMalformedToken, s)
}

func isSeparator(c byte) bool {
	return c == '.' || c == '-' || c == '_'
}

// parseIndex accepts plain decimal digits only (no sign, no spaces).
func parseIndex(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func isLowerWord(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return s != ""
}

func groupByLabel(s string) names.Group {
	for _, g := range names.Groups {
		if g.String() == s {
			return g
		}
	}
	return -1
}

func groupByInitial(s string) names.Group {
	for _, g := range names.Groups {
		if g.Initial() == s {
			return g
		}
	}
	return -1
}

func flagByName(s string) (Flags, bool) {
	for _, fn := range flagNames {
		if fn.name == s {
			return fn.flag, true
		}
	}
	return 0, false
}
