package template

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"

	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
	"github.com/hazyhaar/touchstone-templates/pkg/memo"
)

var (
	reFirmBreak = regexp.MustCompile(`[-/]`)
	reFirmPunct = regexp.MustCompile(`[^\w\s]`)
)

// FirmWords normalizes a firm name into its ordered words: accents folded,
// lowercased, dashes and slashes split, & spelled "and", other punctuation
// removed. "J.P. Morgan / Asset Mgmt" -> [jp morgan asset mgmt].
func FirmWords(firm string) []string {
	s := lexicon.FoldNFKD(strings.TrimSpace(firm))
	s = reFirmBreak.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&", "and")
	s = reFirmPunct.ReplaceAllString(s, "")
	return strings.Fields(s)
}

// DomainRoot returns the registrable label of a domain: the eTLD+1 minus its
// public suffix ("mail.baincapital.co.uk" -> "baincapital"). Domains the
// public suffix list cannot split fall back to their first label.
func DomainRoot(domain string) string {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" {
		return ""
	}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(d); err == nil {
		suffix, _ := publicsuffix.PublicSuffix(etld1)
		if root := strings.TrimSuffix(etld1, "."+suffix); root != "" && root != etld1 {
			return root
		}
	}
	first, _, _ := strings.Cut(d, ".")
	return first
}

// DomainTokenizer matches domain roots against firm names. Scan is safe for
// concurrent use; Tokenize updates Stats and is not.
type DomainTokenizer struct {
	suffixes []string
	words    memo.Cache[string, []string]

	Stats Stats
}

// NewDomainTokenizer returns a tokenizer using the industry and legal
// suffixes of lex. Firm word lists are memoized per firm name; cacheSize <= 0
// keeps all of them.
func NewDomainTokenizer(lex *lexicon.Lexicon, cacheSize int) *DomainTokenizer {
	return &DomainTokenizer{
		suffixes: lex.DomainSuffixes(),
		words:    memo.New[string, []string](cacheSize),
	}
}

// Tokenize scans root against firm and records the outcome in t.Stats. It
// returns nil when any character is unmatched.
func (t *DomainTokenizer) Tokenize(firm, root string) Template {
	return t.Stats.Record(firm, t.Scan(firm, root))
}

// Scan scans root against firm without recording anything.
func (t *DomainTokenizer) Scan(firm, root string) Scan {
	return scanDomainRoot(strings.ToLower(root), t.words.Get(firm, FirmWords), t.suffixes)
}

func scanDomainRoot(root string, words, suffixes []string) Scan {
	sc := Scan{Input: root, Tokens: make(Template, 0, 4)}

	for i := 0; i < len(root); {
		rest := root[i:]

		if tok, n := matchFirmWord(rest, words); n > 0 {
			sc.Tokens = append(sc.Tokens, tok)
			i += n
			continue
		}
		if suffix := matchSuffix(rest, suffixes); suffix != "" {
			sc.Tokens = append(sc.Tokens, suffix)
			i += len(suffix)
			continue
		}
		if tok, n := matchFirmPrefix(rest, words); n > 0 {
			sc.Tokens = append(sc.Tokens, tok)
			i += n
			continue
		}

		r, size := utf8.DecodeRuneInString(rest)
		switch r {
		case '-', '_':
			sc.Tokens = append(sc.Tokens, string(r))
		default:
			sc.Tokens = append(sc.Tokens, UNK)
			sc.Unknown++
		}
		i += size
	}
	return sc
}

func matchFirmWord(rest string, words []string) (string, int) {
	for idx, w := range words {
		if w != "" && strings.HasPrefix(rest, w) {
			return strconv.Itoa(idx), len(w)
		}
	}
	return "", 0
}

func matchSuffix(rest string, suffixes []string) string {
	for _, s := range suffixes {
		if s != "" && strings.HasPrefix(rest, s) {
			return s
		}
	}
	return ""
}

// matchFirmPrefix tries, word by word, the word's proper prefixes from
// longest to shortest.
func matchFirmPrefix(rest string, words []string) (string, int) {
	for idx, w := range words {
		for n := len(w) - 1; n >= 1; n-- {
			if strings.HasPrefix(rest, w[:n]) {
				return strconv.Itoa(idx) + "_sub_" + strconv.Itoa(n), n
			}
		}
	}
	return "", 0
}
