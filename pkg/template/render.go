package template

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/touchstone-templates/pkg/names"
)

// ErrIncompatibleName is returned when a template references a word the
// name or firm does not have.
var ErrIncompatibleName = errors.New("template does not fit name")

// RenderLocalPart builds the local-part a template describes for n. Name
// tokens render the original spelling, initials the first character.
func RenderLocalPart(n *names.DecomposedName, t Template) (string, error) {
	var b strings.Builder
	for _, s := range t {
		tok, err := ParseToken(s)
		if err != nil {
			return "", err
		}
		switch tok.Kind {
		case KindSeparator:
			b.WriteString(tok.Separator)
		case KindName, KindInitial:
			words := n.Group(tok.Group)
			if tok.Index >= len(words) {
				return "", fmt.Errorf("%w: %s has %d %s words", ErrIncompatibleName, s, len(words), tok.Group)
			}
			w := words[tok.Index]
			if tok.Kind == KindInitial {
				_, size := utf8.DecodeRuneInString(w)
				w = w[:size]
			}
			b.WriteString(w)
		default:
			return "", fmt.Errorf("%w: %q is a %s token", ErrMalformedToken, s, tok.Kind)
		}
	}
	return b.String(), nil
}

// RenderDomainRoot builds the domain root a template describes for the
// normalized firm words.
func RenderDomainRoot(words []string, t Template) (string, error) {
	var b strings.Builder
	for _, s := range t {
		tok, err := ParseToken(s)
		if err != nil {
			return "", err
		}
		switch tok.Kind {
		case KindSeparator:
			b.WriteString(tok.Separator)
		case KindSuffix:
			b.WriteString(tok.Suffix)
		case KindFirmWord, KindFirmPrefix:
			if tok.Index >= len(words) {
				return "", fmt.Errorf("%w: %s but firm has %d words", ErrIncompatibleName, s, len(words))
			}
			w := words[tok.Index]
			if tok.Kind == KindFirmPrefix {
				if tok.PrefixLen > len(w) {
					return "", fmt.Errorf("%w: %s longer than %q", ErrIncompatibleName, s, w)
				}
				w = w[:tok.PrefixLen]
			}
			b.WriteString(w)
		default:
			return "", fmt.Errorf("%w: %q is a %s token", ErrMalformedToken, s, tok.Kind)
		}
	}
	return b.String(), nil
}
