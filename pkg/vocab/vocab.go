// Package vocab maps template tokens to dense integer ids for sequential
// pattern mining, and back.
//
// Ids are handed out from 1 in first-occurrence order, so a Vocabulary is
// only reproducible when the same templates are assigned in the same order.
// A Vocabulary is an explicit value owned by one batch; it is not safe for
// concurrent use.
package vocab

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/touchstone-templates/pkg/template"
)

// ErrUnknownInTemplate is returned by Assign for a template holding UNK.
var ErrUnknownInTemplate = errors.New("template contains UNK")

// LookupError is returned by Decode for an id outside the mapping. It means
// the corpus and the vocabulary do not belong together.
type LookupError struct {
	ID int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("vocabulary lookup: unknown id %d", e.ID)
}

// UnassignedTokenError is returned by Encode for a token never assigned.
type UnassignedTokenError struct {
	Token string
}

func (e *UnassignedTokenError) Error() string {
	return fmt.Sprintf("vocabulary encode: token %q was never assigned", e.Token)
}

// Vocabulary is a bijection between token strings and ids 1..Len().
type Vocabulary struct {
	ids    map[string]int
	tokens []string // tokens[id-1]
}

// New returns an empty vocabulary.
func New() *Vocabulary {
	return &Vocabulary{ids: make(map[string]int)}
}

// FromTokens rebuilds a vocabulary whose id i+1 is tokens[i].
func FromTokens(tokens []string) (*Vocabulary, error) {
	v := New()
	for i, tok := range tokens {
		if tok == "" || tok == template.UNK {
			return nil, fmt.Errorf("vocabulary id %d: invalid token %q", i+1, tok)
		}
		if _, dup := v.ids[tok]; dup {
			return nil, fmt.Errorf("vocabulary id %d: duplicate token %q", i+1, tok)
		}
		v.add(tok)
	}
	return v, nil
}

// Assign gives the next free id to every token of t not seen before, in
// order. Templates holding UNK are rejected before anything is assigned.
func (v *Vocabulary) Assign(t template.Template) error {
	if t.HasUnknown() {
		return ErrUnknownInTemplate
	}
	for _, tok := range t {
		if _, ok := v.ids[tok]; !ok {
			v.add(tok)
		}
	}
	return nil
}

// AssignEncode assigns t and returns its id sequence.
func (v *Vocabulary) AssignEncode(t template.Template) ([]int, error) {
	if err := v.Assign(t); err != nil {
		return nil, err
	}
	return v.Encode(t)
}

// Encode maps every token through the current mapping.
func (v *Vocabulary) Encode(t template.Template) ([]int, error) {
	out := make([]int, len(t))
	for i, tok := range t {
		id, ok := v.ids[tok]
		if !ok {
			return nil, &UnassignedTokenError{Token: tok}
		}
		out[i] = id
	}
	return out, nil
}

// Decode maps ids back to tokens.
func (v *Vocabulary) Decode(ids []int) (template.Template, error) {
	out := make(template.Template, len(ids))
	for i, id := range ids {
		tok, ok := v.Token(id)
		if !ok {
			return nil, &LookupError{ID: id}
		}
		out[i] = tok
	}
	return out, nil
}

// ID returns the id of tok.
func (v *Vocabulary) ID(tok string) (int, bool) {
	id, ok := v.ids[tok]
	return id, ok
}

// Token returns the token of id.
func (v *Vocabulary) Token(id int) (string, bool) {
	if id < 1 || id > len(v.tokens) {
		return "", false
	}
	return v.tokens[id-1], true
}

// Len returns the number of assigned tokens, which is also the highest id.
func (v *Vocabulary) Len() int { return len(v.tokens) }

// Tokens returns the tokens in id order (index i holds id i+1).
func (v *Vocabulary) Tokens() []string {
	return append([]string(nil), v.tokens...)
}

// Equal reports whether both vocabularies hold the same mapping. Two nil
// vocabularies are equal; nil never equals a non-nil one.
func (v *Vocabulary) Equal(o *Vocabulary) bool {
	if v == nil || o == nil {
		return v == o
	}
	if len(v.tokens) != len(o.tokens) {
		return false
	}
	for i := range v.tokens {
		if v.tokens[i] != o.tokens[i] {
			return false
		}
	}
	return true
}

func (v *Vocabulary) add(tok string) {
	v.tokens = append(v.tokens, tok)
	v.ids[tok] = len(v.tokens)
}
