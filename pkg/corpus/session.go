package corpus

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
	"github.com/hazyhaar/touchstone-templates/pkg/names"
	"github.com/hazyhaar/touchstone-templates/pkg/template"
	"github.com/hazyhaar/touchstone-templates/pkg/vocab"
)

// Encoding is the outcome of one online request.
type Encoding struct {
	Status     Status            `json:"status"`
	Identifier string            `json:"identifier"`
	Template   template.Template `json:"template"`
	Sequence   []int             `json:"sequence,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// RecentFailures bounds the failure records a Session keeps per kind.
const RecentFailures = 100

// Session encodes single pairs on demand, keeping one vocabulary and one set
// of stats per kind for its lifetime. Calls are serialized by a mutex so id
// assignment follows request order.
type Session struct {
	mu       sync.Mutex
	email    *template.LocalPartTokenizer
	domain   *template.DomainTokenizer
	vocabs   map[Kind]*vocab.Vocabulary
	failures *FailureLog
}

// NewSession returns a session backed by lex. failures may be nil.
func NewSession(lex *lexicon.Lexicon, cacheSize int, failures *FailureLog) *Session {
	s := &Session{
		email: template.NewLocalPartTokenizer(
			names.NewDecomposer(lex, cacheSize),
			names.NewGenerator(lex, cacheSize),
		),
		domain: template.NewDomainTokenizer(lex, cacheSize),
		vocabs: map[Kind]*vocab.Vocabulary{
			KindEmail:  vocab.New(),
			KindDomain: vocab.New(),
		},
		failures: failures,
	}
	s.email.Stats.Keep = RecentFailures
	s.domain.Stats.Keep = RecentFailures
	return s
}

// EncodeEmail tokenizes the local-part of email against name. A value
// without @ is taken as the local-part itself.
func (s *Session) EncodeEmail(name, email string) Encoding {
	local := strings.TrimSpace(email)
	if l, _, ok := SplitEmail(email); ok {
		local = l
	}
	if local == "" || strings.TrimSpace(name) == "" {
		return s.fail(KindEmail, name, Encoding{Status: StatusInvalidInput, Identifier: local})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, err := s.email.Tokenize(name, local)
	if err != nil {
		return s.fail(KindEmail, name, Encoding{
			Status:     StatusDecompositionFailed,
			Identifier: local,
			Error:      err.Error(),
		})
	}
	return s.assign(KindEmail, name, strings.ToLower(local), tpl)
}

// EncodeDomain tokenizes the root of domain against firm. A bare root is
// accepted as is.
func (s *Session) EncodeDomain(firm, domain string) Encoding {
	root := template.DomainRoot(domain)
	if root == "" || strings.TrimSpace(firm) == "" {
		return s.fail(KindDomain, firm, Encoding{Status: StatusInvalidInput, Identifier: root})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.assign(KindDomain, firm, root, s.domain.Tokenize(firm, root))
}

// assign must be called with s.mu held.
func (s *Session) assign(kind Kind, subject, identifier string, tpl template.Template) Encoding {
	if tpl == nil {
		return s.fail(kind, subject, Encoding{Status: StatusUnknown, Identifier: identifier})
	}
	seq, err := s.vocabs[kind].AssignEncode(tpl)
	if err != nil {
		return s.fail(kind, subject, Encoding{Status: StatusUnknown, Identifier: identifier, Error: err.Error()})
	}
	return Encoding{Status: StatusOK, Identifier: identifier, Template: tpl, Sequence: seq}
}

func (s *Session) fail(kind Kind, subject string, enc Encoding) Encoding {
	s.failures.Log(FailureEntry{
		Kind:       kind,
		Status:     enc.Status,
		Subject:    subject,
		Identifier: enc.Identifier,
		Error:      enc.Error,
	})
	return enc
}

// Decode maps ids through the vocabulary of kind.
func (s *Session) Decode(kind Kind, ids []int) (template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vocabs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return v.Decode(ids)
}

// Vocabulary returns the tokens of kind in id order.
func (s *Session) Vocabulary(kind Kind) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vocabs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return v.Tokens(), nil
}

// Restore replaces the vocabulary of kind, typically with one loaded from a
// stored run, so new requests keep its ids.
func (s *Session) Restore(kind Kind, v *vocab.Vocabulary) error {
	if _, ok := ParseKind(string(kind)); !ok {
		return fmt.Errorf("unknown kind %q", kind)
	}
	if v == nil {
		return fmt.Errorf("restore %s: nil vocabulary", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocabs[kind] = v
	return nil
}

// Stats returns a snapshot of the tokenizer counters per kind. Only the
// RecentFailures most recent failure records are included.
func (s *Session) Stats() map[Kind]template.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[Kind]template.Stats{
		KindEmail:  s.email.Stats.Snapshot(),
		KindDomain: s.domain.Stats.Snapshot(),
	}
}
