package template

import (
	"errors"
	"testing"

	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
	"github.com/hazyhaar/touchstone-templates/pkg/names"
)

func newLocalPartTokenizer(t *testing.T) *LocalPartTokenizer {
	t.Helper()
	lex := lexicon.Default()
	return NewLocalPartTokenizer(names.NewDecomposer(lex, 0), names.NewGenerator(lex, 0))
}

func TestLocalPartTokenize(t *testing.T) {
	tests := []struct {
		name, lp string
		want     Template
	}{
		{"John Michael Smith", "john.m.smith", Template{"first_original_0", ".", "m_0", ".", "last_original_0"}},
		{"John Michael Smith", "jms", Template{"f_0", "m_0", "l_0"}},
		{"John Michael Smith", "JMS_", Template{"f_0", "m_0", "l_0", "_"}},
		{"John Smith", "John.Smith", Template{"first_original_0", ".", "last_original_0"}},
		{"John Smith", "smith-j", Template{"last_original_0", "-", "f_0"}},
		{"John O'Neill Jones", "john.oneilljones", Template{"first_original_0", ".", "middle_original_0", "last_original_0"}},
		{"Ali Bin Ahmad", "ali.b.ahmad", Template{"first_original_0", ".", "l_0", ".", "last_original_1"}},
		{"Mary-Anne Smith", "maryanne.smith", Template{"first_original_0", "first_original_1", ".", "last_original_0"}},
		{"Anna Dijk", "anna.vandijk", Template{"first_original_0", ".", "last_original_0"}},
		{"Jürgen Müller", "juergen.mueller", Template{"first_original_0", ".", "last_original_0"}},
		{"Jürgen Müller", "jurgen.muller", Template{"first_original_0", ".", "last_original_0"}},
		{"Jürgen Müller", "jürgen.müller", Template{"first_original_0", ".", "last_original_0"}},
		{"John Michael Smith", "abcxyz", nil},
	}
	for _, tt := range tests {
		tok := newLocalPartTokenizer(t)
		got, err := tok.Tokenize(tt.name, tt.lp)
		if err != nil {
			t.Errorf("Tokenize(%q, %q): %v", tt.name, tt.lp, err)
			continue
		}
		if tt.want == nil {
			if got != nil {
				t.Errorf("Tokenize(%q, %q) = %v, want nil", tt.name, tt.lp, got)
			}
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Tokenize(%q, %q) = %v, want %v", tt.name, tt.lp, got, tt.want)
		}
	}
}

func TestLocalPartUnknownDiscard(t *testing.T) {
	tok := newLocalPartTokenizer(t)

	sc, err := tok.Scan("John Smith", "john✓smith")
	if err != nil {
		t.Fatal(err)
	}
	want := Template{"first_original_0", UNK, "last_original_0"}
	if !sc.Tokens.Equal(want) {
		t.Errorf("Scan tokens = %v, want %v", sc.Tokens, want)
	}
	if sc.Unknown != 1 {
		t.Errorf("Unknown = %d, want 1 (one per rune)", sc.Unknown)
	}
	if sc.Template() != nil {
		t.Error("Template() should be nil when UNK is present")
	}
	if tok.Stats.Total != 0 {
		t.Error("Scan must not record stats")
	}
}

func TestLocalPartStats(t *testing.T) {
	tok := newLocalPartTokenizer(t)
	tok.Tokenize("John Michael Smith", "jms")
	tok.Tokenize("John Michael Smith", "abcxyz")
	tok.Tokenize("John Michael Smith", "john.smith")

	if tok.Stats.Total != 3 {
		t.Errorf("Total = %d, want 3", tok.Stats.Total)
	}
	if tok.Stats.UnkTokens != 6 {
		t.Errorf("UnkTokens = %d, want 6", tok.Stats.UnkTokens)
	}
	want := []Failure{{Subject: "John Michael Smith", Identifier: "abcxyz"}}
	if len(tok.Stats.UnkSequences) != 1 || tok.Stats.UnkSequences[0] != want[0] {
		t.Errorf("UnkSequences = %v, want %v", tok.Stats.UnkSequences, want)
	}

	snap := tok.Stats.Snapshot()
	tok.Stats.Reset()
	if snap.Total != 3 || len(snap.UnkSequences) != 1 {
		t.Error("Snapshot should survive Reset")
	}
}

func TestLocalPartDecompositionError(t *testing.T) {
	tok := newLocalPartTokenizer(t)
	_, err := tok.Tokenize("", "john")
	var de *names.DecompositionError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DecompositionError", err)
	}
	if tok.Stats.Total != 0 {
		t.Errorf("Total = %d; decomposition failures are not tokenizer calls", tok.Stats.Total)
	}
}

func TestLocalPartDiacriticInvariance(t *testing.T) {
	tok := newLocalPartTokenizer(t)
	ascii, _ := tok.Tokenize("Jose Smith", "jose.smith")
	for _, lp := range []string{"jose.smith", "josé.smith"} {
		got, err := tok.Tokenize("José Smith", lp)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(ascii) {
			t.Errorf("Tokenize(José Smith, %q) = %v, want %v", lp, got, ascii)
		}
	}
}

func TestRenderLocalPart(t *testing.T) {
	dec := names.NewDecomposer(lexicon.Default(), 0)
	n, err := dec.Decompose("John Michael Smith")
	if err != nil {
		t.Fatal(err)
	}

	got, err := RenderLocalPart(n, Template{"first_original_0", ".", "m_0", ".", "last_original_0"})
	if err != nil || got != "john.m.smith" {
		t.Errorf("RenderLocalPart = %q, %v", got, err)
	}

	if _, err := RenderLocalPart(n, Template{"middle_original_1"}); !errors.Is(err, ErrIncompatibleName) {
		t.Errorf("out of range index: error = %v", err)
	}
	if _, err := RenderLocalPart(n, Template{"0"}); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("firm token: error = %v", err)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	tok := newLocalPartTokenizer(t)
	dec := names.NewDecomposer(lexicon.Default(), 0)
	for _, tc := range []struct{ name, lp string }{
		{"John Michael Smith", "john.m.smith"},
		{"John Michael Smith", "jms"},
		{"Ali Bin Ahmad", "ali.b.ahmad"},
		{"Mary-Anne O'Neill-Jones", "mary_oneill"},
	} {
		tpl, err := tok.Tokenize(tc.name, tc.lp)
		if err != nil || tpl == nil {
			t.Fatalf("Tokenize(%q, %q) = %v, %v", tc.name, tc.lp, tpl, err)
		}
		n, _ := dec.Decompose(tc.name)
		rendered, err := RenderLocalPart(n, tpl)
		if err != nil {
			t.Fatal(err)
		}
		if rendered != tc.lp {
			t.Errorf("RenderLocalPart(%v) = %q, want %q", tpl, rendered, tc.lp)
		}
	}
}
