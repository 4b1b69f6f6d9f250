package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTransliterate(t *testing.T) {
	lex := Default()
	tests := []struct {
		input, want string
	}{
		{"müller", "mueller"},
		{"straße", "strasse"},
		{"søren", "soren"},
		{"håkon", "haakon"},
		{"jäger", "jaeger"},
		{"schön", "schoen"},
		{"smith", "smith"},
		{"josé", "josé"}, // not a Germanic letter
	}
	for _, tt := range tests {
		if got := lex.Transliterate(tt.input); got != tt.want {
			t.Errorf("Transliterate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDefaultTables(t *testing.T) {
	lex := Default()

	if !lex.IsNamePrefix("bin") || !lex.IsNamePrefix("van") {
		t.Error("bin and van should start a compound surname")
	}
	if lex.IsNamePrefix("smith") {
		t.Error("smith is not a name prefix")
	}
	if !lex.IsTitle("dr") || !lex.IsNameSuffix("jr") {
		t.Error("expected dr title and jr suffix")
	}

	suffixes := lex.DomainSuffixes()
	if suffixes[0] != "management" {
		t.Errorf("first domain suffix = %q, want management", suffixes[0])
	}
	if suffixes[len(suffixes)-1] != "co" {
		t.Errorf("last domain suffix = %q, want co", suffixes[len(suffixes)-1])
	}
	for _, s := range suffixes {
		if s == "cap" {
			t.Error("bare cap must not be a domain suffix")
		}
	}

	nicks := lex.Nicknames("Robert")
	if len(nicks) != 3 || nicks[0] != "bob" {
		t.Errorf("Nicknames(Robert) = %v", nicks)
	}
	if len(lex.Nicknames("zorro")) != 0 {
		t.Error("zorro should have no nickname")
	}

	formal := lex.FormalNames()
	for i := 1; i < len(formal); i++ {
		if formal[i-1] > formal[i] {
			t.Fatalf("FormalNames not sorted at %d: %q > %q", i, formal[i-1], formal[i])
		}
	}
}

func TestFormalOf(t *testing.T) {
	lex := New(&Manifest{ID: "t", Nicknames: map[string][]string{
		"william": {"Bill", "will"},
		"wilfred": {"will"},
	}})

	if got := lex.FormalOf("BILL"); len(got) != 1 || got[0] != "william" {
		t.Errorf("FormalOf(BILL) = %v", got)
	}
	if got := lex.FormalOf("will"); len(got) != 2 || got[0] != "wilfred" || got[1] != "william" {
		t.Errorf("FormalOf(will) = %v", got)
	}

	for word, want := range map[string]bool{"william": true, "bill": true, "george": false} {
		if got := lex.HasNicknameEntry(word); got != want {
			t.Errorf("HasNicknameEntry(%q) = %v, want %v", word, got, want)
		}
	}
}

func TestSurnameParticlesDeduped(t *testing.T) {
	lex := New(&Manifest{ID: "t", SurnameParticles: []string{"van", "VAN", "de", ""}})
	got := lex.SurnameParticles()
	if len(got) != 2 || got[0] != "van" || got[1] != "de" {
		t.Errorf("SurnameParticles = %v, want [van de]", got)
	}
}

func TestHasTransliteration(t *testing.T) {
	lex := Default()
	if !lex.HasTransliteration("jürgen") {
		t.Error("jürgen contains ü")
	}
	if lex.HasTransliteration("jose") {
		t.Error("jose has no Germanic letter")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lex.yaml")
	manifest := `id: custom
version: "1"
transliterations:
  - {from: "æ", to: "ae"}
legal_suffixes: [gmbh]
`
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lex.Manifest.ID != "custom" {
		t.Errorf("ID = %q, want custom", lex.Manifest.ID)
	}
	if got := lex.Transliterate("dæhlie"); got != "daehlie" {
		t.Errorf("Transliterate = %q, want daehlie", got)
	}
	if got := lex.DomainSuffixes(); len(got) != 1 || got[0] != "gmbh" {
		t.Errorf("DomainSuffixes = %v", got)
	}
}

func TestLoadMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lex.yaml")
	os.WriteFile(path, []byte("version: \"1\"\n"), 0o644)

	if _, err := Load(path); err == nil {
		t.Error("expected error for manifest without id")
	}
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	lex, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lex.Manifest.ID != "default" {
		t.Errorf("ID = %q, want default", lex.Manifest.ID)
	}
}
