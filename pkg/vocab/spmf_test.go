package vocab

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/hazyhaar/touchstone-templates/pkg/template"
)

func TestWriteSPMF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSPMF(&buf, [][]int{{1, 2}, {3, 4, 5}}); err != nil {
		t.Fatal(err)
	}
	want := "1 -1 2 -1 -2\n3 -1 4 -1 5 -1 -2\n"
	if buf.String() != want {
		t.Errorf("WriteSPMF = %q, want %q", buf.String(), want)
	}

	if err := WriteSPMF(&bytes.Buffer{}, [][]int{{1, 0}}); err == nil {
		t.Error("id 0 collides with no marker but is not a valid token id")
	}
}

func TestReadSPMF(t *testing.T) {
	in := "# comment\n1 -1 2 -1 -2\n\n3 -1 4 5 -1 -2\n"
	got, err := ReadSPMF(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := [][]int{{1, 2}, {3, 4, 5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadSPMF = %v, want %v", got, want)
	}

	for _, bad := range []string{"1 -1 2 -1", "1 -1 -2 3", "1 x -2", "1 -3 -2"} {
		if _, err := ReadSPMF(strings.NewReader(bad)); err == nil {
			t.Errorf("ReadSPMF(%q): expected error", bad)
		}
	}
}

func TestSPMFRoundTrip(t *testing.T) {
	seqs := [][]int{{1, 2, 3}, {4}, {2, 2, 1}}
	var buf bytes.Buffer
	if err := WriteSPMF(&buf, seqs); err != nil {
		t.Fatal(err)
	}
	got, err := ReadSPMF(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, seqs) {
		t.Errorf("round trip = %v, want %v", got, seqs)
	}
}

func TestParseRules(t *testing.T) {
	in := "1 ==> 2 #SUP: 100 #CONF: 0.8\n1,3 ==> 2 #SUP: 50 #CONF: 0.6\n"
	rules, err := ParseRules(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []Rule{
		{Antecedent: []int{1}, Consequent: []int{2}, Support: 100, Confidence: 0.8},
		{Antecedent: []int{1, 3}, Consequent: []int{2}, Support: 50, Confidence: 0.6},
	}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("ParseRules = %+v, want %+v", rules, want)
	}

	for _, bad := range []string{"1 ==> 2", "1 2 #SUP: 5 #CONF: 0.1", "a ==> 2 #SUP: 5 #CONF: 0.1", "1 ==> 2 #SUP: x #CONF: 0.1"} {
		if _, err := ParseRules(strings.NewReader(bad)); err == nil {
			t.Errorf("ParseRules(%q): expected error", bad)
		}
	}
}

func TestDecodeRule(t *testing.T) {
	v := New()
	v.Assign(template.Template{"first_original_0", ".", "last_original_0"})

	d, err := v.DecodeRule(Rule{Antecedent: []int{1, 2}, Consequent: []int{3}, Support: 7, Confidence: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if !d.Pattern().Equal(template.Template{"first_original_0", ".", "last_original_0"}) {
		t.Errorf("Pattern = %v", d.Pattern())
	}
	if d.Support != 7 || d.Confidence != 0.5 {
		t.Errorf("measures = %d/%v", d.Support, d.Confidence)
	}

	if _, err := v.DecodeRules([]Rule{{Antecedent: []int{9}, Consequent: []int{1}}}); err == nil {
		t.Error("unknown id in rule should fail")
	}
}
