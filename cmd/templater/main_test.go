package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the command tree with args and returns stdout.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("templater %s: %v\nstderr: %s", strings.Join(args, " "), err, errOut.String())
	}
	return out.String()
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) (dir, cfg string) {
	t.Helper()
	dir = t.TempDir()
	cfg = writeFile(t, filepath.Join(dir, "templater.yaml"),
		"db_path: "+filepath.Join(dir, "templates.db")+"\n"+
			"failure_log: "+filepath.Join(dir, "failures.jsonl")+"\n"+
			"log_level: error\nworkers: 2\n")
	return dir, cfg
}

func TestEncodeDecodeRules(t *testing.T) {
	dir, cfg := testConfig(t)
	csv := writeFile(t, filepath.Join(dir, "people.csv"),
		"name,email,firm\n"+
			"John Smith,john.smith@acme.com,Acme\n"+
			"Jane Doe,jane.doe@acme.com,Acme\n"+
			"Bob Stone,info@stone.com,Stone\n")

	out := run(t, "encode", "people", csv, "--config", cfg, "--json")
	var report struct {
		Run     int64 `json:"run"`
		Summary struct {
			Rows    int `json:"rows"`
			Encoded int `json:"encoded"`
			Unknown int `json:"unknown"`
		} `json:"summary"`
		Vocabulary int `json:"vocabulary"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("encode output %q: %v", out, err)
	}
	if report.Run != 1 || report.Summary.Rows != 3 || report.Summary.Encoded != 2 || report.Summary.Unknown != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Vocabulary != 3 {
		t.Errorf("vocabulary = %d, want 3", report.Vocabulary)
	}

	spmf, err := os.ReadFile(filepath.Join(dir, "people.spmf"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "1 -1 2 -1 3 -1 -2\n1 -1 2 -1 3 -1 -2\n"; string(spmf) != want {
		t.Errorf("spmf = %q, want %q", spmf, want)
	}

	failures, err := os.ReadFile(filepath.Join(dir, "failures.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(failures), `"identifier":"info"`) {
		t.Errorf("failure log = %s", failures)
	}

	if got := run(t, "decode", "--config", cfg, "3", "2", "1"); got != "last_original_0 . first_original_0\n" {
		t.Errorf("decode = %q", got)
	}
	if got := run(t, "decode", "--config", cfg, "--run", "1", "1 -1 3 -1 -2"); got != "first_original_0 last_original_0\n" {
		t.Errorf("decode spmf line = %q", got)
	}
	if got := run(t, "decode", "--config", cfg, "--run", "1", "--", "1", "-1", "3", "-1", "-2"); got != "first_original_0 last_original_0\n" {
		t.Errorf("decode marker args = %q", got)
	}

	rules := writeFile(t, filepath.Join(dir, "rules.txt"), "1 ==> 3 #SUP: 2 #CONF: 1\n")
	out = run(t, "rules", rules, "--config", cfg, "--json", "--firms")
	var ranked struct {
		Candidates []struct {
			Template     []string `json:"template"`
			SupportCount int      `json:"support_count"`
			CoveragePct  float64  `json:"coverage_pct"`
			InMinedRules bool     `json:"in_mined_rules"`
		} `json:"candidates"`
		Firms []struct {
			Firm      string `json:"firm"`
			NumPeople int    `json:"num_people"`
		} `json:"firms"`
	}
	if err := json.Unmarshal([]byte(out), &ranked); err != nil {
		t.Fatalf("rules output %q: %v", out, err)
	}
	if len(ranked.Candidates) != 1 || ranked.Candidates[0].SupportCount != 2 || !ranked.Candidates[0].InMinedRules {
		t.Fatalf("candidates = %+v", ranked.Candidates)
	}
	// Two of the three rows share the template; the unknown row still counts.
	if c := ranked.Candidates[0].CoveragePct; c < 0.66 || c > 0.67 {
		t.Errorf("coverage = %v, want 2/3", c)
	}
	if len(ranked.Firms) != 1 || ranked.Firms[0].Firm != "Acme" || ranked.Firms[0].NumPeople != 2 {
		t.Errorf("firms = %+v", ranked.Firms)
	}

	if got := run(t, "runs", "--config", cfg); !strings.Contains(got, "people.csv") {
		t.Errorf("runs = %q", got)
	}
}

func TestEncodeFirms(t *testing.T) {
	dir, cfg := testConfig(t)
	csv := writeFile(t, filepath.Join(dir, "firms.csv"),
		"firm,domain\nBain Capital,baincap.com\nBlackstone Group,blackstone-group.com\n")

	out := filepath.Join(dir, "domains.spmf")
	vocabPath := filepath.Join(dir, "domains.gob")
	run(t, "encode", "firms", csv, "--config", cfg, "--out", out, "--vocab", vocabPath, "--no-store")

	spmf, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := "1 -1 2 -1 -2\n1 -1 3 -1 4 -1 -2\n"; string(spmf) != want {
		t.Errorf("spmf = %q, want %q", spmf, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "templates.db")); !os.IsNotExist(err) {
		t.Errorf("--no-store created the database (stat err %v)", err)
	}

	got := run(t, "decode", "--config", cfg, "--vocab", vocabPath, "--spmf", out)
	if want := "0 1_sub_3\n0 - 1\n"; got != want {
		t.Errorf("decode corpus = %q, want %q", got, want)
	}
}

func TestRender(t *testing.T) {
	_, cfg := testConfig(t)
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"render", "email", "John Michael Smith", "first_original_0", ".", "m_0", ".", "last_original_0"}, "john.m.smith\n"},
		{[]string{"render", "email", "John Smith", "f_0", "last_original_0"}, "jsmith\n"},
		{[]string{"render", "domain", "Bain Capital", "0", "1_sub_3"}, "baincap\n"},
	}
	for _, tt := range tests {
		if got := run(t, append(tt.args, "--config", cfg)...); got != tt.want {
			t.Errorf("%v = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestLexiconExport(t *testing.T) {
	dir, cfg := testConfig(t)
	path := filepath.Join(dir, "lexicon.gob")
	run(t, "lexicon", "export", path, "--config", cfg)

	// The exported cache loads back as the configured lexicon.
	cfg2 := writeFile(t, filepath.Join(dir, "gob.yaml"), "lexicon_path: "+path+"\nlog_level: error\n")
	if got := run(t, "render", "email", "Jürgen Müller", "first_original_0", ".", "last_original_0", "--config", cfg2); got != "jürgen.müller\n" {
		t.Errorf("render with gob lexicon = %q", got)
	}
}

func TestLexiconNicknames(t *testing.T) {
	_, cfg := testConfig(t)
	if got := run(t, "lexicon", "nicknames", "--config", cfg); !strings.Contains(got, "andrew: andy\n") {
		t.Errorf("nicknames = %q", got)
	}
}

func TestParseIDArgs(t *testing.T) {
	tests := []struct {
		args    []string
		want    []int
		wantErr bool
	}{
		{[]string{"1", "2", "3"}, []int{1, 2, 3}, false},
		{[]string{"4 -1 5 -1 -2"}, []int{4, 5}, false},
		{[]string{"1,", "2"}, []int{1, 2}, false},
		{[]string{"x"}, nil, true},
		{[]string{"-1 -2"}, nil, true},
		{[]string{"4", "-7", "5"}, nil, true},
		{[]string{"0"}, nil, true},
		{[]string{"4", "-1", "5", "-2"}, []int{4, 5}, false},
	}
	for _, tt := range tests {
		got, err := parseIDArgs(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIDArgs(%v) err = %v", tt.args, err)
			continue
		}
		if tt.wantErr {
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parseIDArgs(%v) = %v, want %v", tt.args, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseIDArgs(%v) = %v, want %v", tt.args, got, tt.want)
				break
			}
		}
	}
}
