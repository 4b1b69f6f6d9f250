package vocab

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hazyhaar/touchstone-templates/pkg/template"
)

// SPMF sequence database markers. Every item is its own itemset.
const (
	ItemsetEnd  = -1
	SequenceEnd = -2
)

// WriteSPMF writes one sequence per line: "1 -1 2 -1 -2".
func WriteSPMF(w io.Writer, seqs [][]int) error {
	bw := bufio.NewWriter(w)
	for n, seq := range seqs {
		for _, id := range seq {
			if id < 1 {
				return fmt.Errorf("spmf sequence %d: invalid item %d", n, id)
			}
			bw.WriteString(strconv.Itoa(id))
			bw.WriteString(" -1 ")
		}
		bw.WriteString("-2\n")
	}
	return bw.Flush()
}

// ReadSPMF reads a sequence database written by WriteSPMF. Blank lines and
// lines starting with # or @ are skipped. Items of one itemset are
// flattened in order.
func ReadSPMF(r io.Reader) ([][]int, error) {
	var out [][]int
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' || text[0] == '@' {
			continue
		}

		var seq []int
		ended := false
		for _, f := range strings.Fields(text) {
			if ended {
				return nil, fmt.Errorf("spmf line %d: data after end of sequence", line)
			}
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("spmf line %d: %w", line, err)
			}
			switch {
			case n == SequenceEnd:
				ended = true
			case n == ItemsetEnd:
			case n > 0:
				seq = append(seq, n)
			default:
				return nil, fmt.Errorf("spmf line %d: invalid item %d", line, n)
			}
		}
		if !ended {
			return nil, fmt.Errorf("spmf line %d: missing -2", line)
		}
		out = append(out, seq)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read spmf: %w", err)
	}
	return out, nil
}

// Rule is one sequential rule mined from the id corpus.
type Rule struct {
	Antecedent []int   `json:"lhs"`
	Consequent []int   `json:"rhs"`
	Support    int     `json:"support"`
	Confidence float64 `json:"confidence"`
}

// ParseRules reads rule-miner output, one rule per line:
//
//	1,3 ==> 2 #SUP: 50 #CONF: 0.6
func ParseRules(r io.Reader) ([]Rule, error) {
	var out []Rule
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rule, err := parseRule(text)
		if err != nil {
			return nil, fmt.Errorf("rules line %d: %w", line, err)
		}
		out = append(out, rule)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return out, nil
}

func parseRule(s string) (Rule, error) {
	var r Rule
	body, measures, ok := strings.Cut(s, "#SUP:")
	if !ok {
		return r, fmt.Errorf("missing #SUP in %q", s)
	}
	lhs, rhs, ok := strings.Cut(body, "==>")
	if !ok {
		return r, fmt.Errorf("missing ==> in %q", s)
	}
	sup, conf, ok := strings.Cut(measures, "#CONF:")
	if !ok {
		return r, fmt.Errorf("missing #CONF in %q", s)
	}

	var err error
	if r.Antecedent, err = parseItems(lhs); err != nil {
		return r, err
	}
	if r.Consequent, err = parseItems(rhs); err != nil {
		return r, err
	}
	if r.Support, err = strconv.Atoi(strings.TrimSpace(sup)); err != nil {
		return r, fmt.Errorf("support: %w", err)
	}
	if r.Confidence, err = strconv.ParseFloat(strings.TrimSpace(conf), 64); err != nil {
		return r, fmt.Errorf("confidence: %w", err)
	}
	return r, nil
}

func parseItems(s string) ([]int, error) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("rule item: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

// DecodedRule is a Rule with its ids mapped back to tokens.
type DecodedRule struct {
	Antecedent template.Template `json:"lhs_tokens"`
	Consequent template.Template `json:"rhs_tokens"`
	Support    int               `json:"support"`
	Confidence float64           `json:"confidence"`
}

// Pattern returns the antecedent followed by the consequent.
func (r DecodedRule) Pattern() template.Template {
	out := make(template.Template, 0, len(r.Antecedent)+len(r.Consequent))
	out = append(out, r.Antecedent...)
	return append(out, r.Consequent...)
}

// DecodeRule maps both sides of r through v.
func (v *Vocabulary) DecodeRule(r Rule) (DecodedRule, error) {
	lhs, err := v.Decode(r.Antecedent)
	if err != nil {
		return DecodedRule{}, err
	}
	rhs, err := v.Decode(r.Consequent)
	if err != nil {
		return DecodedRule{}, err
	}
	return DecodedRule{Antecedent: lhs, Consequent: rhs, Support: r.Support, Confidence: r.Confidence}, nil
}

// DecodeRules decodes every rule, stopping at the first lookup failure.
func (v *Vocabulary) DecodeRules(rules []Rule) ([]DecodedRule, error) {
	out := make([]DecodedRule, 0, len(rules))
	for _, r := range rules {
		d, err := v.DecodeRule(r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
