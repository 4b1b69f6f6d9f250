package corpus

import (
	"github.com/hazyhaar/touchstone-templates/pkg/template"
	"github.com/hazyhaar/touchstone-templates/pkg/vocab"
)

// Candidate is one distinct template with its usage and rule statistics.
type Candidate struct {
	ID                int               `json:"template_id"`
	Template          template.Template `json:"template"`
	SupportCount      int               `json:"support_count"`
	CoveragePct       float64           `json:"coverage_pct"`
	InMinedRules      bool              `json:"in_mined_rules"`
	MaxRuleConfidence float64           `json:"max_rule_confidence"`
	AvgRuleConfidence float64           `json:"avg_rule_confidence"`
	template.Features
}

// Enrich builds one Candidate per distinct template of observed, in first
// occurrence order with ids from 1. Coverage is support over total, the row
// count of the batch including rows that produced no template; a total
// below len(observed) falls back to len(observed). A rule supports a
// template when its antecedent followed by its consequent is an ordered,
// not necessarily contiguous, subsequence of the template.
func Enrich(observed []template.Template, total int, rules []vocab.DecodedRule) []Candidate {
	if total < len(observed) {
		total = len(observed)
	}

	counts := make(map[string]int)
	var distinct []template.Template
	for _, t := range observed {
		k := t.Key()
		if counts[k] == 0 {
			distinct = append(distinct, t)
		}
		counts[k]++
	}

	patterns := make([]template.Template, len(rules))
	for i, r := range rules {
		patterns[i] = r.Pattern()
	}

	out := make([]Candidate, 0, len(distinct))
	for i, t := range distinct {
		c := Candidate{
			ID:           i + 1,
			Template:     t,
			SupportCount: counts[t.Key()],
			CoveragePct:  float64(counts[t.Key()]) / float64(total),
			Features:     template.ExtractFeatures(t),
		}

		var sum float64
		matched := 0
		for j, p := range patterns {
			if !isSubsequence(p, t) {
				continue
			}
			conf := rules[j].Confidence
			if matched == 0 || conf > c.MaxRuleConfidence {
				c.MaxRuleConfidence = conf
			}
			sum += conf
			matched++
		}
		if matched > 0 {
			c.InMinedRules = true
			c.AvgRuleConfidence = sum / float64(matched)
		}
		out = append(out, c)
	}
	return out
}

// PruneCandidates drops candidates seen fewer than minSupport times and
// renumbers the survivors from 1, keeping their order.
func PruneCandidates(cands []Candidate, minSupport int) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.SupportCount < minSupport {
			continue
		}
		c.ID = len(out) + 1
		out = append(out, c)
	}
	return out
}

func isSubsequence(sub, seq template.Template) bool {
	j := 0
	for _, tok := range seq {
		if j < len(sub) && sub[j] == tok {
			j++
		}
	}
	return j == len(sub)
}
