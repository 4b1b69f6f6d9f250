package corpus

import "sort"

// FirmTemplates summarizes how many templates one firm's people use.
type FirmTemplates struct {
	Firm             string  `json:"firm"`
	TemplateIDs      []int   `json:"template_ids"` // one per person with a known candidate, sorted
	NumPeople        int     `json:"num_people"`
	NumTemplates     int     `json:"num_templates"`
	DiversityRatio   float64 `json:"diversity_ratio"`
	IsSingleTemplate bool    `json:"is_single_template"`
}

// FirmTemplateMap groups encoded email rows by firm. Rows without a firm or
// template are skipped; rows whose template is not among cands still count
// as people. Firms are sorted by name.
func FirmTemplateMap(rows []RowResult, cands []Candidate) []FirmTemplates {
	lookup := make(map[string]int, len(cands))
	for _, c := range cands {
		lookup[c.Template.Key()] = c.ID
	}

	byFirm := make(map[string]*FirmTemplates)
	for _, r := range rows {
		if r.Status != StatusOK || r.Firm == "" {
			continue
		}
		ft := byFirm[r.Firm]
		if ft == nil {
			ft = &FirmTemplates{Firm: r.Firm}
			byFirm[r.Firm] = ft
		}
		ft.NumPeople++
		if id, ok := lookup[r.Template.Key()]; ok {
			ft.TemplateIDs = append(ft.TemplateIDs, id)
		}
	}

	out := make([]FirmTemplates, 0, len(byFirm))
	for _, ft := range byFirm {
		sort.Ints(ft.TemplateIDs)
		distinct := 0
		for i, id := range ft.TemplateIDs {
			if i == 0 || id != ft.TemplateIDs[i-1] {
				distinct++
			}
		}
		ft.NumTemplates = distinct
		ft.DiversityRatio = float64(distinct) / float64(ft.NumPeople)
		ft.IsSingleTemplate = distinct == 1
		out = append(out, *ft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Firm < out[j].Firm })
	return out
}
