package template

import "github.com/hazyhaar/touchstone-templates/pkg/names"

// Features are structural flags of a local-part template.
type Features struct {
	UsesMiddleName      bool `json:"uses_middle_name"`
	UsesMultipleFirsts  bool `json:"uses_multiple_firsts"`
	UsesMultipleMiddles bool `json:"uses_multiple_middles"`
	UsesMultipleLasts   bool `json:"uses_multiple_lasts"`
}

// ExtractFeatures flags a template. UsesMiddleName is set by full middle
// name tokens only; the multiple-word flags are set by any name or initial
// token with an index above zero. Tokens outside the grammar are ignored.
func ExtractFeatures(t Template) Features {
	var f Features
	for _, s := range t {
		tok, err := ParseToken(s)
		if err != nil || (tok.Kind != KindName && tok.Kind != KindInitial) {
			continue
		}
		if tok.Kind == KindName && tok.Group == names.Middle {
			f.UsesMiddleName = true
		}
		if tok.Index == 0 {
			continue
		}
		switch tok.Group {
		case names.First:
			f.UsesMultipleFirsts = true
		case names.Middle:
			f.UsesMultipleMiddles = true
		case names.Last:
			f.UsesMultipleLasts = true
		}
	}
	return f
}
