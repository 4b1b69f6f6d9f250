package names

import (
	"strings"

	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
)

// Characteristics are structural flags of a full name, used as ranking
// features downstream.
type Characteristics struct {
	HasGermanChar          bool `json:"has_german_char"`
	HasNFKDChar            bool `json:"has_nfkd_normalized"`
	HasNickname            bool `json:"has_nickname"`
	HasMultipleFirstNames  bool `json:"has_multiple_first_names"`
	HasMiddleName          bool `json:"has_middle_name"`
	HasMultipleMiddleNames bool `json:"has_multiple_middle_names"`
	HasMultipleLastNames   bool `json:"has_multiple_last_names"`
}

// Characterize computes the flags of fullName. The character flags are set
// even when decomposition fails; the structural flags then stay false and
// the decomposition error is returned.
func Characterize(lex *lexicon.Lexicon, d *Decomposer, fullName string) (Characteristics, error) {
	lower := strings.ToLower(fullName)
	c := Characteristics{
		HasGermanChar: lex.HasTransliteration(lower),
		HasNFKDChar:   lexicon.FoldNFKD(lower) != lower,
	}

	n, err := d.Decompose(fullName)
	if err != nil {
		return c, err
	}

	c.HasMultipleFirstNames = len(n.First) > 1
	c.HasMiddleName = len(n.Middle) > 0
	c.HasMultipleMiddleNames = len(n.Middle) > 1
	c.HasMultipleLastNames = len(n.Last) > 1
	// Only the leading given name is checked, in formal or nickname form.
	c.HasNickname = lex.HasNicknameEntry(n.First[0])
	return c, nil
}
