package template

// Failure records an identifier that did not tokenize cleanly.
type Failure struct {
	Subject    string `json:"subject"`    // full name or firm name
	Identifier string `json:"identifier"` // local-part or domain root, lowercased
}

// Stats are the running counters of one tokenizer. They are not safe for
// concurrent use; a tokenizer and its Stats belong to one batch.
//
// UnkSequences keeps every failure unless Keep is positive, in which case
// only the Keep most recent are retained. UnkSequenceCount counts them all.
type Stats struct {
	Total            int       `json:"total"`
	UnkTokens        int       `json:"unk_tokens"`
	UnkSequenceCount int       `json:"unk_sequence_count"`
	UnkSequences     []Failure `json:"unk_sequences"`

	Keep int `json:"-"`
}

// Record counts one scan and applies the discard policy: the returned
// template is nil when the scan holds any UNK.
func (s *Stats) Record(subject string, sc Scan) Template {
	s.Total++
	if sc.Unknown == 0 {
		return sc.Tokens
	}
	s.UnkTokens += sc.Unknown
	s.UnkSequenceCount++
	s.UnkSequences = append(s.UnkSequences, Failure{Subject: subject, Identifier: sc.Input})
	if s.Keep > 0 && len(s.UnkSequences) > s.Keep {
		n := copy(s.UnkSequences, s.UnkSequences[len(s.UnkSequences)-s.Keep:])
		clear(s.UnkSequences[n:])
		s.UnkSequences = s.UnkSequences[:n]
	}
	return nil
}

// Snapshot returns a copy that shares nothing with s.
func (s *Stats) Snapshot() Stats {
	out := *s
	out.UnkSequences = append([]Failure(nil), s.UnkSequences...)
	return out
}

// Reset zeroes every counter. Keep is preserved.
func (s *Stats) Reset() { *s = Stats{Keep: s.Keep} }

// Scan is the raw output of one tokenizer pass, before the discard policy.
type Scan struct {
	Input   string   // the lowercased identifier that was scanned
	Tokens  Template // every emitted token, UNK included
	Unknown int      // number of UNK tokens
}

// Template returns the tokens, or nil if any character was unmatched.
func (sc Scan) Template() Template {
	if sc.Unknown > 0 {
		return nil
	}
	return sc.Tokens
}
