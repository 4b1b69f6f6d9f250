package template

import "testing"

func TestStatsKeep(t *testing.T) {
	s := Stats{Keep: 2}
	bad := func(id string) Scan { return Scan{Input: id, Tokens: Template{UNK}, Unknown: 1} }

	s.Record("a", bad("a1"))
	s.Record("b", Scan{Input: "b1", Tokens: Template{"0"}})
	s.Record("c", bad("c1"))
	s.Record("d", bad("d1"))

	if s.Total != 4 || s.UnkTokens != 3 || s.UnkSequenceCount != 3 {
		t.Errorf("counters = %d/%d/%d, want 4/3/3", s.Total, s.UnkTokens, s.UnkSequenceCount)
	}
	if len(s.UnkSequences) != 2 || s.UnkSequences[0].Identifier != "c1" || s.UnkSequences[1].Identifier != "d1" {
		t.Errorf("UnkSequences = %v, want the two most recent", s.UnkSequences)
	}

	s.Reset()
	if s.Keep != 2 || s.Total != 0 || len(s.UnkSequences) != 0 {
		t.Errorf("after Reset = %+v", s)
	}
}

func TestStatsKeepAll(t *testing.T) {
	var s Stats
	for i := 0; i < 5; i++ {
		s.Record("x", Scan{Input: "x", Tokens: Template{UNK}, Unknown: 1})
	}
	if len(s.UnkSequences) != 5 || s.UnkSequenceCount != 5 {
		t.Errorf("kept %d of %d failures, want 5", len(s.UnkSequences), s.UnkSequenceCount)
	}
}
