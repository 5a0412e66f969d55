package analyzer

import "testing"

func TestClassifyToken(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"the", tagDeterminer},
		{"could", tagModal},
		{"my", tagPossessive},
		{"they", tagPronoun},
		{"between", tagPreposition},
		{"and", tagConjunction},
		{"wow", tagInterjection},
		{"42", tagCardinal},
		{"3.14", tagCardinal},
		{"was", tagVerbPast},
		{"goes", tagVerbPresent3rd},
		{"been", tagVerbParticiple},
		{"running", tagVerbGerund},
		{"walked", tagVerbPast},
		{"quickly", tagAdverb},
		{"happiest", tagAdjSuperlative},
		{"happier", tagAdjComparative},
		{"beautiful", tagAdjective},
		{"famous", tagAdjective},
		{"London", tagProperNoun},
		{"Beatles", tagProperNounPlural},
		{"chairs", tagNounPlural},
		{"chair", tagNoun},
	}

	for _, tt := range tests {
		if got := classifyToken(tt.word); got != tt.want {
			t.Errorf("classifyToken(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestRuleTaggerCounts(t *testing.T) {
	tagger := NewRuleTagger()

	counts, err := tagger.Tag("The dog walked quickly.")
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]int{
		tagDeterminer: 1,
		tagNoun:       1,
		tagVerbPast:   1,
		tagAdverb:     1,
	}
	for tag, n := range want {
		if counts[tag] != n {
			t.Errorf("count[%s] = %d, want %d (%+v)", tag, counts[tag], n, counts)
		}
	}
}

func TestRuleTaggerEmptyText(t *testing.T) {
	tagger := NewRuleTagger()

	counts, err := tagger.Tag("")
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 0 {
		t.Errorf("expected no tags for empty text, got %+v", counts)
	}
}
