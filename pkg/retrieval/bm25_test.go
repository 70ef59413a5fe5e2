package retrieval

import "testing"

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits on whitespace",
			text: "The Quick   Fox",
			want: []string{"the", "quick", "fox"},
		},
		{
			name: "empty string",
			text: "",
			want: []string{},
		},
		{
			name: "chinese segments split by spaces",
			text: "一元二次方程 求根公式",
			want: []string{"一元二次方程", "求根公式"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBM25Scores(t *testing.T) {
	docs := []string{
		"quadratic equation roots formula",
		"area of a triangle",
		"quadratic formula derivation steps",
	}
	idx := NewBM25Index(docs)

	scores := idx.Scores("quadratic formula")
	if len(scores) != len(docs) {
		t.Fatalf("Scores returned %d entries, want %d", len(scores), len(docs))
	}

	if scores[1] != 0 {
		t.Errorf("unrelated doc scored %f, want 0", scores[1])
	}
	if scores[0] <= 0 || scores[2] <= 0 {
		t.Errorf("matching docs should score > 0, got %f and %f", scores[0], scores[2])
	}
}

func TestBM25ScoresNoMatch(t *testing.T) {
	idx := NewBM25Index([]string{"alpha beta", "gamma delta"})
	for i, s := range idx.Scores("omega") {
		if s != 0 {
			t.Errorf("doc %d scored %f for unmatched query, want 0", i, s)
		}
	}
}

func TestBM25LengthNormalization(t *testing.T) {
	// Same term frequency, shorter document wins.
	docs := []string{
		"fraction addition",
		"fraction addition with a much longer explanation of every single step involved",
	}
	idx := NewBM25Index(docs)
	scores := idx.Scores("fraction")
	if scores[0] <= scores[1] {
		t.Errorf("shorter doc should outrank longer one: %f vs %f", scores[0], scores[1])
	}
}

func TestBM25EmptyIndex(t *testing.T) {
	idx := NewBM25Index(nil)
	if got := idx.Scores("anything"); len(got) != 0 {
		t.Errorf("empty index returned %d scores, want 0", len(got))
	}
}
