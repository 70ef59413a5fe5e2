package retrieval

import "testing"

func TestReferencesPast(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     bool
	}{
		{
			name:     "chinese reference to earlier topic",
			question: "我想问一下之前讲的那道题",
			want:     true,
		},
		{
			name:     "chinese just now",
			question: "刚才那个方程是怎么解的",
			want:     true,
		},
		{
			name:     "chinese first step",
			question: "第一步为什么要通分",
			want:     true,
		},
		{
			name:     "english earlier mixed case",
			question: "Earlier you said the answer was 12",
			want:     true,
		},
		{
			name:     "english last time",
			question: "can we redo what we did last time",
			want:     true,
		},
		{
			name:     "fresh question",
			question: "1+1等于几",
			want:     false,
		},
		{
			name:     "fresh english question",
			question: "what is the area of a circle",
			want:     false,
		},
		{
			name:     "empty question",
			question: "",
			want:     false,
		},
		{
			name:     "marker embedded in larger word",
			question: "beforehand I solved it myself",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReferencesPast(tt.question); got != tt.want {
				t.Errorf("ReferencesPast(%q) = %v, want %v", tt.question, got, tt.want)
			}
		})
	}
}
