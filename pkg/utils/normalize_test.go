package utils

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses internal runs",
			in:   "a  b\t\tc\n\nd",
			want: "a b c d",
		},
		{
			name: "trims edges",
			in:   "  你好 世界  ",
			want: "你好 世界",
		},
		{
			name: "whitespace only",
			in:   " \n\t ",
			want: "",
		},
		{
			name: "already clean",
			in:   "解方程 x+1=2",
			want: "解方程 x+1=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{
			name: "short string untouched",
			in:   "短文本",
			n:    50,
			want: "短文本",
		},
		{
			name: "truncates by runes not bytes",
			in:   "一二三四五",
			n:    3,
			want: "一二三..." ,
		},
		{
			name: "exact length untouched",
			in:   "abcde",
			n:    5,
			want: "abcde",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.in, tt.n); got != tt.want {
				t.Errorf("Preview(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}
