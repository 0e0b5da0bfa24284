package models

import "testing"

func TestContentIDStability(t *testing.T) {
	a := ContentID("The quick brown fox jumps over the lazy dog.")
	b := ContentID("The quick brown fox jumps over the lazy dog.")
	if a != b {
		t.Errorf("same text produced different ids: %s vs %s", a, b)
	}
}

func TestContentIDTrimsWhitespace(t *testing.T) {
	a := ContentID("some paragraph text")
	b := ContentID("  some paragraph text\n\n")
	if a != b {
		t.Errorf("whitespace outside trim changed id: %s vs %s", a, b)
	}
}

func TestContentIDDistinguishesText(t *testing.T) {
	if ContentID("alpha") == ContentID("beta") {
		t.Error("different texts hashed to the same id")
	}
}

func TestContentIDKnownValues(t *testing.T) {
	// Pinned to the rolling 31-hash over UTF-16 code units
	tests := []struct {
		text string
		want string
	}{
		{"", "0"},
		{"a", "61"},
		{"ab", "c21"},
	}
	for _, tt := range tests {
		if got := ContentID(tt.text); got != tt.want {
			t.Errorf("ContentID(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestParseRecallMode(t *testing.T) {
	tests := []struct {
		in   string
		want RecallMode
	}{
		{"pairs", RecallPairs},
		{"normal", RecallNormal},
		{"", RecallNormal},
		{"garbage", RecallNormal},
	}
	for _, tt := range tests {
		if got := ParseRecallMode(tt.in); got != tt.want {
			t.Errorf("ParseRecallMode(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestStepIsPair(t *testing.T) {
	single := Step{Key: "c:0", ChunkIndices: []int{0}}
	pair := Step{Key: "p:0+1", ChunkIndices: []int{0, 1}}
	if single.IsPair() {
		t.Error("single-chunk step reported as pair")
	}
	if !pair.IsPair() {
		t.Error("pair step not reported as pair")
	}
}
