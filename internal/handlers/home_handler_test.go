package handlers

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncatePreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short unchanged", "hello", 60, "hello"},
		{"exact length unchanged", strings.Repeat("a", 60), 60, strings.Repeat("a", 60)},
		{"long ascii truncated", strings.Repeat("a", 61), 60, strings.Repeat("a", 60) + "…"},
		{"multibyte truncated on runes", strings.Repeat("é", 10), 4, "éééé…"},
		{"mixed multibyte", "日本語のテキスト", 3, "日本語…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncatePreview(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncatePreview(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncatePreview(%q, %d) produced invalid UTF-8", tt.in, tt.max)
			}
		})
	}
}
