package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestWrapText(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"empty", "", 10, []string{""}},
		{"fits", "hello", 10, []string{"hello"}},
		{"breaks on space", "hello there world", 11, []string{"hello there", "world"}},
		{"long word hard-split", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"cyrillic fits by runes", "привет мир", 10, []string{"привет мир"}},
		{"cyrillic breaks on space", "привет мир как дела", 10, []string{"привет мир", "как дела"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := wrapText(tc.text, tc.width)
			if len(got) != len(tc.want) {
				t.Fatalf("wrapText(%q, %d) = %q, want %q", tc.text, tc.width, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestWrapTextNeverSplitsMidRune(t *testing.T) {
	text := strings.Repeat("привет", 20)
	for width := 1; width <= 15; width++ {
		for _, line := range wrapText(text, width) {
			if !utf8.ValidString(line) {
				t.Fatalf("width %d produced invalid UTF-8 line %q", width, line)
			}
			if n := utf8.RuneCountInString(line); n > width {
				t.Fatalf("width %d produced %d-rune line %q", width, n, line)
			}
		}
	}
}
