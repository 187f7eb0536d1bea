package sanitizer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"   ", ""},
		{"  owner   stay  ", "owner stay"},
		{"line\none\ttab", "line one tab"},
	}

	for _, tt := range tests {
		if got := TrimAndNormalize(tt.input); got != tt.expected {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeNote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"control characters removed", "renovation\x00\x07 week", "renovation week"},
		{"whitespace collapsed", "  family\n\nvisit ", "family visit"},
		{"unicode kept", "  שיפוץ  מטבח ", "שיפוץ מטבח"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeNote(tt.input); got != tt.expected {
				t.Errorf("SanitizeNote(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeNote_Truncates(t *testing.T) {
	long := strings.Repeat("é", MaxNoteLength+20)
	got := SanitizeNote(long)
	if n := utf8.RuneCountInString(got); n != MaxNoteLength {
		t.Errorf("expected %d runes, got %d", MaxNoteLength, n)
	}
}

func TestSanitizeNote_Idempotent(t *testing.T) {
	inputs := []string{"  a \t b ", strings.Repeat("x ", 400), "\x01note"}
	for _, in := range inputs {
		once := SanitizeNote(in)
		if twice := SanitizeNote(once); twice != once {
			t.Errorf("not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}
