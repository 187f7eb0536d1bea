package sanitizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNoteLength bounds owner notes on availability rules, in runes.
const MaxNoteLength = 500

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// TrimAndNormalize trims s and collapses every run of whitespace to a
// single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		result.WriteRune(r)
		lastWasSpace = false
	}

	return result.String()
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func truncate(limit int) Strategy {
	return func(s string) string {
		if utf8.RuneCountInString(s) <= limit {
			return s
		}
		return strings.TrimSpace(string([]rune(s)[:limit]))
	}
}

func SanitizeNote(note string) string {
	return Pipeline{
		stripControl,
		TrimAndNormalize,
		truncate(MaxNoteLength),
	}.Apply(note)
}

// SanitizeID trims identifiers received from path parameters and bodies.
func SanitizeID(id string) string {
	return strings.TrimSpace(id)
}
