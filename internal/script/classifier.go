// Package script detects the writing system of translated text and decides
// its typographic treatment.
package script

import (
	"unicode"

	"github.com/go-text/typesetting/language"
)

// Range is an inclusive code-point range belonging to one script.
type Range struct {
	Lo, Hi rune
	Script language.Script
}

// Contains reports whether r falls inside the range.
func (rg Range) Contains(r rune) bool {
	return r >= rg.Lo && r <= rg.Hi
}

// MarkedRanges are scripts selected as soon as a single code point of theirs
// appears in the text, regardless of what dominates the rest.
var MarkedRanges = []Range{
	{Lo: 0x0C00, Hi: 0x0C7F, Script: language.Telugu},
}

// lineLevel scripts keep line breaks inside paragraphs and get per-line emphasis.
var lineLevel = map[language.Script]bool{
	language.Telugu: true,
}

// Classify returns the script used to typeset text.
//
// A code point in one of MarkedRanges selects that script. Otherwise the most
// frequent script among the letters wins, with Latin as the default for text
// holding no letters at all.
func Classify(text string) language.Script {
	counts := make(map[language.Script]int)
	best := language.Latin
	maxCount := 0

	for _, r := range text {
		for _, rg := range MarkedRanges {
			if rg.Contains(r) {
				return rg.Script
			}
		}

		s := scriptFromRune(r)
		if s == language.Unknown {
			continue
		}
		counts[s]++
		if counts[s] > maxCount {
			maxCount = counts[s]
			best = s
		}
	}
	return best
}

// Is reports whether text contains any code point of the given marked script.
func Is(text string, tag language.Script) bool {
	for _, rg := range MarkedRanges {
		if rg.Script != tag {
			continue
		}
		for _, r := range text {
			if rg.Contains(r) {
				return true
			}
		}
	}
	return false
}

// IsLineLevel reports whether paragraphs in this script keep their line breaks
// and receive emphasis line by line.
func IsLineLevel(tag language.Script) bool {
	return lineLevel[tag]
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Devanagari, r):
		return language.Devanagari
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Bengali, r):
		return language.Bengali
	case unicode.Is(unicode.Tamil, r):
		return language.Tamil
	case unicode.Is(unicode.Kannada, r):
		return language.Kannada
	case unicode.Is(unicode.Malayalam, r):
		return language.Malayalam
	case unicode.Is(unicode.Thai, r):
		return language.Thai
	case unicode.Is(unicode.Han, r):
		return language.Han
	case unicode.Is(unicode.Hiragana, r):
		return language.Hiragana
	case unicode.Is(unicode.Katakana, r):
		return language.Katakana
	case unicode.Is(unicode.Hangul, r):
		return language.Hangul
	}
	return language.Unknown
}
