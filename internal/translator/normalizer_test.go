package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "collapses blank line runs",
			input:    "First paragraph.\n\n\n\n\nSecond paragraph.",
			expected: "First paragraph.\n\nSecond paragraph.",
		},
		{
			name:     "collapses blank lines holding spaces",
			input:    "First.\n  \n \t \n\nSecond.",
			expected: "First.\n\nSecond.",
		},
		{
			name:     "collapses repeated spaces",
			input:    "Too    many   spaces\there.",
			expected: "Too many spaces here.",
		},
		{
			name:     "removes page number lines",
			input:    "End of page one.\n12\n\nStart of page two.",
			expected: "End of page one.\n\nStart of page two.",
		},
		{
			name:     "removes page labels",
			input:    "Page 3\nBody text.\nPage 4 of 10\nMore text.",
			expected: "Body text.\nMore text.",
		},
		{
			name:     "keeps numbers inside sentences",
			input:    "The survey covered 1200 households in 2023.",
			expected: "The survey covered 1200 households in 2023.",
		},
		{
			name:     "unifies line endings",
			input:    "Line one.\r\nLine two.\rLine three.",
			expected: "Line one.\nLine two.\nLine three.",
		},
		{
			name:     "trims the whole text",
			input:    "\n\n   Indented start.   \n\n",
			expected: "Indented start.",
		},
		{
			name:     "removal does not leave triple newlines",
			input:    "Para one.\n\n7\n\nPara two.",
			expected: "Para one.\n\nPara two.",
		},
		{
			name:     "composes decomposed characters",
			input:    "Cafe\u0301",
			expected: "Caf\u00e9",
		},
		{
			name:     "no-break spaces",
			input:    "a\u00a0\u00a0b",
			expected: "a b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   \n\n\n   ",
		"Title\n\n\n\nBody  text  with   gaps.\n\n1\n\nPage 2\n\nMore body.",
		"Line\n \n \n \nLine",
		"12\n\n\n13\n\n\nPage 1\n\n\nreal text 14",
		"\tLeading tab and trailing spaces   \r\n\r\n\r\n\r\nNext",
		"తెలుగు  వచనం\n\n\n\nहिन्दी   पाठ",
		"Para one.\n\n7\n\n\n\n8\n\nPara two.",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
		assert.NotContains(t, once, "\n\n\n")
		assert.NotContains(t, once, "  ")
	}
}
