package translator

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// lines holding only a page number
	pageNumberLine = regexp.MustCompile(`^\d+$`)
	// running headers such as "Page 3" or "Page 3 of 12"
	pageLabelLine = regexp.MustCompile(`^Page\s+\d+\b`)
	// runs of horizontal whitespace, including no-break spaces left by PDF text extraction
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	excessNewlines  = regexp.MustCompile(`\n{3,}`)
)

// Normalize removes PDF extraction artifacts from raw text.
//
// Line endings are unified and the text is NFC-composed, horizontal whitespace
// runs become a single space, page-number and "Page N" lines are dropped, runs
// of three or more newlines collapse to a paragraph break and the result is
// trimmed. Line removal happens before newline collapsing so that
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = norm.NFC.String(text)

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
		if pageNumberLine.MatchString(line) || pageLabelLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	text = strings.Join(kept, "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
