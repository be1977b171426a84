package pdf

import (
	"strings"

	"github.com/go-text/typesetting/language"
	"golang.org/x/net/html"

	"pdf-translator/internal/script"
)

// The renderer's text model is a small markup subset: <br/> for line breaks
// and <i>...</i> for emphasis. Everything else is text.

var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeMarkup escapes the characters the markup subset treats as syntax.
func EscapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}

// Run is text with uniform style.
type Run struct {
	Text   string
	Italic bool
}

// MarkupLine is the content between two explicit line breaks.
type MarkupLine []Run

// ParagraphMarkup converts one paragraph of plain text to markup.
//
// For line-level scripts every non-empty line is kept as its own line and
// lines the emphasis heuristic selects are wrapped in <i>. Other scripts keep
// their line breaks as <br/> inside a flowing block.
func ParagraphMarkup(text string, tag language.Script, emphasis script.Emphasis) string {
	text = strings.TrimSpace(text)
	if !script.IsLineLevel(tag) {
		return strings.ReplaceAll(EscapeMarkup(text), "\n", "<br/>")
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		escaped := EscapeMarkup(line)
		if emphasis != nil && emphasis.ClassifyEmphasis(line, tag) {
			escaped = "<i>" + escaped + "</i>"
		}
		lines = append(lines, escaped)
	}
	return strings.Join(lines, "<br/>")
}

// ParseMarkup splits markup into lines of styled runs.
// Unknown tags are dropped and entities are decoded.
func ParseMarkup(markup string) []MarkupLine {
	z := html.NewTokenizer(strings.NewReader(markup))

	lines := []MarkupLine{nil}
	italic := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return lines
		case html.TextToken:
			text := string(z.Text())
			if text == "" {
				continue
			}
			cur := &lines[len(lines)-1]
			*cur = append(*cur, Run{Text: text, Italic: italic > 0})
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br":
				lines = append(lines, nil)
			case "i", "em":
				if tt == html.StartTagToken {
					italic++
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "i", "em":
				if italic > 0 {
					italic--
				}
			}
		}
	}
}
