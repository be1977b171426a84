// Package pdf reads text out of source PDFs and typesets translated text into
// new PDF documents with script-appropriate fonts.
package pdf

import (
	"strings"

	"github.com/go-text/typesetting/language"
)

// pageSeparator joins page texts into one document text.
const pageSeparator = "\n\n"

// Page is one page of a source document.
type Page struct {
	Index int    `json:"index"` // 1-based
	Text  string `json:"text"`
}

// SourceDocument holds the text pulled from an input PDF.
// The underlying file is closed once extraction completes.
type SourceDocument struct {
	Pages []Page `json:"pages"`
	Size  int64  `json:"size"`
}

// PageCount returns the number of pages read from the source.
func (d *SourceDocument) PageCount() int {
	return len(d.Pages)
}

// Text returns the page texts in order, each followed by a paragraph break,
// with surrounding whitespace trimmed.
func (d *SourceDocument) Text() string {
	var sb strings.Builder
	for _, p := range d.Pages {
		sb.WriteString(p.Text)
		sb.WriteString(pageSeparator)
	}
	return strings.TrimSpace(sb.String())
}

// RenderedDocument is a finished output PDF. It is not modified after Render returns.
type RenderedDocument struct {
	Data       []byte          `json:"-"`
	PageCount  int             `json:"page_count"`
	FontFamily string          `json:"font_family"`
	FellBack   bool            `json:"fell_back"` // the preferred font could not be used
	Script     language.Script `json:"-"`
	Title      string          `json:"title"`
}

// Size returns the document size in bytes.
func (d *RenderedDocument) Size() int {
	return len(d.Data)
}
