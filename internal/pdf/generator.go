package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/script"
	"pdf-translator/internal/types"
)

// Page geometry and title style, in points.
const (
	DefaultMargin = 72.0

	TitlePrefix     = "Translated Document: "
	titleSize       = 16.0
	titleLeading    = 19.2
	titleSpaceAfter = 20.0
	titleSpacer     = 20.0
	titleColor      = "#2c3e50"

	// paragraphGap is added after every paragraph on top of its SpaceAfter.
	paragraphGap = 6.0

	// emphasisColor marks emphasized lines when the font has no italic face.
	emphasisColor = "#7f8c8d"
)

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n\s*`)

// errFontRegistration marks a font the PDF writer could not embed.
var errFontRegistration = errors.New("font registration failed")

// RendererConfig configures a Renderer.
type RendererConfig struct {
	Fonts    *FontRegistry
	Emphasis script.Emphasis // nil uses the built-in vocabulary
	Margin   float64
	Logger   logger.Logger
}

// Renderer typesets translated text into A4 PDF documents.
// It is safe for concurrent use; each Render builds its own document.
type Renderer struct {
	fonts    *FontRegistry
	emphasis script.Emphasis
	margin   float64
	log      logger.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(cfg RendererConfig) *Renderer {
	log := logger.OrGlobal(cfg.Logger)
	if cfg.Fonts == nil {
		cfg.Fonts = NewFontRegistry(FontRegistryConfig{Logger: log})
	}
	if cfg.Emphasis == nil {
		cfg.Emphasis = script.DefaultVocabulary()
	}
	if cfg.Margin <= 0 {
		cfg.Margin = DefaultMargin
	}
	return &Renderer{fonts: cfg.Fonts, emphasis: cfg.Emphasis, margin: cfg.Margin, log: log}
}

// Render produces a PDF holding a title line naming originalFilename followed
// by the paragraphs of translated, set in the font chosen for targetLang.
func (r *Renderer) Render(translated, originalFilename, targetLang string) (*RenderedDocument, error) {
	font := r.fonts.Resolve(targetLang)
	title := TitlePrefix + originalFilename

	doc, err := r.render(translated, title, font)
	if errors.Is(err, errFontRegistration) {
		r.log.Warn("font could not be embedded, using fallback",
			logger.String("lang", targetLang),
			logger.String("family", font.Profile.Family),
			logger.Err(err))
		font = ResolvedFont{Profile: font.Profile, FellBack: true}
		doc, err = r.render(translated, title, font)
	}
	if err != nil {
		return nil, err
	}

	doc.Script = script.Classify(translated)
	r.log.Info("document rendered",
		logger.String("lang", targetLang),
		logger.String("font", doc.FontFamily),
		logger.Bool("fellBack", doc.FellBack),
		logger.Int("pages", doc.PageCount),
		logger.Int("bytes", doc.Size()))
	return doc, nil
}

func (r *Renderer) render(translated, title string, font ResolvedFont) (doc *RenderedDocument, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = types.NewRenderError("PDF writer panicked", fmt.Errorf("%v", rec))
		}
	}()

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(r.margin, r.margin, r.margin)
	pdf.SetAutoPageBreak(false, r.margin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("pdf-translator", true)

	w, err := r.newPageWriter(pdf, font)
	if err != nil {
		return nil, err
	}

	pdf.AddPage()
	pdf.SetY(r.margin)

	w.writeBlock(ParseMarkup(EscapeMarkup(title)), blockStyle{
		size:    titleSize,
		leading: titleLeading,
		align:   AlignCenter,
		color:   titleColor,
	})
	pdf.SetY(pdf.GetY() + titleSpaceAfter + titleSpacer)

	profile := font.Profile
	body := blockStyle{
		size:    profile.Size,
		leading: profile.Leading,
		indent:  profile.Indent,
		align:   profile.Align,
		color:   profile.Color,
	}
	for _, para := range paragraphBreak.Split(translated, -1) {
		if strings.TrimSpace(para) == "" {
			continue
		}
		markup := ParagraphMarkup(para, script.Classify(para), r.emphasis)
		w.writeBlock(ParseMarkup(markup), body)
		pdf.SetY(pdf.GetY() + profile.SpaceAfter + paragraphGap)
	}

	if pdf.Err() {
		return nil, types.NewRenderError("layout failed", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, types.NewRenderError("failed to write PDF", err)
	}

	pages := pdf.PageNo()
	if n, err := CountPages(buf.Bytes()); err != nil {
		r.log.Warn("rendered PDF failed verification", logger.Err(err))
	} else {
		pages = n
	}

	return &RenderedDocument{
		Data:       buf.Bytes(),
		PageCount:  pages,
		FontFamily: font.Family(),
		FellBack:   font.FellBack,
		Title:      title,
	}, nil
}

// WriteFile writes doc to path, creating parent directories as needed.
func WriteFile(doc *RenderedDocument, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return types.NewAppErrorWithDetails(types.ErrRender, "failed to create output directory", dir, err)
		}
	}
	if err := os.WriteFile(path, doc.Data, 0644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrRender, "failed to write output file", path, err)
	}
	return nil
}

type blockStyle struct {
	size    float64
	leading float64
	indent  float64
	align   string
	color   string
}

type segment struct {
	text   string
	italic bool
	x      float64
	width  float64
}

// pageWriter lays out styled lines with word wrapping and manual pagination.
type pageWriter struct {
	pdf       *gofpdf.Fpdf
	family    string
	hasItalic bool
	encode    func(string) string

	left, right, top, bottom float64

	style  blockStyle
	italic bool
	log    logger.Logger
}

func (r *Renderer) newPageWriter(pdf *gofpdf.Fpdf, font ResolvedFont) (*pageWriter, error) {
	w := &pageWriter{
		pdf:    pdf,
		family: font.Family(),
		encode: func(s string) string { return s },
		left:   r.margin,
		right:  r.margin,
		top:    r.margin,
		bottom: r.margin,
		log:    r.log,
	}

	if font.Regular == nil {
		// core fonts take single-byte text
		w.encode = pdf.UnicodeTranslatorFromDescriptor("")
		w.hasItalic = true
	} else {
		pdf.AddUTF8FontFromBytes(w.family, "", font.Regular.Data)
		if font.Italic != nil {
			pdf.AddUTF8FontFromBytes(w.family, "I", font.Italic.Data)
			w.hasItalic = true
		}
	}

	pdf.SetFont(w.family, "", font.Profile.Size)
	if pdf.Err() {
		if font.Regular != nil {
			return nil, fmt.Errorf("%w: %s: %v", errFontRegistration, font.Regular.Path, pdf.Error())
		}
		return nil, types.NewRenderError("failed to select font", pdf.Error())
	}
	if font.Italic != nil {
		pdf.SetFont(w.family, "I", font.Profile.Size)
		if pdf.Err() {
			return nil, fmt.Errorf("%w: %s: %v", errFontRegistration, font.Italic.Path, pdf.Error())
		}
	}
	return w, nil
}

// applyFont selects the current style on the PDF writer.
func (w *pageWriter) applyFont() {
	style := ""
	color := w.style.color
	if w.italic {
		if w.hasItalic {
			style = "I"
		} else {
			color = emphasisColor
		}
	}
	w.pdf.SetFont(w.family, style, w.style.size)

	red, green, blue, err := parseHexColor(color)
	if err != nil {
		w.log.Debug("ignoring text color", logger.String("color", color), logger.Err(err))
		red, green, blue = 0, 0, 0
	}
	w.pdf.SetTextColor(red, green, blue)
}

func (w *pageWriter) setItalic(italic bool) {
	if w.italic != italic {
		w.italic = italic
		w.applyFont()
	}
}

func (w *pageWriter) width(text string, italic bool) float64 {
	w.setItalic(italic)
	return w.pdf.GetStringWidth(w.encode(text))
}

// ensureSpace starts a new page when h does not fit above the bottom margin.
func (w *pageWriter) ensureSpace(h float64) {
	_, pageH := w.pdf.GetPageSize()
	if w.pdf.GetY()+h <= pageH-w.bottom {
		return
	}
	w.pdf.AddPage()
	w.pdf.SetY(w.top)
	w.applyFont()
}

func (w *pageWriter) writeBlock(lines []MarkupLine, style blockStyle) {
	w.style = style
	w.italic = false
	w.applyFont()

	pageW, _ := w.pdf.GetPageSize()
	maxWidth := pageW - w.left - w.right - 2*style.indent

	for _, line := range lines {
		rows := w.wrap(line, maxWidth)
		if len(rows) == 0 {
			w.ensureSpace(style.leading)
			w.pdf.SetY(w.pdf.GetY() + style.leading)
			continue
		}
		for _, row := range rows {
			w.ensureSpace(style.leading)
			y := w.pdf.GetY()
			x := w.left + style.indent + alignOffset(row, maxWidth, style.align)
			for _, seg := range row {
				w.setItalic(seg.italic)
				w.pdf.SetXY(x+seg.x, y)
				w.pdf.Cell(seg.width, style.leading, w.encode(seg.text))
			}
			w.pdf.SetY(y + style.leading)
		}
	}
}

func alignOffset(row []segment, maxWidth float64, align string) float64 {
	if len(row) == 0 {
		return 0
	}
	last := row[len(row)-1]
	slack := maxWidth - (last.x + last.width)
	if slack <= 0 {
		return 0
	}
	switch align {
	case AlignCenter:
		return slack / 2
	case AlignRight:
		return slack
	}
	return 0
}

// wrap breaks a line into rows no wider than maxWidth. Words move to the next
// row whole; a word wider than a full row is broken between characters.
func (w *pageWriter) wrap(line MarkupLine, maxWidth float64) [][]segment {
	var (
		rows    [][]segment
		row     []segment
		x       float64
		pending bool
	)

	flush := func() {
		if len(row) > 0 {
			rows = append(rows, row)
		}
		row, x, pending = nil, 0, false
	}

	place := func(text string, italic bool, width, space float64) {
		if n := len(row); n > 0 && row[n-1].italic == italic {
			last := &row[n-1]
			if space > 0 {
				last.text += " "
			}
			last.text += text
			last.width = x + space + width - last.x
		} else {
			row = append(row, segment{text: text, italic: italic, x: x + space, width: width})
		}
		x += space + width
	}

	for _, run := range line {
		for _, tok := range splitWords(run.Text) {
			if tok == " " {
				pending = len(row) > 0
				continue
			}

			tw := w.width(tok, run.Italic)
			space := 0.0
			if pending {
				space = w.width(" ", run.Italic)
			}
			if len(row) > 0 && x+space+tw > maxWidth {
				flush()
				space = 0
			}

			if tw <= maxWidth {
				place(tok, run.Italic, tw, space)
				pending = false
				continue
			}

			for _, piece := range w.breakWord(tok, run.Italic, maxWidth-x-space, maxWidth) {
				pw := w.width(piece, run.Italic)
				if len(row) > 0 && x+space+pw > maxWidth {
					flush()
					space = 0
				}
				place(piece, run.Italic, pw, space)
				space = 0
			}
			pending = false
		}
	}
	flush()
	return rows
}

// breakWord splits word into pieces; the first fits in first, the rest in full.
func (w *pageWriter) breakWord(word string, italic bool, first, full float64) []string {
	var pieces []string
	limit := first
	var cur []rune
	for _, r := range word {
		next := append(cur, r)
		if len(cur) > 0 && w.width(string(next), italic) > limit {
			pieces = append(pieces, string(cur))
			cur = []rune{r}
			limit = full
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces
}

// splitWords returns the words of s with each whitespace run as a single " ".
func splitWords(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			if len(out) == 0 || out[len(out)-1] != " " {
				out = append(out, " ")
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}
