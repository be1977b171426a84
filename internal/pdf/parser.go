package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

// Extraction failure reasons reported to callers.
const (
	ReasonNotFound   = "file not found"
	ReasonEmptyFile  = "file is empty"
	ReasonCorrupt    = "corrupt or unsupported PDF"
	ReasonEncrypted  = "PDF is encrypted"
	ReasonNoPages    = "PDF has no pages"
	ReasonNoText     = "no readable text"
	ReasonReadFailed = "failed to read file"
)

// ExtractorConfig configures an Extractor.
type ExtractorConfig struct {
	Logger logger.Logger
	// SkipStructureCheck disables the pdfcpu structural pre-check.
	SkipStructureCheck bool
}

// Extractor reads the text of PDF documents page by page.
type Extractor struct {
	cfg ExtractorConfig
	log logger.Logger
}

// NewExtractor creates a new Extractor.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	return &Extractor{cfg: cfg, log: logger.OrGlobal(cfg.Logger)}
}

// ExtractFile reads the PDF at path.
func (e *Extractor) ExtractFile(path string) (*SourceDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppErrorWithDetails(types.ErrExtraction, ReasonNotFound, path, err)
		}
		return nil, types.NewAppErrorWithDetails(types.ErrExtraction, ReasonReadFailed, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrExtraction, ReasonReadFailed, path, err)
	}
	if info.IsDir() {
		return nil, types.NewAppErrorWithDetails(types.ErrExtraction, ReasonReadFailed, "path is a directory", nil)
	}
	return e.Extract(f, info.Size())
}

// ExtractBytes reads a PDF held in memory.
func (e *Extractor) ExtractBytes(data []byte) (*SourceDocument, error) {
	return e.Extract(bytes.NewReader(data), int64(len(data)))
}

// Extract reads the pages of a PDF in order.
// It fails with an EXTRACTION_ERROR when the source cannot be parsed or holds no text.
func (e *Extractor) Extract(r io.ReaderAt, size int64) (doc *SourceDocument, err error) {
	if size <= 0 {
		return nil, types.NewExtractionError(ReasonEmptyFile, nil)
	}

	// the PDF reader panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Warn("PDF parser panicked", logger.String("panic", fmt.Sprint(rec)))
			doc = nil
			err = types.NewExtractionError(ReasonCorrupt, fmt.Errorf("parser panic: %v", rec))
		}
	}()

	declaredPages := -1
	if !e.cfg.SkipStructureCheck {
		declaredPages, err = e.structureCheck(r, size)
		if err != nil {
			return nil, err
		}
	}

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		if isEncryptionError(err) {
			return nil, types.NewExtractionError(ReasonEncrypted, err)
		}
		return nil, types.NewExtractionError(ReasonCorrupt, err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, types.NewExtractionError(ReasonNoPages, nil)
	}
	if declaredPages >= 0 && declaredPages != numPages {
		e.log.Warn("page count mismatch between parsers",
			logger.Int("pdfcpu", declaredPages),
			logger.Int("reader", numPages))
	}

	doc = &SourceDocument{Size: size, Pages: make([]Page, 0, numPages)}
	readable := 0
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, Page{Index: i})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.log.Warn("failed to extract page text", logger.Int("page", i), logger.Err(err))
			doc.Pages = append(doc.Pages, Page{Index: i})
			continue
		}
		if hasVisibleText(text) {
			readable++
		}
		doc.Pages = append(doc.Pages, Page{Index: i, Text: text})
	}

	if readable == 0 {
		return nil, types.NewExtractionError(ReasonNoText, nil)
	}

	e.log.Info("text extracted",
		logger.Int("pages", numPages),
		logger.Int("pagesWithText", readable),
		logger.Int("chars", len([]rune(doc.Text()))))
	return doc, nil
}

// structureCheck validates the cross-reference structure and returns the declared page count.
func (e *Extractor) structureCheck(r io.ReaderAt, size int64) (int, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadContext(io.NewSectionReader(r, 0, size), conf)
	if err != nil {
		if isEncryptionError(err) {
			return 0, types.NewExtractionError(ReasonEncrypted, err)
		}
		// the text reader is more lenient; let it decide
		e.log.Debug("structure check failed, continuing with text reader", logger.Err(err))
		return -1, nil
	}
	// ReadContext does not validate, so the page count is not populated yet
	if err := ctx.EnsurePageCount(); err != nil {
		e.log.Debug("page tree unreadable, continuing with text reader", logger.Err(err))
		return -1, nil
	}
	if ctx.PageCount == 0 {
		return 0, types.NewExtractionError(ReasonNoPages, nil)
	}
	return ctx.PageCount, nil
}

// isEncryptionError reports whether a parser rejected the file because it is encrypted.
func isEncryptionError(err error) bool {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "password")
}

func hasVisibleText(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) && unicode.IsPrint(r) {
			return true
		}
	}
	return false
}

// CountPages returns the page count of an in-memory PDF.
func CountPages(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
}
