// Package pipeline runs a PDF through extraction, normalization, chunked
// translation, script classification and rendering.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-text/typesetting/language"
	"github.com/google/uuid"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/script"
	"pdf-translator/internal/translator"
	"pdf-translator/internal/types"
)

// StatusCallback receives phase changes while a request is processed.
type StatusCallback func(status types.Status)

// Config wires a Service. Zero values take the translator package defaults.
type Config struct {
	Translator translator.Translator // required

	Extractor *pdf.Extractor // nil builds a default extractor
	Renderer  *pdf.Renderer  // nil builds a renderer over FontDirectory
	// FontDirectory is only used when Renderer is nil.
	FontDirectory string

	ChunkSize         int
	RecoveryChunkSize int
	Concurrency       int
	CallTimeout       time.Duration
	Placeholder       string

	Logger logger.Logger
}

// Request is one document to translate. Exactly one of Path or Data is set.
type Request struct {
	Path string
	Data []byte

	SourceLang string // language code or "auto"
	TargetLang string
	// Filename is shown in the output title; defaults to the base name of Path.
	Filename string

	OnStatus StatusCallback
}

// Result is a rendered translation and its statistics.
type Result struct {
	JobID          string
	Document       *pdf.RenderedDocument
	Pages          int
	ExtractedChars int
	Chunks         int
	FailedChunks   int
	SingleShot     bool
	Script         language.Script
	Duration       time.Duration
}

// Degraded reports whether some sections were replaced by the placeholder.
func (r *Result) Degraded() bool {
	return r.FailedChunks > 0
}

// Service is the document translation pipeline. It holds no per-request state
// and may serve concurrent requests.
type Service struct {
	extractor    *pdf.Extractor
	orchestrator *translator.Orchestrator
	renderer     *pdf.Renderer
	log          logger.Logger
}

// New creates a Service.
func New(cfg Config) *Service {
	log := logger.OrGlobal(cfg.Logger)
	if cfg.Translator == nil {
		cfg.Translator = translator.TranslatorFunc(func(context.Context, string, string, string) (string, error) {
			return "", types.NewAppError(types.ErrConfig, "no translation backend configured", nil)
		})
	}
	if cfg.Extractor == nil {
		cfg.Extractor = pdf.NewExtractor(pdf.ExtractorConfig{Logger: log})
	}
	if cfg.Renderer == nil {
		fonts := pdf.NewFontRegistry(pdf.FontRegistryConfig{Directory: cfg.FontDirectory, Logger: log})
		cfg.Renderer = pdf.NewRenderer(pdf.RendererConfig{Fonts: fonts, Logger: log})
	}
	return &Service{
		extractor: cfg.Extractor,
		orchestrator: translator.NewOrchestrator(translator.OrchestratorConfig{
			Backend:           cfg.Translator,
			ChunkSize:         cfg.ChunkSize,
			RecoveryChunkSize: cfg.RecoveryChunkSize,
			Concurrency:       cfg.Concurrency,
			CallTimeout:       cfg.CallTimeout,
			Placeholder:       cfg.Placeholder,
			Logger:            log,
		}),
		renderer: cfg.Renderer,
		log:      log,
	}
}

// Process translates one document.
//
// Errors carry one of the codes INVALID_INPUT, EXTRACTION_ERROR,
// TRANSLATION_FATAL, RENDER_ERROR or CANCELLED. Sections that could not be
// translated do not fail the request; they are counted in FailedChunks.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res := &Result{JobID: uuid.NewString()}
	job := logger.String("job", res.JobID)

	report := func(phase types.ProcessPhase, progress int, message string) {
		if req.OnStatus != nil {
			req.OnStatus(types.Status{Phase: phase, Progress: progress, Message: message})
		}
	}
	fail := func(err error) (*Result, error) {
		s.log.Error("document translation failed", err, job, logger.String("code", string(types.CodeOf(err))))
		if req.OnStatus != nil {
			req.OnStatus(types.Status{Phase: types.PhaseError, Message: "translation failed", Error: err.Error()})
		}
		return nil, err
	}

	if err := types.ValidateLanguagePair(req.SourceLang, req.TargetLang); err != nil {
		return fail(err)
	}
	if req.Path == "" && len(req.Data) == 0 {
		return fail(types.NewAppError(types.ErrInvalidInput, "no input document", nil))
	}
	src := types.NormalizeLanguageCode(req.SourceLang)
	dst := types.NormalizeLanguageCode(req.TargetLang)
	filename := req.Filename
	if filename == "" {
		filename = filepath.Base(req.Path)
	}

	s.log.Info("processing document",
		job,
		logger.String("file", filename),
		logger.String("src", src),
		logger.String("dst", dst))

	// Step 1: extract
	report(types.PhaseExtracting, 5, "extracting text")
	var (
		doc *pdf.SourceDocument
		err error
	)
	if req.Path != "" {
		doc, err = s.extractor.ExtractFile(req.Path)
	} else {
		doc, err = s.extractor.ExtractBytes(req.Data)
	}
	if err != nil {
		return fail(err)
	}
	res.Pages = doc.PageCount()

	// Step 2: normalize
	text := translator.Normalize(doc.Text())
	if strings.TrimSpace(text) == "" {
		return fail(types.NewExtractionError(pdf.ReasonNoText, nil))
	}
	res.ExtractedChars = utf8.RuneCountInString(text)

	// Step 3: translate
	report(types.PhaseTranslating, 20, "translating")
	translated, err := s.orchestrator.TranslateWithProgress(ctx, text, src, dst, func(completed, total int) {
		report(types.PhaseTranslating, 20+60*completed/total, "translating")
	})
	if err != nil {
		return fail(err)
	}
	res.Chunks = translated.Chunks
	res.FailedChunks = translated.FailedChunks
	res.SingleShot = translated.SingleShot

	if err := ctx.Err(); err != nil {
		return fail(types.NewAppError(types.ErrCancelled, "translation cancelled", err))
	}

	// Step 4: classify and render
	res.Script = script.Classify(translated.Text)
	report(types.PhaseRendering, 85, "rendering")
	res.Document, err = s.renderer.Render(translated.Text, filename, dst)
	if err != nil {
		return fail(err)
	}

	res.Duration = time.Since(start)
	report(types.PhaseComplete, 100, "done")
	s.log.Info("document translated",
		job,
		logger.Int("pages", res.Pages),
		logger.Int("outputPages", res.Document.PageCount),
		logger.Int("chars", res.ExtractedChars),
		logger.Int("chunks", res.Chunks),
		logger.Int("failedChunks", res.FailedChunks),
		logger.String("script", res.Script.String()),
		logger.String("font", res.Document.FontFamily),
		logger.Int64("durationMs", res.Duration.Milliseconds()))
	return res, nil
}
