package translator

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

const (
	// DefaultConcurrency is the number of chunks translated in parallel
	DefaultConcurrency = 3
	// DefaultCallTimeout bounds a single backend call
	DefaultCallTimeout = 60 * time.Second
	// DefaultPlaceholder replaces sections that could not be translated
	DefaultPlaceholder = "[Translation error for this section]"

	chunkSeparator = "\n\n"
)

// ProgressFunc is called after each chunk completes.
type ProgressFunc func(completed, total int)

// OrchestratorConfig configures an Orchestrator.
type OrchestratorConfig struct {
	Backend           Translator
	ChunkSize         int
	RecoveryChunkSize int
	Concurrency       int
	CallTimeout       time.Duration
	Placeholder       string
	Logger            logger.Logger
}

// ChunkResult is the outcome of one planned chunk.
type ChunkResult struct {
	Index int
	Text  string

	// Recovered is set when the chunk failed and was re-split.
	Recovered       bool
	SubChunks       int
	FailedSubChunks int
	Err             error
}

// Failed reports whether the result carries at least one placeholder.
func (r ChunkResult) Failed() bool {
	return r.FailedSubChunks > 0
}

// TotalFailure reports whether nothing in the chunk was translated.
func (r ChunkResult) TotalFailure() bool {
	return r.Recovered && r.SubChunks > 0 && r.FailedSubChunks == r.SubChunks
}

// TranslatedText is the reconstructed translation of a document.
type TranslatedText struct {
	Text         string
	SingleShot   bool
	Chunks       int
	FailedChunks int
	Results      []ChunkResult
}

// Orchestrator drives planned chunks through a Translator.
type Orchestrator struct {
	cfg OrchestratorConfig
	log logger.Logger
}

// NewOrchestrator creates an Orchestrator, filling zero config values with defaults.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.RecoveryChunkSize <= 0 {
		cfg.RecoveryChunkSize = DefaultRecoveryChunkSize
	}
	if cfg.RecoveryChunkSize > cfg.ChunkSize {
		cfg.RecoveryChunkSize = cfg.ChunkSize / 2
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
	}
	return &Orchestrator{cfg: cfg, log: logger.OrGlobal(cfg.Logger)}
}

// Translate translates text from src to dst.
func (o *Orchestrator) Translate(ctx context.Context, text, src, dst string) (*TranslatedText, error) {
	return o.TranslateWithProgress(ctx, text, src, dst, nil)
}

// TranslateWithProgress translates text and reports progress after each chunk.
//
// Text within the chunk size goes to the backend in one call and any failure is
// fatal. Longer text is planned into chunks translated concurrently; a failed
// chunk is re-split at the recovery size and sub-chunks that still fail are
// replaced by the placeholder. The call fails only when every chunk failed
// completely or ctx is cancelled.
func (o *Orchestrator) TranslateWithProgress(ctx context.Context, text, src, dst string, progress ProgressFunc) (*TranslatedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCancelled, "translation cancelled", err)
	}
	if strings.TrimSpace(text) == "" {
		return &TranslatedText{SingleShot: true}, nil
	}

	if utf8.RuneCountInString(text) <= o.cfg.ChunkSize {
		return o.translateSingle(ctx, text, src, dst, progress)
	}
	return o.translateChunked(ctx, text, src, dst, progress)
}

func (o *Orchestrator) translateSingle(ctx context.Context, text, src, dst string, progress ProgressFunc) (*TranslatedText, error) {
	o.log.Info("translating text in single request",
		logger.Int("chars", utf8.RuneCountInString(text)),
		logger.String("src", src),
		logger.String("dst", dst))

	translated, err := o.call(ctx, text, src, dst)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.NewAppError(types.ErrCancelled, "translation cancelled", ctx.Err())
		}
		o.log.Error("single-shot translation failed", err)
		return nil, types.NewTranslationFatalError("translation service unreachable", err)
	}
	if progress != nil {
		progress(1, 1)
	}

	return &TranslatedText{
		Text:       translated,
		SingleShot: true,
		Chunks:     1,
		Results:    []ChunkResult{{Index: 0, Text: translated}},
	}, nil
}

func (o *Orchestrator) translateChunked(ctx context.Context, text, src, dst string, progress ProgressFunc) (*TranslatedText, error) {
	chunks := Plan(text, o.cfg.ChunkSize)
	total := len(chunks)
	o.log.Info("translating text in chunks",
		logger.Int("chunks", total),
		logger.Int("limit", o.cfg.ChunkSize),
		logger.Int("concurrency", o.cfg.Concurrency),
		logger.String("src", src),
		logger.String("dst", dst))

	results := make([]ChunkResult, total)
	var (
		mu        sync.Mutex
		completed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for _, chunk := range chunks {
		if ctx.Err() != nil {
			break
		}
		chunk := chunk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[chunk.Index] = o.translateChunk(gctx, chunk, src, dst)

			// reported under the lock so callers see a monotonic count
			mu.Lock()
			defer mu.Unlock()
			completed++
			if progress != nil {
				progress(completed, total)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		o.log.Warn("translation cancelled, discarding chunks", logger.Int("completed", completed))
		return nil, types.NewAppError(types.ErrCancelled, "translation cancelled", err)
	}

	out := &TranslatedText{Chunks: total, Results: results}
	parts := make([]string, total)
	allFailed := true
	var lastErr error
	for i, r := range results {
		parts[i] = r.Text
		if r.Failed() {
			out.FailedChunks++
			lastErr = r.Err
		}
		if !r.TotalFailure() {
			allFailed = false
		}
	}
	if allFailed {
		o.log.Error("every chunk failed", lastErr, logger.Int("chunks", total))
		return nil, types.NewTranslationFatalError("translation failed for every section", lastErr)
	}

	out.Text = strings.Join(parts, chunkSeparator)
	o.log.Info("chunked translation completed",
		logger.Int("chunks", total),
		logger.Int("failedChunks", out.FailedChunks))
	return out, nil
}

// translateChunk translates one chunk, falling back to smaller sub-chunks on failure.
func (o *Orchestrator) translateChunk(ctx context.Context, chunk TextChunk, src, dst string) ChunkResult {
	if strings.TrimSpace(chunk.Text) == "" {
		return ChunkResult{Index: chunk.Index}
	}

	start := time.Now()
	translated, err := o.call(ctx, chunk.Text, src, dst)
	if err == nil {
		o.log.Debug("chunk translated",
			logger.Int("chunk", chunk.Index+1),
			logger.String("elapsed", time.Since(start).String()))
		return ChunkResult{Index: chunk.Index, Text: translated}
	}

	chunkErr := types.NewTranslationChunkError(chunk.Index+1, err)
	o.log.Warn("chunk failed, retrying with smaller sub-chunks",
		logger.Int("chunk", chunk.Index+1),
		logger.Int("recoveryLimit", o.cfg.RecoveryChunkSize),
		logger.Err(err))

	subs := Plan(chunk.Text, o.cfg.RecoveryChunkSize)
	parts := make([]string, len(subs))
	failed := 0
	for i, sub := range subs {
		if ctx.Err() != nil {
			parts[i] = o.cfg.Placeholder
			failed++
			continue
		}
		text, subErr := o.call(ctx, sub.Text, src, dst)
		if subErr != nil {
			o.log.Warn("sub-chunk failed, inserting placeholder",
				logger.Int("chunk", chunk.Index+1),
				logger.Int("subChunk", i+1),
				logger.Err(subErr))
			parts[i] = o.cfg.Placeholder
			failed++
			continue
		}
		parts[i] = text
	}

	return ChunkResult{
		Index:           chunk.Index,
		Text:            strings.Join(parts, chunkSeparator),
		Recovered:       true,
		SubChunks:       len(subs),
		FailedSubChunks: failed,
		Err:             chunkErr,
	}
}

// call issues one backend request bounded by the per-call timeout.
func (o *Orchestrator) call(ctx context.Context, text, src, dst string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()
	return o.cfg.Backend.Translate(callCtx, text, src, dst)
}
