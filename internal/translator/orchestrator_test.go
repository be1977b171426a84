package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

var errStubFailure = errors.New("stub backend failure")

// failingStub translates by tagging text with the target language and fails on "FAIL".
func failingStub(calls *int64) TranslatorFunc {
	return func(ctx context.Context, text, src, dst string) (string, error) {
		if calls != nil {
			atomic.AddInt64(calls, 1)
		}
		if strings.Contains(text, "FAIL") {
			return "", errStubFailure
		}
		return "[" + dst + "]" + text, nil
	}
}

func newTestOrchestrator(backend Translator, chunkSize, recoverySize int) *Orchestrator {
	return NewOrchestrator(OrchestratorConfig{
		Backend:           backend,
		ChunkSize:         chunkSize,
		RecoveryChunkSize: recoverySize,
		Concurrency:       3,
		CallTimeout:       time.Second,
		Logger:            logger.Nop(),
	})
}

// paragraph returns a one-sentence paragraph of about 50 characters; two never fit in 100.
func paragraph(i int, marker string) string {
	return fmt.Sprintf("Paragraph %d talks about topic number %d %s in detail.", i, i, marker)
}

func TestOrchestratorSingleShot(t *testing.T) {
	var calls int64
	o := newTestOrchestrator(failingStub(&calls), 100, 50)

	result, err := o.Translate(context.Background(), "Short text.", "en", "hi")

	require.NoError(t, err)
	assert.True(t, result.SingleShot)
	assert.Equal(t, "[hi]Short text.", result.Text)
	assert.Equal(t, 1, result.Chunks)
	assert.Zero(t, result.FailedChunks)
	assert.EqualValues(t, 1, calls)
}

func TestOrchestratorSingleShotFailureIsFatal(t *testing.T) {
	o := newTestOrchestrator(failingStub(nil), 100, 50)

	result, err := o.Translate(context.Background(), "This short text will FAIL.", "en", "hi")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrTranslationFatal))
	assert.ErrorIs(t, err, errStubFailure)
}

func TestOrchestratorPlaceholderOnlyAtFailedChunk(t *testing.T) {
	var paras []string
	for i := 1; i <= 5; i++ {
		marker := ""
		if i == 3 {
			marker = "FAIL"
		}
		paras = append(paras, paragraph(i, marker))
	}
	text := strings.Join(paras, "\n\n")

	o := newTestOrchestrator(failingStub(nil), 100, 50)
	result, err := o.Translate(context.Background(), text, "en", "te")

	require.NoError(t, err)
	assert.False(t, result.SingleShot)
	assert.Equal(t, 5, result.Chunks)
	assert.Equal(t, 1, result.FailedChunks)

	want := []string{
		"[te]" + paras[0],
		"[te]" + paras[1],
		DefaultPlaceholder,
		"[te]" + paras[3],
		"[te]" + paras[4],
	}
	assert.Equal(t, strings.Join(want, "\n\n"), result.Text)
	assert.Equal(t, 1, strings.Count(result.Text, DefaultPlaceholder))

	failed := result.Results[2]
	assert.True(t, failed.Recovered)
	assert.True(t, failed.TotalFailure())
	assert.True(t, types.IsCode(failed.Err, types.ErrTranslationChunk))
}

func TestOrchestratorRecoveryTranslatesHealthySubChunks(t *testing.T) {
	good := "The first sentence is perfectly fine."
	bad := "The second sentence will FAIL badly."
	mixed := good + " " + bad
	text := paragraph(1, "") + "\n\n" + mixed + "\n\n" + paragraph(2, "")

	o := newTestOrchestrator(failingStub(nil), 80, 40)
	result, err := o.Translate(context.Background(), text, "en", "hi")

	require.NoError(t, err)
	require.Equal(t, 3, result.Chunks)
	assert.Equal(t, 1, result.FailedChunks)

	recovered := result.Results[1]
	assert.Equal(t, 2, recovered.SubChunks)
	assert.Equal(t, 1, recovered.FailedSubChunks)
	assert.False(t, recovered.TotalFailure())
	assert.Equal(t, "[hi]"+good+"\n\n"+DefaultPlaceholder, recovered.Text)
}

func TestOrchestratorAllChunksFailIsFatal(t *testing.T) {
	var paras []string
	for i := 1; i <= 3; i++ {
		paras = append(paras, paragraph(i, "FAIL"))
	}

	o := newTestOrchestrator(failingStub(nil), 100, 50)
	_, err := o.Translate(context.Background(), strings.Join(paras, "\n\n"), "en", "hi")

	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrTranslationFatal))
}

func TestOrchestratorPreservesOrderUnderConcurrency(t *testing.T) {
	var paras []string
	for i := 1; i <= 8; i++ {
		paras = append(paras, paragraph(i, ""))
	}
	text := strings.Join(paras, "\n\n")

	// earlier chunks finish last
	backend := TranslatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
		var n int
		fmt.Sscanf(text, "Paragraph %d", &n)
		time.Sleep(time.Duration(10-n) * 3 * time.Millisecond)
		return strings.ToUpper(text), nil
	})

	o := NewOrchestrator(OrchestratorConfig{
		Backend:     backend,
		ChunkSize:   100,
		Concurrency: 4,
		Logger:      logger.Nop(),
	})
	result, err := o.Translate(context.Background(), text, "en", "fr")

	require.NoError(t, err)
	require.Equal(t, 8, result.Chunks)
	assert.Equal(t, strings.ToUpper(text), result.Text)
}

func TestOrchestratorBoundsConcurrency(t *testing.T) {
	var (
		inFlight int64
		peak     int64
	)
	backend := TranslatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
		n := atomic.AddInt64(&inFlight, 1)
		defer atomic.AddInt64(&inFlight, -1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return text, nil
	})

	var paras []string
	for i := 1; i <= 10; i++ {
		paras = append(paras, paragraph(i, ""))
	}

	o := NewOrchestrator(OrchestratorConfig{Backend: backend, ChunkSize: 100, Concurrency: 2, Logger: logger.Nop()})
	_, err := o.Translate(context.Background(), strings.Join(paras, "\n\n"), "en", "de")

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestOrchestratorEmptyChunkSkipsBackend(t *testing.T) {
	var calls int64
	o := newTestOrchestrator(failingStub(&calls), 100, 50)

	r := o.translateChunk(context.Background(), TextChunk{Index: 4, Text: "  \n "}, "en", "hi")

	assert.Equal(t, ChunkResult{Index: 4}, r)
	assert.Zero(t, calls)

	result, err := o.Translate(context.Background(), " \n\n ", "en", "hi")
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	assert.Zero(t, calls)
}

func TestOrchestratorProgress(t *testing.T) {
	var paras []string
	for i := 1; i <= 4; i++ {
		paras = append(paras, paragraph(i, ""))
	}

	var (
		mu    sync.Mutex
		calls [][2]int
	)
	o := newTestOrchestrator(failingStub(nil), 100, 50)
	_, err := o.TranslateWithProgress(context.Background(), strings.Join(paras, "\n\n"), "en", "es",
		func(completed, total int) {
			mu.Lock()
			calls = append(calls, [2]int{completed, total})
			mu.Unlock()
		})

	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, calls)
}

func TestOrchestratorProgressIsMonotonic(t *testing.T) {
	var paras []string
	for i := 1; i <= 12; i++ {
		paras = append(paras, paragraph(i, ""))
	}

	o := NewOrchestrator(OrchestratorConfig{Backend: failingStub(nil), ChunkSize: 100, Concurrency: 6, Logger: logger.Nop()})

	var seen []int
	_, err := o.TranslateWithProgress(context.Background(), strings.Join(paras, "\n\n"), "en", "fr",
		func(completed, total int) {
			// a slow first report lets later chunks finish meanwhile
			if completed == 1 {
				time.Sleep(20 * time.Millisecond)
			}
			seen = append(seen, completed)
		})

	require.NoError(t, err)
	require.Len(t, seen, 12)
	for i, n := range seen {
		assert.Equal(t, i+1, n)
	}
}

func TestOrchestratorCallTimeoutIsChunkFailure(t *testing.T) {
	backend := TranslatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
		if strings.Contains(text, "SLOW") {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return text, nil
	})

	text := paragraph(1, "") + "\n\n" + paragraph(2, "SLOW") + "\n\n" + paragraph(3, "")
	o := NewOrchestrator(OrchestratorConfig{
		Backend:     backend,
		ChunkSize:   100,
		CallTimeout: 20 * time.Millisecond,
		Logger:      logger.Nop(),
	})

	result, err := o.Translate(context.Background(), text, "en", "hi")

	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedChunks)
	assert.Contains(t, result.Text, DefaultPlaceholder)
	assert.True(t, strings.HasPrefix(result.Text, paragraph(1, "")))
}

func TestOrchestratorCancellation(t *testing.T) {
	t.Run("cancelled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls int64
		o := newTestOrchestrator(failingStub(&calls), 100, 50)
		_, err := o.Translate(ctx, "Some text.", "en", "hi")

		assert.True(t, types.IsCode(err, types.ErrCancelled))
		assert.Zero(t, calls)
	})

	t.Run("cancelled mid-document discards results", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		backend := TranslatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
			cancel()
			return text, nil
		})

		var paras []string
		for i := 1; i <= 6; i++ {
			paras = append(paras, paragraph(i, ""))
		}
		o := NewOrchestrator(OrchestratorConfig{Backend: backend, ChunkSize: 100, Concurrency: 1, Logger: logger.Nop()})
		result, err := o.Translate(ctx, strings.Join(paras, "\n\n"), "en", "hi")

		assert.Nil(t, result)
		assert.True(t, types.IsCode(err, types.ErrCancelled))
	})
}

func TestNewOrchestratorDefaults(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{Backend: failingStub(nil)})

	assert.Equal(t, DefaultChunkSize, o.cfg.ChunkSize)
	assert.Equal(t, DefaultRecoveryChunkSize, o.cfg.RecoveryChunkSize)
	assert.Equal(t, DefaultConcurrency, o.cfg.Concurrency)
	assert.Equal(t, DefaultCallTimeout, o.cfg.CallTimeout)
	assert.Equal(t, DefaultPlaceholder, o.cfg.Placeholder)

	small := NewOrchestrator(OrchestratorConfig{Backend: failingStub(nil), ChunkSize: 1000})
	assert.Equal(t, 500, small.cfg.RecoveryChunkSize)
}
