package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/translator"
	"pdf-translator/internal/types"
)

// sourcePDF builds a PDF with one page per entry, each entry written as lines of
// at most two sentences.
func sourcePDF(t *testing.T, pages ...[]string) []byte {
	t.Helper()
	doc := gofpdf.New("P", "pt", "A4", "")
	doc.SetFont("Helvetica", "", 8)
	for _, sentences := range pages {
		doc.AddPage()
		y := 60.0
		for i := 0; i < len(sentences); i += 2 {
			line := sentences[i]
			if i+1 < len(sentences) {
				line += sentences[i+1]
			}
			doc.Text(40, y, line)
			y += 10
		}
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

// pageSentences returns 80 sentences of 50 characters each, about 4000 characters.
func pageSentences(section int, marker string) []string {
	out := make([]string, 80)
	for i := range out {
		out[i] = fmt.Sprintf("Section %d sentence %02d describes the quick brown fox. ", section, i)
	}
	if marker != "" {
		out[0] = fmt.Sprintf("Section %d sentence 00 has the %s marker in it. ", section, marker)
	}
	return out
}

var errBackendDown = errors.New("backend down")

// stubBackend tags text with the target language and fails on text containing "FAIL".
func stubBackend(calls *int64) translator.TranslatorFunc {
	return func(ctx context.Context, text, src, dst string) (string, error) {
		atomic.AddInt64(calls, 1)
		if strings.Contains(text, "FAIL") {
			return "", errBackendDown
		}
		return "[" + dst + "] " + text, nil
	}
}

func newTestService(t *testing.T, backend translator.Translator) *Service {
	t.Helper()
	fontDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(fontDir, "NotoSansDevanagari-Regular.ttf"), goregular.TTF, 0644))

	return New(Config{
		Translator:    backend,
		FontDirectory: fontDir,
		Concurrency:   2,
		CallTimeout:   5 * time.Second,
		Logger:        logger.Nop(),
	})
}

// TestProcess_EndToEnd tests a three page English document translated to Hindi.
func TestProcess_EndToEnd(t *testing.T) {
	var calls int64
	svc := newTestService(t, stubBackend(&calls))
	data := sourcePDF(t, pageSentences(1, ""), pageSentences(2, ""), pageSentences(3, ""))

	var (
		mu       sync.Mutex
		statuses []types.Status
	)
	res, err := svc.Process(context.Background(), Request{
		Data:       data,
		SourceLang: "en",
		TargetLang: "hi",
		Filename:   "paper.pdf",
		OnStatus: func(s types.Status) {
			mu.Lock()
			statuses = append(statuses, s)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.JobID)
	assert.Equal(t, 3, res.Pages)
	assert.Greater(t, res.ExtractedChars, 11000)
	assert.False(t, res.SingleShot)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 0, res.FailedChunks)
	assert.False(t, res.Degraded())
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))

	doc := res.Document
	require.NotNil(t, doc)
	assert.Contains(t, doc.Title, "paper.pdf")
	assert.Equal(t, "NotoSansDevanagari", doc.FontFamily)
	assert.False(t, doc.FellBack)
	assert.Greater(t, doc.PageCount, 1)

	require.NotEmpty(t, statuses)
	assert.Equal(t, types.PhaseExtracting, statuses[0].Phase)
	assert.Equal(t, types.PhaseComplete, statuses[len(statuses)-1].Phase)
	assert.Equal(t, 100, statuses[len(statuses)-1].Progress)
}

// TestProcess_FromPath tests reading the source from disk with the title taken from the file name.
func TestProcess_FromPath(t *testing.T) {
	var calls int64
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, sourcePDF(t, []string{"A short note. "}), 0644))

	res, err := newTestService(t, stubBackend(&calls)).Process(context.Background(), Request{
		Path:       path,
		SourceLang: "auto",
		TargetLang: "fr",
	})
	require.NoError(t, err)
	assert.True(t, res.SingleShot)
	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, "Translated Document: notes.pdf", res.Document.Title)
	assert.Equal(t, pdf.FallbackFamily, res.Document.FontFamily)
}

// TestProcess_EmptyText tests that text reducing to nothing fails before translation.
func TestProcess_EmptyText(t *testing.T) {
	var calls int64
	data := sourcePDF(t, []string{"1"}, []string{"2"}, []string{"3"})

	_, err := newTestService(t, stubBackend(&calls)).Process(context.Background(), Request{
		Data: data, SourceLang: "en", TargetLang: "hi", Filename: "numbers.pdf",
	})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrExtraction))
	assert.Zero(t, atomic.LoadInt64(&calls))
}

// TestProcess_SingleShotFailure tests that a short document fails when the backend is down.
func TestProcess_SingleShotFailure(t *testing.T) {
	down := translator.TranslatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
		return "", errBackendDown
	})
	data := sourcePDF(t, []string{"Just one short sentence. "})

	var statuses []types.Status
	_, err := newTestService(t, down).Process(context.Background(), Request{
		Data: data, SourceLang: "en", TargetLang: "hi", Filename: "short.pdf",
		OnStatus: func(s types.Status) { statuses = append(statuses, s) },
	})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrTranslationFatal))
	assert.ErrorIs(t, err, errBackendDown)

	require.NotEmpty(t, statuses)
	last := statuses[len(statuses)-1]
	assert.Equal(t, types.PhaseError, last.Phase)
	assert.NotEmpty(t, last.Error)
}

// TestProcess_OneChunkFails tests that one failing chunk out of five degrades the
// output with a single placeholder instead of failing.
func TestProcess_OneChunkFails(t *testing.T) {
	var (
		calls int64
		mu    sync.Mutex
		seen  []string
	)
	inner := stubBackend(&calls)
	backend := translator.TranslatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
		out, err := inner(ctx, text, src, dst)
		if err == nil {
			mu.Lock()
			seen = append(seen, out)
			mu.Unlock()
		}
		return out, err
	})

	data := sourcePDF(t,
		pageSentences(1, ""),
		pageSentences(2, ""),
		pageSentences(3, "FAIL"),
		pageSentences(4, ""),
		pageSentences(5, ""),
	)

	res, err := newTestService(t, backend).Process(context.Background(), Request{
		Data: data, SourceLang: "en", TargetLang: "hi", Filename: "five.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Chunks)
	assert.Equal(t, 1, res.FailedChunks)
	assert.True(t, res.Degraded())
	assert.NotNil(t, res.Document)

	// the healthy half of the failed section was still translated
	joined := strings.Join(seen, "\n")
	assert.Contains(t, joined, "Section 3 sentence 79")
	assert.NotContains(t, joined, "FAIL")
}

func TestProcess_InvalidInput(t *testing.T) {
	var calls int64
	svc := newTestService(t, stubBackend(&calls))

	tests := []struct {
		name string
		req  Request
	}{
		{"same language", Request{Data: []byte("x"), SourceLang: "en", TargetLang: "en"}},
		{"unsupported target", Request{Data: []byte("x"), SourceLang: "en", TargetLang: "xx"}},
		{"auto target", Request{Data: []byte("x"), SourceLang: "en", TargetLang: "auto"}},
		{"no document", Request{SourceLang: "en", TargetLang: "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Process(context.Background(), tt.req)
			assert.True(t, types.IsCode(err, types.ErrInvalidInput), "got %v", err)
		})
	}
	assert.Zero(t, atomic.LoadInt64(&calls))
}

func TestProcess_Cancelled(t *testing.T) {
	var calls int64
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(t, stubBackend(&calls)).Process(ctx, Request{
		Data: sourcePDF(t, []string{"Some text. "}), SourceLang: "en", TargetLang: "hi", Filename: "x.pdf",
	})
	assert.True(t, types.IsCode(err, types.ErrCancelled))
	assert.Zero(t, atomic.LoadInt64(&calls))
}

func TestProcess_CorruptSource(t *testing.T) {
	var calls int64
	_, err := newTestService(t, stubBackend(&calls)).Process(context.Background(), Request{
		Data: []byte("definitely not a pdf"), SourceLang: "en", TargetLang: "hi", Filename: "bad.pdf",
	})
	assert.True(t, types.IsCode(err, types.ErrExtraction))
}
