package translator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-translator/internal/logger"
)

func TestTranslationCacheKeyIncludesLanguages(t *testing.T) {
	cache := NewTranslationCache("")

	cache.Set("Hello", "en", "hi", "नमस्ते")

	got, ok := cache.Get("Hello", "en", "hi")
	assert.True(t, ok)
	assert.Equal(t, "नमस्ते", got)

	_, ok = cache.Get("Hello", "en", "te")
	assert.False(t, ok)
	_, ok = cache.Get("Hello", "auto", "hi")
	assert.False(t, ok)

	assert.NotEqual(t, ComputeHash("ab", "c", "d"), ComputeHash("a", "bc", "d"))
}

func TestTranslationCacheSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "translations.json")

	cache := NewTranslationCache(path)
	cache.Set("Good morning", "en", "te", "శుభోదయం")
	cache.Set("Good night", "en", "te", "శుభ రాత్రి")
	require.NoError(t, cache.Save())

	loaded := NewTranslationCache(path)
	require.NoError(t, loaded.Load())

	assert.Equal(t, 2, loaded.Size())
	got, ok := loaded.Get("Good night", "en", "te")
	assert.True(t, ok)
	assert.Equal(t, "శుభ రాత్రి", got)

	loaded.Clear()
	assert.Zero(t, loaded.Size())
}

func TestTranslationCacheLoad(t *testing.T) {
	t.Run("missing file starts empty", func(t *testing.T) {
		cache := NewTranslationCache(filepath.Join(t.TempDir(), "missing.json"))
		require.NoError(t, cache.Load())
		assert.Zero(t, cache.Size())
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		cache := NewTranslationCache(path)
		assert.Error(t, cache.Load())
	})

	t.Run("empty path is a no-op", func(t *testing.T) {
		cache := NewTranslationCache("")
		assert.NoError(t, cache.Load())
		assert.NoError(t, cache.Save())
	})
}

func TestCachedTranslator(t *testing.T) {
	var calls int64
	cached := NewCachedTranslator(failingStub(&calls), NewTranslationCache(""), logger.Nop())
	ctx := context.Background()

	first, err := cached.Translate(ctx, "Hello", "en", "hi")
	require.NoError(t, err)
	second, err := cached.Translate(ctx, "Hello", "en", "hi")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, calls)

	_, err = cached.Translate(ctx, "This will FAIL", "en", "hi")
	assert.Error(t, err)
	_, err = cached.Translate(ctx, "This will FAIL", "en", "hi")
	assert.Error(t, err)
	assert.EqualValues(t, 3, calls, "failures must not be cached")
}
