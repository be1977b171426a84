package translator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

const cacheFileVersion = "1.0"

// CacheEntry is one cached translation.
type CacheEntry struct {
	Hash        string    `json:"hash"`
	SourceLang  string    `json:"source_lang"`
	TargetLang  string    `json:"target_lang"`
	Translation string    `json:"translation"`
	CreatedAt   time.Time `json:"created_at"`
}

// CacheFile is the on-disk layout of the cache.
type CacheFile struct {
	Version string       `json:"version"`
	Entries []CacheEntry `json:"entries"`
}

// TranslationCache stores translations keyed by content and language pair.
type TranslationCache struct {
	cachePath string
	cache     map[string]CacheEntry // hash -> CacheEntry
	mu        sync.RWMutex
}

// NewTranslationCache creates a cache backed by the JSON file at path.
func NewTranslationCache(cachePath string) *TranslationCache {
	return &TranslationCache{
		cachePath: cachePath,
		cache:     make(map[string]CacheEntry),
	}
}

// ComputeHash returns the SHA256 cache key for text and a language pair.
func ComputeHash(text, src, dst string) string {
	h := sha256.New()
	h.Write([]byte(src))
	h.Write([]byte{0})
	h.Write([]byte(dst))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached translation, if any.
func (c *TranslationCache) Get(text, src, dst string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[ComputeHash(text, src, dst)]
	if !ok {
		return "", false
	}
	return entry.Translation, true
}

// Set stores a translation.
func (c *TranslationCache) Set(text, src, dst, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := ComputeHash(text, src, dst)
	c.cache[hash] = CacheEntry{
		Hash:        hash,
		SourceLang:  src,
		TargetLang:  dst,
		Translation: translation,
		CreatedAt:   time.Now(),
	}
}

// Load reads the cache file. A missing file is not an error.
func (c *TranslationCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachePath == "" {
		return nil
	}

	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return types.NewAppError(types.ErrInternal, "failed to read cache file", err)
	}

	var cacheFile CacheFile
	if err := json.Unmarshal(data, &cacheFile); err != nil {
		return types.NewAppError(types.ErrInternal, "failed to parse cache file", err)
	}

	c.cache = make(map[string]CacheEntry, len(cacheFile.Entries))
	for _, entry := range cacheFile.Entries {
		c.cache[entry.Hash] = entry
	}
	return nil
}

// Save writes the cache file.
func (c *TranslationCache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cachePath == "" {
		return nil
	}

	entries := make([]CacheEntry, 0, len(c.cache))
	for _, entry := range c.cache {
		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(CacheFile{Version: cacheFileVersion, Entries: entries}, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to marshal cache", err)
	}

	if dir := filepath.Dir(c.cachePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return types.NewAppError(types.ErrInternal, "failed to create cache directory", err)
		}
	}
	if err := os.WriteFile(c.cachePath, data, 0644); err != nil {
		return types.NewAppError(types.ErrInternal, "failed to write cache file", err)
	}
	return nil
}

// Size returns the number of entries.
func (c *TranslationCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Clear removes all entries.
func (c *TranslationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]CacheEntry)
}

// CachedTranslator serves repeated requests from a TranslationCache.
type CachedTranslator struct {
	next  Translator
	cache *TranslationCache
	log   logger.Logger
}

// NewCachedTranslator wraps next with cache.
func NewCachedTranslator(next Translator, cache *TranslationCache, log logger.Logger) *CachedTranslator {
	return &CachedTranslator{next: next, cache: cache, log: logger.OrGlobal(log)}
}

// Translate implements Translator.
func (t *CachedTranslator) Translate(ctx context.Context, text, src, dst string) (string, error) {
	if translated, ok := t.cache.Get(text, src, dst); ok {
		t.log.Debug("translation cache hit", logger.Int("chars", len([]rune(text))))
		return translated, nil
	}

	translated, err := t.next.Translate(ctx, text, src, dst)
	if err != nil {
		return "", err
	}
	t.cache.Set(text, src, dst, translated)
	return translated, nil
}
