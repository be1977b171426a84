// Package translator turns normalized document text into translated text.
// It plans size-bounded chunks, drives them through a Translator backend and
// recovers from chunk-level failures.
package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

// Translator is the translation capability the orchestrator drives.
type Translator interface {
	Translate(ctx context.Context, text, src, dst string) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, text, src, dst string) (string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, text, src, dst string) (string, error) {
	return f(ctx, text, src, dst)
}

// ErrEmptyTranslation is returned when the backend answers with no text.
var ErrEmptyTranslation = errors.New("backend returned an empty translation")

// ChatBackendConfig configures an OpenAI-compatible chat backend.
type ChatBackendConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  logger.Logger
}

// ChatBackend translates text with a chat completion model.
type ChatBackend struct {
	model model.BaseChatModel
	name  string
	log   logger.Logger
}

// NewChatBackend creates a ChatBackend over an OpenAI-compatible endpoint.
func NewChatBackend(ctx context.Context, cfg ChatBackendConfig) (*ChatBackend, error) {
	if cfg.APIKey == "" {
		return nil, types.NewAppError(types.ErrConfig, "OpenAI API key is not configured", nil)
	}

	chatModelConfig := &openai.ChatModelConfig{
		Model:  cfg.Model,
		APIKey: cfg.APIKey,
	}
	if cfg.BaseURL != "" {
		chatModelConfig.BaseURL = cfg.BaseURL
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig)
	if err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to create chat model", err)
	}
	return NewChatBackendWithModel(chatModel, cfg.Model, cfg.Logger), nil
}

// NewChatBackendWithModel wraps an existing chat model.
func NewChatBackendWithModel(m model.BaseChatModel, name string, log logger.Logger) *ChatBackend {
	return &ChatBackend{model: m, name: name, log: logger.OrGlobal(log)}
}

// Translate implements Translator.
func (b *ChatBackend) Translate(ctx context.Context, text, src, dst string) (string, error) {
	b.log.Debug("calling chat model",
		logger.String("model", b.name),
		logger.String("src", src),
		logger.String("dst", dst),
		logger.Int("chars", len([]rune(text))))

	resp, err := b.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(buildSystemPrompt(src, dst)),
		schema.UserMessage(text),
	})
	if err != nil {
		return "", fmt.Errorf("chat model %s: %w", b.name, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyTranslation
	}
	return strings.TrimSpace(resp.Content), nil
}

func buildSystemPrompt(src, dst string) string {
	from := types.LanguageName(src)
	if src == "" || src == types.AutoDetect {
		from = "the source language (detect it automatically)"
	}
	return fmt.Sprintf(`You are a professional document translator.
Translate the text provided by the user from %s to %s.

RULES:
1. Output only the translation, with no explanations, notes or quotation marks.
2. Keep paragraph breaks (blank lines) and line breaks where they appear in the input.
3. Keep numbers, URLs, e-mail addresses and code exactly as they are.
4. Do not summarize or omit any sentence.`, from, types.LanguageName(dst))
}
