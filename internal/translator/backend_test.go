package translator

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

type fakeChatModel struct {
	reply string
	err   error
	got   []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func TestChatBackendTranslate(t *testing.T) {
	fake := &fakeChatModel{reply: "  नमस्ते दुनिया\n"}
	backend := NewChatBackendWithModel(fake, "test-model", logger.Nop())

	got, err := backend.Translate(context.Background(), "Hello world", "en", "hi")

	require.NoError(t, err)
	assert.Equal(t, "नमस्ते दुनिया", got)

	require.Len(t, fake.got, 2)
	assert.Equal(t, schema.System, fake.got[0].Role)
	assert.Contains(t, fake.got[0].Content, "from English to Hindi")
	assert.Equal(t, schema.User, fake.got[1].Role)
	assert.Equal(t, "Hello world", fake.got[1].Content)
}

func TestChatBackendAutoSource(t *testing.T) {
	fake := &fakeChatModel{reply: "ok"}
	backend := NewChatBackendWithModel(fake, "test-model", logger.Nop())

	_, err := backend.Translate(context.Background(), "Bonjour", types.AutoDetect, "te")

	require.NoError(t, err)
	assert.Contains(t, fake.got[0].Content, "detect it automatically")
	assert.Contains(t, fake.got[0].Content, "Telugu")
}

func TestChatBackendErrors(t *testing.T) {
	t.Run("model error is wrapped", func(t *testing.T) {
		cause := errors.New("status code: 503")
		backend := NewChatBackendWithModel(&fakeChatModel{err: cause}, "test-model", logger.Nop())

		_, err := backend.Translate(context.Background(), "text", "en", "fr")

		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.True(t, isRetryableError(err))
	})

	t.Run("blank reply", func(t *testing.T) {
		backend := NewChatBackendWithModel(&fakeChatModel{reply: " \n"}, "test-model", logger.Nop())

		_, err := backend.Translate(context.Background(), "text", "en", "fr")

		assert.ErrorIs(t, err, ErrEmptyTranslation)
	})
}

func TestNewChatBackendRequiresAPIKey(t *testing.T) {
	_, err := NewChatBackend(context.Background(), ChatBackendConfig{Model: "gpt-4o-mini"})

	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrConfig))
}
