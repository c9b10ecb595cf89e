package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_insights/internal/adapters/llm"
	"review_insights/internal/bootstrap"
	"review_insights/internal/shared"
)

func TestDashboard_MemoryDefaults(t *testing.T) {
	cfg := shared.Config{LLMProvider: "openai", SentimentProvider: "huggingface", SessionStore: "memory", Language: "en"}
	d, cleanup, err := bootstrap.Dashboard(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	s, err := d.NewSession(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
}

func TestDashboard_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := shared.Config{
		LLMProvider: "anthropic", SentimentProvider: "llm",
		SessionStore: "redis", SessionTTL: time.Hour, RedisAddr: mr.Addr(),
	}
	d, cleanup, err := bootstrap.Dashboard(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	s, err := d.NewSession(context.Background())
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+s.ID))
}

func TestDashboard_UnknownProviders(t *testing.T) {
	_, _, err := bootstrap.Dashboard(context.Background(), shared.Config{LLMProvider: "gemini"})
	assert.Error(t, err)
	_, _, err = bootstrap.Dashboard(context.Background(), shared.Config{SentimentProvider: "vader"})
	assert.Error(t, err)
	_, _, err = bootstrap.Dashboard(context.Background(), shared.Config{SessionStore: "mysql"})
	assert.Error(t, err)
}

func TestChatLLM_WrapsCacheWhenEnabled(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	chat, err := bootstrap.ChatLLM(shared.Config{LLMProvider: "openai", LLMCacheTTL: time.Minute}, rc)
	require.NoError(t, err)
	_, ok := chat.(*llm.Cached)
	assert.True(t, ok)

	chat, err = bootstrap.ChatLLM(shared.Config{LLMProvider: "openai"}, rc)
	require.NoError(t, err)
	_, ok = chat.(*llm.OpenAI)
	assert.True(t, ok)
}
