// Package bootstrap assembles the dashboard from configuration for both
// the API server and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"review_insights/internal/adapters/csvimport"
	"review_insights/internal/adapters/llm"
	"review_insights/internal/adapters/memstore"
	redisad "review_insights/internal/adapters/redis"
	"review_insights/internal/adapters/sentiment"
	"review_insights/internal/adapters/serpapi"
	"review_insights/internal/app"
	"review_insights/internal/domain"
	"review_insights/internal/shared"
)

// Dashboard wires every adapter selected by cfg. The returned cleanup closes
// the Redis client when one was opened.
func Dashboard(ctx context.Context, cfg shared.Config) (*app.Dashboard, func(), error) {
	var rc *redis.Client
	cleanup := func() {
		if rc != nil {
			_ = rc.Close()
		}
	}
	needRedis := cfg.SessionStore == "redis" || cfg.LLMCacheTTL > 0
	if needRedis {
		rc = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
		if err := rc.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis connection ok")
	}

	chat, err := ChatLLM(cfg, rc)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var model domain.SentimentModel
	switch cfg.SentimentProvider {
	case "llm":
		model = sentiment.NewLLM(chat)
	case "huggingface", "":
		model = sentiment.NewHuggingFace(sentiment.HuggingFaceConfig{
			Token: cfg.HFToken, BaseURL: cfg.HFBase, Model: cfg.HFModel,
		})
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown SENTIMENT_PROVIDER %q", cfg.SentimentProvider)
	}

	var store domain.SessionStore
	switch cfg.SessionStore {
	case "redis":
		store = redisad.NewSessionStore(rc, cfg.SessionTTL)
	case "memory", "":
		store = memstore.New(cfg.SessionTTL)
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}

	d := app.NewDashboard(app.DashboardDeps{
		Store:    store,
		Fetcher:  app.NewFetcher(serpapi.New(cfg.SerpAPIBase, cfg.SerpAPIKey), cfg.Language),
		Importer: csvimport.Importer{},
		Model:    model,
		Insights: app.NewInsights(chat, cfg.ThemeSample, cfg.SummarySample),
	})
	log.Info().
		Str("llm", cfg.LLMProvider).
		Str("sentiment", cfg.SentimentProvider).
		Str("sessions", cfg.SessionStore).
		Bool("llm_cache", cfg.LLMCacheTTL > 0).
		Msg("dashboard ready")
	return d, cleanup, nil
}

// ChatLLM selects the provider and applies pacing and memoization.
// rc may be nil when memoization is off.
func ChatLLM(cfg shared.Config, rc *redis.Client) (domain.LLM, error) {
	var (
		chat  domain.LLM
		model string
	)
	switch cfg.LLMProvider {
	case "anthropic":
		a := llm.NewAnthropic(llm.AnthropicConfig{APIKey: cfg.AnthropicKey, Model: cfg.AnthropicModel})
		chat, model = a, "anthropic:"+a.Model()
	case "openai", "":
		o, err := llm.NewOpenAI(llm.OpenAIConfig{APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBase})
		if err != nil {
			return nil, err
		}
		chat, model = o, "openai:"+o.Model()
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	chat = llm.NewLimited(chat, cfg.LLMRPS)
	if cfg.LLMCacheTTL > 0 && rc != nil {
		chat = llm.NewCached(chat, redisad.NewFromClient(rc), model, cfg.LLMCacheTTL)
	}
	return chat, nil
}
