// Package llm holds the chat-completion backends and their decorators.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

const DefaultOpenAIModel = "gpt-4.1-mini"

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAI is a domain.LLM over langchaingo's OpenAI client.
type OpenAI struct {
	model  string
	client llms.Model // nil when no key is configured
}

// NewOpenAI builds the client eagerly when a key is present. Without a key
// every Chat call returns a ConfigError.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	o := &OpenAI{model: cfg.Model}
	if cfg.APIKey == "" {
		return o, nil
	}
	opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	c, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	o.client = c
	return o, nil
}

func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	if o.client == nil {
		return "", &domain.ConfigError{Key: "OPENAI_API_KEY"}
	}
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	start := time.Now()
	resp, err := o.client.GenerateContent(ctx, content, llms.WithTemperature(req.Temperature))
	if err != nil {
		observability.ObserveExternal("openai", "chat", 0, time.Since(start))
		return "", fmt.Errorf("openai chat: %w", err)
	}
	observability.ObserveExternal("openai", "chat", 200, time.Since(start))
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty response")
	}
	log.Debug().Str("model", o.model).Int("response_len", len(resp.Choices[0].Content)).
		Dur("duration", time.Since(start)).Msg("openai chat completed")
	return resp.Choices[0].Content, nil
}
