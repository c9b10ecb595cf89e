package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

const (
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	anthropicMaxTokens    = 4096
)

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Anthropic is a domain.LLM over the Messages API.
type Anthropic struct {
	model  string
	client *anthropic.Client // nil when no key is configured
}

func NewAnthropic(cfg AnthropicConfig) *Anthropic {
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	a := &Anthropic{model: cfg.Model}
	if cfg.APIKey == "" {
		return a
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	c := anthropic.NewClient(opts...)
	a.client = &c
	return a
}

func (a *Anthropic) Model() string { return a.model }

func (a *Anthropic) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	if a.client == nil {
		return "", &domain.ConfigError{Key: "ANTHROPIC_API_KEY"}
	}

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		System:      []anthropic.TextBlockParam{{Text: req.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		status := 0
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		observability.ObserveExternal("anthropic", "messages", status, time.Since(start))
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	observability.ObserveExternal("anthropic", "messages", 200, time.Since(start))

	for _, block := range msg.Content {
		if block.Type == "text" {
			log.Debug().Str("model", a.model).
				Int64("tokens_in", msg.Usage.InputTokens).
				Int64("tokens_out", msg.Usage.OutputTokens).
				Msg("anthropic messages completed")
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic messages: no text content in response")
}
