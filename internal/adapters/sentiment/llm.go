package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"review_insights/internal/domain"
)

const llmSystem = "You are a precise sentiment classifier for customer reviews."

// LLM classifies texts by asking a chat model for a JSON array.
type LLM struct {
	chat domain.LLM
}

func NewLLM(chat domain.LLM) *LLM { return &LLM{chat: chat} }

func (l *LLM) Classify(ctx context.Context, texts []string) ([]domain.RawSentiment, error) {
	if len(texts) == 0 {
		return []domain.RawSentiment{}, nil
	}
	numbered, err := json.Marshal(texts)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(`Classify the sentiment of each review in this JSON array.
Return only a JSON array with exactly %d objects, in the same order:
[{"label": "POSITIVE" | "NEGATIVE" | "NEUTRAL", "score": confidence between 0 and 1}, ...]

Reviews:
%s`, len(texts), numbered)

	raw, err := l.chat.Chat(ctx, domain.ChatRequest{System: llmSystem, Prompt: prompt, Temperature: 0})
	if err != nil {
		return nil, err
	}
	var out []domain.RawSentiment
	if err := json.Unmarshal([]byte(trimFence(raw)), &out); err != nil {
		return nil, fmt.Errorf("llm sentiment: decode response: %w", err)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("llm sentiment: got %d results for %d inputs", len(out), len(texts))
	}
	// models occasionally answer on a 0-100 or signed scale
	for i := range out {
		out[i].Score = math.Min(1, math.Max(0, out[i].Score))
	}
	return out, nil
}

func trimFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
