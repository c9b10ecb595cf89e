package domain

import (
	"context"
	"io"
)

// ReviewProvider returns the raw review objects for one place listing.
// An empty apiKey falls back to the provider's configured default.
type ReviewProvider interface {
	GetReviews(ctx context.Context, placeID, apiKey, lang string) ([]map[string]any, error)
}

type ReviewImporter interface {
	Import(r io.Reader) (Collection, error)
}

// RawSentiment is the unmapped output of a sentiment model for one text.
type RawSentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SentimentModel classifies a batch of texts in a single call.
type SentimentModel interface {
	Classify(ctx context.Context, texts []string) ([]RawSentiment, error)
}

type ChatRequest struct {
	System      string
	Prompt      string
	Temperature float64
}

// LLM is a text-in/text-out chat completion.
type LLM interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type SessionStore interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
