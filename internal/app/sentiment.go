package app

import (
	"context"
	"fmt"
	"strings"

	"review_insights/internal/domain"
)

// MapLabel maps a raw model label onto positive/negative/neutral by substring.
func MapLabel(raw string) domain.Sentiment {
	l := strings.ToLower(raw)
	switch {
	case strings.Contains(l, "pos"):
		return domain.Positive
	case strings.Contains(l, "neg"):
		return domain.Negative
	default:
		return domain.Neutral
	}
}

// AddSentiment classifies every clean_text in one batched model call and
// returns a labeled copy of c. Any model failure aborts the whole step.
func AddSentiment(ctx context.Context, model domain.SentimentModel, c domain.Collection) (domain.Collection, error) {
	if !c.Fields.Has(domain.FieldCleanText) {
		return domain.Collection{}, &domain.SchemaError{Field: "clean_text"}
	}
	out := c.Clone()
	out.Fields |= domain.FieldSentiment
	if len(out.Reviews) == 0 {
		return out, nil
	}

	texts := make([]string, len(out.Reviews))
	for i, r := range out.Reviews {
		texts[i] = r.CleanText
	}
	results, err := model.Classify(ctx, texts)
	if err != nil {
		return domain.Collection{}, fmt.Errorf("classify sentiment: %w", err)
	}
	if len(results) != len(texts) {
		return domain.Collection{}, fmt.Errorf("classify sentiment: model returned %d results for %d texts", len(results), len(texts))
	}
	for i, res := range results {
		out.Reviews[i].Sentiment = MapLabel(res.Label)
		out.Reviews[i].SentimentScore = res.Score
	}
	return out, nil
}
