package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"review_insights/internal/domain"
)

const (
	DefaultThemeSample   = 50
	DefaultSummarySample = 100
)

// Insights runs the LLM-backed steps. Every call is stateless text in, text out.
type Insights struct {
	llm           domain.LLM
	themeSample   int
	summarySample int
}

func NewInsights(llm domain.LLM, themeSample, summarySample int) *Insights {
	if themeSample <= 0 {
		themeSample = DefaultThemeSample
	}
	if summarySample <= 0 {
		summarySample = DefaultSummarySample
	}
	return &Insights{llm: llm, themeSample: themeSample, summarySample: summarySample}
}

func (s *Insights) ThemeSample() int   { return s.themeSample }
func (s *Insights) SummarySample() int { return s.summarySample }

func (s *Insights) call(ctx context.Context, step, prompt string) (string, error) {
	out, err := s.llm.Chat(ctx, domain.ChatRequest{
		System:      SystemPersona,
		Prompt:      prompt,
		Temperature: Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", step, err)
	}
	return strings.TrimSpace(out), nil
}

// ExtractThemes samples the first maxReviews reviews and asks for
// positive/negative themes. Undecodable output becomes a fallback ThemeSet.
func (s *Insights) ExtractThemes(ctx context.Context, c domain.Collection, maxReviews int) (domain.ThemeSet, error) {
	if !c.Fields.Has(domain.FieldCleanText) {
		return domain.ThemeSet{}, &domain.SchemaError{Field: "clean_text"}
	}
	raw, err := s.call(ctx, "extract themes", themesPrompt(joinClean(c.Head(maxReviews))))
	if err != nil {
		return domain.ThemeSet{}, err
	}
	themes := domain.ParseThemes(raw)
	if themes.Fallback {
		log.Warn().Int("raw_len", len(raw)).Msg("theme response was not a JSON object; keeping raw text")
	}
	return themes, nil
}

// Summarize returns the LLM's free-text summary of the first maxReviews reviews.
func (s *Insights) Summarize(ctx context.Context, c domain.Collection, maxReviews int) (string, error) {
	if !c.Fields.Has(domain.FieldCleanText) {
		return "", &domain.SchemaError{Field: "clean_text"}
	}
	return s.call(ctx, "summarize reviews", summaryPrompt(joinClean(c.Head(maxReviews))))
}

// Recommend builds operational recommendations from counts and themes.
func (s *Insights) Recommend(ctx context.Context, c domain.Collection, themes domain.ThemeSet) (string, error) {
	if !c.Fields.Has(domain.FieldSentiment) {
		return "", &domain.SchemaError{Field: "sentiment"}
	}
	st := ComputeStats(c)
	return s.call(ctx, "generate recommendations", recommendationsPrompt(st.TotalReviews, st.SentimentCounts, themes))
}

// ScoreActionability rates recs 1-10. Any failure yields the N/A fallback.
func (s *Insights) ScoreActionability(ctx context.Context, recs string) domain.Actionability {
	raw, err := s.call(ctx, "score recommendations", actionabilityPrompt(recs))
	if err != nil {
		log.Warn().Err(err).Msg("actionability scoring failed")
		return domain.FailedActionability()
	}
	return domain.ParseActionability(raw)
}

// CompareBusinesses writes the head-to-head narrative from two summaries.
func (s *Insights) CompareBusinesses(ctx context.Context, summaryA, summaryB string) (string, error) {
	return s.call(ctx, "compare businesses", comparisonPrompt(summaryA, summaryB))
}
