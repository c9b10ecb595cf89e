package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"review_insights/internal/domain"
)

// SystemPersona is sent as the system message on every LLM call.
const SystemPersona = "You are an expert business analyst for local businesses."

// Temperature is fixed low for every insight call.
const Temperature = 0.3

func joinClean(rs []domain.Review) string {
	lines := make([]string, len(rs))
	for i, r := range rs {
		lines[i] = r.CleanText
	}
	return strings.Join(lines, "\n")
}

func themesPrompt(reviews string) string {
	return fmt.Sprintf(`
You are analyzing customer reviews for a local business.

Reviews:
%s

1. Identify the main recurring positive themes (e.g., 'friendly staff', 'good ambience').
2. Identify the main recurring negative themes (e.g., 'slow service', 'high prices').

Return your answer strictly in JSON with the following structure:
{
  "positive": ["theme1", "theme2", ...],
  "negative": ["theme1", "theme2", ...]
}
`, reviews)
}

func summaryPrompt(reviews string) string {
	return fmt.Sprintf(`
Summarize the following customer reviews for a local business.
Focus on:
- Overall customer satisfaction
- Main strengths
- Main weaknesses
- Important patterns or trends

Reviews:
%s
`, reviews)
}

func recommendationsPrompt(total int, counts map[domain.Sentiment]int, themes domain.ThemeSet) string {
	return fmt.Sprintf(`
You are an expert operations consultant.

A local business has %d reviews on Google Maps.

Sentiment distribution:
%s

Positive themes:
%s

Negative themes:
%s

Based on this information:
- Suggest 5-10 highly actionable operational improvements.
- Be specific (e.g., 'add one more staff member during evening peak hours', not just 'improve service').
- Group them under short headings if possible.

Respond in bullet points.
`, total, mustJSON(counts), mustJSON(nonNil(themes.Positive)), mustJSON(nonNil(themes.Negative)))
}

func actionabilityPrompt(recs string) string {
	return fmt.Sprintf(`
Rate these recommendations for actionability (1-10).
Return JSON: { "score": number, "reason": "..." }
%s
`, recs)
}

func comparisonPrompt(summaryA, summaryB string) string {
	return fmt.Sprintf(`
Compare these two businesses based on:
- sentiment
- themes
- ratings
- strengths
- weaknesses
- improvement opportunities

Business A Summary:
%s

Business B Summary:
%s

Return a clear comparison and say **which business performs better overall and why**.
`, summaryA, summaryB)
}

// mustJSON renders v for embedding in a prompt; map keys come out sorted.
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
