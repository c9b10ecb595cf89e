package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ThemeSet holds recurring topics extracted by the LLM. When the response
// could not be decoded, Fallback is set and Raw keeps the original text.
type ThemeSet struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Raw      string   `json:"raw,omitempty"`
	Fallback bool     `json:"fallback,omitempty"`
}

// ParseThemes decodes an LLM theme response. It never fails.
func ParseThemes(raw string) ThemeSet {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFence(raw)), &obj); err != nil || obj == nil {
		return fallbackThemes(raw)
	}
	out := ThemeSet{Positive: []string{}, Negative: []string{}}
	for key, dst := range map[string]*[]string{"positive": &out.Positive, "negative": &out.Negative} {
		v, ok := obj[key]
		if !ok || string(v) == "null" {
			continue
		}
		var items []string
		if err := json.Unmarshal(v, &items); err != nil {
			return fallbackThemes(raw)
		}
		*dst = append(*dst, items...)
	}
	return out
}

func fallbackThemes(raw string) ThemeSet {
	return ThemeSet{Positive: []string{}, Negative: []string{}, Raw: raw, Fallback: true}
}

// Actionability is the LLM's 1-10 rating of a recommendation list.
type Actionability struct {
	Score    *float64 `json:"score"`
	Reason   string   `json:"reason"`
	Fallback bool     `json:"fallback,omitempty"`
}

// FailedActionability is returned whenever scoring cannot complete.
func FailedActionability() Actionability {
	return Actionability{Reason: "Failed", Fallback: true}
}

// Label renders the score for display, "N/A" when absent.
func (a Actionability) Label() string {
	if a.Score == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*a.Score, 'f', -1, 64)
}

// ParseActionability decodes {"score": number, "reason": "..."}; any
// failure yields FailedActionability.
func ParseActionability(raw string) Actionability {
	var body struct {
		Score  json.RawMessage `json:"score"`
		Reason string          `json:"reason"`
	}
	if err := json.Unmarshal([]byte(stripFence(raw)), &body); err != nil || len(body.Score) == 0 {
		return FailedActionability()
	}
	var f float64
	if err := json.Unmarshal(body.Score, &f); err != nil {
		var s string
		if err := json.Unmarshal(body.Score, &s); err != nil {
			return FailedActionability()
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return FailedActionability()
		}
		f = n
	}
	return Actionability{Score: &f, Reason: body.Reason}
}

// stripFence removes a surrounding markdown code fence, if any.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

type Stats struct {
	TotalReviews    int               `json:"total_reviews"`
	AvgRating       *float64          `json:"avg_rating"`
	SentimentCounts map[Sentiment]int `json:"sentiment_counts"`
}
