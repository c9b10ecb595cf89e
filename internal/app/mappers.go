package app

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"review_insights/internal/domain"
)

// Provider payloads vary by engine version, so every review column is read
// from the first path that yields a usable value. Dots descend into objects.
var (
	authorPaths = []string{"user", "user.name", "author", "name"}
	datePaths   = []string{"date", "iso_date", "published_at"}
	textPaths   = []string{"snippet", "review", "extracted_snippet.original", "text"}
	ratingPaths = []string{"rating", "rating.value", "score"}
)

// dig walks a dotted path through nested objects; nil when any hop is missing.
func dig(obj map[string]any, path string) any {
	var v any = obj
	for _, key := range strings.Split(path, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		if v, ok = m[key]; !ok {
			return nil
		}
	}
	return v
}

// firstText returns the first non-empty string found along paths. Values of
// any other type are skipped.
func firstText(obj map[string]any, paths []string) string {
	for _, p := range paths {
		if s, _ := dig(obj, p).(string); s != "" {
			return s
		}
	}
	return ""
}

// firstNumber accepts JSON numbers and numeric strings, including a decimal
// comma ("4,5"). Non-finite values such as "NaN" or "Inf" count as missing.
func firstNumber(obj map[string]any, paths []string) *float64 {
	for _, p := range paths {
		var (
			f  float64
			ok bool
		)
		switch v := dig(obj, p).(type) {
		case float64:
			f, ok = v, true
		case int:
			f, ok = float64(v), true
		case json.Number:
			n, err := v.Float64()
			f, ok = n, err == nil
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(v, ",", ".", 1)), 64)
			f, ok = n, err == nil
		}
		if ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return &f
		}
	}
	return nil
}

// mapReviews turns provider review objects into a collection carrying the
// fetched columns. Non-textual text values coerce to "".
func mapReviews(in []map[string]any) domain.Collection {
	out := domain.Collection{Reviews: make([]domain.Review, 0, len(in)), Fields: domain.FetchedFields}
	for _, obj := range in {
		if obj == nil {
			continue
		}
		out.Reviews = append(out.Reviews, domain.Review{
			Author: firstText(obj, authorPaths),
			Rating: firstNumber(obj, ratingPaths),
			Date:   firstText(obj, datePaths),
			Text:   firstText(obj, textPaths),
		})
	}
	return out
}
