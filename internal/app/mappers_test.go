package app

import (
	"math"
	"testing"

	"review_insights/internal/domain"
)

func TestMapReviews_ProviderShapes(t *testing.T) {
	in := []map[string]any{
		{"user": "Ann", "rating": 5.0, "date": "2 weeks ago", "snippet": "Lovely"},
		{"user": map[string]any{"name": "Bo", "link": "x"}, "rating": "4,5", "extracted_snippet": map[string]any{"original": "Orig text"}},
		{"user": map[string]any{"name": "Cy"}, "review": "Fallback field"},
		{"snippet": 42.0, "rating": "n/a"},
		nil,
	}
	c := mapReviews(in)

	if c.Fields != domain.FetchedFields {
		t.Fatalf("fields = %v", c.Fields.Names())
	}
	if c.Len() != 4 {
		t.Fatalf("expected nil records to be skipped, got %d", c.Len())
	}
	if c.Reviews[0].Author != "Ann" || c.Reviews[0].Text != "Lovely" || c.Reviews[0].Date != "2 weeks ago" {
		t.Fatalf("record 0: %+v", c.Reviews[0])
	}
	if c.Reviews[1].Author != "Bo" || c.Reviews[1].Text != "Orig text" || c.Reviews[1].Rating == nil || *c.Reviews[1].Rating != 4.5 {
		t.Fatalf("record 1: %+v", c.Reviews[1])
	}
	if c.Reviews[2].Text != "Fallback field" {
		t.Fatalf("record 2: %+v", c.Reviews[2])
	}
	if c.Reviews[3].Text != "" || c.Reviews[3].Rating != nil {
		t.Fatalf("non-textual text should coerce to empty: %+v", c.Reviews[3])
	}
}

func TestMapReviews_Empty(t *testing.T) {
	c := mapReviews(nil)
	if c.Len() != 0 || c.Reviews == nil || c.Fields != domain.FetchedFields {
		t.Fatalf("unexpected empty mapping: %+v", c)
	}
}

func TestMapReviews_NonFiniteRatingsAreMissing(t *testing.T) {
	for _, raw := range []any{"NaN", "inf", "-Infinity", math.NaN(), math.Inf(1)} {
		c := mapReviews([]map[string]any{{"snippet": "ok", "rating": raw}})
		if c.Len() != 1 || c.Reviews[0].Rating != nil {
			t.Fatalf("rating %v: got %+v", raw, c.Reviews[0].Rating)
		}
	}
}
