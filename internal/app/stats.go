package app

import "review_insights/internal/domain"

// ComputeStats is recomputed on every call; it never fails.
func ComputeStats(c domain.Collection) domain.Stats {
	st := domain.Stats{
		TotalReviews:    len(c.Reviews),
		SentimentCounts: map[domain.Sentiment]int{},
	}
	var sum float64
	var n int
	for _, r := range c.Reviews {
		if r.Rating != nil {
			sum += *r.Rating
			n++
		}
		if r.Sentiment != "" {
			st.SentimentCounts[r.Sentiment]++
		}
	}
	if c.Fields.Has(domain.FieldRating) && n > 0 {
		avg := sum / float64(n)
		st.AvgRating = &avg
	}
	return st
}
