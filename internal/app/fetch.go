package app

import (
	"context"
	"fmt"
	"strings"

	"review_insights/internal/domain"
)

// Fetcher turns provider responses into typed review collections.
type Fetcher struct {
	provider domain.ReviewProvider
	lang     string
}

func NewFetcher(p domain.ReviewProvider, lang string) *Fetcher {
	if lang == "" {
		lang = "en"
	}
	return &Fetcher{provider: p, lang: lang}
}

// FetchReviews returns every review the provider lists for placeID in one
// call. An absent or malformed reviews list yields an empty collection that
// still carries the fetched columns.
func (f *Fetcher) FetchReviews(ctx context.Context, placeID, apiKey string) (domain.Collection, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return domain.Collection{}, fmt.Errorf("place id is required: %w", domain.ErrInvalidInput)
	}
	raw, err := f.provider.GetReviews(ctx, placeID, apiKey, f.lang)
	if err != nil {
		return domain.Collection{}, err
	}
	return mapReviews(raw), nil
}
