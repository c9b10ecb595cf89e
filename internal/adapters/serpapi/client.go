// internal/adapters/serpapi/client.go
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

const (
	DefaultBase = "https://serpapi.com"
	engine      = "google_maps_reviews"
)

// Client calls the Google Maps reviews engine. One request per fetch: no
// pagination, no retries, no client-side rate limit.
type Client struct {
	base string
	hc   *http.Client
	key  string
}

// New never fails on an empty key; the missing key is reported per call.
func New(base, defaultKey string) *Client {
	if base == "" {
		base = DefaultBase
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 30 * time.Second},
		key:  defaultKey,
	}
}

// GetReviews returns the raw `reviews` objects for placeID. A missing or
// non-array `reviews` field yields an empty slice.
func (c *Client) GetReviews(ctx context.Context, placeID, apiKey, lang string) ([]map[string]any, error) {
	if apiKey == "" {
		apiKey = c.key
	}
	if apiKey == "" {
		return nil, &domain.ConfigError{Key: "SERPAPI_API_KEY"}
	}

	q := url.Values{}
	q.Set("engine", engine)
	q.Set("place_id", placeID)
	q.Set("hl", lang)
	q.Set("api_key", apiKey)
	u := c.base + "/search.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &domain.FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "review-insights/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("serpapi", engine, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.FetchError{Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("serpapi", engine, resp.StatusCode, time.Since(start))
	log.Debug().
		Str("place_id", placeID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("serpapi reviews request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.FetchError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &domain.FetchError{Status: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	return decodeReviews(body["reviews"]), nil
}

// decodeReviews keeps every object element of a JSON array and drops the rest.
func decodeReviews(raw json.RawMessage) []map[string]any {
	out := []map[string]any{}
	if len(raw) == 0 {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warn().Err(err).Msg("serpapi: reviews field is not an array")
		return out
	}
	for _, it := range items {
		var m map[string]any
		if err := json.Unmarshal(it, &m); err != nil || m == nil {
			continue
		}
		out = append(out, m)
	}
	return out
}
