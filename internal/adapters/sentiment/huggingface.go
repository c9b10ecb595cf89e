// Package sentiment holds the black-box review sentiment models.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

const (
	DefaultHFBase  = "https://api-inference.huggingface.co"
	DefaultHFModel = "distilbert-base-uncased-finetuned-sst-2-english"
	hfBatchSize    = 64
)

type HuggingFaceConfig struct {
	Token   string
	BaseURL string
	Model   string
}

// HuggingFace classifies texts through the hosted Inference API.
type HuggingFace struct {
	base  string
	model string
	token string
	hc    *http.Client
}

func NewHuggingFace(cfg HuggingFaceConfig) *HuggingFace {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHFBase
	}
	if cfg.Model == "" {
		cfg.Model = DefaultHFModel
	}
	return &HuggingFace{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		model: cfg.Model,
		token: cfg.Token,
		hc:    &http.Client{Timeout: 60 * time.Second},
	}
}

type hfRequest struct {
	Inputs     []string       `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Classify returns one result per text, in order. Inputs are sent in
// fixed-size chunks; any failed chunk fails the whole call.
func (h *HuggingFace) Classify(ctx context.Context, texts []string) ([]domain.RawSentiment, error) {
	if h.token == "" {
		return nil, &domain.ConfigError{Key: "HF_API_TOKEN"}
	}
	out := make([]domain.RawSentiment, 0, len(texts))
	for start := 0; start < len(texts); start += hfBatchSize {
		end := min(start+hfBatchSize, len(texts))
		res, err := h.classifyChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(res) != end-start {
			return nil, fmt.Errorf("huggingface: got %d results for %d inputs", len(res), end-start)
		}
		out = append(out, res...)
	}
	return out, nil
}

func (h *HuggingFace) classifyChunk(ctx context.Context, texts []string) ([]domain.RawSentiment, error) {
	body, err := json.Marshal(hfRequest{Inputs: texts, Parameters: map[string]any{"truncation": true}})
	if err != nil {
		return nil, err
	}
	url := h.base + "/models/" + h.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := h.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("huggingface", h.model, 0, time.Since(start))
		return nil, fmt.Errorf("huggingface: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("huggingface", h.model, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("huggingface: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("huggingface: decode response: %w", err)
	}
	log.Debug().Int("inputs", len(texts)).Dur("duration", time.Since(start)).Msg("huggingface classify")
	return decodeHF(items)
}

// decodeHF accepts both [[{label,score}...], ...] (all scores per input)
// and [{label,score}, ...] (top label per input).
func decodeHF(items []json.RawMessage) ([]domain.RawSentiment, error) {
	out := make([]domain.RawSentiment, 0, len(items))
	for _, it := range items {
		var all []domain.RawSentiment
		if err := json.Unmarshal(it, &all); err == nil {
			if len(all) == 0 {
				return nil, fmt.Errorf("huggingface: empty label list")
			}
			out = append(out, top(all))
			continue
		}
		var one domain.RawSentiment
		if err := json.Unmarshal(it, &one); err != nil {
			return nil, fmt.Errorf("huggingface: unexpected result shape: %w", err)
		}
		out = append(out, one)
	}
	return out, nil
}

func top(rs []domain.RawSentiment) domain.RawSentiment {
	best := rs[0]
	for _, r := range rs[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best
}
