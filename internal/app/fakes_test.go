package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"review_insights/internal/domain"
)

// ---- fakes ----

type fakeProvider struct {
	mu      sync.Mutex
	byPlace map[string][]map[string]any
	err     error
	calls   int
}

func (f *fakeProvider) GetReviews(ctx context.Context, placeID, apiKey, lang string) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byPlace[placeID], nil
}

// fakeModel labels by keyword and tracks overlapping calls.
type fakeModel struct {
	err      error
	calls    int32
	inFlight int32
	overlap  int32
	hold     chan struct{}
}

func (m *fakeModel) Classify(ctx context.Context, texts []string) ([]domain.RawSentiment, error) {
	atomic.AddInt32(&m.calls, 1)
	if atomic.AddInt32(&m.inFlight, 1) > 1 {
		atomic.StoreInt32(&m.overlap, 1)
	}
	defer atomic.AddInt32(&m.inFlight, -1)
	if m.hold != nil {
		<-m.hold
	}
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.RawSentiment, len(texts))
	for i, t := range texts {
		switch {
		case strings.Contains(t, "great"), strings.Contains(t, "good"):
			out[i] = domain.RawSentiment{Label: "POSITIVE", Score: 0.9}
		case strings.Contains(t, "bad"), strings.Contains(t, "slow"):
			out[i] = domain.RawSentiment{Label: "NEGATIVE", Score: 0.8}
		default:
			out[i] = domain.RawSentiment{Label: "LABEL_1", Score: 0.5}
		}
	}
	return out, nil
}

// scriptedLLM answers by recognising which prompt it was sent.
type scriptedLLM struct {
	mu      sync.Mutex
	prompts []string
	replies map[string]string // prompt marker -> reply
	failOn  string
}

const (
	markThemes  = "strictly in JSON"
	markSummary = "Summarize the following"
	markRecs    = "expert operations consultant"
	markScore   = "Rate these recommendations"
	markCompare = "Compare these two businesses"
)

func newScriptedLLM() *scriptedLLM {
	return &scriptedLLM{replies: map[string]string{
		markThemes:  `{"positive":["friendly staff"],"negative":["slow service"]}`,
		markSummary: "  Customers are mostly happy.  ",
		markRecs:    "## Staffing\n- add one more server at dinner",
		markScore:   `{"score": 8, "reason": "specific"}`,
		markCompare: "Business A performs better overall.",
	}}
}

func (s *scriptedLLM) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	if s.failOn != "" && strings.Contains(req.Prompt, s.failOn) {
		return "", errors.New("llm unavailable")
	}
	for mark, reply := range s.replies {
		if strings.Contains(req.Prompt, mark) {
			return reply, nil
		}
	}
	return "", errors.New("unexpected prompt")
}

func (s *scriptedLLM) promptsWith(mark string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, p := range s.prompts {
		if strings.Contains(p, mark) {
			out = append(out, p)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func reviewsOf(texts ...string) domain.Collection {
	c := domain.Collection{Fields: domain.FetchedFields}
	for _, t := range texts {
		c.Reviews = append(c.Reviews, domain.Review{Text: t})
	}
	return c
}
