package sentiment_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_insights/internal/adapters/sentiment"
	"review_insights/internal/domain"
)

func TestHuggingFace_NestedShapePicksTopScore(t *testing.T) {
	var inputs []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/"+sentiment.DefaultHFModel, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body struct {
			Inputs []string `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		inputs = body.Inputs
		_, _ = w.Write([]byte(`[
			[{"label":"NEGATIVE","score":0.1},{"label":"POSITIVE","score":0.9}],
			[{"label":"NEGATIVE","score":0.8},{"label":"POSITIVE","score":0.2}]
		]`))
	}))
	defer ts.Close()

	hf := sentiment.NewHuggingFace(sentiment.HuggingFaceConfig{Token: "tok", BaseURL: ts.URL})
	got, err := hf.Classify(context.Background(), []string{"great", "awful"})
	require.NoError(t, err)
	assert.Equal(t, []string{"great", "awful"}, inputs)
	assert.Equal(t, []domain.RawSentiment{{Label: "POSITIVE", Score: 0.9}, {Label: "NEGATIVE", Score: 0.8}}, got)
}

func TestHuggingFace_FlatShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"POSITIVE","score":0.99}]`))
	}))
	defer ts.Close()

	hf := sentiment.NewHuggingFace(sentiment.HuggingFaceConfig{Token: "tok", BaseURL: ts.URL})
	got, err := hf.Classify(context.Background(), []string{"nice"})
	require.NoError(t, err)
	assert.Equal(t, "POSITIVE", got[0].Label)
}

func TestHuggingFace_ChunksLargeBatches(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		var body struct {
			Inputs []string `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		out := make([]domain.RawSentiment, len(body.Inputs))
		for i := range out {
			out[i] = domain.RawSentiment{Label: "POSITIVE", Score: 0.5}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer ts.Close()

	texts := make([]string, 150)
	hf := sentiment.NewHuggingFace(sentiment.HuggingFaceConfig{Token: "tok", BaseURL: ts.URL})
	got, err := hf.Classify(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, got, 150)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestHuggingFace_Errors(t *testing.T) {
	hf := sentiment.NewHuggingFace(sentiment.HuggingFaceConfig{})
	_, err := hf.Classify(context.Background(), []string{"x"})
	var ce *domain.ConfigError
	require.True(t, errors.As(err, &ce))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer ts.Close()
	hf = sentiment.NewHuggingFace(sentiment.HuggingFaceConfig{Token: "tok", BaseURL: ts.URL})
	_, err = hf.Classify(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

type stubChat struct {
	out string
	req domain.ChatRequest
}

func (s *stubChat) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	s.req = req
	return s.out, nil
}

func TestLLM_ParsesFencedArray(t *testing.T) {
	chat := &stubChat{out: "```json\n[{\"label\":\"POSITIVE\",\"score\":0.9},{\"label\":\"NEUTRAL\",\"score\":0.6}]\n```"}
	got, err := sentiment.NewLLM(chat).Classify(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "NEUTRAL", got[1].Label)
	assert.Contains(t, chat.req.Prompt, `["a","b"]`)
}

func TestLLM_CountMismatchFails(t *testing.T) {
	chat := &stubChat{out: `[{"label":"POSITIVE","score":0.9}]`}
	_, err := sentiment.NewLLM(chat).Classify(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}

func TestLLM_ClampsScoresToUnitInterval(t *testing.T) {
	chat := &stubChat{out: `[{"label":"POSITIVE","score":87},{"label":"NEGATIVE","score":-0.4},{"label":"NEUTRAL","score":0.5}]`}
	got, err := sentiment.NewLLM(chat).Classify(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got[0].Score)
	assert.Equal(t, 0.0, got[1].Score)
	assert.Equal(t, 0.5, got[2].Score)
}
