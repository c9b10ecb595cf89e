package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"review_insights/internal/adapters/csvimport"
	server "review_insights/internal/adapters/http_server"
	"review_insights/internal/adapters/memstore"
	"review_insights/internal/app"
	"review_insights/internal/domain"
)

// ---- fakes ----

type fakeProvider struct{ err error }

func (f fakeProvider) GetReviews(ctx context.Context, placeID, apiKey, lang string) ([]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if placeID == "empty" {
		return nil, nil
	}
	return []map[string]any{
		{"user": "Ann", "rating": 5.0, "snippet": "great staff"},
		{"user": "Bo", "rating": 1.0, "snippet": "bad wait"},
	}, nil
}

type fakeModel struct{}

func (fakeModel) Classify(ctx context.Context, texts []string) ([]domain.RawSentiment, error) {
	out := make([]domain.RawSentiment, len(texts))
	for i, t := range texts {
		out[i] = domain.RawSentiment{Label: "NEGATIVE", Score: 0.7}
		if strings.Contains(t, "great") {
			out[i] = domain.RawSentiment{Label: "POSITIVE", Score: 0.9}
		}
	}
	return out, nil
}

type fakeLLM struct{}

func (fakeLLM) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	switch {
	case strings.Contains(req.Prompt, "strictly in JSON"):
		return `{"positive":["staff"],"negative":["wait"]}`, nil
	case strings.Contains(req.Prompt, "Rate these recommendations"):
		return `{"score": 7, "reason": "ok"}`, nil
	case strings.Contains(req.Prompt, "Compare these two businesses"):
		return "", errors.New("llm down")
	default:
		return "text", nil
	}
}

func newTestServer(t *testing.T, p domain.ReviewProvider) *httptest.Server {
	t.Helper()
	d := app.NewDashboard(app.DashboardDeps{
		Store:    memstore.New(0),
		Fetcher:  app.NewFetcher(p, "en"),
		Importer: csvimport.Importer{},
		Model:    fakeModel{},
		Insights: app.NewInsights(fakeLLM{}, 0, 0),
	})
	srv := server.New(server.Options{Timeout: 5 * time.Second, Workers: 2})
	srv.MountHandlers(&server.Handlers{D: d})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, contentType string, body []byte) (*http.Response, map[string]any) {
	t.Helper()
	req, _ := http.NewRequest(method, url, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func newSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	res, body := do(t, http.MethodPost, ts.URL+"/v1/sessions", "", nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create session status %d", res.StatusCode)
	}
	id, _ := body["id"].(string)
	if id == "" || res.Header.Get("Location") != "/v1/sessions/"+id {
		t.Fatalf("unexpected create response: %v %v", body, res.Header)
	}
	return id
}

// ---- tests ----

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, fakeProvider{})
	res, err := http.Get(ts.URL + "/healthz")
	if err != nil || res.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %v %v", err, res)
	}
	res.Body.Close()
}

func TestSingleFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t, fakeProvider{})
	id := newSession(t, ts)
	base := ts.URL + "/v1/sessions/" + id

	res, body := do(t, http.MethodPost, base+"/single/insights", "", nil)
	if res.StatusCode != http.StatusConflict || res.Header.Get("Content-Type") != "application/problem+json" {
		t.Fatalf("insights before analyze: %d %v", res.StatusCode, body)
	}

	res, body = do(t, http.MethodPost, base+"/single/fetch", "application/json", []byte(`{"place_id":"p1"}`))
	if res.StatusCode != http.StatusOK || body["total_reviews"].(float64) != 2 {
		t.Fatalf("fetch: %d %v", res.StatusCode, body)
	}

	res, body = do(t, http.MethodPost, base+"/single/analyze", "", nil)
	if res.StatusCode != http.StatusOK || body["avg_rating"].(float64) != 3 {
		t.Fatalf("analyze: %d %v", res.StatusCode, body)
	}
	counts := body["sentiment_counts"].(map[string]any)
	if counts["positive"].(float64) != 1 || counts["negative"].(float64) != 1 {
		t.Fatalf("counts: %v", counts)
	}

	res, body = do(t, http.MethodPost, base+"/single/insights", "", nil)
	if res.StatusCode != http.StatusOK || body["actionability_label"] != "7" || body["summary"] != "text" {
		t.Fatalf("insights: %d %v", res.StatusCode, body)
	}

	res, _ = do(t, http.MethodPost, base+"/single/reset", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reset: %d", res.StatusCode)
	}
	res, _ = do(t, http.MethodGet, base+"/single/stats", "", nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("stats after reset: %d", res.StatusCode)
	}
}

func TestSnapshotETag(t *testing.T) {
	ts := newTestServer(t, fakeProvider{})
	id := newSession(t, ts)

	res, _ := do(t, http.MethodGet, ts.URL+"/v1/sessions/"+id, "", nil)
	etag := res.Header.Get("ETag")
	if res.StatusCode != http.StatusOK || etag == "" {
		t.Fatalf("snapshot: %d etag=%q", res.StatusCode, etag)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/sessions/"+id, nil)
	req.Header.Set("If-None-Match", etag)
	res2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res2.Body.Close()
	if res2.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", res2.StatusCode)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		provider domain.ReviewProvider
		path     string
		ctype    string
		body     string
		want     int
	}{
		{"missing key", fakeProvider{err: &domain.ConfigError{Key: "SERPAPI_API_KEY"}}, "/single/fetch", "application/json", `{"place_id":"p"}`, http.StatusBadRequest},
		{"provider down", fakeProvider{err: &domain.FetchError{Status: 500}}, "/single/fetch", "application/json", `{"place_id":"p"}`, http.StatusBadGateway},
		{"blank place", fakeProvider{}, "/single/fetch", "application/json", `{"place_id":""}`, http.StatusBadRequest},
		{"bad json", fakeProvider{}, "/single/fetch", "application/json", `{`, http.StatusBadRequest},
		{"no reviews", fakeProvider{}, "/single/fetch", "application/json", `{"place_id":"empty"}`, http.StatusNotFound},
		{"csv without text", fakeProvider{}, "/single/import", "text/csv", "author,rating\nAnn,5\n", http.StatusUnprocessableEntity},
		{"analyze first", fakeProvider{}, "/compare/insights", "", "", http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, tc.provider)
			id := newSession(t, ts)
			res, body := do(t, http.MethodPost, ts.URL+"/v1/sessions/"+id+tc.path, tc.ctype, []byte(tc.body))
			if res.StatusCode != tc.want {
				t.Fatalf("status %d, want %d (%v)", res.StatusCode, tc.want, body)
			}
			if body["status"].(float64) != float64(tc.want) {
				t.Fatalf("problem body status mismatch: %v", body)
			}
		})
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	ts := newTestServer(t, fakeProvider{})
	res, _ := do(t, http.MethodPost, ts.URL+"/v1/sessions/nope/single/analyze", "", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d", res.StatusCode)
	}
	res, _ = do(t, http.MethodDelete, ts.URL+"/v1/sessions/nope", "", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("delete status %d", res.StatusCode)
	}
}

func TestCompareOverHTTPReportsNarrativeFailure(t *testing.T) {
	ts := newTestServer(t, fakeProvider{})
	id := newSession(t, ts)
	base := ts.URL + "/v1/sessions/" + id

	res, body := do(t, http.MethodPost, base+"/compare/fetch", "application/json", []byte(`{"place_a":"a","place_b":"b"}`))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("compare fetch: %d %v", res.StatusCode, body)
	}
	res, _ = do(t, http.MethodPost, base+"/compare/analyze", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("compare analyze: %d", res.StatusCode)
	}
	res, body = do(t, http.MethodPost, base+"/compare/insights", "", nil)
	if res.StatusCode != http.StatusOK || body["comparison_error"] != app.ComparisonFailed {
		t.Fatalf("compare insights: %d %v", res.StatusCode, body)
	}

	res, _ = do(t, http.MethodDelete, base, "", nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d", res.StatusCode)
	}
}

func TestImportCSVOverHTTP(t *testing.T) {
	ts := newTestServer(t, fakeProvider{})
	id := newSession(t, ts)

	csv := "text,rating\ngreat staff,5\nbad,wait,extra\nslow bar,2\n"
	res, body := do(t, http.MethodPost, ts.URL+"/v1/sessions/"+id+"/single/import", "text/csv", []byte(csv))
	if res.StatusCode != http.StatusOK || body["total_reviews"].(float64) != 2 {
		t.Fatalf("import: %d %v", res.StatusCode, body)
	}
	cols := body["columns"].([]any)
	if len(cols) != 2 || cols[0] != "rating" || cols[1] != "text" {
		t.Fatalf("columns: %v", cols)
	}
}
