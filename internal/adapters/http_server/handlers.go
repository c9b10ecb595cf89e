// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/app"
	"review_insights/internal/domain"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 20 << 20
	previewRows   = 10
)

type Handlers struct{ D *app.Dashboard }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// collectionView is what fetch/import return: a count, the columns and a preview.
type collectionView struct {
	PlaceID string          `json:"place_id,omitempty"`
	Total   int             `json:"total_reviews"`
	Columns []string        `json:"columns"`
	Preview []domain.Review `json:"preview"`
}

type insightsView struct {
	app.BusinessInsights
	ActionabilityLabel string `json:"actionability_label,omitempty"`
}

type compareFetchView struct {
	A collectionView `json:"a"`
	B collectionView `json:"b"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.deleteSession)
			r.Get("/single/stats", h.singleStats)
			r.Post("/single/reset", h.singleReset)
			r.Post("/compare/reset", h.compareReset)

			// pipeline actions call out to external services
			r.Group(func(r chi.Router) {
				r.Use(Limit(s.sem))
				r.Post("/single/fetch", h.singleFetch)
				r.Post("/single/import", h.singleImport)
				r.Post("/single/analyze", h.singleAnalyze)
				r.Post("/single/insights", h.singleInsights)
				r.Post("/compare/fetch", h.compareFetch)
				r.Post("/compare/analyze", h.compareAnalyze)
				r.Post("/compare/insights", h.compareInsights)
			})
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// statusFor maps the error taxonomy onto HTTP.
func statusFor(err error) (int, string) {
	var (
		ce *domain.ConfigError
		fe *domain.FetchError
		se *domain.SchemaError
		mb *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ce):
		return http.StatusBadRequest, "Missing Configuration"
	case errors.As(err, &fe):
		return http.StatusBadGateway, "Reviews Provider Error"
	case errors.As(err, &se):
		return http.StatusUnprocessableEntity, "Invalid Input Schema"
	case errors.As(err, &mb):
		return http.StatusRequestEntityTooLarge, "Upload Too Large"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid Input"
	case errors.Is(err, domain.ErrStepOrder):
		return http.StatusConflict, "Step Order"
	case errors.Is(err, domain.ErrNoReviews):
		return http.StatusNotFound, "No Reviews"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Timeout"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, title := statusFor(err)
	if status >= 500 {
		log.Error().Err(err).Str("err_type", observability.LabelErr(err)).Msg("request failed")
	}
	writeProblem(w, status, title, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached serves v with a weak ETag and honours If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write cached body")
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return nil
}

func viewOf(placeID string, c domain.Collection) collectionView {
	return collectionView{PlaceID: placeID, Total: c.Len(), Columns: c.Fields.Names(), Preview: c.Head(previewRows)}
}

/********** sessions **********/

func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.D.NewSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.D.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, s)
}

func (h *Handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.D.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/********** single business **********/

func (h *Handlers) singleFetch(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PlaceID string `json:"place_id"`
		APIKey  string `json:"api_key"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	c, err := h.D.FetchSingle(r.Context(), chi.URLParam(r, "id"), in.PlaceID, in.APIKey)
	observability.ObservePipeline("single_fetch", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(in.PlaceID, c))
}

func (h *Handlers) singleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxUploadBody)
	c, err := h.D.ImportSingle(r.Context(), chi.URLParam(r, "id"), body)
	observability.ObservePipeline("single_import", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf("", c))
}

func (h *Handlers) singleAnalyze(w http.ResponseWriter, r *http.Request) {
	st, err := h.D.AnalyzeSingle(r.Context(), chi.URLParam(r, "id"))
	observability.ObservePipeline("single_analyze", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) singleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.D.StatsSingle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, st)
}

func (h *Handlers) singleInsights(w http.ResponseWriter, r *http.Request) {
	bi, err := h.D.InsightsSingle(r.Context(), chi.URLParam(r, "id"))
	observability.ObservePipeline("single_insights", err)
	if err != nil {
		writeError(w, err)
		return
	}
	out := insightsView{BusinessInsights: bi}
	if bi.Actionability != nil {
		out.ActionabilityLabel = bi.Actionability.Label()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) singleReset(w http.ResponseWriter, r *http.Request) {
	s, err := h.D.ResetSingle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

/********** comparison **********/

func (h *Handlers) compareFetch(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PlaceA string `json:"place_a"`
		PlaceB string `json:"place_b"`
		APIKey string `json:"api_key"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	a, b, err := h.D.FetchCompare(r.Context(), chi.URLParam(r, "id"), in.PlaceA, in.PlaceB, in.APIKey)
	observability.ObservePipeline("compare_fetch", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, compareFetchView{A: viewOf(in.PlaceA, a), B: viewOf(in.PlaceB, b)})
}

func (h *Handlers) compareAnalyze(w http.ResponseWriter, r *http.Request) {
	st, err := h.D.AnalyzeCompare(r.Context(), chi.URLParam(r, "id"))
	observability.ObservePipeline("compare_analyze", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) compareInsights(w http.ResponseWriter, r *http.Request) {
	out, err := h.D.InsightsCompare(r.Context(), chi.URLParam(r, "id"))
	observability.ObservePipeline("compare_insights", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) compareReset(w http.ResponseWriter, r *http.Request) {
	s, err := h.D.ResetCompare(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
