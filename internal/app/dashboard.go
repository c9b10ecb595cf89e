package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"review_insights/internal/domain"
)

// BusinessInsights is the step-2 output for one business.
type BusinessInsights struct {
	Themes          domain.ThemeSet       `json:"themes"`
	Summary         string                `json:"summary"`
	Recommendations string                `json:"recommendations"`
	Actionability   *domain.Actionability `json:"actionability,omitempty"`
}

type CompareStats struct {
	A domain.Stats `json:"a"`
	B domain.Stats `json:"b"`
}

// CompareInsights carries both businesses plus the head-to-head narrative.
// A failed narrative is reported in ComparisonError, not as an error.
type CompareInsights struct {
	A               BusinessInsights `json:"a"`
	B               BusinessInsights `json:"b"`
	Comparison      string           `json:"comparison,omitempty"`
	ComparisonError string           `json:"comparison_error,omitempty"`
}

// ComparisonFailed is shown when the competitor narrative cannot be produced.
const ComparisonFailed = "Failed to generate competitor insight."

type DashboardDeps struct {
	Store    domain.SessionStore
	Fetcher  *Fetcher
	Importer domain.ReviewImporter
	Model    domain.SentimentModel
	Insights *Insights
	Now      func() time.Time
	NewID    func() string
}

// Dashboard runs one user action per call against a stored session.
type Dashboard struct {
	store    domain.SessionStore
	fetcher  *Fetcher
	importer domain.ReviewImporter
	model    domain.SentimentModel
	insights *Insights
	now      func() time.Time
	newID    func() string
	locks    sessionLocks
}

func NewDashboard(d DashboardDeps) *Dashboard {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return &Dashboard{
		store:    d.Store,
		fetcher:  d.Fetcher,
		importer: d.Importer,
		model:    d.Model,
		insights: d.Insights,
		now:      d.Now,
		newID:    d.NewID,
		locks:    sessionLocks{m: map[string]*lockEntry{}},
	}
}

/********** session lifecycle **********/

func (d *Dashboard) NewSession(ctx context.Context) (*domain.Session, error) {
	s := domain.NewSession(d.newID(), d.now())
	if err := d.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

func (d *Dashboard) Snapshot(ctx context.Context, id string) (*domain.Session, error) {
	return d.store.Load(ctx, id)
}

func (d *Dashboard) DeleteSession(ctx context.Context, id string) error {
	unlock := d.locks.lock(id)
	defer unlock()
	return d.store.Delete(ctx, id)
}

// mutate loads the session under its lock, applies fn and saves only when
// fn succeeds, so a failed action leaves the stored state untouched.
func (d *Dashboard) mutate(ctx context.Context, id string, fn func(s *domain.Session) error) (*domain.Session, error) {
	unlock := d.locks.lock(id)
	defer unlock()

	s, err := d.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = d.now()
	if err := d.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

/********** single business **********/

// FetchSingle resets the single slot and stores the fetched reviews.
// An empty result is ErrNoReviews and changes nothing.
func (d *Dashboard) FetchSingle(ctx context.Context, id, placeID, apiKey string) (domain.Collection, error) {
	var out domain.Collection
	_, err := d.mutate(ctx, id, func(s *domain.Session) error {
		c, err := d.fetcher.FetchReviews(ctx, placeID, apiKey)
		if err != nil {
			return err
		}
		if c.Len() == 0 {
			return domain.ErrNoReviews
		}
		s.ResetSingle()
		s.Single.PlaceID = strings.TrimSpace(placeID)
		s.Single.Raw = &c
		out = c
		return nil
	})
	if err != nil {
		return domain.Collection{}, err
	}
	log.Info().Str("session", id).Str("place_id", placeID).Int("reviews", out.Len()).Msg("reviews fetched")
	return out, nil
}

// ImportSingle loads a CSV upload as the single slot's raw reviews.
func (d *Dashboard) ImportSingle(ctx context.Context, id string, r io.Reader) (domain.Collection, error) {
	var out domain.Collection
	_, err := d.mutate(ctx, id, func(s *domain.Session) error {
		c, err := d.importer.Import(r)
		if err != nil {
			return err
		}
		s.ResetSingle()
		s.Single.Raw = &c
		s.FromCSV = true
		out = c
		return nil
	})
	if err != nil {
		return domain.Collection{}, err
	}
	return out, nil
}

// AnalyzeSingle is step 1: clean text, classify sentiment, report stats.
func (d *Dashboard) AnalyzeSingle(ctx context.Context, id string) (domain.Stats, error) {
	var st domain.Stats
	_, err := d.mutate(ctx, id, func(s *domain.Session) error {
		if s.Single.Raw == nil {
			return fmt.Errorf("fetch or import reviews first: %w", domain.ErrStepOrder)
		}
		p, err := d.analyze(ctx, *s.Single.Raw)
		if err != nil {
			return err
		}
		s.Single.Processed = &p
		s.Single.Themes, s.Single.Summary, s.Single.Recommendations, s.Single.Actionability = nil, nil, nil, nil
		st = ComputeStats(p)
		return nil
	})
	if err != nil {
		return domain.Stats{}, err
	}
	return st, nil
}

// StatsSingle recomputes stats for the processed collection, or the raw one
// when step 1 has not run.
func (d *Dashboard) StatsSingle(ctx context.Context, id string) (domain.Stats, error) {
	s, err := d.store.Load(ctx, id)
	if err != nil {
		return domain.Stats{}, err
	}
	switch {
	case s.Single.Processed != nil:
		return ComputeStats(*s.Single.Processed), nil
	case s.Single.Raw != nil:
		return ComputeStats(*s.Single.Raw), nil
	default:
		return domain.Stats{}, fmt.Errorf("fetch or import reviews first: %w", domain.ErrStepOrder)
	}
}

// InsightsSingle is step 2: themes, summary, recommendations and their
// actionability score. Requires step 1.
func (d *Dashboard) InsightsSingle(ctx context.Context, id string) (BusinessInsights, error) {
	var out BusinessInsights
	_, err := d.mutate(ctx, id, func(s *domain.Session) error {
		if s.Single.Processed == nil {
			return fmt.Errorf("complete step 1 first: %w", domain.ErrStepOrder)
		}
		bi, err := d.businessInsights(ctx, *s.Single.Processed)
		if err != nil {
			return err
		}
		a := d.insights.ScoreActionability(ctx, bi.Recommendations)
		bi.Actionability = &a
		applyInsights(&s.Single, bi)
		out = bi
		return nil
	})
	if err != nil {
		return BusinessInsights{}, err
	}
	return out, nil
}

func (d *Dashboard) ResetSingle(ctx context.Context, id string) (*domain.Session, error) {
	return d.mutate(ctx, id, func(s *domain.Session) error {
		s.ResetSingle()
		return nil
	})
}

/********** comparison **********/

// FetchCompare resets both comparison slots, then fetches A and B in order.
func (d *Dashboard) FetchCompare(ctx context.Context, id, placeA, placeB, apiKey string) (a, b domain.Collection, err error) {
	if strings.TrimSpace(placeA) == "" || strings.TrimSpace(placeB) == "" {
		return a, b, fmt.Errorf("enter both place ids: %w", domain.ErrInvalidInput)
	}
	_, err = d.mutate(ctx, id, func(s *domain.Session) error {
		ca, err := d.fetcher.FetchReviews(ctx, placeA, apiKey)
		if err != nil {
			return fmt.Errorf("business A: %w", err)
		}
		cb, err := d.fetcher.FetchReviews(ctx, placeB, apiKey)
		if err != nil {
			return fmt.Errorf("business B: %w", err)
		}
		s.ResetCompare()
		s.A.PlaceID, s.A.Raw = strings.TrimSpace(placeA), &ca
		s.B.PlaceID, s.B.Raw = strings.TrimSpace(placeB), &cb
		a, b = ca, cb
		return nil
	})
	if err != nil {
		return domain.Collection{}, domain.Collection{}, err
	}
	return a, b, nil
}

// AnalyzeCompare runs step 1 for A then B. Both are stored only when both succeed.
func (d *Dashboard) AnalyzeCompare(ctx context.Context, id string) (CompareStats, error) {
	var out CompareStats
	_, err := d.mutate(ctx, id, func(s *domain.Session) error {
		if s.A.Raw == nil || s.B.Raw == nil {
			return fmt.Errorf("fetch both businesses first: %w", domain.ErrStepOrder)
		}
		pa, err := d.analyze(ctx, *s.A.Raw)
		if err != nil {
			return fmt.Errorf("business A: %w", err)
		}
		pb, err := d.analyze(ctx, *s.B.Raw)
		if err != nil {
			return fmt.Errorf("business B: %w", err)
		}
		s.A.Processed, s.B.Processed = &pa, &pb
		s.Compared, s.Comparison = false, nil
		out = CompareStats{A: ComputeStats(pa), B: ComputeStats(pb)}
		return nil
	})
	if err != nil {
		return CompareStats{}, err
	}
	return out, nil
}

// InsightsCompare runs step 2 for A then B and then asks for the
// competitor narrative.
func (d *Dashboard) InsightsCompare(ctx context.Context, id string) (CompareInsights, error) {
	var out CompareInsights
	_, err := d.mutate(ctx, id, func(s *domain.Session) error {
		if s.A.Processed == nil || s.B.Processed == nil {
			return fmt.Errorf("complete step 1 for both businesses first: %w", domain.ErrStepOrder)
		}
		ia, err := d.businessInsights(ctx, *s.A.Processed)
		if err != nil {
			return fmt.Errorf("business A: %w", err)
		}
		ib, err := d.businessInsights(ctx, *s.B.Processed)
		if err != nil {
			return fmt.Errorf("business B: %w", err)
		}
		applyInsights(&s.A, ia)
		applyInsights(&s.B, ib)
		s.Compared = true
		out.A, out.B = ia, ib

		narrative, err := d.insights.CompareBusinesses(ctx, ia.Summary, ib.Summary)
		if err != nil {
			log.Warn().Err(err).Str("session", id).Msg("competitor insight failed")
			out.ComparisonError = ComparisonFailed
			s.Comparison = nil
			return nil
		}
		out.Comparison = narrative
		s.Comparison = &narrative
		return nil
	})
	if err != nil {
		return CompareInsights{}, err
	}
	return out, nil
}

func (d *Dashboard) ResetCompare(ctx context.Context, id string) (*domain.Session, error) {
	return d.mutate(ctx, id, func(s *domain.Session) error {
		s.ResetCompare()
		return nil
	})
}

/********** pipeline helpers **********/

func (d *Dashboard) analyze(ctx context.Context, raw domain.Collection) (domain.Collection, error) {
	p, err := Preprocess(raw)
	if err != nil {
		return domain.Collection{}, err
	}
	return AddSentiment(ctx, d.model, p)
}

func (d *Dashboard) businessInsights(ctx context.Context, p domain.Collection) (BusinessInsights, error) {
	themes, err := d.insights.ExtractThemes(ctx, p, d.insights.ThemeSample())
	if err != nil {
		return BusinessInsights{}, err
	}
	summary, err := d.insights.Summarize(ctx, p, d.insights.SummarySample())
	if err != nil {
		return BusinessInsights{}, err
	}
	recs, err := d.insights.Recommend(ctx, p, themes)
	if err != nil {
		return BusinessInsights{}, err
	}
	return BusinessInsights{Themes: themes, Summary: summary, Recommendations: recs}, nil
}

func applyInsights(slot *domain.Slot, bi BusinessInsights) {
	themes, summary, recs := bi.Themes, bi.Summary, bi.Recommendations
	slot.Themes = &themes
	slot.Summary = &summary
	slot.Recommendations = &recs
	slot.Actionability = bi.Actionability
}

/********** per-session locking **********/

type lockEntry struct {
	sync.Mutex
	refs int
}

// sessionLocks serializes actions on one session id; entries are dropped
// once no caller holds or waits on them.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	e := l.m[id]
	if e == nil {
		e = &lockEntry{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
