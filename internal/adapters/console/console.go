// Package console renders dashboard results for the terminal: colored
// sections, sentiment and rating histograms, and json/yaml dumps.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v3"

	"review_insights/internal/app"
	"review_insights/internal/domain"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const (
	barWidth    = 30
	previewRows = 10
	previewText = 80
	scoreBins   = 20
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	bad     = color.New(color.FgRed)
	muted   = color.New(color.FgHiBlack)
)

// Renderer writes results in one output format.
type Renderer struct {
	w      io.Writer
	format string
}

// New validates format; an empty format means text.
func New(w io.Writer, format string) (*Renderer, error) {
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidInput, format)
	}
	return &Renderer{w: w, format: format}, nil
}

// Text reports whether the renderer draws human-readable sections.
func (r *Renderer) Text() bool { return r.format == FormatText }

// Spinner shows an indeterminate progress indicator on stderr.
// Callers Finish it when the step is done.
func Spinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

// SingleReport is the full output of an analyze run.
type SingleReport struct {
	PlaceID  string                `json:"place_id,omitempty"`
	Source   string                `json:"source"`
	Reviews  domain.Collection     `json:"-"`
	Stats    domain.Stats          `json:"stats"`
	Insights *app.BusinessInsights `json:"insights,omitempty"`
}

// CompareReport is the full output of a compare run.
type CompareReport struct {
	PlaceA   string               `json:"place_a"`
	PlaceB   string               `json:"place_b"`
	Stats    app.CompareStats     `json:"stats"`
	Insights *app.CompareInsights `json:"insights,omitempty"`
}

// Single renders an analyze report.
func (r *Renderer) Single(rep SingleReport) error {
	if !r.Text() {
		return r.dump(rep)
	}
	title := rep.Source
	if rep.PlaceID != "" {
		title = rep.PlaceID
	}
	heading.Fprintf(r.w, "\n== Reviews for %s ==\n", title)
	r.preview(rep.Reviews)
	r.stats(rep.Stats)
	r.ratings(rep.Reviews)
	r.scores(rep.Reviews)
	if rep.Insights != nil {
		r.insights(*rep.Insights)
		if a := rep.Insights.Actionability; a != nil {
			heading.Fprintln(r.w, "\nActionability")
			fmt.Fprintf(r.w, "  score: %s/10\n", a.Label())
			if a.Reason != "" {
				fmt.Fprintf(r.w, "  %s\n", a.Reason)
			}
		}
	}
	return nil
}

// Compare renders a side-by-side comparison report.
func (r *Renderer) Compare(rep CompareReport) error {
	if !r.Text() {
		return r.dump(rep)
	}
	heading.Fprintf(r.w, "\n== %s (A) ==\n", rep.PlaceA)
	r.stats(rep.Stats.A)
	if rep.Insights != nil {
		r.insights(rep.Insights.A)
	}
	heading.Fprintf(r.w, "\n== %s (B) ==\n", rep.PlaceB)
	r.stats(rep.Stats.B)
	if rep.Insights != nil {
		r.insights(rep.Insights.B)
	}
	if rep.Insights == nil {
		return nil
	}
	heading.Fprintln(r.w, "\nCompetitor comparison")
	if rep.Insights.ComparisonError != "" {
		bad.Fprintln(r.w, rep.Insights.ComparisonError)
	} else {
		fmt.Fprintln(r.w, rep.Insights.Comparison)
	}
	return nil
}

// dump writes v as JSON, or as YAML with the same keys.
func (r *Renderer) dump(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if r.format == FormatJSON {
		_, err = fmt.Fprintln(r.w, string(b))
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func (r *Renderer) preview(c domain.Collection) {
	if c.Len() == 0 {
		return
	}
	muted.Fprintf(r.w, "%d reviews, columns: %s\n", c.Len(), strings.Join(c.Fields.Names(), ", "))
	for _, rv := range c.Head(previewRows) {
		rating := "-"
		if rv.Rating != nil {
			rating = fmt.Sprintf("%.1f", *rv.Rating)
		}
		fmt.Fprintf(r.w, "  %-4s %-18s %s\n", rating, truncate(rv.Author, 18), truncate(rv.Text, previewText))
	}
}

func (r *Renderer) stats(s domain.Stats) {
	heading.Fprintln(r.w, "\nStats")
	fmt.Fprintf(r.w, "  total reviews: %d\n", s.TotalReviews)
	if s.AvgRating != nil {
		fmt.Fprintf(r.w, "  average rating: %.2f\n", *s.AvgRating)
	} else {
		fmt.Fprintln(r.w, "  average rating: n/a")
	}
	if len(s.SentimentCounts) == 0 {
		return
	}
	fmt.Fprintf(r.w, "  positive reviews: %d\n", s.SentimentCounts[domain.Positive])
	heading.Fprintln(r.w, "\nSentiment")
	top := 0
	for _, k := range domain.Sentiments {
		if s.SentimentCounts[k] > top {
			top = s.SentimentCounts[k]
		}
	}
	for _, k := range domain.Sentiments {
		n := s.SentimentCounts[k]
		p := good
		switch k {
		case domain.Negative:
			p = bad
		case domain.Neutral:
			p = muted
		}
		fmt.Fprintf(r.w, "  %-9s ", k)
		p.Fprint(r.w, Bar(n, top, barWidth))
		fmt.Fprintf(r.w, " %d\n", n)
	}
}

func (r *Renderer) ratings(c domain.Collection) {
	hist := RatingHistogram(c)
	top := 0
	for _, n := range hist {
		if n > top {
			top = n
		}
	}
	if top == 0 {
		return
	}
	heading.Fprintln(r.w, "\nRatings")
	for star := 5; star >= 1; star-- {
		fmt.Fprintf(r.w, "  %d* %s %d\n", star, Bar(hist[star-1], top, barWidth), hist[star-1])
	}
}

func (r *Renderer) scores(c domain.Collection) {
	if !c.Fields.Has(domain.FieldSentiment) || c.Len() == 0 {
		return
	}
	hist := ScoreHistogram(c, scoreBins)
	top := 0
	for _, n := range hist {
		if n > top {
			top = n
		}
	}
	heading.Fprintln(r.w, "\nSentiment confidence")
	width := 1.0 / float64(len(hist))
	for i := len(hist) - 1; i >= 0; i-- {
		if hist[i] == 0 {
			continue
		}
		lo := float64(i) * width
		fmt.Fprintf(r.w, "  %.2f-%.2f %s %d\n", lo, lo+width, Bar(hist[i], top, barWidth), hist[i])
	}
}

func (r *Renderer) insights(bi app.BusinessInsights) {
	heading.Fprintln(r.w, "\nThemes")
	if bi.Themes.Fallback {
		muted.Fprintln(r.w, "  (unstructured model output)")
		fmt.Fprintf(r.w, "  %s\n", bi.Themes.Raw)
	} else {
		for _, t := range bi.Themes.Positive {
			good.Fprintf(r.w, "  + %s\n", t)
		}
		for _, t := range bi.Themes.Negative {
			bad.Fprintf(r.w, "  - %s\n", t)
		}
	}
	heading.Fprintln(r.w, "\nSummary")
	fmt.Fprintln(r.w, bi.Summary)
	heading.Fprintln(r.w, "\nRecommendations")
	fmt.Fprintln(r.w, bi.Recommendations)
}

// Bar scales n against top into a bar of at most width cells.
func Bar(n, top, width int) string {
	if n <= 0 || top <= 0 {
		return ""
	}
	cells := int(math.Round(float64(n) / float64(top) * float64(width)))
	if cells == 0 {
		cells = 1
	}
	return strings.Repeat("█", cells)
}

// RatingHistogram counts reviews per star, rounding fractional ratings and
// ignoring values outside 1..5.
func RatingHistogram(c domain.Collection) [5]int {
	var out [5]int
	for _, rv := range c.Reviews {
		if rv.Rating == nil {
			continue
		}
		star := int(math.Round(*rv.Rating))
		if star >= 1 && star <= 5 {
			out[star-1]++
		}
	}
	return out
}

// ScoreHistogram buckets labeled reviews by sentiment score into equal-width
// bins over [0,1]. A score of exactly 1 lands in the last bin.
func ScoreHistogram(c domain.Collection, bins int) []int {
	if bins <= 0 {
		bins = scoreBins
	}
	out := make([]int, bins)
	for _, rv := range c.Reviews {
		if rv.Sentiment == "" {
			continue
		}
		i := int(math.Min(1, math.Max(0, rv.SentimentScore)) * float64(bins))
		if i == bins {
			i--
		}
		out[i]++
	}
	return out
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
