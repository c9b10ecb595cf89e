// Package csvimport reads uploaded review tables.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"review_insights/internal/domain"
)

// Importer satisfies domain.ReviewImporter.
type Importer struct{}

func (Importer) Import(r io.Reader) (domain.Collection, error) { return Read(r) }

// Read parses a CSV with a header row. The text column is required; author,
// rating and date are picked up when present. Rows with the wrong number of
// fields or broken quoting are skipped.
func Read(r io.Reader) (domain.Collection, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Collection{}, &domain.SchemaError{Field: "text"}
	}
	if err != nil {
		return domain.Collection{}, fmt.Errorf("read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	textIdx, ok := cols["text"]
	if !ok {
		return domain.Collection{}, &domain.SchemaError{Field: "text"}
	}

	out := domain.Collection{Reviews: []domain.Review{}, Fields: domain.FieldText}
	optional := []struct {
		name  string
		field domain.Field
	}{{"author", domain.FieldAuthor}, {"rating", domain.FieldRating}, {"date", domain.FieldDate}}
	for _, o := range optional {
		if _, ok := cols[o.name]; ok {
			out.Fields |= o.field
		}
	}

	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			skipped++
			continue
		}
		if err != nil {
			return domain.Collection{}, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) != len(header) {
			skipped++
			continue
		}
		out.Reviews = append(out.Reviews, domain.Review{
			Text:   rec[textIdx],
			Author: cell(rec, cols, "author"),
			Date:   cell(rec, cols, "date"),
			Rating: parseRating(cell(rec, cols, "rating")),
		})
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("rows", len(out.Reviews)).Msg("csv import skipped malformed rows")
	}
	return out, nil
}

func cell(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok {
		return ""
	}
	return rec[i]
}

// parseRating treats blank, unparsable and non-finite cells as missing.
func parseRating(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
