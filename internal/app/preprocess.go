package app

import (
	"regexp"
	"strings"

	"review_insights/internal/domain"
)

var (
	// URLs match in any case: lowercasing runs after the strip, so a
	// case-sensitive match would leave "HTTPS..." to be removed on a second pass.
	urlRe      = regexp.MustCompile(`(?i)http\S+|www\.\S+`)
	symbolRe   = regexp.MustCompile(`[^A-Za-z0-9\s.,!?']`)
	spaceRunRe = regexp.MustCompile(`\s+`)
)

// CleanText strips URLs and symbols, lowercases and collapses whitespace.
// The result only contains [a-z0-9\s.,!?'] and CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	s = urlRe.ReplaceAllString(s, "")
	s = symbolRe.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Preprocess returns a copy of c with clean_text populated.
func Preprocess(c domain.Collection) (domain.Collection, error) {
	if !c.Fields.Has(domain.FieldText) {
		return domain.Collection{}, &domain.SchemaError{Field: "text"}
	}
	out := c.Clone()
	for i := range out.Reviews {
		out.Reviews[i].CleanText = CleanText(out.Reviews[i].Text)
	}
	out.Fields |= domain.FieldCleanText
	return out, nil
}
