package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoReviews       = errors.New("no reviews found")
	ErrStepOrder       = errors.New("previous step has not completed")
	ErrSessionNotFound = errors.New("session not found")
)

// ConfigError reports a missing setting. It is raised before any external call.
type ConfigError struct{ Key string }

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not set; configure it in the environment or .env", e.Key)
}

// FetchError reports a failed call to the reviews provider.
type FetchError struct {
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch reviews: %v", e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("fetch reviews: bad status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("fetch reviews: bad status %d", e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SchemaError reports a collection missing a required column.
type SchemaError struct{ Field string }

func (e *SchemaError) Error() string {
	return fmt.Sprintf("input must have a '%s' column", e.Field)
}
