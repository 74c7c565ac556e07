package search

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey is returned when the provider is constructed without
	// a credential. This is a configuration error, never retried.
	ErrMissingAPIKey = errors.New("search: API key is missing")

	// ErrEmptyQuery is returned when an invocation carries no query text.
	ErrEmptyQuery = errors.New("search: query is empty")
)

// Result is one raw result from the search collaborator, before scoring.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Provider is the search collaborator: given a query and a result count it
// returns an ordered sequence of raw results. Implementations wrap upstream
// failures with their original message. An empty or malformed upstream
// payload is reported as an empty sequence, not an error.
type Provider interface {
	Search(ctx context.Context, query string, count int) ([]Result, error)
}
