package search

import (
	"strings"
	"unicode/utf8"
)

// Score computes the heuristic relevance of a result against a query.
//
// The query is tokenized into lowercased words longer than 2 characters
// (no stop-word filtering). Title substring matches weigh three times as
// much as description matches; a token may count in both. The score is
// (titleMatches*3 + descriptionMatches) / (tokens*4), which is bounded to
// [0,1] by construction, and 0 for a tokenless query.
func Score(query, title, description string) float64 {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return 0
	}

	title = strings.ToLower(title)
	description = strings.ToLower(description)

	titleMatches := 0
	descriptionMatches := 0
	for _, t := range tokens {
		if strings.Contains(title, t) {
			titleMatches++
		}
		if strings.Contains(description, t) {
			descriptionMatches++
		}
	}

	return float64(titleMatches*3+descriptionMatches) / float64(len(tokens)*4)
}

// queryTokens splits a query into lowercased words longer than 2 characters.
func queryTokens(query string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(w) > 2 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
