package research

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	topResultsForAnalysis = 5
	sentencesPerResult    = 2
	idealSentenceLength   = 100
	coverageWeight        = 0.7
	lengthWeight          = 0.3
)

// stopWords are excluded from query tokens when scoring sentences.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "what": true,
	"how": true, "why": true, "when": true, "where": true, "who": true,
	"which": true, "of": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "with": true, "by": true, "from": true,
	"as": true, "that": true, "this": true, "it": true, "its": true,
}

// Analyzer ranks scored search results for one sub-question and extracts
// representative sentences from their descriptions.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer. A nil logger falls back to a no-op logger.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// Analyze produces the textual analysis for one sub-question from its scored
// results. An empty result sequence yields the literal no-results message.
func (a *Analyzer) Analyze(query string, results []SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: \"%s\"", query)
	}

	ranked := append([]SearchResult(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})
	if len(ranked) > topResultsForAnalysis {
		ranked = ranked[:topResultsForAnalysis]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis for: %s\n\n", query)
	for i, r := range ranked {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "   %s\n", extractSentences(query, r.Description, sentencesPerResult))
		fmt.Fprintf(&b, "   Source: %s\n\n", r.URL)
	}
	fmt.Fprintf(&b, "Based on the top %d search results.", len(ranked))

	a.logger.Debug("Analyzed results",
		zap.String("query", query),
		zap.Int("results_used", len(ranked)),
	)
	return b.String()
}

// extractSentences returns up to max representative sentences from text,
// joined into one passage.
func extractSentences(query, text string, max int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}

	tokens := sentenceQueryTokens(query)
	type scored struct {
		sentence string
		score    float64
	}
	all := make([]scored, len(sentences))
	for i, s := range sentences {
		all[i] = scored{sentence: s, score: scoreSentence(s, tokens)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > max {
		all = all[:max]
	}

	picked := make([]string, len(all))
	for i, sc := range all {
		picked[i] = sc.sentence
	}
	return strings.Join(picked, ". ") + "."
}

// splitSentences splits text on sentence terminators, discarding blanks.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sentenceQueryTokens tokenizes a query for sentence scoring: lowercased
// words longer than 2 characters with stop words removed.
func sentenceQueryTokens(query string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(w) > 2 && !stopWords[w] {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// scoreSentence weighs query-token coverage against closeness to the ideal
// sentence length.
func scoreSentence(sentence string, tokens []string) float64 {
	coverage := 0.0
	if len(tokens) > 0 {
		matched := 0
		lower := strings.ToLower(sentence)
		for _, t := range tokens {
			if strings.Contains(lower, t) {
				matched++
			}
		}
		coverage = float64(matched) / float64(len(tokens))
	}

	length := float64(utf8.RuneCountInString(sentence))
	lengthScore := 1 - math.Min(math.Abs(length-idealSentenceLength)/idealSentenceLength, 0.5)

	return coverageWeight*coverage + lengthWeight*lengthScore
}
