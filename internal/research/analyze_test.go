package research

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAnalyze_EmptyResults(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())

	got := a.Analyze("solar panel efficiency", nil)
	assert.Equal(t, `No results found for query: "solar panel efficiency"`, got)
}

func TestAnalyze_UsesTopFiveByRelevance(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())

	var results []SearchResult
	for i := 0; i < 7; i++ {
		results = append(results, SearchResult{
			Title:       fmt.Sprintf("result-%d", i),
			Description: "Solar energy is captured by photovoltaic cells. Panels convert sunlight into electricity.",
			URL:         fmt.Sprintf("https://example.com/%d", i),
			Relevance:   float64(i) / 10,
		})
	}

	got := a.Analyze("solar energy", results)

	// Highest relevance comes first; the two weakest results are dropped.
	assert.Contains(t, got, "1. result-6")
	assert.Contains(t, got, "5. result-2")
	assert.NotContains(t, got, "result-1\n")
	assert.NotContains(t, got, "result-0\n")
	assert.Contains(t, got, "Based on the top 5 search results.")
}

func TestAnalyze_StableTiebreakOnEqualRelevance(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())

	results := []SearchResult{
		{Title: "first", Description: "one sentence here", URL: "https://a", Relevance: 0.5},
		{Title: "second", Description: "another sentence here", URL: "https://b", Relevance: 0.5},
	}

	got := a.Analyze("anything", results)
	require.Contains(t, got, "1. first")
	require.Contains(t, got, "2. second")
}

func TestAnalyze_NoteNamesResultCount(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())

	results := []SearchResult{
		{Title: "only", Description: "Wind turbines generate power.", URL: "https://a", Relevance: 0.9},
	}

	got := a.Analyze("wind power", results)
	assert.Contains(t, got, "Based on the top 1 search results.")
	assert.Contains(t, got, "Source: https://a")
}

func TestExtractSentences_PrefersQueryCoverage(t *testing.T) {
	text := "Bananas are yellow. Quantum computers use qubits to perform parallel computation on superposed states. The weather was nice."
	got := extractSentences("quantum computers qubits", text, 2)

	assert.Contains(t, got, "Quantum computers use qubits")
	assert.NotContains(t, got, "weather")
}

func TestExtractSentences_NoTerminatorTreatsWholeText(t *testing.T) {
	text := "a description without any terminator"
	got := extractSentences("description", text, 2)
	assert.Equal(t, "a description without any terminator.", got)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two! Three? ...")
	assert.Equal(t, []string{"One", "Two", "Three"}, got)

	assert.Empty(t, splitSentences("..."))
}

func TestSentenceQueryTokens_CountsRunesNotBytes(t *testing.T) {
	// Two-rune words stay below the length cutoff regardless of byte width;
	// stop words are dropped either way.
	got := sentenceQueryTokens("what is 囲碁 opening theory")
	assert.Equal(t, []string{"opening", "theory"}, got)
}

func TestScoreSentence_Bounds(t *testing.T) {
	tokens := []string{"quantum", "computing"}
	for _, s := range []string{
		"",
		"quantum computing",
		strings.Repeat("quantum computing ", 50),
		"nothing relevant at all",
	} {
		score := scoreSentence(s, tokens)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}
