package research

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/tositon/OpenDeepSearch/internal/util"
)

const (
	// DefaultMaxSubQuestions is used when the caller does not specify a limit.
	DefaultMaxSubQuestions = 5
	// MaxSubQuestionsCap is the hard upper bound on sub-questions per session.
	MaxSubQuestionsCap = 10
)

// connectorRe matches any of the fixed connector vocabulary as a single
// alternation, longest alternatives first so "versus" is not shadowed by "vs".
var connectorRe = regexp.MustCompile(`(?i)\b(?:differences between|compared to|versus|vs|and|or)\b`)

var interrogatives = map[string]bool{
	"what": true, "how": true, "why": true, "when": true,
	"where": true, "who": true, "which": true,
}

var auxiliaries = map[string]bool{
	"is": true, "are": true, "was": true, "were": true,
	"do": true, "does": true, "did": true,
	"can": true, "could": true, "should": true, "would": true, "will": true,
}

var articles = map[string]bool{"the": true, "a": true, "an": true}

// DefaultAspectTemplates are the fmt templates used to derive aspect
// sub-questions from an extracted topic.
var DefaultAspectTemplates = []string{
	"What is %s?",
	"What are the key features of %s?",
	"What are the applications of %s?",
}

// Decomposer splits a research question into ordered sub-questions.
type Decomposer struct {
	templates []string
	logger    *zap.Logger
}

// NewDecomposer creates a decomposer. Nil or empty templates fall back to
// DefaultAspectTemplates; a nil logger falls back to a no-op logger.
func NewDecomposer(templates []string, logger *zap.Logger) *Decomposer {
	if len(templates) == 0 {
		templates = DefaultAspectTemplates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decomposer{templates: templates, logger: logger}
}

// Decompose splits question into a deduplicated ordered list of sub-question
// strings, truncated to maxSubQuestions (default 5, hard cap 10).
//
// Questions containing a connector word are split on the connector
// alternation; each non-empty part becomes a sub-question suffixed "?".
// Otherwise the question is expanded into the original plus templated aspect
// questions derived from its topic; a question with no extractable topic
// yields only itself.
func (d *Decomposer) Decompose(question string, maxSubQuestions int) []string {
	max := maxSubQuestions
	if max <= 0 {
		max = DefaultMaxSubQuestions
	}
	if max > MaxSubQuestionsCap {
		max = MaxSubQuestionsCap
	}

	stripped := util.StripQuestionMark(question)

	var subs []string
	if connectorRe.MatchString(strings.ToLower(stripped)) {
		parts := connectorRe.Split(stripped, -1)
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			subs = append(subs, p+"?")
		}
	}

	if len(subs) < 2 {
		subs = subs[:0]
		subs = append(subs, question)
		if topic := ExtractTopic(question); topic != "" {
			for _, tmpl := range d.templates {
				subs = append(subs, fmt.Sprintf(tmpl, topic))
			}
		}
	}

	subs = dedupe(subs)
	if len(subs) > max {
		subs = subs[:max]
	}

	d.logger.Debug("Decomposed question",
		zap.String("question", question),
		zap.Int("sub_questions", len(subs)),
	)
	return subs
}

// ExtractTopic derives the topic of a question by stripping the trailing "?",
// then one leading interrogative word, one auxiliary, and one article. The
// remainder keeps its original casing. Returns "" when nothing remains.
func ExtractTopic(question string) string {
	words := strings.Fields(util.StripQuestionMark(question))
	i := 0
	if i < len(words) && interrogatives[strings.ToLower(words[i])] {
		i++
	}
	if i < len(words) && auxiliaries[strings.ToLower(words[i])] {
		i++
	}
	if i < len(words) && articles[strings.ToLower(words[i])] {
		i++
	}
	return strings.Join(words[i:], " ")
}

// dedupe removes exact duplicates preserving first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
