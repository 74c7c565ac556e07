package research

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tositon/OpenDeepSearch/internal/util"
)

// InProgressReport is returned when no sub-question has completed yet.
const InProgressReport = "Research is still in progress. No completed findings are available yet."

// Synthesizer assembles per-sub-question findings into one cited report.
type Synthesizer struct {
	logger *zap.Logger
}

// NewSynthesizer creates a synthesizer. A nil logger falls back to a no-op
// logger.
func NewSynthesizer(logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{logger: logger}
}

// Synthesize builds the final report from the main question and all
// sub-questions. Only completed sub-questions with a non-empty analysis
// contribute; when none qualify the in-progress placeholder is returned.
func (s *Synthesizer) Synthesize(question string, subQuestions []SubQuestion) string {
	var completed []SubQuestion
	for _, sq := range subQuestions {
		if sq.Status == SubCompleted && strings.TrimSpace(sq.Analysis) != "" {
			completed = append(completed, sq)
		}
	}
	if len(completed) == 0 {
		return InProgressReport
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n\n", question)
	fmt.Fprintf(&b, "This report presents findings for the research question: \"%s\".\n\n", question)

	for _, sq := range completed {
		title := util.StripQuestionMark(sq.Question)
		fmt.Fprintf(&b, "## %s\n\n", title)
		fmt.Fprintf(&b, "%s\n\n", sq.Analysis)
		if len(sq.SearchResults) > 0 {
			b.WriteString("Citations:\n")
			for i, r := range sq.SearchResults {
				fmt.Fprintf(&b, "[%d] %s - %s\n", i+1, r.Title, r.URL)
			}
			b.WriteString("\n")
		}
	}

	topic := ExtractTopic(question)
	if topic == "" {
		topic = question
	}
	b.WriteString("## Conclusion\n\n")
	fmt.Fprintf(&b, "This research examined %s across %d completed sub-questions.\n\n", topic, len(completed))

	b.WriteString("## Sources\n\n")
	seen := make(map[string]bool)
	n := 0
	for _, sq := range completed {
		for _, r := range sq.SearchResults {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			n++
			fmt.Fprintf(&b, "%d. %s - %s\n", n, r.Title, r.URL)
		}
	}

	s.logger.Debug("Synthesized report",
		zap.Int("sections", len(completed)),
		zap.Int("sources", n),
	)
	return b.String()
}
