package research

import (
	"time"
)

// SessionStatus is the lifecycle state of a research session. Transitions are
// monotonic: Planning -> Searching -> Synthesizing -> Completed.
type SessionStatus string

const (
	StatusPlanning     SessionStatus = "planning"
	StatusSearching    SessionStatus = "searching"
	StatusSynthesizing SessionStatus = "synthesizing"
	StatusCompleted    SessionStatus = "completed"
)

// SubQuestionStatus is the lifecycle state of a single sub-question.
type SubQuestionStatus string

const (
	SubPending    SubQuestionStatus = "pending"
	SubInProgress SubQuestionStatus = "in_progress"
	SubCompleted  SubQuestionStatus = "completed"
)

// StepType identifies the phase a research step records.
type StepType string

const (
	StepQuestionAnalysis StepType = "question_analysis"
	StepSearch           StepType = "search"
	StepResultAnalysis   StepType = "result_analysis"
	StepSynthesis        StepType = "synthesis"
	StepFollowUp         StepType = "follow_up"
)

// SearchResult is one scored result from the search collaborator.
// Immutable once produced.
type SearchResult struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	URL         string  `json:"url"`
	Relevance   float64 `json:"relevance"`
}

// SubQuestion is one decomposed unit of the main question, searched and
// analyzed independently. Created at session start; never deleted or
// reordered.
type SubQuestion struct {
	ID            string            `json:"id"`
	Question      string            `json:"question"`
	Status        SubQuestionStatus `json:"status"`
	SearchResults []SearchResult    `json:"search_results,omitempty"`
	Analysis      string            `json:"analysis,omitempty"`
}

// Step is an append-only audit-log entry recording one phase of a session's
// progress. Only the most recently appended step's content may be updated in
// place, to record a phase's outcome before the next phase begins.
type Step struct {
	ID        string            `json:"id"`
	Type      StepType          `json:"type"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Session is the accumulated state of one end-to-end research request.
// It is exclusively owned and mutated by the orchestrator.
type Session struct {
	ID           string        `json:"id"`
	Question     string        `json:"question"`
	SubQuestions []SubQuestion `json:"sub_questions"`
	Steps        []Step        `json:"steps"`
	Status       SessionStatus `json:"status"`
	Report       string        `json:"report,omitempty"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time,omitempty"`
}

// AppendStep appends a new step and returns its index.
func (s *Session) AppendStep(id string, typ StepType, content string) int {
	s.Steps = append(s.Steps, Step{
		ID:        id,
		Type:      typ,
		Content:   content,
		Timestamp: time.Now(),
	})
	return len(s.Steps) - 1
}

// UpdateLastStep replaces the content of the most recently appended step.
// No-op on an empty log.
func (s *Session) UpdateLastStep(content string) {
	if len(s.Steps) == 0 {
		return
	}
	s.Steps[len(s.Steps)-1].Content = content
}

// FirstPending returns the index of the first pending sub-question in stored
// order, or -1 when every sub-question has completed.
func (s *Session) FirstPending() int {
	for i := range s.SubQuestions {
		if s.SubQuestions[i].Status == SubPending {
			return i
		}
	}
	return -1
}

// PendingCount returns the number of sub-questions still pending.
func (s *Session) PendingCount() int {
	n := 0
	for i := range s.SubQuestions {
		if s.SubQuestions[i].Status == SubPending {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the session, safe to hand out as a read-only
// projection while the original keeps being mutated.
func (s *Session) Clone() *Session {
	cp := *s
	cp.SubQuestions = make([]SubQuestion, len(s.SubQuestions))
	for i, sq := range s.SubQuestions {
		sqc := sq
		if sq.SearchResults != nil {
			sqc.SearchResults = append([]SearchResult(nil), sq.SearchResults...)
		}
		cp.SubQuestions[i] = sqc
	}
	cp.Steps = make([]Step, len(s.Steps))
	for i, st := range s.Steps {
		stc := st
		if st.Metadata != nil {
			stc.Metadata = make(map[string]string, len(st.Metadata))
			for k, v := range st.Metadata {
				stc.Metadata[k] = v
			}
		}
		cp.Steps[i] = stc
	}
	return &cp
}
