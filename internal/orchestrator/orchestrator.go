// Package orchestrator drives a research session through its lifecycle:
// Planning -> Searching -> Synthesizing -> Completed. Each operation is a
// synchronous unit of work; one continue call advances exactly one
// sub-question, and synthesis triggers autonomously once every sub-question
// has completed.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tositon/OpenDeepSearch/internal/metrics"
	"github.com/tositon/OpenDeepSearch/internal/research"
	"github.com/tositon/OpenDeepSearch/internal/session"
	"github.com/tositon/OpenDeepSearch/internal/util"
)

var (
	// ErrEmptyQuestion is returned when start is called without a question.
	ErrEmptyQuestion = errors.New("research question is empty")

	// ErrNotCompleted is returned when a report is requested before the
	// session has completed.
	ErrNotCompleted = errors.New("Research is not yet completed")
)

const (
	// resultsPerSearch is the fixed result count requested per sub-question.
	resultsPerSearch = 10
	// defaultPreviewLen bounds the report preview returned by continue.
	defaultPreviewLen = 500
)

// SearchInvoker issues one scored search per call.
type SearchInvoker interface {
	Invoke(ctx context.Context, query string, count int) ([]research.SearchResult, error)
}

// Orchestrator owns all session mutations. Collaborators are injected; the
// store handle is shared with whatever admin surface needs read access.
type Orchestrator struct {
	store       *session.Store
	invoker     SearchInvoker
	decomposer  *research.Decomposer
	analyzer    *research.Analyzer
	synthesizer *research.Synthesizer
	logger      *zap.Logger
	previewLen  atomic.Int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPreviewLength overrides the report preview length.
func WithPreviewLength(n int) Option {
	return func(o *Orchestrator) {
		o.SetPreviewLength(n)
	}
}

// New creates an orchestrator. A nil logger falls back to a no-op logger;
// nil pipeline components fall back to defaults.
func New(store *session.Store, invoker SearchInvoker, decomposer *research.Decomposer, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if decomposer == nil {
		decomposer = research.NewDecomposer(nil, logger)
	}
	o := &Orchestrator{
		store:       store,
		invoker:     invoker,
		decomposer:  decomposer,
		analyzer:    research.NewAnalyzer(logger),
		synthesizer: research.NewSynthesizer(logger),
		logger:      logger,
	}
	o.previewLen.Store(defaultPreviewLen)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetPreviewLength changes the report preview length at runtime. Values
// below 1 are ignored. Used by config hot-reload.
func (o *Orchestrator) SetPreviewLength(n int) {
	if n > 0 {
		o.previewLen.Store(int64(n))
	}
}

// StartResult is the payload returned by Start.
type StartResult struct {
	ResearchID   string                 `json:"research_id"`
	Question     string                 `json:"question"`
	SubQuestions []string               `json:"sub_questions"`
	Status       research.SessionStatus `json:"status"`
	Message      string                 `json:"message"`
}

// ContinueResult is the payload returned by Continue.
type ContinueResult struct {
	ResearchID    string                 `json:"research_id"`
	Status        research.SessionStatus `json:"status"`
	SubQuestion   string                 `json:"sub_question,omitempty"`
	Remaining     int                    `json:"remaining"`
	ReportPreview string                 `json:"report_preview,omitempty"`
	Message       string                 `json:"message"`
}

// SubQuestionView is the per-sub-question projection returned by Status.
type SubQuestionView struct {
	Question string                     `json:"question"`
	Status   research.SubQuestionStatus `json:"status"`
}

// StatusResult is the read-only projection returned by Status.
type StatusResult struct {
	ResearchID   string                 `json:"research_id"`
	Question     string                 `json:"question"`
	Status       research.SessionStatus `json:"status"`
	SubQuestions []SubQuestionView      `json:"sub_questions"`
	StepCount    int                    `json:"step_count"`
	StartTime    time.Time              `json:"start_time"`
	EndTime      *time.Time             `json:"end_time,omitempty"`
}

// ReportResult is the payload returned by Report.
type ReportResult struct {
	ResearchID string        `json:"research_id"`
	Report     string        `json:"report"`
	Duration   time.Duration `json:"duration"`
}

// Start creates a new session: decomposes the question, records a question
// analysis step, and leaves the session in the Searching state awaiting
// continue calls.
func (o *Orchestrator) Start(ctx context.Context, question string, maxSubQuestions int) (*StartResult, error) {
	defer observe("start", time.Now())

	if strings.TrimSpace(question) == "" {
		metrics.OperationErrors.WithLabelValues("start", "validation").Inc()
		return nil, ErrEmptyQuestion
	}

	sess := &research.Session{
		ID:        uuid.New().String(),
		Question:  question,
		Status:    research.StatusPlanning,
		StartTime: time.Now(),
	}
	appendStep(sess, research.StepQuestionAnalysis,
		fmt.Sprintf("Breaking down the research question: %s", question))

	subs := o.decomposer.Decompose(question, maxSubQuestions)
	for _, q := range subs {
		sess.SubQuestions = append(sess.SubQuestions, research.SubQuestion{
			ID:       uuid.New().String(),
			Question: q,
			Status:   research.SubPending,
		})
	}
	sess.UpdateLastStep(fmt.Sprintf("Decomposed the question into %d sub-questions", len(subs)))
	sess.Status = research.StatusSearching

	o.store.Put(sess)
	metrics.SubQuestionsPerSession.Observe(float64(len(subs)))

	o.logger.Info("Started research session",
		zap.String("session_id", sess.ID),
		zap.Int("sub_questions", len(subs)),
	)
	return &StartResult{
		ResearchID:   sess.ID,
		Question:     question,
		SubQuestions: subs,
		Status:       sess.Status,
		Message:      fmt.Sprintf("Research started with %d sub-questions. Call continue to advance.", len(subs)),
	}, nil
}

// Continue advances the session by one sub-question, or triggers synthesis
// once all sub-questions have completed. Calling continue on a completed
// session is a no-op that returns the stored report preview. A concurrent
// continue for the same session is rejected with session.ErrBusy.
func (o *Orchestrator) Continue(ctx context.Context, id string) (*ContinueResult, error) {
	defer observe("continue", time.Now())

	entry, err := o.store.Get(id)
	if err != nil {
		metrics.OperationErrors.WithLabelValues("continue", "not_found").Inc()
		return nil, err
	}
	release, err := entry.Acquire()
	if err != nil {
		metrics.OperationErrors.WithLabelValues("continue", "busy").Inc()
		return nil, err
	}
	defer release()

	var (
		completed  bool
		pendingIdx = -1
		subQ       string
	)
	entry.View(func(s *research.Session) {
		completed = s.Status == research.StatusCompleted
		if pendingIdx = s.FirstPending(); pendingIdx >= 0 {
			subQ = s.SubQuestions[pendingIdx].Question
		}
	})

	if completed {
		var preview string
		entry.View(func(s *research.Session) {
			preview = util.TruncateString(s.Report, int(o.previewLen.Load()), true)
		})
		return &ContinueResult{
			ResearchID:    id,
			Status:        research.StatusCompleted,
			ReportPreview: preview,
			Message:       "Research already completed.",
		}, nil
	}

	if pendingIdx < 0 {
		return o.synthesize(entry, id)
	}
	return o.advance(ctx, entry, id, pendingIdx, subQ)
}

// advance runs the search-and-analyze phase for one sub-question. The search
// call happens outside the state lock; the writer guard held by Continue
// keeps other writers out for the duration.
func (o *Orchestrator) advance(ctx context.Context, entry *session.Entry, id string, idx int, subQ string) (*ContinueResult, error) {
	entry.Update(func(s *research.Session) {
		s.SubQuestions[idx].Status = research.SubInProgress
		appendStep(s, research.StepSearch, fmt.Sprintf("Searching for: %s", subQ))
	})

	results, err := o.invoker.Invoke(ctx, subQ, resultsPerSearch)
	if err != nil {
		// Roll back so a later continue can retry this sub-question.
		entry.Update(func(s *research.Session) {
			s.SubQuestions[idx].Status = research.SubPending
			s.UpdateLastStep(fmt.Sprintf("Search failed for: %s", subQ))
		})
		metrics.OperationErrors.WithLabelValues("continue", "upstream").Inc()
		o.logger.Warn("Sub-question search failed, reverted to pending",
			zap.String("session_id", id),
			zap.String("sub_question", subQ),
			zap.Error(err),
		)
		return nil, fmt.Errorf("search failed for sub-question %q: %w", subQ, err)
	}

	analysis := o.analyzer.Analyze(subQ, results)

	var remaining int
	entry.Update(func(s *research.Session) {
		s.SubQuestions[idx].SearchResults = results
		s.UpdateLastStep(fmt.Sprintf("Found %d results for: %s", len(results), subQ))
		appendStep(s, research.StepResultAnalysis, fmt.Sprintf("Analyzing %d results for: %s", len(results), subQ))
		s.SubQuestions[idx].Analysis = analysis
		s.UpdateLastStep(analysis)
		s.SubQuestions[idx].Status = research.SubCompleted
		remaining = s.PendingCount()
	})

	o.logger.Info("Advanced research session",
		zap.String("session_id", id),
		zap.String("sub_question", subQ),
		zap.Int("results", len(results)),
		zap.Int("remaining", remaining),
	)
	return &ContinueResult{
		ResearchID:  id,
		Status:      research.StatusSearching,
		SubQuestion: subQ,
		Remaining:   remaining,
		Message:     fmt.Sprintf("Completed sub-question %q; %d pending.", subQ, remaining),
	}, nil
}

// synthesize assembles the final report and completes the session.
func (o *Orchestrator) synthesize(entry *session.Entry, id string) (*ContinueResult, error) {
	var preview string
	entry.Update(func(s *research.Session) {
		s.Status = research.StatusSynthesizing
		appendStep(s, research.StepSynthesis, "Synthesizing final report")

		report := o.synthesizer.Synthesize(s.Question, s.SubQuestions)
		s.Report = report
		s.UpdateLastStep(fmt.Sprintf("Synthesized final report (%d characters)", len(report)))
		s.Status = research.StatusCompleted
		s.EndTime = time.Now()
		preview = util.TruncateString(report, int(o.previewLen.Load()), true)
	})

	metrics.ReportsSynthesized.Inc()
	o.logger.Info("Completed research session", zap.String("session_id", id))
	return &ContinueResult{
		ResearchID:    id,
		Status:        research.StatusCompleted,
		ReportPreview: preview,
		Message:       "Research completed. Full report available via the report action.",
	}, nil
}

// Status returns a read-only projection of the session.
func (o *Orchestrator) Status(ctx context.Context, id string) (*StatusResult, error) {
	defer observe("status", time.Now())

	entry, err := o.store.Get(id)
	if err != nil {
		metrics.OperationErrors.WithLabelValues("status", "not_found").Inc()
		return nil, err
	}

	var out *StatusResult
	entry.View(func(s *research.Session) {
		views := make([]SubQuestionView, len(s.SubQuestions))
		for i, sq := range s.SubQuestions {
			views[i] = SubQuestionView{Question: sq.Question, Status: sq.Status}
		}
		out = &StatusResult{
			ResearchID:   s.ID,
			Question:     s.Question,
			Status:       s.Status,
			SubQuestions: views,
			StepCount:    len(s.Steps),
			StartTime:    s.StartTime,
		}
		if s.Status == research.StatusCompleted {
			end := s.EndTime
			out.EndTime = &end
		}
	})
	return out, nil
}

// Report returns the stored report once the session has completed.
func (o *Orchestrator) Report(ctx context.Context, id string) (*ReportResult, error) {
	defer observe("report", time.Now())

	entry, err := o.store.Get(id)
	if err != nil {
		metrics.OperationErrors.WithLabelValues("report", "not_found").Inc()
		return nil, err
	}

	var out *ReportResult
	var stateErr error
	entry.View(func(s *research.Session) {
		if s.Status != research.StatusCompleted {
			stateErr = ErrNotCompleted
			return
		}
		out = &ReportResult{
			ResearchID: s.ID,
			Report:     s.Report,
			Duration:   s.EndTime.Sub(s.StartTime),
		}
	})
	if stateErr != nil {
		metrics.OperationErrors.WithLabelValues("report", "state").Inc()
		return nil, stateErr
	}
	return out, nil
}

func appendStep(s *research.Session, typ research.StepType, content string) {
	s.AppendStep(uuid.New().String(), typ, content)
	metrics.StepsAppended.WithLabelValues(string(typ)).Inc()
}

func observe(operation string, start time.Time) {
	metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
