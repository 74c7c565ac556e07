// Package toolapi is the boundary between the transport and the research
// core. Dynamically shaped payloads are validated exactly once here and
// turned into tagged request variants; core logic never sees a raw payload.
package toolapi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingQuery is returned when a start request carries no query.
	ErrMissingQuery = errors.New("query is required for the start action")

	// ErrMissingResearchID is returned when a status, continue, or report
	// request carries no research id.
	ErrMissingResearchID = errors.New("researchId is required for this action")
)

// Action identifies a research operation.
type Action string

const (
	ActionStart    Action = "start"
	ActionStatus   Action = "status"
	ActionContinue Action = "continue"
	ActionReport   Action = "report"
)

// RawRequest is the wire shape delivered by the transport collaborator.
type RawRequest struct {
	Action          string `json:"action,omitempty"`
	Query           string `json:"query,omitempty"`
	MaxSubQuestions int    `json:"maxSubQuestions,omitempty"`
	ResearchID      string `json:"researchId,omitempty"`
}

// Request is a validated, tagged research request.
type Request interface {
	Action() Action
}

// StartRequest begins a new research session.
type StartRequest struct {
	Query           string
	MaxSubQuestions int
}

// ContinueRequest advances an existing session by one sub-question.
type ContinueRequest struct {
	ResearchID string
}

// StatusRequest asks for a read-only session projection.
type StatusRequest struct {
	ResearchID string
}

// ReportRequest asks for the final report of a completed session.
type ReportRequest struct {
	ResearchID string
}

func (StartRequest) Action() Action    { return ActionStart }
func (ContinueRequest) Action() Action { return ActionContinue }
func (StatusRequest) Action() Action   { return ActionStatus }
func (ReportRequest) Action() Action   { return ActionReport }

// ParseRequest validates a raw payload and returns the tagged variant. The
// action defaults to start when absent. Validation failures and unknown
// actions are surfaced immediately and never retried.
func ParseRequest(raw RawRequest) (Request, error) {
	action := Action(strings.TrimSpace(raw.Action))
	if action == "" {
		action = ActionStart
	}

	switch action {
	case ActionStart:
		if strings.TrimSpace(raw.Query) == "" {
			return nil, ErrMissingQuery
		}
		return StartRequest{Query: raw.Query, MaxSubQuestions: raw.MaxSubQuestions}, nil
	case ActionContinue:
		if strings.TrimSpace(raw.ResearchID) == "" {
			return nil, ErrMissingResearchID
		}
		return ContinueRequest{ResearchID: raw.ResearchID}, nil
	case ActionStatus:
		if strings.TrimSpace(raw.ResearchID) == "" {
			return nil, ErrMissingResearchID
		}
		return StatusRequest{ResearchID: raw.ResearchID}, nil
	case ActionReport:
		if strings.TrimSpace(raw.ResearchID) == "" {
			return nil, ErrMissingResearchID
		}
		return ReportRequest{ResearchID: raw.ResearchID}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", raw.Action)
	}
}
