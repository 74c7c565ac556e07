package toolapi

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tositon/OpenDeepSearch/internal/orchestrator"
)

// Response is the envelope returned for every tool invocation. Errors are
// always returned values inside the envelope, never failures crossing the
// transport boundary.
type Response struct {
	Status string `json:"status"` // "success" or "error"
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Success wraps a result payload.
func Success(result any) Response {
	return Response{Status: "success", Result: result}
}

// Failure wraps an error message.
func Failure(err error) Response {
	return Response{Status: "error", Error: err.Error()}
}

// Handler dispatches validated requests to the orchestrator.
type Handler struct {
	orc    *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewHandler creates a handler. A nil logger falls back to a no-op logger.
func NewHandler(orc *orchestrator.Orchestrator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{orc: orc, logger: logger}
}

// HandleRaw validates a raw payload and dispatches it.
func (h *Handler) HandleRaw(ctx context.Context, raw RawRequest) Response {
	req, err := ParseRequest(raw)
	if err != nil {
		h.logger.Debug("Rejected invalid request", zap.Error(err))
		return Failure(err)
	}
	return h.Handle(ctx, req)
}

// Handle dispatches one validated request. The switch over request variants
// is exhaustive; an unhandled variant indicates a programming error and is
// reported as such rather than silently ignored.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	switch r := req.(type) {
	case StartRequest:
		res, err := h.orc.Start(ctx, r.Query, r.MaxSubQuestions)
		if err != nil {
			return Failure(err)
		}
		return Success(res)
	case ContinueRequest:
		res, err := h.orc.Continue(ctx, r.ResearchID)
		if err != nil {
			return Failure(err)
		}
		return Success(res)
	case StatusRequest:
		res, err := h.orc.Status(ctx, r.ResearchID)
		if err != nil {
			return Failure(err)
		}
		return Success(res)
	case ReportRequest:
		res, err := h.orc.Report(ctx, r.ResearchID)
		if err != nil {
			return Failure(err)
		}
		return Success(res)
	default:
		return Failure(fmt.Errorf("unhandled request variant %T", req))
	}
}
