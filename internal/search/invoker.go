package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tositon/OpenDeepSearch/internal/metrics"
	"github.com/tositon/OpenDeepSearch/internal/research"
)

const (
	// maxQueryLen is the character limit a query is truncated to before it
	// is sent upstream.
	maxQueryLen = 400
	// minResults and maxResults bound the requested result count.
	minResults = 1
	maxResults = 20
)

// Invoker queries the search collaborator and scores each result for
// relevance against the query.
type Invoker struct {
	provider Provider
	logger   *zap.Logger
}

// NewInvoker creates an invoker around the given provider. A nil logger
// falls back to a no-op logger.
func NewInvoker(provider Provider, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{provider: provider, logger: logger}
}

// Invoke issues exactly one upstream search and returns scored results. The
// query is truncated to 400 characters and the count clamped to [1,20]. An
// empty query is a validation error. Upstream failures are returned wrapped;
// they are never retried here.
func (inv *Invoker) Invoke(ctx context.Context, query string, count int) ([]research.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	query = truncate(query, maxQueryLen)
	if count < minResults {
		count = minResults
	}
	if count > maxResults {
		count = maxResults
	}

	start := time.Now()
	metrics.SearchesTotal.Inc()
	raw, err := inv.provider.Search(ctx, query, count)
	metrics.SearchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchErrors.Inc()
		inv.logger.Warn("Search invocation failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil, err
	}

	scored := make([]research.SearchResult, 0, len(raw))
	for _, r := range raw {
		scored = append(scored, research.SearchResult{
			Title:       r.Title,
			Description: r.Description,
			URL:         r.URL,
			Relevance:   Score(query, r.Title, r.Description),
		})
	}

	inv.logger.Debug("Search completed",
		zap.String("query", query),
		zap.Int("results", len(scored)),
	)
	return scored, nil
}

// truncate cuts s to at most max characters (UTF-8 safe, no ellipsis).
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
