package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultSerperEndpoint = "https://google.serper.dev/search"

// SerperClient calls the Serper web-search API. All sessions share one
// upstream credential, so calls are paced through a client-side rate limiter.
type SerperClient struct {
	apiKey   string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// SerperOption configures a SerperClient.
type SerperOption func(*SerperClient)

// WithEndpoint overrides the API endpoint, mainly for tests.
func WithEndpoint(url string) SerperOption {
	return func(c *SerperClient) { c.endpoint = url }
}

// WithHTTPClient overrides the HTTP client, e.g. to change the timeout.
func WithHTTPClient(client *http.Client) SerperOption {
	return func(c *SerperClient) { c.client = client }
}

// WithRateLimit paces outgoing calls at rps requests per second with the
// given burst.
func WithRateLimit(rps float64, burst int) SerperOption {
	return func(c *SerperClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewSerperClient constructs a Serper search provider. A missing API key is
// a configuration error and fails construction.
func NewSerperClient(apiKey string, logger *zap.Logger, opts ...SerperOption) (*SerperClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &SerperClient{
		apiKey:   apiKey,
		endpoint: defaultSerperEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(5), 5),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search issues one query to the upstream API. Transport and HTTP failures
// are wrapped with their original message; an empty or undecodable payload
// yields an empty result sequence.
func (c *SerperClient) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"q":   query,
		"num": count,
	})
	if err != nil {
		return nil, fmt.Errorf("search: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search upstream returned status %d", resp.StatusCode)
	}

	var payload struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// Malformed payloads are treated as no results.
		c.logger.Warn("Undecodable search payload, returning no results",
			zap.Error(err),
		)
		return nil, nil
	}

	results := make([]Result, 0, len(payload.Organic))
	for _, r := range payload.Organic {
		results = append(results, Result{
			Title:       r.Title,
			URL:         r.Link,
			Description: r.Snippet,
		})
		if len(results) >= count {
			break
		}
	}
	return results, nil
}
