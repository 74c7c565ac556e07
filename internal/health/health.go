// Package health exposes liveness and readiness endpoints for the service.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Check reports one component's health; nil means healthy.
type Check func() error

// Manager aggregates named component checks.
type Manager struct {
	mu      sync.RWMutex
	checks  map[string]Check
	started time.Time
	logger  *zap.Logger
}

// NewManager creates a health manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		checks:  make(map[string]Check),
		started: time.Now(),
		logger:  logger,
	}
}

// Register adds a named component check.
func (m *Manager) Register(name string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

// Evaluate runs all checks and returns per-component failure messages.
func (m *Manager) Evaluate() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	failures := make(map[string]string)
	for name, check := range m.checks {
		if err := check(); err != nil {
			failures[name] = err.Error()
		}
	}
	return failures
}

// Uptime returns how long the service has been running.
func (m *Manager) Uptime() time.Duration {
	return time.Since(m.started)
}

// RegisterRoutes registers health endpoints with an HTTP mux.
func (m *Manager) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", m.handleHealth)
	mux.HandleFunc("/health/live", m.handleLiveness)
	mux.HandleFunc("/health/ready", m.handleHealth)
}

func (m *Manager) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	failures := m.Evaluate()
	status := "healthy"
	code := http.StatusOK
	if len(failures) > 0 {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]any{
		"status": status,
		"uptime": m.Uptime().String(),
	}
	if len(failures) > 0 {
		resp["failures"] = failures
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		m.logger.Warn("Failed to encode health response", zap.Error(err))
	}
}

func (m *Manager) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "alive"})
}
