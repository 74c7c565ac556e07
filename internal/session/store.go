// Package session holds research-session state for the lifetime of the
// process. The store is safe for concurrent use and enforces single-writer
// discipline per session through an explicit writer guard.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tositon/OpenDeepSearch/internal/metrics"
	"github.com/tositon/OpenDeepSearch/internal/research"
)

var (
	// ErrNotFound is returned when a session id is unknown.
	ErrNotFound = errors.New("session not found")

	// ErrBusy is returned when a session already has a writer in flight.
	ErrBusy = errors.New("session is busy")
)

// Policy bounds the store: at most MaxSessions entries, each evicted after
// sitting idle for TTL. Zero values disable the respective bound.
type Policy struct {
	MaxSessions int
	TTL         time.Duration
}

// DefaultPolicy is the production default.
var DefaultPolicy = Policy{
	MaxSessions: 1000,
	TTL:         24 * time.Hour,
}

// Entry wraps one stored session. State mutations go through Update and
// reads through View, both held only for short critical sections. Long
// operations (a continue with its external search call) first claim the
// writer guard via Acquire so concurrent writers are rejected rather than
// interleaved.
type Entry struct {
	mu     sync.RWMutex
	writer sync.Mutex
	sess   *research.Session
}

// Acquire claims the per-session writer guard, returning a release func.
// A second concurrent writer receives ErrBusy.
func (e *Entry) Acquire() (func(), error) {
	if !e.writer.TryLock() {
		return nil, ErrBusy
	}
	return e.writer.Unlock, nil
}

// idle reports whether no writer currently holds the guard.
func (e *Entry) idle() bool {
	if e.writer.TryLock() {
		e.writer.Unlock()
		return true
	}
	return false
}

// Update runs fn with exclusive access to the session state.
func (e *Entry) Update(fn func(*research.Session)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sess)
}

// View runs fn with shared read access to the session state. fn must not
// retain or mutate the session.
func (e *Entry) View(fn func(*research.Session)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.sess)
}

// Snapshot returns a deep copy of the session state.
func (e *Entry) Snapshot() *research.Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sess.Clone()
}

// Store is an in-memory keyed holder of research sessions with an injected
// eviction policy.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	access  map[string]time.Time
	policy  Policy
	logger  *zap.Logger
}

// NewStore creates a store with the given eviction policy. A nil logger
// falls back to a no-op logger.
func NewStore(policy Policy, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		entries: make(map[string]*Entry),
		access:  make(map[string]time.Time),
		policy:  policy,
		logger:  logger,
	}
}

// SetPolicy replaces the eviction policy and immediately enforces the new
// MaxSessions bound. Used by config hot-reload.
func (s *Store) SetPolicy(policy Policy) {
	s.mu.Lock()
	s.policy = policy
	s.evictOverflowLocked()
	metrics.SessionsActive.Set(float64(len(s.entries)))
	s.mu.Unlock()
	s.logger.Info("Session store policy updated",
		zap.Int("max_sessions", policy.MaxSessions),
		zap.Duration("ttl", policy.TTL),
	)
}

// Put stores a new session, evicting least-recently-used entries when the
// policy's MaxSessions bound is exceeded.
func (s *Store) Put(sess *research.Session) *Entry {
	entry := &Entry{sess: sess}

	s.mu.Lock()
	s.entries[sess.ID] = entry
	s.access[sess.ID] = time.Now()
	s.evictOverflowLocked()
	metrics.SessionsActive.Set(float64(len(s.entries)))
	s.mu.Unlock()

	metrics.SessionsCreated.Inc()
	s.logger.Info("Stored new research session",
		zap.String("session_id", sess.ID),
	)
	return entry
}

// Get returns the entry for id, refreshing its access time.
func (s *Store) Get(id string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.access[id] = time.Now()
	return entry, nil
}

// Delete removes a session. Unknown ids are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	delete(s.access, id)
	metrics.SessionsActive.Set(float64(len(s.entries)))
	s.mu.Unlock()
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SweepExpired removes sessions idle beyond the policy TTL and returns how
// many were removed. A zero TTL disables sweeping. Sessions with a writer in
// flight survive the sweep.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy.TTL <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-s.policy.TTL)

	removed := 0
	for id, last := range s.access {
		if !last.Before(cutoff) {
			continue
		}
		if e := s.entries[id]; e != nil && !e.idle() {
			continue
		}
		delete(s.entries, id)
		delete(s.access, id)
		removed++
		metrics.SessionsEvicted.Inc()
	}
	if removed > 0 {
		metrics.SessionsActive.Set(float64(len(s.entries)))
		s.logger.Info("Swept idle sessions", zap.Int("count", removed))
	}
	return removed
}

// StartJanitor sweeps expired sessions on the given interval until ctx is
// cancelled. The janitor runs even when the initial TTL is zero so that a
// hot-reloaded TTL takes effect without a restart.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepExpired()
			}
		}
	}()
}

// evictOverflowLocked removes least-recently-used entries until the
// MaxSessions bound holds. Entries with a writer in flight are not eviction
// candidates; the bound may be exceeded transiently while writers finish.
// Caller must hold s.mu.
func (s *Store) evictOverflowLocked() {
	if s.policy.MaxSessions <= 0 {
		return
	}
	for len(s.entries) > s.policy.MaxSessions {
		oldestID := ""
		var oldest time.Time
		for id, last := range s.access {
			if oldestID != "" && !last.Before(oldest) {
				continue
			}
			if e := s.entries[id]; e != nil && !e.idle() {
				continue
			}
			oldestID = id
			oldest = last
		}
		if oldestID == "" {
			return
		}
		delete(s.entries, oldestID)
		delete(s.access, oldestID)
		metrics.SessionsEvicted.Inc()
		s.logger.Info("Evicted session over capacity",
			zap.String("session_id", oldestID),
		)
	}
}
