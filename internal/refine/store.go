package refine

import (
	"context"
	"sync"
	"time"

	"clyptusrank/internal/errors"
	"clyptusrank/internal/observability"

	"github.com/google/uuid"
)

// Store keeps refinement sessions in memory, keyed by random IDs. Sessions
// idle for longer than the TTL are evicted by a background sweep.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	lastSeen map[string]time.Time

	ttl         time.Duration
	maxSessions int
	done        chan struct{}
	closeOnce   sync.Once
	now         func() time.Time

	obs    *observability.ObservabilityManager
	logger *errors.Logger
}

// NewStore creates a Store. maxSessions of zero means unlimited; a sweep
// interval of zero disables the background cleanup.
func NewStore(ttl, sweepInterval time.Duration, maxSessions int, obs *observability.ObservabilityManager, logger *errors.Logger) *Store {
	s := &Store{
		sessions:    make(map[string]*Session),
		lastSeen:    make(map[string]time.Time),
		ttl:         ttl,
		maxSessions: maxSessions,
		done:        make(chan struct{}),
		now:         time.Now,
		obs:         obs,
		logger:      logger,
	}
	if sweepInterval > 0 {
		go s.cleanupRoutine(sweepInterval)
	}
	return s
}

// Add registers session and returns its ID. When the store is full the
// least recently used session makes room.
func (s *Store) Add(session *Session) string {
	id := uuid.NewString()

	s.mu.Lock()
	evicted := 0
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		evicted = s.evictExpiredLocked()
		for len(s.sessions) >= s.maxSessions {
			s.removeLocked(s.oldestLocked())
			evicted++
		}
	}
	s.sessions[id] = session
	s.lastSeen[id] = s.now()
	count := len(s.sessions)
	s.mu.Unlock()

	s.obs.GetMetrics().AdjustActiveSessions(context.Background(), int64(1-evicted), s.obs)
	s.logger.Debug("Session created", "session_id", id, "active_sessions", count, "evicted", evicted)
	return id
}

// Get returns the session for id and marks it as used
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeSessionNotFound, "Session not found.", nil).
			WithContext("session_id", id)
	}
	s.lastSeen[id] = s.now()
	return session, nil
}

// Delete drops the session and reports whether it existed
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	if ok {
		s.removeLocked(id)
	}
	s.mu.Unlock()

	if ok {
		s.obs.GetMetrics().AdjustActiveSessions(context.Background(), -1, s.obs)
	}
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// GetStats returns session store statistics
func (s *Store) GetStats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"active_sessions": len(s.sessions),
		"max_sessions":    s.maxSessions,
		"session_ttl":     s.ttl.String(),
	}
}

// Close stops the cleanup goroutine
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Store) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

// cleanup evicts sessions idle for longer than the TTL
func (s *Store) cleanup() int {
	s.mu.Lock()
	evicted := s.evictExpiredLocked()
	remaining := len(s.sessions)
	s.mu.Unlock()

	if evicted > 0 {
		s.obs.GetMetrics().AdjustActiveSessions(context.Background(), int64(-evicted), s.obs)
	}
	s.logger.Debug("Session cleanup completed", "evicted", evicted, "remaining_sessions", remaining)
	return evicted
}

func (s *Store) evictExpiredLocked() int {
	now := s.now()
	evicted := 0
	for id, lastSeen := range s.lastSeen {
		if now.Sub(lastSeen) > s.ttl {
			s.removeLocked(id)
			evicted++
		}
	}
	return evicted
}

func (s *Store) oldestLocked() string {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, lastSeen := range s.lastSeen {
		if oldestID == "" || lastSeen.Before(oldest) {
			oldestID, oldest = id, lastSeen
		}
	}
	return oldestID
}

func (s *Store) removeLocked(id string) {
	delete(s.sessions, id)
	delete(s.lastSeen, id)
}
