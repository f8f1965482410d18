package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleTTL is how long an untouched session survives.
const DefaultIdleTTL = 2 * time.Hour

// Store is an in-memory session registry. Sessions are never persisted;
// idle ones are evicted by a background sweep.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	idleTTL  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store and starts its eviction sweep.
// A non-positive idleTTL uses DefaultIdleTTL.
func NewStore(idleTTL time.Duration) *Store {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	s := &Store{
		sessions: make(map[uuid.UUID]*Session),
		idleTTL:  idleTTL,
		stopCh:   make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Create registers a new session and returns it.
func (s *Store) Create() *Session {
	sess := newSession()
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// With runs fn with the session under the store lock, serializing all
// mutations of that session. fn errors are returned unchanged.
func (s *Store) With(id uuid.UUID, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return &ErrNotFound{ID: id}
	}
	return fn(sess)
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Stop terminates the eviction sweep.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Store) sweep() {
	interval := s.idleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-s.idleTTL)
			s.mu.Lock()
			for id, sess := range s.sessions {
				if sess.UpdatedAt.Before(cutoff) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
