package assessment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/healthpredictor/core/form"
	"github.com/kilianp07/healthpredictor/core/metrics"
)

// ControllerFactory builds the controller of a new session.
type ControllerFactory func(sessionID string) *form.Controller

type session struct {
	ctrl     *form.Controller
	lastSeen time.Time
}

// SessionStore keeps one form controller per browser session in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	factory  ControllerFactory
	idle     time.Duration
	now      func() time.Time
	recorder metrics.SessionRecorder
}

// NewSessionStore creates a store. Sessions unused for idle are dropped by
// Sweep; zero keeps them forever.
func NewSessionStore(factory ControllerFactory, idle time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		factory:  factory,
		idle:     idle,
		now:      time.Now,
	}
}

// SetRecorder reports the number of live sessions to r after every change.
func (s *SessionStore) SetRecorder(r metrics.SessionRecorder) {
	s.mu.Lock()
	s.recorder = r
	s.mu.Unlock()
}

// Get returns the controller of id and refreshes its idle timer.
func (s *SessionStore) Get(id string) (*form.Controller, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.ctrl, true
}

// Create starts a new session with a fresh identifier.
func (s *SessionStore) Create() *form.Controller {
	id := uuid.NewString()
	ctrl := s.factory(id)
	s.mu.Lock()
	s.sessions[id] = &session{ctrl: ctrl, lastSeen: s.now()}
	n := len(s.sessions)
	rec := s.recorder
	s.mu.Unlock()
	if rec != nil {
		_ = rec.RecordActiveSessions(n)
	}
	return ctrl
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the configured delay and returns
// how many were removed.
func (s *SessionStore) Sweep() int {
	if s.idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idle)
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	rec := s.recorder
	s.mu.Unlock()
	if removed > 0 && rec != nil {
		_ = rec.RecordActiveSessions(n)
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if s.idle <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
