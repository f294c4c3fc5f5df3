package memory

import (
	"sync"

	"provincie-quiz-service/internal/quiz"
)

// SessionFactory builds a fresh quiz session; the CLI wires variant, delays,
// and the audit callback into it.
type SessionFactory func(sessionID string) *quiz.Session

// SessionStore is an in-memory implementation of quiz.SessionRepository.
type SessionStore struct {
	factory  SessionFactory
	mu       sync.RWMutex
	sessions map[string]*quiz.Session
}

func NewSessionStore(factory SessionFactory) *SessionStore {
	return &SessionStore{
		factory:  factory,
		sessions: make(map[string]*quiz.Session),
	}
}

func (s *SessionStore) GetOrCreate(sessionID string) *quiz.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		return session
	}
	session := s.factory(sessionID)
	s.sessions[sessionID] = session
	return session
}

func (s *SessionStore) Get(sessionID string) (*quiz.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) DeleteIfEmpty(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	if session.IsEmpty() {
		delete(s.sessions, sessionID)
	}
}
