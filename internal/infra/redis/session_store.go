package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"provincie-quiz-service/internal/quiz"
)

// SessionFactory builds a fresh quiz session.
type SessionFactory func(sessionID string) *quiz.Session

// SessionStore is a Redis-aware implementation of quiz.SessionRepository.
// Sessions themselves stay in-process (the state machine and its broadcast
// fan-out are local); Redis carries a liveness marker per session so an
// operator can see which sessions exist across instances.
type SessionStore struct {
	client   *redis.Client
	factory  SessionFactory
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*quiz.Session
}

func NewSessionStore(client *redis.Client, factory SessionFactory, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		factory:  factory,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(sessionID), "1", s.ttl).Err()
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
		_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
