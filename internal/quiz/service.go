package quiz

import (
	"context"
	"encoding/json"

	"provincie-quiz-service/internal/domain"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string) *Session
	Get(sessionID string) (*Session, bool)
	DeleteIfEmpty(sessionID string)
}

// GeometrySource provides the filtered Belgian map geometry for clients.
type GeometrySource interface {
	Geometry(ctx context.Context) (json.RawMessage, error)
}

// PhaseResultWriter persists the best-effort audit record of a finished map
// phase. Implementations must treat failures as non-fatal; the quiz never
// reads these records back.
type PhaseResultWriter interface {
	WritePhaseResult(ctx context.Context, sessionID string, res domain.PhaseResult) error
}

// QuizService contains the quiz use cases consumed by the transport layer.
type QuizService struct {
	sessions SessionRepository
	geometry GeometrySource
}

func NewQuizService(store SessionRepository, geometry GeometrySource) *QuizService {
	return &QuizService{sessions: store, geometry: geometry}
}

// Join creates or resumes a session and returns its state together with the
// map geometry. A geometry failure aborts the join: the map phases cannot run
// without shapes, and the client shows the error until it reconnects.
func (s *QuizService) Join(ctx context.Context, sessionID string) (Snapshot, json.RawMessage, error) {
	geo, err := s.geometry.Geometry(ctx)
	if err != nil {
		return Snapshot{}, nil, err
	}
	session := s.sessions.GetOrCreate(sessionID)
	return session.Snapshot(), geo, nil
}

// Click forwards a map click to the session. The bool reports whether the
// click was consumed; ineligible clicks are no-ops, not errors.
func (s *QuizService) Click(_ context.Context, sessionID, clickedID string) (domain.ClickResult, bool, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ClickResult{}, false, domain.ErrSessionNotFound
	}
	res, consumed := session.Click(clickedID)
	return res, consumed, nil
}

// Drop forwards a capital-matching drag to the session.
func (s *QuizService) Drop(_ context.Context, sessionID string, kind domain.SlotKind, row int, value string) (bool, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	return session.Drop(kind, row, value), nil
}

// SubmitFillIn scores the free-text sheet.
func (s *QuizService) SubmitFillIn(_ context.Context, sessionID string, sub domain.FillInSubmission) (domain.FillInScore, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.FillInScore{}, domain.ErrSessionNotFound
	}
	return session.SubmitFillIn(sub)
}

// Next advances a finished phase.
func (s *QuizService) Next(_ context.Context, sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Next()
}

// Restart re-enters the province phase from the results screen.
func (s *QuizService) Restart(_ context.Context, sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Restart()
}

// SetSound toggles speech events.
func (s *QuizService) SetSound(_ context.Context, sessionID string, on bool) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.SetSound(on)
	return nil
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan Event, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Leave drops the session once its last subscriber is gone.
func (s *QuizService) Leave(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	if session.IsEmpty() {
		s.sessions.DeleteIfEmpty(sessionID)
	}
}
