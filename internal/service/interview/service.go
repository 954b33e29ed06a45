package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
)

var (
	ErrRoleRequired    = errors.New("target role is required")
	ErrSessionNotFound = errors.New("session not found")
)

// Service encapsulates interview session state. Sessions live in memory for
// the duration of a connection; the gateway flushes transcripts to the
// document store when a session ends.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]interview.Session
	messages map[string][]interview.Message
}

// NewService bootstraps the in-memory interview session service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]interview.Session),
		messages: make(map[string][]interview.Message),
	}
}

// CreateSession provisions a session for one mock interview.
func (s *Service) CreateSession(_ context.Context, targetRole string, level interview.Level) (interview.Session, error) {
	targetRole = strings.TrimSpace(targetRole)
	if targetRole == "" {
		return interview.Session{}, ErrRoleRequired
	}

	session := interview.Session{
		ID:         uuid.NewString(),
		TargetRole: targetRole,
		Level:      level,
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]interview.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// SaveMessage appends one turn to the session history.
func (s *Service) SaveMessage(_ context.Context, message interview.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return nil
}

// SessionIDs lists the identifiers of all live sessions.
func (s *Service) SessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (interview.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return interview.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored turns for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]interview.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]interview.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// ResetHistory discards the session's accumulated turns. A restarted
// interview begins from a clean transcript.
func (s *Service) ResetHistory(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	s.messages[sessionID] = s.messages[sessionID][:0]
	return nil
}

// EndSession removes a session and returns its final transcript.
func (s *Service) EndSession(_ context.Context, sessionID string) ([]interview.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}

	transcript := s.messages[sessionID]
	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	return transcript, nil
}
