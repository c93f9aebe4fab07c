package relay

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulse-qa/pulse/internal/domain"
	"github.com/pulse-qa/pulse/internal/provider"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = fmt.Errorf("session not found")

// Store keeps sessions and their activity logs in memory. Activity lists are
// append-ordered, which matches created_at order since the relay assigns the
// timestamps.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*domain.LiveSession
	activities map[string][]domain.ActivityLogEntry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions:   make(map[string]*domain.LiveSession),
		activities: make(map[string][]domain.ActivityLogEntry),
	}
}

// CreateSession assigns an ID, defaults status and start time, and persists
// the session.
func (s *Store) CreateSession(in domain.LiveSession) *domain.LiveSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	in.ID = uuid.New().String()
	if in.Status == "" {
		in.Status = domain.SessionActive
	}
	if in.StartedAt.IsZero() {
		in.StartedAt = time.Now().UTC()
	}
	cp := in
	s.sessions[in.ID] = &cp
	out := in
	return &out
}

// GetSession returns a copy of the session.
func (s *Store) GetSession(id string) (*domain.LiveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

// UpdateSession applies a partial patch and returns the updated copy.
func (s *Store) UpdateSession(id string, patch provider.SessionPatch) (*domain.LiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Status != nil {
		sess.Status = *patch.Status
	}
	if patch.CurrentStep != nil {
		sess.CurrentStep = *patch.CurrentStep
	}
	if patch.CompletedSteps != nil {
		sess.CompletedSteps = *patch.CompletedSteps
	}
	if patch.LastScreenshotURL != nil {
		sess.LastScreenshotURL = *patch.LastScreenshotURL
	}
	if patch.CompletedAt != nil {
		t := *patch.CompletedAt
		sess.CompletedAt = &t
	}
	cp := *sess
	return &cp, nil
}

// ListSessions returns sessions matching the optional project and status
// filters, in unspecified order.
func (s *Store) ListSessions(projectID string, status domain.SessionStatus) []domain.LiveSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LiveSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if projectID != "" && sess.ProjectID != projectID {
			continue
		}
		if status != "" && sess.Status != status {
			continue
		}
		out = append(out, *sess)
	}
	return out
}

// AppendActivity assigns an ID and timestamp, validates the session exists,
// and appends the entry to the session's log.
func (s *Store) AppendActivity(in domain.ActivityLogEntry) (*domain.ActivityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[in.SessionID]; !ok {
		return nil, ErrNotFound
	}
	in.ID = uuid.New().String()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	s.activities[in.SessionID] = append(s.activities[in.SessionID], in)
	out := in
	return &out, nil
}

// ListActivities returns a copy of the session's log, ascending by creation.
func (s *Store) ListActivities(sessionID string) []domain.ActivityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.activities[sessionID]
	out := make([]domain.ActivityLogEntry, len(entries))
	copy(out, entries)
	return out
}
