// Package session drives the producer side of a live session: create the
// session record, write activity entries through the write provider, and
// keep the session's progress counters current.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/pulse-qa/pulse/internal/domain"
	"github.com/pulse-qa/pulse/internal/provider"
)

// Manager owns at most one "current" live session for a project context.
// Construct one per project; the current pointer is instance state, never
// shared, so concurrent producers do not interfere.
type Manager struct {
	mu        sync.Mutex
	writer    provider.Writer
	clock     clock.Clock
	log       *zap.Logger
	projectID string
	current   *domain.LiveSession
}

// Options tune a Manager. Zero values select a real clock and no logging.
type Options struct {
	Clock  clock.Clock
	Logger *zap.Logger
}

// NewManager creates a manager writing sessions for projectID.
func NewManager(writer provider.Writer, projectID string, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{
		writer:    writer,
		clock:     opts.Clock,
		log:       opts.Logger,
		projectID: projectID,
	}
}

// StartSession creates an active live session and writes its started entry.
// Returns nil with no side effects when the manager has no project context.
// Starting while a session is already current overwrites the current
// pointer without completing the prior session; that session stays active
// server-side and remains the caller's responsibility.
func (m *Manager) StartSession(ctx context.Context, typ domain.SessionType, totalSteps int) (*domain.LiveSession, error) {
	if m.projectID == "" {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.log.Warn("starting session while another is current",
			zap.String("previous_session_id", m.current.ID),
			zap.String("project_id", m.projectID))
	}

	created, err := m.writer.CreateSession(ctx, domain.LiveSession{
		ProjectID:   m.projectID,
		SessionType: typ,
		Status:      domain.SessionActive,
		TotalSteps:  totalSteps,
		StartedAt:   m.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	cp := *created
	m.current = &cp

	if _, err := m.writer.AppendActivity(ctx, m.entryLocked(domain.EventStarted, "Session started", "", "")); err != nil {
		// The session record exists; keep it current so the caller can
		// still complete or cancel it.
		return created, fmt.Errorf("write started entry: %w", err)
	}

	return created, nil
}

// LogStep writes a step entry and advances the session's progress: increment
// completed steps, update the current step title and, when provided, the
// last screenshot. A no-op without a current session.
func (m *Manager) LogStep(ctx context.Context, title, description, screenshotURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}

	e := m.entryLocked(domain.EventStep, title, description, screenshotURL)
	if _, err := m.writer.AppendActivity(ctx, e); err != nil {
		return fmt.Errorf("write step entry: %w", err)
	}

	completed := m.current.CompletedSteps + 1
	patch := provider.SessionPatch{
		CompletedSteps: &completed,
		CurrentStep:    &title,
	}
	if screenshotURL != "" {
		patch.LastScreenshotURL = &screenshotURL
	}

	updated, err := m.writer.UpdateSession(ctx, m.current.ID, patch)
	if err != nil {
		return fmt.Errorf("update session progress: %w", err)
	}
	cp := *updated
	m.current = &cp
	return nil
}

// LogThinking writes a thinking entry without touching progress counters.
// A no-op without a current session.
func (m *Manager) LogThinking(ctx context.Context, text string) error {
	return m.logPlain(ctx, domain.EventThinking, text)
}

// LogError writes an error entry without touching progress counters.
// A no-op without a current session.
func (m *Manager) LogError(ctx context.Context, text string) error {
	return m.logPlain(ctx, domain.EventError, text)
}

func (m *Manager) logPlain(ctx context.Context, typ domain.EventType, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	if _, err := m.writer.AppendActivity(ctx, m.entryLocked(typ, text, "", "")); err != nil {
		return fmt.Errorf("write %s entry: %w", typ, err)
	}
	return nil
}

// CompleteSession writes the completed entry, transitions the session to
// completed or failed, and clears the current pointer. The pointer is only
// cleared once both writes succeed, so a failed completion leaves the
// session current for a retry. A no-op without a current session.
func (m *Manager) CompleteSession(ctx context.Context, success bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}

	title := "Completed successfully"
	status := domain.SessionCompleted
	if !success {
		title = "Failed"
		status = domain.SessionFailed
	}

	if _, err := m.writer.AppendActivity(ctx, m.entryLocked(domain.EventCompleted, title, "", "")); err != nil {
		return fmt.Errorf("write completed entry: %w", err)
	}

	completedAt := m.clock.Now()
	if _, err := m.writer.UpdateSession(ctx, m.current.ID, provider.SessionPatch{
		Status:      &status,
		CompletedAt: &completedAt,
	}); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	m.current = nil
	return nil
}

// Current returns a copy of the current session, or nil when none is active.
func (m *Manager) Current() *domain.LiveSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// entryLocked builds an activity entry attached to the current session.
func (m *Manager) entryLocked(typ domain.EventType, title, description, screenshotURL string) domain.ActivityLogEntry {
	return domain.ActivityLogEntry{
		ProjectID:     m.projectID,
		SessionID:     m.current.ID,
		ActivityType:  m.current.SessionType,
		EventType:     typ,
		Title:         title,
		Description:   description,
		ScreenshotURL: screenshotURL,
		CreatedAt:     m.clock.Now(),
	}
}
