// Package provider defines the two narrow contracts the stream core consumes
// (push subscription, historical fetch) plus the write path used by the
// session lifecycle manager, and ships concrete implementations backed by the
// relay's websocket and REST endpoints.
package provider

import (
	"context"
	"time"

	"github.com/pulse-qa/pulse/internal/domain"
)

// PushStatus is a subscription lifecycle signal reported by a Push provider.
type PushStatus string

const (
	StatusSubscribed PushStatus = "subscribed"
	StatusError      PushStatus = "error"
	StatusTimeout    PushStatus = "timeout"
	StatusClosed     PushStatus = "closed"
)

// Topic returns the push topic carrying a session's activity stream.
func Topic(sessionID string) string {
	return "activity-" + sessionID
}

// Handle is a live push subscription. Unsubscribe must be idempotent and must
// not invoke the subscription's callbacks synchronously.
type Handle interface {
	Unsubscribe()
}

// Push opens server-pushed activity subscriptions. Implementations call
// onStatus with StatusSubscribed once the subscription is confirmed live,
// then onEvent for every delivered entry. Both callbacks may fire from the
// provider's own delivery goroutine.
type Push interface {
	Subscribe(topic string, onEvent func(domain.ActivityLogEntry), onStatus func(PushStatus)) (Handle, error)
}

// History fetches the activity backlog persisted before a subscription was
// established, ordered ascending by CreatedAt.
type History interface {
	FetchBacklog(ctx context.Context, sessionID string) ([]domain.ActivityLogEntry, error)
}

// SessionPatch is a partial update applied to a live session. Nil fields are
// left untouched.
type SessionPatch struct {
	Status            *domain.SessionStatus `json:"status,omitempty"`
	CurrentStep       *string               `json:"current_step,omitempty"`
	CompletedSteps    *int                  `json:"completed_steps,omitempty"`
	LastScreenshotURL *string               `json:"last_screenshot_url,omitempty"`
	CompletedAt       *time.Time            `json:"completed_at,omitempty"`
}

// Writer persists live sessions and activity entries. The backend assigns
// IDs and, when absent, timestamps.
type Writer interface {
	CreateSession(ctx context.Context, s domain.LiveSession) (*domain.LiveSession, error)
	UpdateSession(ctx context.Context, id string, patch SessionPatch) (*domain.LiveSession, error)
	AppendActivity(ctx context.Context, e domain.ActivityLogEntry) (*domain.ActivityLogEntry, error)
}
