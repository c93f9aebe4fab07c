package domain

import (
	"strings"
	"time"
)

// EventType classifies a single activity log entry within a live session.
type EventType string

const (
	EventStarted    EventType = "started"
	EventStep       EventType = "step"
	EventScreenshot EventType = "screenshot"
	EventThinking   EventType = "thinking"
	EventAction     EventType = "action"
	EventError      EventType = "error"
	EventCompleted  EventType = "completed"
	EventCancelled  EventType = "cancelled"
)

// ActivityLogEntry is one immutable, timestamped event inside a live session.
// ID is the de-duplication key under at-least-once push delivery; CreatedAt
// is the authoritative ordering key.
type ActivityLogEntry struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	SessionID     string         `json:"session_id"`
	ActivityType  SessionType    `json:"activity_type"`
	EventType     EventType      `json:"event_type"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ScreenshotURL string         `json:"screenshot_url,omitempty"`
	DurationMs    int64          `json:"duration_ms,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ParseEventType converts a string to an EventType, defaulting to action.
func ParseEventType(s string) EventType {
	switch strings.ToLower(s) {
	case "started":
		return EventStarted
	case "step":
		return EventStep
	case "screenshot":
		return EventScreenshot
	case "thinking":
		return EventThinking
	case "action":
		return EventAction
	case "error":
		return EventError
	case "completed":
		return EventCompleted
	case "cancelled":
		return EventCancelled
	default:
		return EventAction
	}
}
