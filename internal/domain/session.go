package domain

import (
	"strings"
	"time"
)

// SessionType identifies what kind of automated run a live session tracks.
type SessionType string

const (
	SessionDiscovery    SessionType = "discovery"
	SessionVisualTest   SessionType = "visual_test"
	SessionTestRun      SessionType = "test_run"
	SessionQualityAudit SessionType = "quality_audit"
	SessionGlobalTest   SessionType = "global_test"
)

// SessionStatus is the lifecycle state of a live session record.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
)

// LiveSession is a server-tracked record of one in-progress automated run.
// Activity log entries attach to it via SessionID.
type LiveSession struct {
	ID                string         `json:"id"`
	ProjectID         string         `json:"project_id"`
	SessionType       SessionType    `json:"session_type"`
	Status            SessionStatus  `json:"status"`
	CurrentStep       string         `json:"current_step,omitempty"`
	TotalSteps        int            `json:"total_steps"`
	CompletedSteps    int            `json:"completed_steps"`
	LastScreenshotURL string         `json:"last_screenshot_url,omitempty"`
	StartedAt         time.Time      `json:"started_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// Terminal reports whether the session can no longer produce activity.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionFailed, SessionCancelled:
		return true
	}
	return false
}

// ParseSessionType converts a string to a SessionType, defaulting to test_run.
func ParseSessionType(s string) SessionType {
	switch strings.ToLower(s) {
	case "discovery":
		return SessionDiscovery
	case "visual_test":
		return SessionVisualTest
	case "test_run":
		return SessionTestRun
	case "quality_audit":
		return SessionQualityAudit
	case "global_test":
		return SessionGlobalTest
	default:
		return SessionTestRun
	}
}
