// Package output renders activity stream data as NDJSON (one schema-tagged
// object per line, for agents and pipelines) or plain text.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pulse-qa/pulse/internal/domain"
)

// SchemaVersion tags every NDJSON line so consumers can detect drift.
const SchemaVersion = 1

// Writer is the surface shared by the NDJSON and text renderers.
type Writer interface {
	WriteActivity(e *domain.ActivityLogEntry) error
	WriteConnection(status domain.ConnectionStatus, attempt int, lastHeartbeat time.Time) error
	WriteSession(s *domain.LiveSession) error
	WriteInfo(message string) error
}

// NDJSONWriter emits newline-delimited JSON objects. Safe for use from
// multiple goroutines.
type NDJSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewNDJSONWriter creates a writer targeting w.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

func (w *NDJSONWriter) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

type activityLine struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	domain.ActivityLogEntry
}

// WriteActivity emits one activity entry.
func (w *NDJSONWriter) WriteActivity(e *domain.ActivityLogEntry) error {
	return w.write(activityLine{Type: "activity", SchemaVersion: SchemaVersion, ActivityLogEntry: *e})
}

type connectionLine struct {
	Type             string `json:"type"`
	SchemaVersion    int    `json:"schemaVersion"`
	Status           string `json:"status"`
	ReconnectAttempt int    `json:"reconnect_attempt"`
	LastHeartbeatAt  string `json:"last_heartbeat_at,omitempty"`
}

// WriteConnection emits a connection status transition.
func (w *NDJSONWriter) WriteConnection(status domain.ConnectionStatus, attempt int, lastHeartbeat time.Time) error {
	line := connectionLine{
		Type:             "connection",
		SchemaVersion:    SchemaVersion,
		Status:           string(status),
		ReconnectAttempt: attempt,
	}
	if !lastHeartbeat.IsZero() {
		line.LastHeartbeatAt = lastHeartbeat.UTC().Format(time.RFC3339)
	}
	return w.write(line)
}

type sessionLine struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	domain.LiveSession
}

// WriteSession emits one live session record.
func (w *NDJSONWriter) WriteSession(s *domain.LiveSession) error {
	return w.write(sessionLine{Type: "session", SchemaVersion: SchemaVersion, LiveSession: *s})
}

type infoLine struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
}

// WriteInfo emits an informational message.
func (w *NDJSONWriter) WriteInfo(message string) error {
	return w.write(infoLine{Type: "info", SchemaVersion: SchemaVersion, Message: message})
}

type errorLine struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
}

// WriteError emits a coded, machine-readable failure.
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	line := errorLine{Type: "error", SchemaVersion: SchemaVersion, Code: code, Message: message}
	if len(hint) > 0 {
		line.Hint = hint[0]
	}
	return w.write(line)
}

// TextWriter renders the same data for humans.
type TextWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextWriter creates a text writer targeting w.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// WriteActivity renders one activity entry as a single line.
func (t *TextWriter) WriteActivity(e *domain.ActivityLogEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts := e.CreatedAt.Local().Format("15:04:05.000")
	if e.Description != "" {
		_, err := fmt.Fprintf(t.w, "%s  [%s] %s: %s\n", ts, e.EventType, e.Title, e.Description)
		return err
	}
	_, err := fmt.Fprintf(t.w, "%s  [%s] %s\n", ts, e.EventType, e.Title)
	return err
}

// WriteConnection renders a connection status transition.
func (t *TextWriter) WriteConnection(status domain.ConnectionStatus, attempt int, _ time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if status == domain.ConnReconnecting {
		_, err := fmt.Fprintf(t.w, "-- connection: %s (attempt %d)\n", status, attempt)
		return err
	}
	_, err := fmt.Fprintf(t.w, "-- connection: %s\n", status)
	return err
}

// WriteSession renders one live session record.
func (t *TextWriter) WriteSession(s *domain.LiveSession) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "session %s  %s/%s  %s  steps %d/%d\n",
		s.ID, s.ProjectID, s.SessionType, s.Status, s.CompletedSteps, s.TotalSteps)
	return err
}

// WriteInfo renders an informational message.
func (t *TextWriter) WriteInfo(message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "%s\n", message)
	return err
}
