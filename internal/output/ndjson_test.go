package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-qa/pulse/internal/domain"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(buf)
	var m map[string]interface{}
	require.NoError(t, dec.Decode(&m))
	return m
}

func TestWriteActivity(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	err := w.WriteActivity(&domain.ActivityLogEntry{
		ID:        "e-1",
		SessionID: "s-1",
		EventType: domain.EventStep,
		Title:     "Submit form",
		CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	m := decodeLine(t, buf)
	require.Equal(t, "activity", m["type"])
	require.EqualValues(t, 1, m["schemaVersion"])
	require.Equal(t, "e-1", m["id"])
	require.Equal(t, "s-1", m["session_id"])
	require.Equal(t, "step", m["event_type"])
	require.Equal(t, "Submit form", m["title"])
}

func TestWriteConnection(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	hb := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, w.WriteConnection(domain.ConnReconnecting, 2, hb))

	m := decodeLine(t, buf)
	require.Equal(t, "connection", m["type"])
	require.EqualValues(t, 1, m["schemaVersion"])
	require.Equal(t, "reconnecting", m["status"])
	require.EqualValues(t, 2, m["reconnect_attempt"])
	require.Equal(t, "2026-03-14T09:00:00Z", m["last_heartbeat_at"])
}

func TestWriteConnectionOmitsZeroHeartbeat(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteConnection(domain.ConnConnecting, 0, time.Time{}))

	m := decodeLine(t, buf)
	require.NotContains(t, m, "last_heartbeat_at")
}

func TestWriteSession(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteSession(&domain.LiveSession{
		ID:          "s-1",
		ProjectID:   "p-1",
		SessionType: domain.SessionTestRun,
		Status:      domain.SessionActive,
	}))

	m := decodeLine(t, buf)
	require.Equal(t, "session", m["type"])
	require.Equal(t, "s-1", m["id"])
	require.Equal(t, "active", m["status"])
}

func TestWriteError(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteError("STREAM_FAILED", "subscription lost", "check --server"))

	m := decodeLine(t, buf)
	require.Equal(t, "error", m["type"])
	require.Equal(t, "STREAM_FAILED", m["code"])
	require.Equal(t, "subscription lost", m["message"])
	require.Equal(t, "check --server", m["hint"])
}

func TestWriteErrorWithoutHint(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteError("BAD_FLAG", "nope"))

	m := decodeLine(t, buf)
	require.NotContains(t, m, "hint")
}

func TestTextWriterActivity(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewTextWriter(buf)

	require.NoError(t, w.WriteActivity(&domain.ActivityLogEntry{
		EventType: domain.EventThinking,
		Title:     "Weighing options",
		CreatedAt: time.Now(),
	}))

	out := buf.String()
	assert.Contains(t, out, "[thinking]")
	assert.Contains(t, out, "Weighing options")
}

func TestTextWriterConnection(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewTextWriter(buf)

	require.NoError(t, w.WriteConnection(domain.ConnReconnecting, 3, time.Time{}))
	assert.Contains(t, buf.String(), "reconnecting (attempt 3)")
}
