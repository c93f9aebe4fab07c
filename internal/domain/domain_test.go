package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionType(t *testing.T) {
	tests := []struct {
		input    string
		expected SessionType
	}{
		{"discovery", SessionDiscovery},
		{"Discovery", SessionDiscovery},
		{"visual_test", SessionVisualTest},
		{"test_run", SessionTestRun},
		{"quality_audit", SessionQualityAudit},
		{"global_test", SessionGlobalTest},
		{"unknown", SessionTestRun},
		{"", SessionTestRun},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSessionType(tt.input))
		})
	}
}

func TestParseEventType(t *testing.T) {
	tests := []struct {
		input    string
		expected EventType
	}{
		{"started", EventStarted},
		{"step", EventStep},
		{"Step", EventStep},
		{"screenshot", EventScreenshot},
		{"thinking", EventThinking},
		{"action", EventAction},
		{"error", EventError},
		{"completed", EventCompleted},
		{"cancelled", EventCancelled},
		{"unknown", EventAction},
		{"", EventAction},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseEventType(tt.input))
		})
	}
}

func TestSessionStatusTerminal(t *testing.T) {
	assert.False(t, SessionActive.Terminal())
	assert.True(t, SessionCompleted.Terminal())
	assert.True(t, SessionFailed.Terminal())
	assert.True(t, SessionCancelled.Terminal())
	assert.False(t, SessionStatus("unknown").Terminal())
}

func TestActivityLogEntryWireFormat(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	entry := ActivityLogEntry{
		ID:           "e-1",
		ProjectID:    "p-1",
		SessionID:    "s-1",
		ActivityType: SessionTestRun,
		EventType:    EventStep,
		Title:        "Login form submitted",
		DurationMs:   420,
		CreatedAt:    created,
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Equal(t, "e-1", m["id"])
	assert.Equal(t, "s-1", m["session_id"])
	assert.Equal(t, "test_run", m["activity_type"])
	assert.Equal(t, "step", m["event_type"])
	assert.Equal(t, "Login form submitted", m["title"])
	assert.EqualValues(t, 420, m["duration_ms"])
	// Optional fields stay off the wire when unset
	assert.NotContains(t, m, "description")
	assert.NotContains(t, m, "screenshot_url")
	assert.NotContains(t, m, "metadata")
}

func TestLiveSessionWireFormat(t *testing.T) {
	s := LiveSession{
		ID:          "s-1",
		ProjectID:   "p-1",
		SessionType: SessionDiscovery,
		Status:      SessionActive,
		TotalSteps:  5,
		StartedAt:   time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Equal(t, "discovery", m["session_type"])
	assert.Equal(t, "active", m["status"])
	assert.EqualValues(t, 5, m["total_steps"])
	assert.EqualValues(t, 0, m["completed_steps"])
	assert.NotContains(t, m, "completed_at")
	assert.NotContains(t, m, "current_step")
}
