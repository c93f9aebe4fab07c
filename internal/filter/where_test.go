package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-qa/pulse/internal/domain"
)

func TestParseWhereClause(t *testing.T) {
	tests := []struct {
		clause   string
		field    string
		operator string
		value    string
	}{
		{"event=step", "event", "=", "step"},
		{"event!=thinking", "event", "!=", "thinking"},
		{"title~timeout", "title", "~", "timeout"},
		{"title!~noise", "title", "!~", "noise"},
		{"title^Login", "title", "^", "Login"},
		{"screenshot$.png", "screenshot", "$", ".png"},
		{"duration>=500", "duration", ">=", "500"},
		{"duration<=100", "duration", "<=", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			wc, err := ParseWhereClause(tt.clause)
			require.NoError(t, err)
			assert.Equal(t, tt.field, wc.Field)
			assert.Equal(t, tt.operator, wc.Operator)
			assert.Equal(t, tt.value, wc.Value)
		})
	}
}

func TestParseWhereClauseErrors(t *testing.T) {
	for _, clause := range []string{"noop", "=step", "event=", "title~[unclosed"} {
		t.Run(clause, func(t *testing.T) {
			_, err := ParseWhereClause(clause)
			assert.Error(t, err)
		})
	}
}

func TestWhereClauseMatch(t *testing.T) {
	entry := &domain.ActivityLogEntry{
		ProjectID:    "p-1",
		SessionID:    "s-1",
		ActivityType: domain.SessionTestRun,
		EventType:    domain.EventStep,
		Title:        "Login form submitted",
		DurationMs:   750,
	}

	tests := []struct {
		clause string
		want   bool
	}{
		{"event=step", true},
		{"event=error", false},
		{"event!=error", true},
		{"type=test_run", true},
		{"title~form", true},
		{"title~^Login", true},
		{"title!~crash", true},
		{"title^Login", true},
		{"title$submitted", true},
		{"session=s-1", true},
		{"project=p-2", false},
		{"duration>=500", true},
		{"duration>=1000", false},
		{"duration<=750", true},
	}

	for _, tt := range tests {
		t.Run(tt.clause, func(t *testing.T) {
			wc, err := ParseWhereClause(tt.clause)
			require.NoError(t, err)
			assert.Equal(t, tt.want, wc.Match(entry))
		})
	}
}

func TestWhereFilterAndLogic(t *testing.T) {
	f, err := NewWhereFilter([]string{"event=step", "duration>=500"})
	require.NoError(t, err)

	slow := &domain.ActivityLogEntry{EventType: domain.EventStep, DurationMs: 900}
	fast := &domain.ActivityLogEntry{EventType: domain.EventStep, DurationMs: 10}
	other := &domain.ActivityLogEntry{EventType: domain.EventThinking, DurationMs: 900}

	assert.True(t, f.Match(slow))
	assert.False(t, f.Match(fast))
	assert.False(t, f.Match(other))
}

func TestNilFilterAllowsAll(t *testing.T) {
	f, err := NewWhereFilter(nil)
	require.NoError(t, err)
	require.Nil(t, f)
	assert.True(t, f.Match(&domain.ActivityLogEntry{}))
}
