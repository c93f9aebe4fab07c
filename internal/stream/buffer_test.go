package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-qa/pulse/internal/domain"
)

func entry(id string, t time.Time) domain.ActivityLogEntry {
	return domain.ActivityLogEntry{
		ID:        id,
		SessionID: "s-1",
		EventType: domain.EventStep,
		Title:     "step " + id,
		CreatedAt: t,
	}
}

func TestBufferSnapshotBeforeSeed(t *testing.T) {
	b := NewBuffer()
	assert.Empty(t, b.Snapshot())
	assert.Zero(t, b.Len())
}

func TestBufferOrderingPreserved(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	b := NewBuffer()
	b.Seed([]domain.ActivityLogEntry{
		entry("a", base.Add(1*time.Second)),
		entry("b", base.Add(2*time.Second)),
	})
	require.True(t, b.Append(entry("c", base.Add(3*time.Second))))

	snap := b.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "a", snap[0].ID)
	assert.Equal(t, "b", snap[1].ID)
	assert.Equal(t, "c", snap[2].ID)
}

func TestBufferAppendIdempotent(t *testing.T) {
	b := NewBuffer()
	e := entry("dup", time.Now())

	require.True(t, b.Append(e))
	require.False(t, b.Append(e))
	assert.Equal(t, 1, b.Len())
}

func TestBufferAppendDedupesAgainstSeed(t *testing.T) {
	b := NewBuffer()
	e := entry("a", time.Now())
	b.Seed([]domain.ActivityLogEntry{e})

	assert.False(t, b.Append(e))
	assert.Equal(t, 1, b.Len())
}

func TestBufferSeedDropsInternalDuplicates(t *testing.T) {
	now := time.Now()
	b := NewBuffer()
	b.Seed([]domain.ActivityLogEntry{entry("a", now), entry("a", now), entry("b", now)})
	assert.Equal(t, 2, b.Len())
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	b := NewBuffer()
	b.Append(entry("a", time.Now()))

	snap := b.Snapshot()
	snap[0].ID = "mutated"

	assert.Equal(t, "a", b.Snapshot()[0].ID)
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer()
	b.Append(entry("a", time.Now()))
	b.Reset()

	assert.Zero(t, b.Len())
	// IDs from before the reset are appendable again
	assert.True(t, b.Append(entry("a", time.Now())))
}
