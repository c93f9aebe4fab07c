// Package backoff computes reconnection delays for the activity stream:
// exponential growth per attempt with uniform jitter to avoid synchronized
// retry storms across viewers.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

const (
	// Base is the delay before the first retry, pre-jitter.
	Base = time.Second
	// Multiplier doubles the delay on every attempt.
	Multiplier = 2
	// Max caps the pre-jitter delay.
	Max = 30 * time.Second
	// JitterRatio spreads each delay uniformly within ±20%.
	JitterRatio = 0.2
)

// Policy computes reconnect delays. It carries its own random source so
// tests can make jitter deterministic.
type Policy struct {
	rng *rand.Rand
}

// New creates a Policy. A nil source falls back to a time-seeded one.
func New(src rand.Source) *Policy {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Policy{rng: rand.New(src)}
}

// Delay returns the wait before reconnect attempt number attempt (0-based).
// The result is floored to a whole millisecond and never negative.
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	raw := float64(Base) * math.Pow(Multiplier, float64(attempt))
	if raw > float64(Max) {
		raw = float64(Max)
	}
	jitter := (p.rng.Float64()*2 - 1) * JitterRatio * raw
	ms := int64((raw + jitter) / float64(time.Millisecond))
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}
