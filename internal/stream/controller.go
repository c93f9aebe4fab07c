// Package stream owns one session's live activity feed: the connection state
// machine that keeps the push subscription alive across failures, and the
// ordered, deduplicated buffer of activity entries behind it.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/pulse-qa/pulse/internal/backoff"
	"github.com/pulse-qa/pulse/internal/domain"
	"github.com/pulse-qa/pulse/internal/provider"
)

const (
	// DefaultMaxAttempts bounds automatic reconnects before going dormant.
	DefaultMaxAttempts = 5
	// DefaultHeartbeatInterval is how often the staleness watchdog runs.
	DefaultHeartbeatInterval = 10 * time.Second
	// DefaultHeartbeatTimeout is the silence after which a connected
	// subscription is presumed dead.
	DefaultHeartbeatTimeout = 30 * time.Second
)

// Options tune a Controller. Zero values select the defaults above, a real
// clock, a time-seeded backoff policy and no logging.
type Options struct {
	Clock             clock.Clock
	Logger            *zap.Logger
	Backoff           *backoff.Policy
	MaxAttempts       int
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
}

// Snapshot is the read-only view handed to consumers.
type Snapshot struct {
	Entries          []domain.ActivityLogEntry
	Status           domain.ConnectionStatus
	ReconnectAttempt int
	LastHeartbeatAt  time.Time
	IsConnected      bool
	IsReconnecting   bool
}

// Controller composes the connection state machine with the activity buffer
// for a single session ID. All state transitions and buffer mutations are
// serialized behind one mutex; provider callbacks may arrive on the
// provider's own goroutine.
type Controller struct {
	push    provider.Push
	history provider.History
	clock   clock.Clock
	log     *zap.Logger
	policy  *backoff.Policy

	maxAttempts int
	hbInterval  time.Duration
	hbTimeout   time.Duration

	mu            sync.Mutex
	gen           int // incremented on every teardown; stale callbacks no-op
	sessionID     string
	status        domain.ConnectionStatus
	attempt       int
	lastHeartbeat time.Time
	buf           *Buffer
	handle        provider.Handle
	retryTimer    *clock.Timer
	hbTimer       *clock.Timer
	updates       chan struct{}
}

// NewController creates a controller over the given providers.
func NewController(push provider.Push, history provider.History, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Backoff == nil {
		opts.Backoff = backoff.New(nil)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if opts.HeartbeatTimeout <= 0 {
		opts.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	return &Controller{
		push:        push,
		history:     history,
		clock:       opts.Clock,
		log:         opts.Logger,
		policy:      opts.Backoff,
		maxAttempts: opts.MaxAttempts,
		hbInterval:  opts.HeartbeatInterval,
		hbTimeout:   opts.HeartbeatTimeout,
		status:      domain.ConnDisconnected,
		buf:         NewBuffer(),
		updates:     make(chan struct{}, 1),
	}
}

// Open starts the stream for sessionID: fetch the backlog, seed the buffer,
// then run the subscription open sequence. An empty sessionID short-circuits
// to disconnected without touching either provider. A prior stream is torn
// down first. Backlog fetch failures are swallowed (empty seed) so history
// unavailability never blocks live connectivity.
func (c *Controller) Open(ctx context.Context, sessionID string) {
	c.mu.Lock()
	c.teardownLocked()
	c.buf.Reset()
	c.sessionID = sessionID
	c.attempt = 0
	if sessionID == "" {
		c.status = domain.ConnDisconnected
		c.notifyLocked()
		c.mu.Unlock()
		return
	}
	c.status = domain.ConnConnecting
	c.notifyLocked()
	gen := c.gen
	c.mu.Unlock()

	entries, err := c.history.FetchBacklog(ctx, sessionID)
	if err != nil {
		c.log.Warn("backlog fetch failed, starting with empty history",
			zap.String("session_id", sessionID), zap.Error(err))
		entries = nil
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.buf.Seed(entries)
	c.notifyLocked()
	c.mu.Unlock()

	c.connect(gen)
}

// Close tears the stream down: subscription released, timers cancelled,
// buffer cleared, status disconnected.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.sessionID = ""
	c.status = domain.ConnDisconnected
	c.buf.Reset()
	c.notifyLocked()
}

// Reconnect tears down the current subscription and re-runs the open
// sequence with the attempt counter reset. Available in every state; a no-op
// without a session.
func (c *Controller) Reconnect() {
	c.mu.Lock()
	if c.sessionID == "" {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.attempt = 0
	gen := c.gen
	c.mu.Unlock()

	c.connect(gen)
}

// Snapshot returns the current entries and connection state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Entries:          c.buf.Snapshot(),
		Status:           c.status,
		ReconnectAttempt: c.attempt,
		LastHeartbeatAt:  c.lastHeartbeat,
		IsConnected:      c.status == domain.ConnConnected,
		IsReconnecting:   c.status == domain.ConnReconnecting,
	}
}

// Updates signals after appends and status transitions. The channel is
// 1-buffered and coalescing; consumers drain it and re-read Snapshot.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

// connect runs one subscription attempt for the given generation. The lock
// is released around the provider call so ack callbacks delivered
// synchronously from Subscribe cannot deadlock.
func (c *Controller) connect(gen int) {
	c.mu.Lock()
	if c.gen != gen || c.sessionID == "" {
		c.mu.Unlock()
		return
	}
	c.retryTimer = nil
	c.status = domain.ConnConnecting
	topic := provider.Topic(c.sessionID)
	c.notifyLocked()
	c.mu.Unlock()

	handle, err := c.push.Subscribe(topic,
		func(e domain.ActivityLogEntry) { c.onEvent(gen, e) },
		func(s provider.PushStatus) { c.onStatus(gen, s) },
	)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		if handle != nil {
			handle.Unsubscribe()
		}
		return
	}
	if err != nil {
		c.log.Debug("subscribe failed", zap.String("topic", topic), zap.Error(err))
		c.failLocked()
		return
	}
	if c.status != domain.ConnConnecting && c.status != domain.ConnConnected {
		// A failure or peer close raced ahead of the handle store.
		handle.Unsubscribe()
		return
	}
	c.handle = handle
}

// onEvent handles one pushed entry. Every delivery refreshes the heartbeat,
// including duplicates the buffer rejects.
func (c *Controller) onEvent(gen int, e domain.ActivityLogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.lastHeartbeat = c.clock.Now()
	if c.buf.Append(e) {
		c.notifyLocked()
	}
}

// onStatus handles subscription lifecycle signals from the provider.
func (c *Controller) onStatus(gen int, s provider.PushStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	switch s {
	case provider.StatusSubscribed:
		c.status = domain.ConnConnected
		c.attempt = 0
		c.lastHeartbeat = c.clock.Now()
		c.scheduleHeartbeatLocked()
		c.log.Debug("connected", zap.String("session_id", c.sessionID))
		c.notifyLocked()
	case provider.StatusClosed:
		// Deliberate closure by the peer: no automatic reconnect.
		c.releaseLocked()
		c.status = domain.ConnDisconnected
		c.log.Debug("closed by peer", zap.String("session_id", c.sessionID))
		c.notifyLocked()
	case provider.StatusError, provider.StatusTimeout:
		c.failLocked()
	}
}

// failLocked is the single failure path: release the subscription, then
// either schedule the next attempt with backoff or go dormant once the
// budget is spent. Dormant means status error until Reconnect.
func (c *Controller) failLocked() {
	c.releaseLocked()
	if c.attempt >= c.maxAttempts {
		c.status = domain.ConnError
		c.log.Warn("reconnect attempts exhausted",
			zap.String("session_id", c.sessionID), zap.Int("attempts", c.attempt))
		c.notifyLocked()
		return
	}

	delay := c.policy.Delay(c.attempt)
	c.attempt++
	c.status = domain.ConnReconnecting
	gen := c.gen
	c.log.Info("scheduling reconnect",
		zap.String("session_id", c.sessionID),
		zap.Int("attempt", c.attempt),
		zap.Duration("delay", delay))
	c.retryTimer = c.clock.AfterFunc(delay, func() { c.connect(gen) })
	c.notifyLocked()
}

// scheduleHeartbeatLocked arms the next staleness check.
func (c *Controller) scheduleHeartbeatLocked() {
	if c.hbTimer != nil {
		c.hbTimer.Stop()
	}
	gen := c.gen
	c.hbTimer = c.clock.AfterFunc(c.hbInterval, func() { c.heartbeatCheck(gen) })
}

// heartbeatCheck forces a fresh open sequence when a connected subscription
// has been silent past the timeout. Guards against connections that die
// without ever signalling closure.
func (c *Controller) heartbeatCheck(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.status != domain.ConnConnected {
		return
	}
	if c.clock.Now().Sub(c.lastHeartbeat) > c.hbTimeout {
		c.log.Warn("heartbeat stale, reopening subscription",
			zap.String("session_id", c.sessionID),
			zap.Time("last_heartbeat", c.lastHeartbeat))
		c.failLocked()
		return
	}
	c.scheduleHeartbeatLocked()
}

// releaseLocked drops the subscription handle and stops the watchdog.
func (c *Controller) releaseLocked() {
	if c.handle != nil {
		c.handle.Unsubscribe()
		c.handle = nil
	}
	if c.hbTimer != nil {
		c.hbTimer.Stop()
		c.hbTimer = nil
	}
}

// teardownLocked cancels every timer, releases the subscription and bumps
// the generation so in-flight callbacks and fired timers become no-ops.
func (c *Controller) teardownLocked() {
	c.gen++
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.releaseLocked()
}

// notifyLocked coalesces an update signal.
func (c *Controller) notifyLocked() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
