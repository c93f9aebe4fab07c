package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulse-qa/pulse/internal/domain"
	"github.com/pulse-qa/pulse/internal/filter"
	"github.com/pulse-qa/pulse/internal/output"
	"github.com/pulse-qa/pulse/internal/provider"
	"github.com/pulse-qa/pulse/internal/stream"
)

// WatchCmd follows a live session's activity stream, reconnecting with
// backoff when the subscription drops.
type WatchCmd struct {
	Session           string        `short:"s" required:"" help:"Live session ID to follow"`
	Where             []string      `short:"w" help:"Filter entries (e.g. 'event=step', 'duration>=500') - can be repeated (AND logic)"`
	ReconnectAttempts int           `help:"Automatic reconnect attempts before going dormant" default:"${config_reconnect_attempts}"`
	HeartbeatInterval time.Duration `help:"How often to check subscription liveness" default:"${config_heartbeat_interval}"`
	HeartbeatTimeout  time.Duration `help:"Silence after which the subscription is presumed dead" default:"${config_heartbeat_timeout}"`
}

func (c *WatchCmd) Run(globals *Globals) error {
	where, err := filter.NewWhereFilter(c.Where)
	if err != nil {
		return outputErrorCommon(globals, errCodeInvalidWhere, err.Error(),
			"expected field=value, field!=value, field~substr, field^prefix, field$suffix, duration>=ms")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newLogger(globals.Verbose)
	push := provider.NewWSPush(globals.Server, log)
	rest := provider.NewRESTClient(globals.Server, log)
	ctrl := stream.NewController(push, rest, stream.Options{
		Logger:            log,
		MaxAttempts:       c.ReconnectAttempts,
		HeartbeatInterval: c.HeartbeatInterval,
		HeartbeatTimeout:  c.HeartbeatTimeout,
	})
	defer ctrl.Close()

	var w output.Writer
	if globals.Format == "text" {
		w = output.NewTextWriter(globals.Stdout)
	} else {
		w = output.NewNDJSONWriter(globals.Stdout)
	}

	globals.Debug("watching session %s via %s", c.Session, globals.Server)
	ctrl.Open(ctx, c.Session)

	// Entries only ever grow for a single Open, so a cursor into the
	// snapshot slice is enough to emit each entry exactly once.
	printed := 0
	lastStatus := domain.ConnectionStatus("")
	emit := func() error {
		snap := ctrl.Snapshot()
		if snap.Status != lastStatus {
			lastStatus = snap.Status
			if !globals.Quiet {
				if err := w.WriteConnection(snap.Status, snap.ReconnectAttempt, snap.LastHeartbeatAt); err != nil {
					return err
				}
			}
		}
		for printed < len(snap.Entries) {
			e := snap.Entries[printed]
			printed++
			if !where.Match(&e) {
				continue
			}
			if err := w.WriteActivity(&e); err != nil {
				return err
			}
		}
		return nil
	}

	if err := emit(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ctrl.Updates():
			if err := emit(); err != nil {
				return err
			}
		}
	}
}
