package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulse-qa/pulse/internal/domain"
	"github.com/pulse-qa/pulse/internal/output"
	"github.com/pulse-qa/pulse/internal/provider"
	"github.com/pulse-qa/pulse/internal/session"
)

// RunCmd drives a demo session through the full write path: create, log a
// few steps, complete. Useful for exercising watchers against a relay.
type RunCmd struct {
	Project   string        `short:"p" help:"Project ID (falls back to defaults.project_id)"`
	Type      string        `help:"Session type: discovery, visual_test, test_run, quality_audit, global_test" default:"test_run"`
	Steps     int           `help:"Number of steps to log" default:"3"`
	StepDelay time.Duration `help:"Pause between steps" default:"500ms"`
}

func (c *RunCmd) Run(globals *Globals) error {
	project := c.Project
	if project == "" {
		project = globals.Config.Defaults.ProjectID
	}
	if project == "" {
		return outputErrorCommon(globals, errCodeProjectRequired,
			"no project ID given", "pass --project or set defaults.project_id")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newLogger(globals.Verbose)
	rest := provider.NewRESTClient(globals.Server, log)
	mgr := session.NewManager(rest, project, session.Options{Logger: log})

	var w output.Writer
	if globals.Format == "text" {
		w = output.NewTextWriter(globals.Stdout)
	} else {
		w = output.NewNDJSONWriter(globals.Stdout)
	}

	s, err := mgr.StartSession(ctx, domain.ParseSessionType(c.Type), c.Steps)
	if err != nil {
		return outputErrorCommon(globals, errCodeSessionFailed, err.Error(), "is the relay running?")
	}
	if !globals.Quiet {
		if err := w.WriteSession(s); err != nil {
			return err
		}
	}

	if err := mgr.LogThinking(ctx, fmt.Sprintf("Planning %d steps", c.Steps)); err != nil {
		return outputErrorCommon(globals, errCodeSessionFailed, err.Error(), "")
	}
	for i := 1; i <= c.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return mgr.CompleteSession(context.Background(), false)
		}
		title := fmt.Sprintf("Step %d", i)
		if err := mgr.LogStep(ctx, title, fmt.Sprintf("Executing step %d of %d", i, c.Steps), ""); err != nil {
			return outputErrorCommon(globals, errCodeSessionFailed, err.Error(), "")
		}
		globals.Debug("logged %s", title)
		if c.StepDelay > 0 && i < c.Steps {
			select {
			case <-ctx.Done():
			case <-time.After(c.StepDelay):
			}
		}
	}

	if err := mgr.CompleteSession(ctx, true); err != nil {
		return outputErrorCommon(globals, errCodeSessionFailed, err.Error(), "")
	}
	if !globals.Quiet {
		return w.WriteInfo(fmt.Sprintf("session %s completed", s.ID))
	}
	return nil
}
