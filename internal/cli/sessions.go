package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/pulse-qa/pulse/internal/domain"
	"github.com/pulse-qa/pulse/internal/output"
	"github.com/pulse-qa/pulse/internal/provider"
)

// SessionsCmd lists live sessions known to the platform.
type SessionsCmd struct {
	Project string `short:"p" help:"Filter by project ID (falls back to defaults.project_id)"`
	Status  string `help:"Filter by status: active, completed, failed, cancelled"`
	All     bool   `short:"a" help:"List sessions across all projects"`
}

func (c *SessionsCmd) Run(globals *Globals) error {
	project := c.Project
	if project == "" && !c.All {
		project = globals.Config.Defaults.ProjectID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rest := provider.NewRESTClient(globals.Server, newLogger(globals.Verbose))
	sessions, err := rest.ListSessions(ctx, project, domain.SessionStatus(c.Status))
	if err != nil {
		return outputErrorCommon(globals, errCodeServer, err.Error(), "is the relay running?")
	}

	// Newest first.
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})

	if globals.Format != "text" {
		w := output.NewNDJSONWriter(globals.Stdout)
		for i := range sessions {
			if err := w.WriteSession(&sessions[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if len(sessions) == 0 {
		fmt.Fprintln(globals.Stdout, "No sessions found.")
		return nil
	}

	table := tablewriter.NewTable(globals.Stdout)
	table.Header("ID", "PROJECT", "TYPE", "STATUS", "STEPS", "CURRENT STEP", "STARTED")
	rows := lo.Map(sessions, func(s domain.LiveSession, _ int) []string {
		return []string{
			s.ID,
			s.ProjectID,
			string(s.SessionType),
			string(s.Status),
			strconv.Itoa(s.CompletedSteps) + "/" + strconv.Itoa(s.TotalSteps),
			s.CurrentStep,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
		}
	})
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
