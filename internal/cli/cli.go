// Package cli wires the pulse commands: watching a live session's activity
// stream, producing demo sessions, listing sessions and running the relay.
package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/pulse-qa/pulse/internal/config"
)

// CLI is the root command structure parsed by kong.
type CLI struct {
	Server  string `help:"Relay/platform base URL" default:"${config_server}"`
	Format  string `help:"Output format: ndjson, text, or auto" enum:"ndjson,text,auto" default:"${config_format}"`
	Quiet   bool   `help:"Suppress non-essential output"`
	Verbose bool   `help:"Enable verbose debug logging"`

	Watch    WatchCmd    `cmd:"" help:"Follow a live session's activity stream"`
	Run      RunCmd      `cmd:"" help:"Drive a full demo session through the write path"`
	Sessions SessionsCmd `cmd:"" help:"List live sessions"`
	Relay    RelayCmd    `cmd:"" help:"Run the local relay server"`
	Config   ConfigCmd   `cmd:"" help:"Inspect and generate configuration"`
}

// Globals carries shared flags and streams into every command.
type Globals struct {
	Server  string
	Format  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config

	logger *zap.SugaredLogger
}

// NewGlobalsWithConfig builds Globals from parsed flags with config
// fallbacks. Format "auto" picks text on a terminal, ndjson otherwise.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Server:  c.Server,
		Format:  c.Format,
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
	if g.Server == "" {
		g.Server = cfg.Server
	}
	if g.Format == "" {
		g.Format = cfg.Format
	}
	if g.Format == "auto" {
		if isatty.IsTerminal(os.Stdout.Fd()) {
			g.Format = "text"
		} else {
			g.Format = "ndjson"
		}
	}
	g.logger = newLogger(g.Verbose).Sugar()
	return g
}

// Debug logs a verbose diagnostic line; a no-op unless --verbose is set.
func (g *Globals) Debug(format string, args ...interface{}) {
	if g == nil || g.logger == nil {
		return
	}
	g.logger.Debugf(format, args...)
}
