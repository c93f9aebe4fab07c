package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/pulse-qa/pulse/internal/cli"
	"github.com/pulse-qa/pulse/internal/config"
)

const quickStart = `pulse - live activity streams for automated QA sessions

Quick start:
  pulse relay                           Run the local relay server
  pulse run -p PROJECT_ID               Produce a demo session
  pulse watch -s SESSION_ID             Follow a session's activity stream
  pulse sessions -p PROJECT_ID          List sessions

For help:
  pulse --help                          All commands and flags
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing
	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_server":             cfg.Server,
		"config_format":             cfg.Format,
		"config_reconnect_attempts": strconv.Itoa(cfg.Defaults.ReconnectAttempts),
		"config_heartbeat_interval": cfg.Defaults.HeartbeatInterval,
		"config_heartbeat_timeout":  cfg.Defaults.HeartbeatTimeout,
		"config_relay_addr":         cfg.Defaults.RelayAddr,
	}

	ctx := kong.Parse(&c,
		kong.Name("pulse"),
		kong.Description("Pulse: follow live QA session activity with resilient reconnection"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	// Create globals with config fallbacks
	globals := cli.NewGlobalsWithConfig(&c, cfg)
	err = ctx.Run(globals)
	if err != nil {
		os.Exit(1)
	}
}
