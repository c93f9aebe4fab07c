package cli

import (
	"fmt"
	"os"

	"github.com/pulse-qa/pulse/internal/config"
)

// ConfigCmd groups the configuration subcommands.
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show the effective configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Print the path of the loaded config file"`
	Generate ConfigGenerateCmd `cmd:"" help:"Write a starter config file"`
}

// ConfigShowCmd prints the effective configuration after file and
// environment merging.
type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintf(globals.Stdout, "  server:  %s\n", cfg.Server)
	fmt.Fprintf(globals.Stdout, "  format:  %s\n", cfg.Format)
	fmt.Fprintf(globals.Stdout, "  quiet:   %t\n", cfg.Quiet)
	fmt.Fprintf(globals.Stdout, "  verbose: %t\n", cfg.Verbose)
	fmt.Fprintln(globals.Stdout, "  defaults:")
	fmt.Fprintf(globals.Stdout, "    project_id:         %s\n", cfg.Defaults.ProjectID)
	fmt.Fprintf(globals.Stdout, "    reconnect_attempts: %d\n", cfg.Defaults.ReconnectAttempts)
	fmt.Fprintf(globals.Stdout, "    heartbeat_interval: %s\n", cfg.Defaults.HeartbeatInterval)
	fmt.Fprintf(globals.Stdout, "    heartbeat_timeout:  %s\n", cfg.Defaults.HeartbeatTimeout)
	fmt.Fprintf(globals.Stdout, "    relay_addr:         %s\n", cfg.Defaults.RelayAddr)
	return nil
}

// ConfigPathCmd prints where the configuration was loaded from.
type ConfigPathCmd struct{}

func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()
	if path == "" {
		fmt.Fprintln(globals.Stdout, "No config file found (using defaults).")
		return nil
	}
	fmt.Fprintln(globals.Stdout, path)
	return nil
}

// ConfigGenerateCmd writes an annotated starter config.
type ConfigGenerateCmd struct {
	Output string `short:"o" help:"Destination path" default:"pulse.yaml"`
	Force  bool   `short:"f" help:"Overwrite an existing file"`
}

const starterConfig = `# pulse configuration
# Relay/platform base URL.
server: http://localhost:4983

# Output format: ndjson, text, or auto (text on a terminal).
format: ndjson

quiet: false
verbose: false

defaults:
  # Project ID used by producer commands when --project is omitted.
  project_id: ""

  # Watch settings.
  reconnect_attempts: 5
  heartbeat_interval: 10s
  heartbeat_timeout: 30s

  # Relay listen address.
  relay_addr: ":4983"
`

func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	if !c.Force {
		if _, err := os.Stat(c.Output); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", c.Output)
		}
	}
	if err := os.WriteFile(c.Output, []byte(starterConfig), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(globals.Stdout, "Wrote %s\n", c.Output)
	return nil
}
