package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pulse-qa/pulse/internal/relay"
)

// RelayCmd runs the local relay server: the REST API, activity ingest and
// the websocket fan-out that watchers subscribe to.
type RelayCmd struct {
	Addr    string `help:"Listen address" default:"${config_relay_addr}"`
	EnvFile string `help:"Optional .env file to load before starting" type:"existingfile" optional:""`
}

func (c *RelayCmd) Run(globals *Globals) error {
	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil {
			return err
		}
	} else {
		// Best effort: a missing .env in the working directory is fine.
		_ = godotenv.Load()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newServerLogger(globals.Verbose)
	defer func() { _ = log.Sync() }()

	srv := relay.NewServer(log)
	return srv.Run(ctx, c.Addr)
}
