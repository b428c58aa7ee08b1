package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/savaki/abbey/cmd/abbey/commands"
	"github.com/savaki/abbey/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "abbey",
		Usage: "Provision an instance and run an Ansible play against it",
		Description: `Launches a single EC2 instance whose user data clones the configuration
repositories and runs the requested play locally, then relays the play's status
messages from an SQS queue until interrupted.

This tool provides commands for:
  - Provisioning an instance and following its play (provision)
  - Publishing a single play lifecycle event from the instance (notify)
  - Publishing a stream of JSON lifecycle events read from stdin (relay)`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				EnvVars: []string{"ABBEY_DEBUG"},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logger = logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			commands.ProvisionCommand(&logger),
			commands.NotifyCommand(&logger),
			commands.RelayCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		stop()
		os.Exit(1)
	}
}
