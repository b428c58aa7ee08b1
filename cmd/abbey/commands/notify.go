package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/savaki/abbey/internal/di"
	"github.com/savaki/abbey/internal/errors"
	"github.com/savaki/abbey/internal/notifier"
	"github.com/savaki/abbey/internal/queue"
	"github.com/savaki/abbey/internal/services"
	"github.com/urfave/cli/v2"
	"go.uber.org/dig"
)

const eventHelp = `Lifecycle events:
  host-failed, host-ok, host-error, host-skipped, host-unreachable, no-hosts,
  async-poll, async-ok, async-failed, playbook-start, notify, no-hosts-matched,
  no-hosts-remaining, task-start, setup, import-for-host, not-import-for-host,
  play-start, stats

Only host-failed, host-ok, host-error, notify, task-start, play-start and stats
publish a status line. Configuration is read from ANSIBLE_ENABLE_SQS, SQS_REGION,
SQS_NAME and SQS_MSG_PREFIX; without ANSIBLE_ENABLE_SQS nothing is published.`

// NotifyCommand returns the notify command that publishes a single event
func NotifyCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "notify",
		Usage: "Publish a play lifecycle event to the status queue",
		Description: `Publish one lifecycle event to the status queue.

Examples:
  abbey notify --event task-start --task "install packages"
  abbey notify --event host-error --host web1 --message "unreachable"

` + eventHelp,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "event",
				Usage:    "Lifecycle event name",
				Required: true,
			},
			&cli.StringFlag{Name: "host", Usage: "Host the event refers to"},
			&cli.StringFlag{Name: "message", Usage: "Error message of host-error"},
			&cli.StringFlag{Name: "handler", Usage: "Handler name of notify"},
			&cli.StringFlag{Name: "task", Usage: "Task name of task-start"},
			&cli.StringFlag{Name: "pattern", Usage: "Host pattern of play-start"},
		},
		Action: func(c *cli.Context) error {
			return notifyAction(c, logger)
		},
	}
}

// RelayCommand returns the relay command that publishes events read from stdin
func RelayCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "relay",
		Usage: "Publish newline-delimited JSON lifecycle events read from stdin",
		Description: `Read one JSON event per line from stdin and publish each to the status queue.
Lines that do not parse are logged and skipped.

Example:
  echo '{"event":"task-start","task":"install packages"}' | abbey relay

` + eventHelp,
		Action: func(c *cli.Context) error {
			return relayAction(c, logger)
		},
	}
}

func notifyAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)

	kind, err := notifier.ParseEventKind(c.String("event"))
	if err != nil {
		return errors.Config("parse event", err)
	}

	n, err := newNotifier(ctx)
	if err != nil {
		return err
	}

	return n.Handle(ctx, notifier.Event{
		Kind:    kind,
		Host:    c.String("host"),
		Message: c.String("message"),
		Handler: c.String("handler"),
		Task:    c.String("task"),
		Pattern: c.String("pattern"),
	})
}

func relayAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)

	n, err := newNotifier(ctx)
	if err != nil {
		return err
	}

	count, err := relay(ctx, c.App.Reader, n)
	logger.Debug().Int("events", count).Msg("Relay finished")
	return err
}

type eventHandler interface {
	Handle(ctx context.Context, e notifier.Event) error
}

// relay dispatches every well formed event in r and returns how many were handled
func relay(ctx context.Context, r io.Reader, h eventHandler) (int, error) {
	logger := zerolog.Ctx(ctx)

	var (
		scanner = bufio.NewScanner(r)
		count   int
		line    int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var e notifier.Event
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			logger.Warn().Err(err).Int("line", line).Msg("Skipping invalid event")
			continue
		}

		if err := h.Handle(ctx, e); err != nil {
			return count, err
		}
		count++

		if ctx.Err() != nil {
			return count, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("failed to read events: %w", err)
	}
	return count, nil
}

func newNotifier(ctx context.Context) (*notifier.Notifier, error) {
	cfg, err := notifier.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return notifier.New(ctx, cfg, connectSQS)
}

// connectSQS creates the status queue if absent and returns a retrying publisher for it
func connectSQS(ctx context.Context, cfg notifier.Config) (notifier.Publisher, error) {
	container, err := di.New(cfg.Region, di.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	sqsService, err := di.Get[*services.SQSService](container)
	if err != nil {
		return nil, errors.Classify("connect to queue", dig.RootCause(err))
	}

	queueURL, err := sqsService.EnsureQueue(ctx, cfg.QueueName)
	if err != nil {
		return nil, err
	}

	return queue.NewPublisher(sqsService, queueURL), nil
}
