// Package notifier forwards playbook lifecycle events to the status queue
// as plain text lines.
package notifier

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Publisher sends a single status line
type Publisher interface {
	Publish(ctx context.Context, body string) error
}

// Connector opens the queue described by cfg, creating it if needed
type Connector func(ctx context.Context, cfg Config) (Publisher, error)

type Notifier struct {
	cfg       Config
	publisher Publisher
}

// New returns a notifier for cfg. A disabled config never calls connect.
func New(ctx context.Context, cfg Config, connect Connector) (*Notifier, error) {
	if !cfg.Enabled {
		return &Notifier{cfg: cfg}, nil
	}

	publisher, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("queue", cfg.QueueName).
		Str("region", cfg.Region).
		Msg("Notifier enabled")

	return &Notifier{
		cfg:       cfg,
		publisher: publisher,
	}, nil
}

func (n *Notifier) Enabled() bool {
	return n.cfg.Enabled
}

// Handle publishes the status line of e, if it has one. A line that cannot be
// published after retries is logged and dropped so the playbook run continues.
func (n *Notifier) Handle(ctx context.Context, e Event) error {
	if !n.cfg.Enabled {
		return nil
	}

	message, ok := Format(e)
	if !ok {
		return nil
	}

	body := strings.ToValidUTF8(n.cfg.Prefix+": "+message, "\uFFFD")
	if err := n.publisher.Publish(ctx, body); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("event", e.Kind.String()).
			Str("queue", n.cfg.QueueName).
			Msg("Failed to publish status message")
	}
	return nil
}
