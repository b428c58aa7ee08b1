package queue

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/savaki/abbey/internal/services"
)

// Receiver reads and acknowledges queue messages
type Receiver interface {
	Receive(ctx context.Context, queueURL string) ([]services.Message, error)
	Delete(ctx context.Context, queueURL, receiptHandle string) error
}

// DefaultPollInterval is the pause after an empty receive
const DefaultPollInterval = time.Second

// Poller relays queue messages to the operator
type Poller struct {
	Receiver Receiver
	QueueURL string
	Out      io.Writer
	Interval time.Duration

	// StopWhen ends the loop once the batch holding a matching message has
	// been printed and deleted
	StopWhen func(body string) bool

	// Sleep waits d or until ctx is done; defaults to a timer
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run polls until ctx is cancelled or a batch contains a message matching
// StopWhen. Each message is printed before it is deleted, so a crash in
// between redelivers it. Cancellation is a normal exit and returns nil.
func (p *Poller) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	logger.Info().Str("queue_url", p.QueueURL).Msg("Waiting for status messages")

	for {
		if ctx.Err() != nil {
			return nil
		}

		messages, err := p.Receiver.Receive(ctx, p.QueueURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn().Err(err).Msg("Failed to receive messages")
			messages = nil
		}

		if len(messages) == 0 {
			if err := sleep(ctx, interval); err != nil {
				return nil
			}
			continue
		}

		done := false
		for _, m := range messages {
			if _, err := fmt.Fprintln(p.Out, m.Body); err != nil {
				return fmt.Errorf("failed to print message: %w", err)
			}
			if err := p.Receiver.Delete(ctx, p.QueueURL, m.ReceiptHandle); err != nil {
				logger.Warn().Err(err).Str("message_id", m.ID).Msg("Failed to delete message")
			}
			if !done && p.StopWhen != nil && p.StopWhen(m.Body) {
				logger.Info().Str("message_id", m.ID).Msg("Completion message received")
				done = true
			}
		}
		if done {
			return nil
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
