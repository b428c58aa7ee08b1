// Package queue publishes status lines to, and relays them from, the SQS
// queue shared by the provisioner and the launched instance.
package queue

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/savaki/abbey/internal/errors"
)

// Sender sends a raw text message to a queue
type Sender interface {
	Send(ctx context.Context, queueURL, body string) error
}

// Publisher sends status lines to a single queue, retrying transient failures
type Publisher struct {
	sender     Sender
	queueURL   string
	newBackOff func() backoff.BackOff
}

// PublisherOption customizes a Publisher
type PublisherOption func(*Publisher)

// WithBackOff replaces the retry policy
func WithBackOff(fn func() backoff.BackOff) PublisherOption {
	return func(p *Publisher) {
		p.newBackOff = fn
	}
}

func NewPublisher(sender Sender, queueURL string, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		sender:     sender,
		queueURL:   queueURL,
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultMaxRetries bounds the attempts made for a single status line
const DefaultMaxRetries = 4

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return backoff.WithMaxRetries(b, DefaultMaxRetries)
}

// Publish sends body. Authentication failures are not retried.
func (p *Publisher) Publish(ctx context.Context, body string) error {
	logger := zerolog.Ctx(ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := p.sender.Send(ctx, p.queueURL, body)
		if err == nil {
			return nil
		}
		if errors.IsKind(err, errors.KindAuth) || errors.IsKind(err, errors.KindConfig) {
			return backoff.Permanent(err)
		}
		logger.Debug().Err(err).Int("attempt", attempt).Msg("Publish failed, retrying")
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(p.newBackOff(), ctx))
}
