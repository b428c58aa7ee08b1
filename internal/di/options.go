package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Region is the AWS region every client in the container talks to
type Region string

// DryRun prints local commands instead of running them
type DryRun bool

// Credentials overrides the default credential chain when Provider is set
type Credentials struct {
	Provider aws.CredentialsProvider
}

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithContext sets the context used while loading AWS configuration. The
// logger carried by ctx is used by the constructed services.
func WithContext(ctx context.Context) Option {
	return func(opts *options) {
		opts.ctx = ctx
	}
}

func WithDryRun(dryRun bool) Option {
	return func(opts *options) {
		opts.dryRun = dryRun
	}
}

// WithCredentials replaces the default credential chain, e.g. with
// credentials.NewStaticCredentialsProvider
func WithCredentials(provider aws.CredentialsProvider) Option {
	return func(opts *options) {
		opts.credentials = provider
	}
}

// WithProviders adds constructor functions to the dependency injection container.
// Each provider should be a constructor function that returns one or more values.
// Providers can declare dependencies as function parameters, which will be
// automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    func() *Database { return &Database{} },
//	    func(db *Database) *Service { return &Service{DB: db} },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	ctx         context.Context
	dryRun      bool
	credentials aws.CredentialsProvider
	providers   []any
}

func (o options) provideContext() context.Context {
	return o.ctx
}
