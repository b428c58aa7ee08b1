// Package di provides a lightweight wrapper around uber's dig dependency injection framework.
// It simplifies container setup and provides type-safe dependency retrieval with generics.
package di

import (
	"context"

	"go.uber.org/dig"
)

// Container defines a dependency injection container based on uber's dig.
// This interface allows for easy testing and mocking of the DI container.
type Container interface {
	// Invoke executes a function, injecting its dependencies from the container.
	Invoke(function any, opts ...dig.InvokeOption) error

	// Provide registers a constructor function in the container.
	Provide(constructor any, opts ...dig.ProvideOption) error

	// Scope creates a scoped sub-container with its own set of values.
	Scope(name string, opts ...dig.ScopeOption) *dig.Scope
}

// Get returns an instance constructed via dependency injection. The error
// is the one reported by dig; use dig.RootCause to reach the constructor
// failure.
//
// Example:
//
//	o, err := Get[*orchestrator.Orchestrator](container)
func Get[T any](container Container) (want T, err error) {
	callback := func(got T) {
		want = got
	}
	err = container.Invoke(callback)
	return want, err
}

// New creates a new dependency injection container for the given AWS region.
// The region is registered as a Region dependency; the AWS config, clients
// and service wrappers are constructed lazily on first use.
//
// Example:
//
//	container, err := New("us-east-1",
//	    WithContext(ctx),
//	    WithDryRun(true),
//	)
func New(region string, opts ...Option) (Container, error) {
	o := options{
		ctx: context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	container := dig.New()
	if err := container.Provide(func() Region { return Region(region) }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() DryRun { return DryRun(o.dryRun) }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() Credentials { return Credentials{Provider: o.credentials} }); err != nil {
		return nil, err
	}
	if err := container.Provide(o.provideContext); err != nil {
		return nil, err
	}

	for _, provider := range core {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	for _, provider := range o.providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

var core = []any{
	ProvideAWSConfig,
	ProvideEC2Client,
	ProvideSQSClient,
	ProvideSTSClient,
	ProvideIAMClient,
	ProvideCloudFormationClient,
	ProvideSSMClient,
	ProvideSecretsManagerClient,
	ProvideEC2Service,
	ProvideSQSService,
	ProvideIAMService,
	ProvideCloudFormationService,
	ProvideParameterStore,
	ProvideSecretsManagerService,
	ProvideRunner,
	ProvideOrchestrator,
}
