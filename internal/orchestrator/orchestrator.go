package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/savaki/abbey/internal/bootscript"
	"github.com/savaki/abbey/internal/constants"
	"github.com/savaki/abbey/internal/errors"
	"github.com/savaki/abbey/internal/models"
	"github.com/savaki/abbey/internal/queue"
	"github.com/savaki/abbey/internal/services"
	"github.com/segmentio/ksuid"
)

// Networking resolves the network placement of an instance and launches it
type Networking interface {
	ResolveSecurityGroup(ctx context.Context, name string) (string, error)
	ResolveSubnet(ctx context.Context, stackName, application string) (string, error)
	Launch(ctx context.Context, input services.LaunchInput) (*services.Instance, error)
}

// Principal verifies credentials and the instance role
type Principal interface {
	GetCallerIdentity(ctx context.Context) (*services.CallerIdentity, error)
	GetInstanceProfile(ctx context.Context, name string) (string, error)
}

// Queues creates the status queue and reads from it
type Queues interface {
	queue.Receiver
	EnsureQueue(ctx context.Context, name string) (string, error)
}

// Stacks reports CloudFormation stack status; "" when the stack does not exist
type Stacks interface {
	StackStatus(ctx context.Context, stackName string) (string, error)
}

// ParameterGetter reads a decrypted SSM parameter
type ParameterGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// SecretGetter reads a Secrets Manager secret string
type SecretGetter interface {
	GetSecretString(ctx context.Context, secretID string) (string, error)
}

// CommandRunner runs the on-complete hook
type CommandRunner interface {
	Run(ctx context.Context, cmd string) error
}

// Orchestrator provisions a single instance and relays its status messages
type Orchestrator struct {
	ec2        Networking
	principal  Principal
	queues     Queues
	stacks     Stacks
	parameters ParameterGetter
	secrets    SecretGetter
	runner     CommandRunner
	out        io.Writer
	readFile   func(name string) ([]byte, error)
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithOutput sets where relayed status messages are written; stdout by default
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) {
		o.out = w
	}
}

// WithReadFile replaces the function used to read the identity and extra vars files
func WithReadFile(fn func(name string) ([]byte, error)) Option {
	return func(o *Orchestrator) {
		o.readFile = fn
	}
}

// New creates a new Orchestrator instance
func New(
	ec2 Networking,
	principal Principal,
	queues Queues,
	stacks Stacks,
	parameters ParameterGetter,
	secrets SecretGetter,
	runner CommandRunner,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		ec2:        ec2,
		principal:  principal,
		queues:     queues,
		stacks:     stacks,
		parameters: parameters,
		secrets:    secrets,
		runner:     runner,
		out:        os.Stdout,
		readFile:   os.ReadFile,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Launched describes an instance started by Launch
type Launched struct {
	RunID    string
	QueueURL string
	Instance *services.Instance
}

// Provision launches the instance described by cfg and relays its status
// messages until ctx is cancelled, or until the play completes when
// cfg.ExitOnComplete is set.
func (o *Orchestrator) Provision(ctx context.Context, cfg models.RunConfig) error {
	launched, err := o.Launch(ctx, cfg)
	if err != nil {
		return err
	}
	return o.Watch(ctx, cfg, launched)
}

// Launch runs every step up to and including RunInstances
func (o *Orchestrator) Launch(ctx context.Context, cfg models.RunConfig) (*Launched, error) {
	logger := zerolog.Ctx(ctx)

	if cfg.DryRun {
		logger.Warn().Msg("Dry run only affects local commands; AWS resources are still created")
	}

	caller, err := o.principal.GetCallerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("account", caller.Account).Str("arn", caller.ARN).Msg("Connected to AWS")

	securityGroupID, err := o.ec2.ResolveSecurityGroup(ctx, cfg.SecurityGroup)
	if err != nil {
		return nil, err
	}

	subnetID, err := o.resolveSubnet(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("security_group", securityGroupID).
		Str("subnet", subnetID).
		Msg("Resolved network placement")

	queueName := cfg.QueueName()
	queueURL, err := o.queues.EnsureQueue(ctx, queueName)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("queue", queueName).Msg("Status queue ready")

	identity, secure, err := o.resolveIdentity(ctx, cfg.Identity)
	if err != nil {
		return nil, err
	}

	extraVars, err := o.loadExtraVars(cfg.ExtraVarsPath)
	if err != nil {
		return nil, err
	}

	script, err := bootscript.Render(ctx, bootscript.Params{
		ConfigurationVersion:       cfg.ConfigurationVersion,
		ConfigurationSecureVersion: cfg.ConfigurationSecureVersion,
		ConfigurationRepo:          cfg.ConfigurationRepo,
		ConfigurationSecureRepo:    cfg.ConfigurationSecureRepo,
		Environment:                cfg.Environment,
		Deployment:                 cfg.Deployment,
		Play:                       cfg.Play,
		QueueName:                  queueName,
		Region:                     cfg.Region,
		SecureFetch:                secure,
		Identity:                   identity,
		ExtraVars:                  extraVars,
		SecureVars:                 cfg.SecureVars,
	})
	if err != nil {
		return nil, err
	}

	if _, err := o.principal.GetInstanceProfile(ctx, cfg.RoleName); err != nil {
		return nil, err
	}

	runID := ksuid.New().String()
	instance, err := o.ec2.Launch(ctx, services.LaunchInput{
		SecurityGroupID: securityGroupID,
		SubnetID:        subnetID,
		Keypair:         cfg.Keypair,
		ImageID:         cfg.BaseAMI,
		InstanceType:    cfg.InstanceType,
		InstanceProfile: cfg.RoleName,
		UserData:        script,
		ClientToken:     runID,
		Tags:            instanceTags(cfg, runID),
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("instance", instance.ID).
		Str("private_ip", instance.PrivateIP).
		Str("run_id", runID).
		Msg("Launched instance")

	return &Launched{
		RunID:    runID,
		QueueURL: queueURL,
		Instance: instance,
	}, nil
}

// Watch relays status messages of a launched instance to the operator
func (o *Orchestrator) Watch(ctx context.Context, cfg models.RunConfig, launched *Launched) error {
	poller := &queue.Poller{
		Receiver: o.queues,
		QueueURL: launched.QueueURL,
		Out:      o.out,
		Interval: cfg.PollInterval,
	}
	if cfg.ExitOnComplete {
		poller.StopWhen = isCompletion
	}

	if err := poller.Run(ctx); err != nil {
		return err
	}

	if !cfg.ExitOnComplete || ctx.Err() != nil || cfg.OnComplete == "" {
		return nil
	}

	return o.runner.Run(ctx, cfg.OnComplete)
}

func (o *Orchestrator) resolveSubnet(ctx context.Context, cfg models.RunConfig) (string, error) {
	const op = "resolve subnet"

	stack := cfg.Stack()
	subnetID, err := o.ec2.ResolveSubnet(ctx, stack, cfg.Application)
	if err == nil {
		return subnetID, nil
	}

	var countErr *services.SubnetCountError
	if !errors.As(err, &countErr) || countErr.Count != 0 {
		return "", err
	}

	status, statusErr := o.stacks.StackStatus(ctx, stack)
	if statusErr != nil {
		zerolog.Ctx(ctx).Warn().Err(statusErr).Str("stack", stack).Msg("Unable to describe stack")
		return "", err
	}
	if status == "" {
		return "", errors.Config(op, fmt.Errorf("%w: stack %s does not exist", countErr, stack))
	}
	return "", errors.Config(op, fmt.Errorf("%w: stack %s is %s but has no subnet tagged %s=%s",
		countErr, stack, status, constants.ApplicationTag, cfg.Application))
}

func instanceTags(cfg models.RunConfig, runID string) map[string]string {
	return map[string]string{
		"Name":              fmt.Sprintf("%s-%s-%s", cfg.Environment, cfg.Deployment, cfg.Play),
		"ManagedBy":         constants.ManagedByValue,
		"abbey:environment": cfg.Environment,
		"abbey:deployment":  cfg.Deployment,
		"abbey:play":        cfg.Play,
		"abbey:run-id":      runID,
	}
}

func isCompletion(body string) bool {
	return strings.HasSuffix(strings.TrimSpace(body), constants.CompletedPlayMessage)
}
