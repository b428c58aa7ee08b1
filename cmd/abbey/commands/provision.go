package commands

import (
	"github.com/rs/zerolog"
	"github.com/savaki/abbey/internal/bootscript"
	"github.com/savaki/abbey/internal/constants"
	"github.com/savaki/abbey/internal/di"
	"github.com/savaki/abbey/internal/errors"
	"github.com/savaki/abbey/internal/models"
	"github.com/savaki/abbey/internal/orchestrator"
	"github.com/savaki/abbey/internal/queue"
	"github.com/urfave/cli/v2"
	"go.uber.org/dig"
)

// ProvisionCommand returns the provision command
func ProvisionCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "provision",
		Aliases: []string{"p"},
		Usage:   "Launch an instance that runs a play and follow its progress",
		Description: `Launch one instance into the subnet of a CloudFormation stack and run a play on it.

The instance reports progress to the SQS queue abbey-<environment>-<deployment>;
each status message is printed to stdout and deleted. The command runs until
interrupted, or until the play completes when --exit-on-complete is set.

Examples:
  # Run the edxapp play against stage-edx
  abbey provision -p edxapp -e stage -d edx

  # Clone configuration-secure with a key held in Parameter Store
  abbey provision -p edxapp -e stage -d edx \
    --identity-parameter /stage/abbey/deploy-key \
    --configuration-secure-version release

  # Stop after the play completes and ring a bell
  abbey provision -p forum -e prod -d edx --exit-on-complete --on-complete 'tput bel'

Note: --noop only affects local commands. AWS resources are still created.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "play",
				Aliases:  []string{"p"},
				Usage:    "Play to run (<play>.yml in the playbooks directory)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "deployment",
				Aliases:  []string{"d"},
				Usage:    "Deployment name, e.g. edx",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "environment",
				Aliases:  []string{"e"},
				Usage:    "Environment name, e.g. stage",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "application",
				Aliases: []string{"a"},
				Usage:   "Application tag of the subnet to launch into",
				Value:   constants.DefaultApplication,
			},
			&cli.StringFlag{
				Name:  "configuration-version",
				Usage: "Revision of the configuration repository to check out",
				Value: constants.DefaultVersion,
			},
			&cli.StringFlag{
				Name:  "configuration-secure-version",
				Usage: "Revision of the configuration-secure repository to check out",
				Value: constants.DefaultVersion,
			},
			&cli.StringFlag{
				Name:  "configuration-repo",
				Usage: "Git URL of the configuration repository",
				Value: bootscript.DefaultConfigurationRepo,
			},
			&cli.StringFlag{
				Name:  "configuration-secure-repo",
				Usage: "Git URL of the configuration-secure repository",
				Value: bootscript.DefaultConfigurationSecureRepo,
			},
			&cli.StringFlag{
				Name:    "identity",
				Aliases: []string{"i"},
				Usage:   "Path to the private key used to clone configuration-secure",
			},
			&cli.StringFlag{
				Name:  "identity-parameter",
				Usage: "SSM SecureString parameter holding the private key",
			},
			&cli.StringFlag{
				Name:  "identity-secret",
				Usage: "Secrets Manager secret holding the private key",
			},
			&cli.StringFlag{
				Name:    "vars",
				Aliases: []string{"v"},
				Usage:   "YAML file of extra vars passed to the play",
			},
			&cli.StringFlag{
				Name:        "secure-vars",
				Usage:       "secure_vars file for the play, relative to the playbook directory",
				DefaultText: "../../../configuration-secure/ansible/vars/<deployment>/<environment>.yml",
			},
			&cli.StringFlag{
				Name:    "region",
				Aliases: []string{"r"},
				Usage:   "AWS region",
				Value:   constants.DefaultRegion,
				EnvVars: []string{"AWS_REGION", "AWS_DEFAULT_REGION"},
			},
			&cli.StringFlag{
				Name:    "keypair",
				Aliases: []string{"k"},
				Usage:   "EC2 key pair of the instance",
				Value:   constants.DefaultKeypair,
			},
			&cli.StringFlag{
				Name:    "instance-type",
				Aliases: []string{"t"},
				Usage:   "EC2 instance type",
				Value:   constants.DefaultInstanceType,
			},
			&cli.StringFlag{
				Name:  "security-group",
				Usage: "Name of the security group to launch into",
				Value: constants.DefaultSecurityGroup,
			},
			&cli.StringFlag{
				Name:  "role-name",
				Usage: "IAM instance profile of the instance",
				Value: constants.DefaultRoleName,
			},
			&cli.StringFlag{
				Name:        "stack-name",
				Usage:       "CloudFormation stack the subnet belongs to",
				DefaultText: "<environment>-<deployment>",
			},
			&cli.StringFlag{
				Name:    "base-ami",
				Aliases: []string{"b"},
				Usage:   "Image to launch",
				Value:   constants.DefaultBaseAMI,
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: "Pause between empty receives of the status queue",
				Value: queue.DefaultPollInterval,
			},
			&cli.BoolFlag{
				Name:  "exit-on-complete",
				Usage: "Exit once the play reports completion",
			},
			&cli.StringFlag{
				Name:  "on-complete",
				Usage: "Shell command to run after completion (requires --exit-on-complete)",
			},
			&cli.BoolFlag{
				Name:    "noop",
				Aliases: []string{"dry-run"},
				Usage:   "Print local commands instead of running them",
			},
		},
		Action: func(c *cli.Context) error {
			return provisionAction(c, logger)
		},
	}
}

func provisionAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)

	cfg := models.RunConfig{
		Play:                       c.String("play"),
		Deployment:                 c.String("deployment"),
		Environment:                c.String("environment"),
		Application:                c.String("application"),
		ConfigurationVersion:       c.String("configuration-version"),
		ConfigurationSecureVersion: c.String("configuration-secure-version"),
		ConfigurationRepo:          c.String("configuration-repo"),
		ConfigurationSecureRepo:    c.String("configuration-secure-repo"),
		Identity: models.IdentitySource{
			Path:      c.String("identity"),
			Parameter: c.String("identity-parameter"),
			Secret:    c.String("identity-secret"),
		},
		ExtraVarsPath:  c.String("vars"),
		SecureVars:     c.String("secure-vars"),
		Region:         c.String("region"),
		Keypair:        c.String("keypair"),
		InstanceType:   c.String("instance-type"),
		SecurityGroup:  c.String("security-group"),
		RoleName:       c.String("role-name"),
		StackName:      c.String("stack-name"),
		BaseAMI:        c.String("base-ami"),
		DryRun:         c.Bool("noop"),
		PollInterval:   c.Duration("poll-interval"),
		ExitOnComplete: c.Bool("exit-on-complete"),
		OnComplete:     c.String("on-complete"),
	}

	if cfg.OnComplete != "" && !cfg.ExitOnComplete {
		logger.Warn().Msg("--on-complete has no effect without --exit-on-complete")
	}

	logger.Info().
		Str("play", cfg.Play).
		Str("environment", cfg.Environment).
		Str("deployment", cfg.Deployment).
		Str("stack", cfg.Stack()).
		Str("region", cfg.Region).
		Msg("Provisioning instance")

	container, err := di.New(cfg.Region,
		di.WithContext(ctx),
		di.WithDryRun(cfg.DryRun),
	)
	if err != nil {
		return err
	}

	o, err := di.Get[*orchestrator.Orchestrator](container)
	if err != nil {
		return errors.Classify("initialize", dig.RootCause(err))
	}

	return o.Provision(ctx, cfg)
}
