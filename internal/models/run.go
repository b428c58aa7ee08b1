package models

import (
	"fmt"
	"time"

	"github.com/savaki/abbey/internal/constants"
)

// QueueName derives the status queue shared by the provisioner and the
// notifier running on the launched instance
func QueueName(environment, deployment string) string {
	return fmt.Sprintf("%s-%s-%s", constants.QueueNamePrefix, environment, deployment)
}

// StackName is the default CloudFormation stack of an environment/deployment pair
func StackName(environment, deployment string) string {
	return fmt.Sprintf("%s-%s", environment, deployment)
}

// IdentitySource names where the private key for the secure repository comes
// from. At most one field is set.
type IdentitySource struct {
	Path      string // local file
	Parameter string // SSM SecureString parameter name
	Secret    string // Secrets Manager secret id
}

// IsZero reports whether no identity was requested
func (s IdentitySource) IsZero() bool {
	return s.Path == "" && s.Parameter == "" && s.Secret == ""
}

// RunConfig holds the parameters of a single provisioning run
type RunConfig struct {
	Play                       string
	Deployment                 string
	Environment                string
	Application                string
	ConfigurationVersion       string
	ConfigurationSecureVersion string
	ConfigurationRepo          string
	ConfigurationSecureRepo    string
	Identity                   IdentitySource
	ExtraVarsPath              string
	SecureVars                 string
	Region                     string
	Keypair                    string
	InstanceType               string
	SecurityGroup              string
	RoleName                   string
	StackName                  string
	BaseAMI                    string
	DryRun                     bool
	PollInterval               time.Duration
	ExitOnComplete             bool
	OnComplete                 string
}

// QueueName of the run
func (c RunConfig) QueueName() string {
	return QueueName(c.Environment, c.Deployment)
}

// Stack returns the configured stack name, defaulting to <environment>-<deployment>
func (c RunConfig) Stack() string {
	if c.StackName != "" {
		return c.StackName
	}
	return StackName(c.Environment, c.Deployment)
}
