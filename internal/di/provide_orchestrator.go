package di

import (
	"github.com/savaki/abbey/internal/orchestrator"
	"github.com/savaki/abbey/internal/services"
	"github.com/savaki/abbey/internal/shell"
)

func ProvideRunner(dryRun DryRun) *shell.Runner {
	return &shell.Runner{DryRun: bool(dryRun)}
}

func ProvideOrchestrator(
	ec2 *services.EC2Service,
	iam *services.IAMService,
	sqs *services.SQSService,
	cfn *services.CloudFormationService,
	ssm *services.ParameterStore,
	secrets *services.SecretsManagerService,
	runner *shell.Runner,
) *orchestrator.Orchestrator {
	return orchestrator.New(ec2, iam, sqs, cfn, ssm, secrets, runner)
}
