package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/savaki/abbey/internal/errors"
	"github.com/savaki/abbey/internal/services"
)

// ProvideAWSConfig loads the default AWS configuration for region
func ProvideAWSConfig(ctx context.Context, region Region, creds Credentials) (aws.Config, error) {
	if region == "" {
		return aws.Config{}, errors.Config("load aws config", fmt.Errorf("region is required"))
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(string(region)),
	}
	if creds.Provider != nil {
		opts = append(opts, config.WithCredentialsProvider(creds.Provider))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.Classify("load aws config", fmt.Errorf("failed to load AWS config: %w", err))
	}
	return cfg, nil
}

func ProvideEC2Client(cfg aws.Config) *ec2.Client {
	return ec2.NewFromConfig(cfg)
}

func ProvideSQSClient(cfg aws.Config) *sqs.Client {
	return sqs.NewFromConfig(cfg)
}

func ProvideSTSClient(cfg aws.Config) *sts.Client {
	return sts.NewFromConfig(cfg)
}

func ProvideIAMClient(cfg aws.Config) *iam.Client {
	return iam.NewFromConfig(cfg)
}

func ProvideCloudFormationClient(cfg aws.Config) *cloudformation.Client {
	return cloudformation.NewFromConfig(cfg)
}

func ProvideSSMClient(cfg aws.Config) *ssm.Client {
	return ssm.NewFromConfig(cfg)
}

func ProvideSecretsManagerClient(cfg aws.Config) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(cfg)
}

// dig matches constructor parameters by exact type, so the service wrappers
// are adapted from their concrete clients here

func ProvideEC2Service(client *ec2.Client) *services.EC2Service {
	return services.NewEC2Service(client)
}

func ProvideSQSService(client *sqs.Client) *services.SQSService {
	return services.NewSQSService(client)
}

func ProvideIAMService(client *iam.Client, stsClient *sts.Client) *services.IAMService {
	return services.NewIAMService(client, stsClient)
}

func ProvideCloudFormationService(client *cloudformation.Client) *services.CloudFormationService {
	return services.NewCloudFormationService(client)
}

func ProvideParameterStore(client *ssm.Client) *services.ParameterStore {
	return services.NewParameterStore(client)
}

func ProvideSecretsManagerService(client *secretsmanager.Client) *services.SecretsManagerService {
	return services.NewSecretsManagerService(client)
}
