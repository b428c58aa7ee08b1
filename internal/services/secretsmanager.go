package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/savaki/abbey/internal/errors"
)

type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type SecretsManagerService struct {
	client SecretsManagerAPI
}

func NewSecretsManagerService(client SecretsManagerAPI) *SecretsManagerService {
	return &SecretsManagerService{client: client}
}

// GetSecretString returns the current string value of a secret
func (s *SecretsManagerService) GetSecretString(ctx context.Context, secretID string) (string, error) {
	const op = "get secret value"

	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", errors.Config(op, fmt.Errorf("secret %s not found", secretID))
		}
		return "", errors.Classify(op, err)
	}

	if result.SecretString == nil {
		return "", errors.Config(op, fmt.Errorf("secret %s has no string value", secretID))
	}

	return *result.SecretString, nil
}
