package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/savaki/abbey/internal/errors"
)

type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParameterStore reads decrypted values from AWS Systems Manager Parameter Store
type ParameterStore struct {
	client SSMAPI
}

func NewParameterStore(client SSMAPI) *ParameterStore {
	return &ParameterStore{client: client}
}

// GetParameter retrieves a single parameter, decrypting SecureString values
func (s *ParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	const op = "get parameter"

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", errors.Config(op, fmt.Errorf("parameter %s not found", name))
		}
		return "", errors.Classify(op, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", errors.Config(op, fmt.Errorf("parameter %s has no value", name))
	}

	return *result.Parameter.Value, nil
}
