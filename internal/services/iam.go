package services

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/savaki/abbey/internal/errors"
)

type IAMAPI interface {
	GetInstanceProfile(ctx context.Context, params *iam.GetInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.GetInstanceProfileOutput, error)
}

type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type IAMService struct {
	client    IAMAPI
	stsClient STSAPI
}

// CallerIdentity is the principal the AWS credentials resolve to
type CallerIdentity struct {
	Account string
	ARN     string
}

func NewIAMService(client IAMAPI, stsClient STSAPI) *IAMService {
	return &IAMService{
		client:    client,
		stsClient: stsClient,
	}
}

// GetCallerIdentity verifies the credentials. Any failure here means the
// provisioner cannot talk to AWS at all and is reported as an auth error.
func (s *IAMService) GetCallerIdentity(ctx context.Context) (*CallerIdentity, error) {
	const op = "get caller identity"

	result, err := s.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		err = errors.Classify(op, err)
		if !errors.IsKind(err, errors.KindAuth) {
			err = errors.Auth(op, err)
		}
		return nil, err
	}

	return &CallerIdentity{
		Account: aws.ToString(result.Account),
		ARN:     aws.ToString(result.Arn),
	}, nil
}

// GetInstanceProfile returns the ARN of the named instance profile
func (s *IAMService) GetInstanceProfile(ctx context.Context, name string) (string, error) {
	const op = "get instance profile"

	result, err := s.client.GetInstanceProfile(ctx, &iam.GetInstanceProfileInput{
		InstanceProfileName: aws.String(name),
	})
	if err != nil {
		var noSuchEntity *types.NoSuchEntityException
		if errors.As(err, &noSuchEntity) {
			return "", errors.Configf(op, errors.ErrInstanceProfileNotFound, "%s", name)
		}
		return "", errors.Classify(op, err)
	}

	if result.InstanceProfile == nil {
		return "", errors.Configf(op, errors.ErrInstanceProfileNotFound, "%s", name)
	}
	return aws.ToString(result.InstanceProfile.Arn), nil
}
