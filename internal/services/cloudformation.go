package services

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/smithy-go"
	"github.com/savaki/abbey/internal/errors"
)

type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

type CloudFormationService struct {
	client CloudFormationAPI
}

func NewCloudFormationService(client CloudFormationAPI) *CloudFormationService {
	return &CloudFormationService{client: client}
}

// StackStatus returns the status of the named stack, or "" when the stack does not exist
func (s *CloudFormationService) StackStatus(ctx context.Context, stackName string) (string, error) {
	result, err := s.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "does not exist") {
				return "", nil
			}
		}
		return "", errors.Classify("describe stacks", err)
	}

	if len(result.Stacks) == 0 {
		return "", nil
	}
	return string(result.Stacks[0].StackStatus), nil
}
