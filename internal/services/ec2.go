package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/samber/lo"
	"github.com/savaki/abbey/internal/constants"
	"github.com/savaki/abbey/internal/errors"
)

// EC2API is the subset of the EC2 client used to provision an instance
type EC2API interface {
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	DescribeSubnets(ctx context.Context, params *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
}

type EC2Service struct {
	client EC2API
}

func NewEC2Service(client EC2API) *EC2Service {
	return &EC2Service{client: client}
}

// ResolveSecurityGroup returns the id of the security group whose name is
// exactly name. Names are compared case-sensitively.
func (s *EC2Service) ResolveSecurityGroup(ctx context.Context, name string) (string, error) {
	const op = "resolve security group"

	paginator := ec2.NewDescribeSecurityGroupsPaginator(s.client, &ec2.DescribeSecurityGroupsInput{
		Filters: []types.Filter{
			{Name: aws.String("group-name"), Values: []string{name}},
		},
	})

	var groups []types.SecurityGroup
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", errors.Classify(op, err)
		}
		groups = append(groups, page.SecurityGroups...)
	}

	matches := lo.Filter(groups, func(g types.SecurityGroup, _ int) bool {
		return aws.ToString(g.GroupName) == name
	})

	switch len(matches) {
	case 0:
		return "", errors.Config(op, fmt.Errorf("%w %s", errors.ErrSecurityGroupNotFound, name))
	case 1:
		return aws.ToString(matches[0].GroupId), nil
	default:
		ids := lo.Map(matches, func(g types.SecurityGroup, _ int) string { return aws.ToString(g.GroupId) })
		return "", errors.Configf(op, errors.ErrSecurityGroupAmbiguous, "%s matches %v", name, ids)
	}
}

// ResolveSubnet returns the single subnet tagged with both the stack name and
// the application. Any other number of matches is an error that carries the count.
func (s *EC2Service) ResolveSubnet(ctx context.Context, stackName, application string) (string, error) {
	const op = "resolve subnet"

	paginator := ec2.NewDescribeSubnetsPaginator(s.client, &ec2.DescribeSubnetsInput{
		Filters: []types.Filter{
			{Name: aws.String("tag:" + constants.StackNameTag), Values: []string{stackName}},
			{Name: aws.String("tag:" + constants.ApplicationTag), Values: []string{application}},
		},
	})

	var subnets []types.Subnet
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", errors.Classify(op, err)
		}
		subnets = append(subnets, page.Subnets...)
	}

	if len(subnets) != 1 {
		return "", errors.Config(op, &SubnetCountError{
			StackName:   stackName,
			Application: application,
			Count:       len(subnets),
		})
	}

	return aws.ToString(subnets[0].SubnetId), nil
}

// SubnetCountError reports a subnet lookup that did not match exactly one subnet
type SubnetCountError struct {
	StackName   string
	Application string
	Count       int
}

func (e *SubnetCountError) Error() string {
	return fmt.Sprintf("expected 1 %s subnet in stack %s, got %d", e.Application, e.StackName, e.Count)
}

func (e *SubnetCountError) Unwrap() error {
	return errors.ErrSubnetCount
}

// LaunchInput describes the single instance to start
type LaunchInput struct {
	SecurityGroupID string
	SubnetID        string
	Keypair         string
	ImageID         string
	InstanceType    string
	InstanceProfile string
	UserData        string // plain text, encoded here
	ClientToken     string
	Tags            map[string]string
}

// Instance is the launched instance
type Instance struct {
	ID        string
	PrivateIP string
	SubnetID  string
}

// Launch starts exactly one instance
func (s *EC2Service) Launch(ctx context.Context, input LaunchInput) (*Instance, error) {
	const op = "run instances"

	params := &ec2.RunInstancesInput{
		MinCount:         aws.Int32(1),
		MaxCount:         aws.Int32(1),
		ImageId:          aws.String(input.ImageID),
		InstanceType:     types.InstanceType(input.InstanceType),
		KeyName:          aws.String(input.Keypair),
		SecurityGroupIds: []string{input.SecurityGroupID},
		SubnetId:         aws.String(input.SubnetID),
		UserData:         aws.String(base64.StdEncoding.EncodeToString([]byte(input.UserData))),
	}
	if input.InstanceProfile != "" {
		params.IamInstanceProfile = &types.IamInstanceProfileSpecification{
			Name: aws.String(input.InstanceProfile),
		}
	}
	if input.ClientToken != "" {
		params.ClientToken = aws.String(input.ClientToken)
	}
	if len(input.Tags) > 0 {
		params.TagSpecifications = []types.TagSpecification{
			{
				ResourceType: types.ResourceTypeInstance,
				Tags:         ec2Tags(input.Tags),
			},
		}
	}

	result, err := s.client.RunInstances(ctx, params)
	if err != nil {
		return nil, errors.Classify(op, err)
	}
	if len(result.Instances) != 1 {
		return nil, errors.Classify(op, fmt.Errorf("expected 1 instance, got %d", len(result.Instances)))
	}

	instance := result.Instances[0]
	return &Instance{
		ID:        aws.ToString(instance.InstanceId),
		PrivateIP: aws.ToString(instance.PrivateIpAddress),
		SubnetID:  aws.ToString(instance.SubnetId),
	}, nil
}

func ec2Tags(m map[string]string) []types.Tag {
	tags := lo.MapToSlice(m, func(k, v string) types.Tag {
		return types.Tag{Key: aws.String(k), Value: aws.String(v)}
	})
	// stable order for requests and tests
	slices.SortFunc(tags, func(a, b types.Tag) int {
		return strings.Compare(aws.ToString(a.Key), aws.ToString(b.Key))
	})
	return tags
}
