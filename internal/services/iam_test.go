package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	abbeyerrors "github.com/savaki/abbey/internal/errors"
)

type mockIAMClient struct {
	getInstanceProfileFunc func(ctx context.Context, params *iam.GetInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.GetInstanceProfileOutput, error)
}

func (m *mockIAMClient) GetInstanceProfile(ctx context.Context, params *iam.GetInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.GetInstanceProfileOutput, error) {
	return m.getInstanceProfileFunc(ctx, params, optFns...)
}

type mockSTSClient struct {
	getCallerIdentityFunc func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func (m *mockSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return m.getCallerIdentityFunc(ctx, params, optFns...)
}

func TestGetCallerIdentity(t *testing.T) {
	svc := NewIAMService(nil, &mockSTSClient{
		getCallerIdentityFunc: func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
			return &sts.GetCallerIdentityOutput{
				Account: aws.String("123456789012"),
				Arn:     aws.String("arn:aws:iam::123456789012:user/ops"),
			}, nil
		},
	})

	identity, err := svc.GetCallerIdentity(context.Background())
	if err != nil {
		t.Fatalf("GetCallerIdentity() error = %v", err)
	}
	if identity.Account != "123456789012" {
		t.Errorf("Account = %q, want %q", identity.Account, "123456789012")
	}
}

func TestGetCallerIdentityFailureIsAuth(t *testing.T) {
	svc := NewIAMService(nil, &mockSTSClient{
		getCallerIdentityFunc: func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
			return nil, errors.New("dial tcp: lookup sts.us-east-1.amazonaws.com: no such host")
		},
	})

	_, err := svc.GetCallerIdentity(context.Background())
	if got := abbeyerrors.KindOf(err); got != abbeyerrors.KindAuth {
		t.Errorf("KindOf() = %v, want %v", got, abbeyerrors.KindAuth)
	}
	if !errors.Is(err, abbeyerrors.ErrInvalidCredentials) {
		t.Errorf("error %v should wrap ErrInvalidCredentials", err)
	}
}

func TestGetInstanceProfile(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantARN  string
		wantKind abbeyerrors.Kind
	}{
		{
			name:    "exists",
			wantARN: "arn:aws:iam::123456789012:instance-profile/abbey",
		},
		{
			name:     "missing",
			err:      &types.NoSuchEntityException{Message: aws.String("not found")},
			wantKind: abbeyerrors.KindConfig,
		},
		{
			name:     "throttled",
			err:      errors.New("throttled"),
			wantKind: abbeyerrors.KindTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewIAMService(&mockIAMClient{
				getInstanceProfileFunc: func(ctx context.Context, params *iam.GetInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.GetInstanceProfileOutput, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &iam.GetInstanceProfileOutput{
						InstanceProfile: &types.InstanceProfile{Arn: aws.String(tt.wantARN)},
					}, nil
				},
			}, nil)

			arn, err := svc.GetInstanceProfile(context.Background(), "abbey")
			if tt.err == nil {
				if err != nil {
					t.Fatalf("GetInstanceProfile() error = %v", err)
				}
				if arn != tt.wantARN {
					t.Errorf("arn = %q, want %q", arn, tt.wantARN)
				}
				return
			}
			if got := abbeyerrors.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", got, tt.wantKind)
			}
		})
	}
}
