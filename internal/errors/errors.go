// Package errors holds the sentinel errors of abbey and the categorized error
// type returned by every call to an external service.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

var (
	ErrRegionRequired          = errors.New("ANSIBLE_ENABLE_SQS enabled but SQS_REGION not defined in environment")
	ErrQueueNameRequired       = errors.New("ANSIBLE_ENABLE_SQS enabled but SQS_NAME not defined in environment")
	ErrInvalidCredentials      = errors.New("cannot connect to AWS due to invalid credentials")
	ErrSecurityGroupNotFound   = errors.New("unable to lookup id for security group")
	ErrSecurityGroupAmbiguous  = errors.New("security group name is not unique")
	ErrSubnetCount             = errors.New("unexpected number of subnets")
	ErrInstanceProfileNotFound = errors.New("instance profile not found")
	ErrIdentityConflict        = errors.New("only one of --identity, --identity-parameter, --identity-secret may be set")
	ErrInvalidIdentity         = errors.New("invalid identity key")
	ErrRemoteCommandFailed     = errors.New("remote command failed")
	ErrUnknownEvent            = errors.New("unknown lifecycle event")
)

// Kind categorizes a failure so callers can decide to retry, log or abort
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindAuth
	KindTransient
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindAuth:
		return "authentication"
	case KindTransient:
		return "transient"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Error is a failure of a named operation together with its category
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config wraps err as a configuration error
func Config(op string, err error) error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

// Configf builds a configuration error that wraps sentinel
func Configf(op string, sentinel error, format string, args ...any) error {
	return &Error{Kind: KindConfig, Op: op, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}

// Auth wraps err as an authentication/authorization error
func Auth(op string, err error) error {
	return &Error{Kind: KindAuth, Op: op, Err: fmt.Errorf("%w: %w", ErrInvalidCredentials, err)}
}

// Remote wraps err as a failure of a command run on behalf of the operator
func Remote(op string, err error) error {
	return &Error{Kind: KindRemote, Op: op, Err: err}
}

// KindOf returns the category of err, KindUnknown when err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err has kind k
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// As is errors.As, re-exported so callers need a single errors import
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

var authCodes = map[string]struct{}{
	"AccessDenied":                        {},
	"AccessDeniedException":               {},
	"AuthFailure":                         {},
	"AWS.SimpleQueueService.AccessDenied": {},
	"ExpiredToken":                        {},
	"ExpiredTokenException":               {},
	"InvalidAccessKeyId":                  {},
	"InvalidClientTokenId":                {},
	"InvalidSecurity":                     {},
	"MissingAuthenticationToken":          {},
	"SignatureDoesNotMatch":               {},
	"UnauthorizedOperation":               {},
	"UnrecognizedClientException":         {},
}

// Classify maps an AWS SDK failure of op onto an *Error. Credential and
// authorization failures become KindAuth, everything else KindTransient.
// Already classified errors are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := authCodes[apiErr.ErrorCode()]; ok {
			return Auth(op, err)
		}
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}

	// credential providers fail before a request is ever signed
	if isCredentialsError(err) {
		return Auth(op, err)
	}

	return &Error{Kind: KindTransient, Op: op, Err: err}
}

func isCredentialsError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"failed to retrieve credentials",
		"failed to refresh cached credentials",
		"no EC2 IMDS role found",
		"static credentials are empty",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
