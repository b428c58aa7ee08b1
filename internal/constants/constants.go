package constants

// Environment variables read by the notifier and exported by the boot script
const (
	// EnvEnableSQS turns the notifier on; when unset every event is ignored
	EnvEnableSQS = "ANSIBLE_ENABLE_SQS"

	// EnvSQSRegion is the AWS region of the status queue
	EnvSQSRegion = "SQS_REGION"

	// EnvSQSName is the name of the status queue
	EnvSQSName = "SQS_NAME"

	// EnvSQSMsgPrefix is prepended to every published status line
	EnvSQSMsgPrefix = "SQS_MSG_PREFIX"
)

// Tags used to locate and label provisioned resources
const (
	// StackNameTag is set by CloudFormation on every resource of a stack
	StackNameTag = "aws:cloudformation:stack-name"

	// ApplicationTag distinguishes subnets within a stack
	ApplicationTag = "Application"

	// ManagedByValue is written to the ManagedBy tag of launched instances
	ManagedByValue = "abbey"
)

// Provisioner defaults
const (
	DefaultApplication   = "admin"
	DefaultVersion       = "master"
	DefaultRegion        = "us-east-1"
	DefaultKeypair       = "deployment"
	DefaultInstanceType  = "m1.large"
	DefaultSecurityGroup = "abbey"
	DefaultRoleName      = "abbey"
	DefaultBaseAMI       = "ami-d0f89fb9"
	QueueNamePrefix      = "abbey"
	PlaceholderIdentity  = "dummy"
	CompletedPlayMessage = "Completed play"
)
