package notifier

import (
	"os"

	"github.com/savaki/abbey/internal/constants"
	"github.com/savaki/abbey/internal/errors"
)

// Config is read once at startup. The zero value is a disabled notifier.
type Config struct {
	Enabled   bool
	Region    string
	QueueName string
	Prefix    string
}

// LookupFunc has the signature of os.LookupEnv
type LookupFunc func(key string) (string, bool)

// LoadConfig builds a Config from environment lookups. The notifier is enabled
// only when ANSIBLE_ENABLE_SQS is present; region and queue name are then required.
func LoadConfig(lookup LookupFunc) (Config, error) {
	const op = "load notifier config"

	if _, ok := lookup(constants.EnvEnableSQS); !ok {
		return Config{}, nil
	}

	region, _ := lookup(constants.EnvSQSRegion)
	if region == "" {
		return Config{}, errors.Config(op, errors.ErrRegionRequired)
	}

	name, _ := lookup(constants.EnvSQSName)
	if name == "" {
		return Config{}, errors.Config(op, errors.ErrQueueNameRequired)
	}

	prefix, _ := lookup(constants.EnvSQSMsgPrefix)

	return Config{
		Enabled:   true,
		Region:    region,
		QueueName: name,
		Prefix:    prefix,
	}, nil
}

// LoadConfigFromEnv reads the process environment
func LoadConfigFromEnv() (Config, error) {
	return LoadConfig(os.LookupEnv)
}
