// Package bootscript renders the user data that bootstraps a launched
// instance and runs the requested play against it.
package bootscript

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/rs/zerolog"
	"github.com/savaki/abbey/internal/constants"
	"github.com/savaki/abbey/internal/errors"
)

//go:embed user-data.sh.hbs
var source string

const (
	DefaultConfigurationRepo       = "https://github.com/edx/configuration"
	DefaultConfigurationSecureRepo = "git@github.com:edx/configuration-secure"
)

var markers = []string{"ABBEY_SECURE_IDENTITY", "ABBEY_EXTRA_VARS"}

// Params are the values interpolated into the boot script
type Params struct {
	ConfigurationVersion       string
	ConfigurationSecureVersion string
	ConfigurationRepo          string
	ConfigurationSecureRepo    string
	Environment                string
	Deployment                 string
	Play                       string
	QueueName                  string
	Region                     string

	// SecureFetch clones the secure repository with Identity as the ssh key
	SecureFetch bool
	Identity    string

	// ExtraVars is a YAML document passed to the play with -e@
	ExtraVars string

	// SecureVars overrides the secure_vars file handed to the play. Relative
	// paths resolve from the playbook directory. Empty selects
	// configuration-secure/ansible/vars/<deployment>/<environment>.yml.
	SecureVars string
}

func (p Params) vars() map[string]string {
	identity := p.Identity
	if !p.SecureFetch && identity == "" {
		identity = constants.PlaceholderIdentity
	}

	return map[string]string{
		"configurationVersion":       p.ConfigurationVersion,
		"configurationSecureVersion": p.ConfigurationSecureVersion,
		"configurationRepo":          withDefault(p.ConfigurationRepo, DefaultConfigurationRepo),
		"configurationSecureRepo":    withDefault(p.ConfigurationSecureRepo, DefaultConfigurationSecureRepo),
		"environment":                p.Environment,
		"deployment":                 p.Deployment,
		"play":                       p.Play,
		"queueName":                  p.QueueName,
		"region":                     p.Region,
		"configSecure":               strconv.FormatBool(p.SecureFetch),
		"identity":                   strings.TrimRight(identity, "\n"),
		"extraVars":                  strings.TrimRight(p.ExtraVars, "\n"),
		"secureVars":                 p.SecureVars,
	}
}

// Validate checks the values that end up inside double-quoted shell strings
func (p Params) Validate() error {
	const op = "render boot script"

	quoted := []struct {
		name     string
		value    string
		required bool
	}{
		{"configuration version", p.ConfigurationVersion, true},
		{"configuration secure version", p.ConfigurationSecureVersion, true},
		{"configuration repo", p.ConfigurationRepo, false},
		{"configuration secure repo", p.ConfigurationSecureRepo, false},
		{"environment", p.Environment, true},
		{"deployment", p.Deployment, true},
		{"play", p.Play, true},
		{"queue name", p.QueueName, true},
		{"region", p.Region, true},
		{"secure vars", p.SecureVars, false},
	}

	for _, q := range quoted {
		if q.value == "" {
			if q.required {
				return errors.Config(op, fmt.Errorf("%s is required", q.name))
			}
			continue
		}
		if strings.ContainsAny(q.value, "\"\\$`\n\r") {
			return errors.Config(op, fmt.Errorf("%s %q contains shell metacharacters", q.name, q.value))
		}
	}

	if p.SecureFetch && strings.TrimSpace(p.Identity) == "" {
		return errors.Config(op, fmt.Errorf("secure fetch requires an identity"))
	}

	for _, marker := range markers {
		if strings.Contains(p.Identity, marker) || strings.Contains(p.ExtraVars, marker) {
			return errors.Config(op, fmt.Errorf("identity or extra vars contain reserved marker %s", marker))
		}
	}

	return nil
}

// Render returns the boot script for p. Only sizes are logged; the identity
// and extra vars never reach the logger.
func Render(ctx context.Context, p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	tpl, err := raymond.Parse(source)
	if err != nil {
		return "", fmt.Errorf("failed to parse boot script template: %w", err)
	}

	script, err := tpl.Exec(p.vars())
	if err != nil {
		return "", fmt.Errorf("failed to execute boot script template: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Int("bytes", len(script)).
		Bool("secure_fetch", p.SecureFetch).
		Bool("extra_vars", p.ExtraVars != "").
		Msg("Rendered boot script")

	return script, nil
}

func withDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
