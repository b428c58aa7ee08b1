package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/savaki/abbey/internal/constants"
	"github.com/savaki/abbey/internal/errors"
	"github.com/savaki/abbey/internal/models"
	"golang.org/x/crypto/ssh"
)

// resolveIdentity returns the private key used to clone the secure repository
// and whether secure fetch is enabled. Without a source the placeholder is
// returned with secure fetch disabled.
func (o *Orchestrator) resolveIdentity(ctx context.Context, src models.IdentitySource) (string, bool, error) {
	const op = "resolve identity"

	if src.IsZero() {
		return constants.PlaceholderIdentity, false, nil
	}

	set := 0
	for _, v := range []string{src.Path, src.Parameter, src.Secret} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return "", false, errors.Config(op, errors.ErrIdentityConflict)
	}

	var (
		contents string
		origin   string
		err      error
	)
	switch {
	case src.Path != "":
		origin = "file"
		var data []byte
		data, err = o.readFile(src.Path)
		if err != nil {
			return "", false, errors.Config(op, fmt.Errorf("failed to read identity %s: %w", src.Path, err))
		}
		contents = string(data)
	case src.Parameter != "":
		origin = "ssm"
		contents, err = o.parameters.GetParameter(ctx, src.Parameter)
	case src.Secret != "":
		origin = "secretsmanager"
		contents, err = o.secrets.GetSecretString(ctx, src.Secret)
	}
	if err != nil {
		return "", false, err
	}

	if err := validateIdentity(contents); err != nil {
		return "", false, errors.Config(op, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("source", origin).
		Int("bytes", len(contents)).
		Msg("Loaded identity for secure fetch")

	return contents, true, nil
}

// validateIdentity requires an unencrypted private key that ssh can use
// non-interactively on the instance
func validateIdentity(contents string) error {
	if strings.TrimSpace(contents) == "" {
		return fmt.Errorf("%w: empty", errors.ErrInvalidIdentity)
	}

	_, err := ssh.ParseRawPrivateKey([]byte(contents))
	if err == nil {
		return nil
	}

	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		return fmt.Errorf("%w: key is passphrase protected", errors.ErrInvalidIdentity)
	}
	return fmt.Errorf("%w: %w", errors.ErrInvalidIdentity, err)
}
