package orchestrator

import (
	"bytes"
	"fmt"

	"github.com/savaki/abbey/internal/errors"
	"gopkg.in/yaml.v3"
)

// loadExtraVars reads the extra vars file, if any, and checks that it holds a
// single YAML mapping as ansible-playbook -e@ expects
func (o *Orchestrator) loadExtraVars(path string) (string, error) {
	const op = "load extra vars"

	if path == "" {
		return "", nil
	}

	data, err := o.readFile(path)
	if err != nil {
		return "", errors.Config(op, fmt.Errorf("failed to read %s: %w", path, err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", errors.Config(op, fmt.Errorf("failed to parse %s: %w", path, err))
	}
	if len(doc.Content) == 0 {
		return "", nil
	}
	if root := doc.Content[0]; root.Kind != yaml.MappingNode {
		return "", errors.Config(op, fmt.Errorf("%s must contain a mapping of variables", path))
	}

	return string(data), nil
}
