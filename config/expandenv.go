package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands ${VAR} and $VAR references in s. A ${VAR}
// reference to an unset variable is an error listing every missing name.
// $$ produces a literal $.
func ExpandEnvStrict(s string) (string, error) {
	const dollar = "\x00TOKENOPS_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	var missing []string
	for _, m := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(m[1]); !ok && !slices.Contains(missing, m[1]) {
			missing = append(missing, m[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollar, "$"), nil
}

// verbatimKeys name mapping values that are never expanded. bcrypt hashes
// contain "$".
var verbatimKeys = map[string]bool{"secret_hash": true}

// expandNode expands every scalar below n in place. Plain scalars lose
// their resolved tag so that `db: ${REDIS_DB}` still decodes as an int.
func expandNode(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if !strings.Contains(n.Value, "$") {
			return nil
		}
		v, err := ExpandEnvStrict(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		n.Value = v
		if n.Style == 0 {
			n.Tag = ""
		}
	case yaml.DocumentNode, yaml.SequenceNode, yaml.MappingNode:
		for i, child := range n.Content {
			// Mapping keys are left alone.
			if n.Kind == yaml.MappingNode && (i%2 == 0 || verbatimKeys[n.Content[i-1].Value]) {
				continue
			}
			if err := expandNode(child); err != nil {
				return err
			}
		}
	}
	return nil
}
