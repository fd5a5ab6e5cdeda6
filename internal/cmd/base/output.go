package base

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by the -format flag.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Render encodes v as indented JSON or as YAML. YAML output goes through a
// JSON round trip so json tags and json.Marshaler implementations decide the
// field names in both formats.
func Render(v any, format string) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode output: %w", err)
	}

	switch strings.ToLower(format) {
	case "", FormatJSON:
		return string(data), nil
	case FormatYAML:
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return "", fmt.Errorf("failed to encode output: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return "", fmt.Errorf("failed to encode output: %w", err)
		}
		return strings.TrimRight(string(out), "\n"), nil
	default:
		return "", fmt.Errorf("unsupported format %q (want json or yaml)", format)
	}
}
