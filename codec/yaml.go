package codec

import "github.com/goccy/go-yaml"

// YAML is the application/yaml codec backed by goccy/go-yaml.
type YAML struct{}

// MediaType returns "application/yaml".
func (YAML) MediaType() string { return MediaYAML }

// Aliases returns the legacy YAML media types.
func (YAML) Aliases() []string { return []string{"application/x-yaml", "text/yaml"} }

// Encode marshals v as YAML.
func (YAML) Encode(v any) ([]byte, error) { return yaml.Marshal(v) }

// Decode unmarshals YAML data into v.
func (YAML) Decode(data []byte, v any) error { return yaml.Unmarshal(data, v) }
