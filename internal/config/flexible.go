package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalTOML implements toml.Unmarshaler so `theme = "name"` and
// `[theme]\nname = "name"` both decode into ThemeConfig.
func (t *ThemeConfig) UnmarshalTOML(data interface{}) error {
	if s, ok := data.(string); ok {
		t.Name = s
		return nil
	}
	return remarshalJSON(data, t)
}

// UnmarshalYAML implements yaml.Unmarshaler (yaml.v3 node form) for the
// same bare-string-or-object shorthand.
func (t *ThemeConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Name = value.Value
		return nil
	}
	var alias struct {
		Name string `yaml:"name"`
	}
	if err := value.Decode(&alias); err != nil {
		return fmt.Errorf("config: decoding theme: %w", err)
	}
	t.Name = alias.Name
	return nil
}

// UnmarshalJSON implements the same shorthand for JSON configs.
func (t *ThemeConfig) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Name = s
		return nil
	}
	type alias ThemeConfig
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = ThemeConfig(a)
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler so `health_check = true` and
// `[health_check]\nenabled = true` both decode into HealthCheckConfig.
func (h *HealthCheckConfig) UnmarshalTOML(data interface{}) error {
	if b, ok := data.(bool); ok {
		h.Enabled = b
		return nil
	}
	return remarshalJSON(data, h)
}

// UnmarshalYAML implements the same shorthand for YAML.
func (h *HealthCheckConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var b bool
		if err := value.Decode(&b); err == nil {
			h.Enabled = b
			return nil
		}
	}
	type alias HealthCheckConfig
	var a alias
	if err := value.Decode(&a); err != nil {
		return fmt.Errorf("config: decoding health_check: %w", err)
	}
	*h = HealthCheckConfig(a)
	return nil
}

// UnmarshalJSON implements the same shorthand for JSON.
func (h *HealthCheckConfig) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		h.Enabled = b
		return nil
	}
	type alias HealthCheckConfig
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*h = HealthCheckConfig(a)
	return nil
}
