package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bengalssg/bengal/internal/bengalerr"
)

// Format identifies a configuration file's serialization, mirroring the
// teacher's config.Format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers a Format from a file extension, defaulting to TOML
// the same way the teacher's formatFromPath does for bengal.toml.
func FormatFromPath(path string) Format {
	switch ext := strings.ToLower(extOf(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

func extOf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}

// ParseTOML parses a Bengal TOML config document. Unlike the teacher's
// single-section wrapper, Bengal's keys (site.*, build.*, ...) sit at the
// document's top level rather than nested under one wrapper table.
func ParseTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, bengalerr.ConfigError("parse_toml", fmt.Sprintf("invalid TOML: %v", err),
			"check the file for syntax errors (unmatched quotes/brackets, bad indentation)", err)
	}
	return cfg, nil
}

// ParseYAML parses a Bengal YAML config document.
func ParseYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, bengalerr.ConfigError("parse_yaml", fmt.Sprintf("invalid YAML: %v", err),
			"check the file's indentation and key syntax", err)
	}
	return cfg, nil
}

// ParseJSON parses a Bengal JSON config document.
func ParseJSON(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, bengalerr.ConfigError("parse_json", fmt.Sprintf("invalid JSON: %v", err),
			"check the file for a trailing comma or unquoted key", err)
	}
	return cfg, nil
}

// Parse dispatches to the parser matching format.
func Parse(data []byte, format Format) (*Config, error) {
	switch format {
	case FormatTOML:
		return ParseTOML(data)
	case FormatYAML:
		return ParseYAML(data)
	case FormatJSON:
		return ParseJSON(data)
	default:
		return nil, bengalerr.ConfigError("unsupported_format", fmt.Sprintf("unsupported config format %q", format),
			"use a .toml, .yaml/.yml, or .json config file", nil)
	}
}
