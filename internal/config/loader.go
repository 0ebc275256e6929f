package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bengalssg/bengal/internal/bengalerr"
)

// configFileNames lists Bengal's recognized config filenames in discovery
// order, mirroring the teacher's configFileNames in pkg/config/loader.go.
var configFileNames = []string{
	"bengal.toml",
	"bengal.yaml",
	"bengal.yml",
	"bengal.json",
}

// Discover looks for a Bengal config file in siteRoot, returning "" (no
// error) if none is found — an absent config is not a ConfigError, a site
// with defaults alone is a valid Bengal site per spec.md §6.
func Discover(siteRoot string) (string, error) {
	for _, name := range configFileNames {
		path := filepath.Join(siteRoot, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", nil
}

// Load reads and resolves a site's configuration: discover (if configPath
// is empty), parse, merge onto defaults, and apply BENGAL_* environment
// overrides — the same layered pipeline as the teacher's pkg/config/loader.go
// Load, adapted to Bengal's flat top-level key surface and abort-before-
// output ConfigError semantics (spec.md §7).
func Load(siteRoot, configPath string) (*Config, error) {
	if configPath == "" {
		discovered, err := Discover(siteRoot)
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}

	defaults := DefaultConfig()

	if configPath == "" {
		ApplyEnvOverrides(defaults)
		return defaults, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, bengalerr.ConfigError("unreadable_config", fmt.Sprintf("cannot read config file %s", configPath),
			"check the file exists and is readable", err)
	}

	parsed, err := Parse(data, FormatFromPath(configPath))
	if err != nil {
		return nil, err
	}

	merged := MergeConfigs(defaults, parsed)
	if err := Validate(merged); err != nil {
		return nil, err
	}

	ApplyEnvOverrides(merged)
	return merged, nil
}
