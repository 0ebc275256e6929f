package config

import (
	"os"
	"strconv"
	"strings"
)

// envPrefix namespaces Bengal's environment variable overrides, mirroring
// the teacher's env.go MARKATA_GO_ prefix convention.
const envPrefix = "BENGAL_"

// ApplyEnvOverrides applies BENGAL_* environment variables on top of cfg,
// grounded on the teacher's pkg/config/env.go ApplyEnvOverrides (same
// prefix-strip-and-switch shape, generalized to Bengal's nested key set).
// Keys use double underscores between nesting levels, e.g.
// BENGAL_SITE__BASEURL, BENGAL_BUILD__STRICT_MODE.
func ApplyEnvOverrides(cfg *Config) {
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, envPrefix) {
			continue
		}
		parts := strings.SplitN(e, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(parts[0], envPrefix))
		applyEnvOverride(cfg, key, parts[1])
	}
}

//nolint:gocyclo // mapping env keys to config fields is an unavoidable flat switch
func applyEnvOverride(cfg *Config, key, value string) {
	switch key {
	case "site__title":
		cfg.Site.Title = value
	case "site__baseurl":
		cfg.Site.BaseURL = value
	case "site__description":
		cfg.Site.Description = value
	case "site__author":
		cfg.Site.Author = value
	case "site__language":
		cfg.Site.Language = value
	case "build__output_dir":
		cfg.Build.OutputDir = value
	case "build__content_dir":
		cfg.Build.ContentDir = value
	case "build__parallel":
		cfg.Build.Parallel = boolPtr(parseBool(value))
	case "build__strict_mode":
		cfg.Build.StrictMode = parseBool(value)
	case "build__cache_enabled":
		cfg.Build.CacheEnabled = boolPtr(parseBool(value))
	case "build__max_workers":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.Build.MaxWorkers = n
		}
	case "assets__minify":
		cfg.Assets.Minify = boolPtr(parseBool(value))
	case "assets__optimize":
		cfg.Assets.Optimize = parseBool(value)
	case "assets__fingerprint":
		cfg.Assets.Fingerprint = boolPtr(parseBool(value))
	case "assets__pipeline":
		cfg.Assets.Pipeline = parseBool(value)
	case "assets__bundle_js":
		cfg.Assets.BundleJS = parseBool(value)
	case "css__optimize":
		cfg.CSS.Optimize = parseBool(value)
	case "theme__name", "theme":
		cfg.Theme.Name = value
	case "versioning__enabled":
		cfg.Versioning.Enabled = parseBool(value)
	case "versioning__default_redirect":
		cfg.Versioning.DefaultRedirect = parseBool(value)
	case "versioning__emit_versions_json":
		cfg.Versioning.EmitVersionsJSON = parseBool(value)
	case "versioning__deploy_prefix":
		cfg.Versioning.DeployPrefix = value
	case "versioning__sections":
		cfg.Versioning.Sections = splitList(value)
	case "health_check__enabled":
		cfg.HealthCheck.Enabled = parseBool(value)
	case "health_check__strict_mode":
		cfg.HealthCheck.StrictMode = parseBool(value)
	case "health_check__verbose":
		cfg.HealthCheck.Verbose = parseBool(value)
	case "pagination__per_page":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.Pagination.PerPage = n
		}
	case "pagination__threshold":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.Pagination.Threshold = n
		}
	case "i18n__strategy":
		cfg.I18n.Strategy = I18nStrategy(value)
	case "i18n__default_language":
		cfg.I18n.DefaultLanguage = value
	case "i18n__languages":
		cfg.I18n.Languages = splitList(value)
	case "i18n__default_in_subdir":
		cfg.I18n.DefaultInSubdir = parseBool(value)
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
