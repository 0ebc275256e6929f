package config

// MergeConfigs deep-merges override into base, override taking precedence,
// grounded on the teacher's pkg/config/merge.go field-by-field merge
// (string/int fields override only if non-empty/non-zero, slices replace
// wholesale if non-empty). Bool fields take the override's value outright —
// the same choice the teacher makes for GlobConfig.UseGitignore, since a
// bare bool can't distinguish "explicitly set to false" from "not set" in
// the source document.
func MergeConfigs(base, override *Config) *Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := *base

	if override.Site.Title != "" {
		result.Site.Title = override.Site.Title
	}
	if override.Site.BaseURL != "" {
		result.Site.BaseURL = override.Site.BaseURL
	}
	if override.Site.Description != "" {
		result.Site.Description = override.Site.Description
	}
	if override.Site.Author != "" {
		result.Site.Author = override.Site.Author
	}
	if override.Site.Language != "" {
		result.Site.Language = override.Site.Language
	}

	if override.Build.OutputDir != "" {
		result.Build.OutputDir = override.Build.OutputDir
	}
	if override.Build.ContentDir != "" {
		result.Build.ContentDir = override.Build.ContentDir
	}
	if override.Build.MaxWorkers != 0 {
		result.Build.MaxWorkers = override.Build.MaxWorkers
	}
	if override.Build.Parallel != nil {
		result.Build.Parallel = override.Build.Parallel
	}
	result.Build.StrictMode = override.Build.StrictMode
	if override.Build.CacheEnabled != nil {
		result.Build.CacheEnabled = override.Build.CacheEnabled
	}

	if override.Assets.Minify != nil {
		result.Assets.Minify = override.Assets.Minify
	}
	result.Assets.Optimize = override.Assets.Optimize
	if override.Assets.Fingerprint != nil {
		result.Assets.Fingerprint = override.Assets.Fingerprint
	}
	result.Assets.Pipeline = override.Assets.Pipeline
	result.Assets.BundleJS = override.Assets.BundleJS

	result.CSS.Optimize = override.CSS.Optimize

	if override.Theme.Name != "" {
		result.Theme.Name = override.Theme.Name
	}

	result.Versioning.Enabled = override.Versioning.Enabled
	result.Versioning.DefaultRedirect = override.Versioning.DefaultRedirect
	result.Versioning.EmitVersionsJSON = override.Versioning.EmitVersionsJSON
	if override.Versioning.DeployPrefix != "" {
		result.Versioning.DeployPrefix = override.Versioning.DeployPrefix
	}
	if len(override.Versioning.Sections) > 0 {
		result.Versioning.Sections = override.Versioning.Sections
	}

	result.HealthCheck.Enabled = override.HealthCheck.Enabled
	result.HealthCheck.StrictMode = override.HealthCheck.StrictMode
	result.HealthCheck.Verbose = override.HealthCheck.Verbose

	if override.Pagination.PerPage != 0 {
		result.Pagination.PerPage = override.Pagination.PerPage
	}
	if override.Pagination.Threshold != 0 {
		result.Pagination.Threshold = override.Pagination.Threshold
	}

	if override.I18n.Strategy != "" {
		result.I18n.Strategy = override.I18n.Strategy
	}
	if override.I18n.DefaultLanguage != "" {
		result.I18n.DefaultLanguage = override.I18n.DefaultLanguage
	}
	if len(override.I18n.Languages) > 0 {
		result.I18n.Languages = override.I18n.Languages
	}
	result.I18n.DefaultInSubdir = override.I18n.DefaultInSubdir

	return &result
}
