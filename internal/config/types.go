// Package config loads and merges Bengal's site configuration, following
// the layered discover -> parse -> merge-with-defaults -> apply-env-overrides
// pipeline of the teacher's pkg/config, generalized to the configuration
// surface named in spec.md §6.
package config

import "encoding/json"

// Config is the fully-resolved site configuration. Every field has a
// zero-cost default so a site with no config file at all still builds.
type Config struct {
	Site        SiteConfig        `toml:"site" yaml:"site" json:"site"`
	Build       BuildConfig       `toml:"build" yaml:"build" json:"build"`
	Assets      AssetsConfig      `toml:"assets" yaml:"assets" json:"assets"`
	CSS         CSSConfig         `toml:"css" yaml:"css" json:"css"`
	Theme       ThemeConfig       `toml:"theme" yaml:"theme" json:"theme"`
	Versioning  VersioningConfig  `toml:"versioning" yaml:"versioning" json:"versioning"`
	HealthCheck HealthCheckConfig `toml:"health_check" yaml:"health_check" json:"health_check"`
	Pagination  PaginationConfig  `toml:"pagination" yaml:"pagination" json:"pagination"`
	I18n        I18nConfig        `toml:"i18n" yaml:"i18n" json:"i18n"`
}

// SiteConfig holds site.* keys.
type SiteConfig struct {
	Title       string `toml:"title" yaml:"title" json:"title"`
	BaseURL     string `toml:"baseurl" yaml:"baseurl" json:"baseurl"`
	Description string `toml:"description" yaml:"description" json:"description"`
	Author      string `toml:"author" yaml:"author" json:"author"`
	Language    string `toml:"language" yaml:"language" json:"language"`
}

// BuildConfig holds build.* keys. Parallel and CacheEnabled default to true,
// so — following the teacher's HighlightConfig.Enabled *bool idiom — they
// are pointers: a nil pointer means "not set, use the default" and is
// distinguishable from an explicit `false` in the source document, which a
// bare bool cannot do.
type BuildConfig struct {
	OutputDir    string `toml:"output_dir" yaml:"output_dir" json:"output_dir"`
	ContentDir   string `toml:"content_dir" yaml:"content_dir" json:"content_dir"`
	Parallel     *bool  `toml:"parallel" yaml:"parallel" json:"parallel"`
	StrictMode   bool   `toml:"strict_mode" yaml:"strict_mode" json:"strict_mode"`
	CacheEnabled *bool  `toml:"cache_enabled" yaml:"cache_enabled" json:"cache_enabled"`
	MaxWorkers   int    `toml:"max_workers" yaml:"max_workers" json:"max_workers"`
}

// IsParallel reports whether parallel building is enabled, defaulting to
// true when unset.
func (b BuildConfig) IsParallel() bool {
	if b.Parallel == nil {
		return true
	}
	return *b.Parallel
}

// IsCacheEnabled reports whether the build cache is enabled, defaulting to
// true when unset.
func (b BuildConfig) IsCacheEnabled() bool {
	if b.CacheEnabled == nil {
		return true
	}
	return *b.CacheEnabled
}

// AssetsConfig holds assets.* keys. Minify and Fingerprint default to true
// and are pointers for the same reason as BuildConfig.Parallel above.
type AssetsConfig struct {
	Minify      *bool `toml:"minify" yaml:"minify" json:"minify"`
	Optimize    bool  `toml:"optimize" yaml:"optimize" json:"optimize"`
	Fingerprint *bool `toml:"fingerprint" yaml:"fingerprint" json:"fingerprint"`
	Pipeline    bool  `toml:"pipeline" yaml:"pipeline" json:"pipeline"`
	BundleJS    bool  `toml:"bundle_js" yaml:"bundle_js" json:"bundle_js"`
}

// IsMinify reports whether asset minification is enabled, defaulting to
// true when unset.
func (a AssetsConfig) IsMinify() bool {
	if a.Minify == nil {
		return true
	}
	return *a.Minify
}

// IsFingerprint reports whether asset fingerprinting is enabled, defaulting
// to true when unset.
func (a AssetsConfig) IsFingerprint() bool {
	if a.Fingerprint == nil {
		return true
	}
	return *a.Fingerprint
}

// CSSConfig holds css.* keys.
type CSSConfig struct {
	Optimize bool `toml:"optimize" yaml:"optimize" json:"optimize"`
}

// ThemeConfig holds theme.*. Per spec.md §6, "theme may also be a string" —
// `theme = "mytheme"` is shorthand for `theme.name = "mytheme"`. The
// Unmarshal* methods below accept both forms, the same tolerant-shape idiom
// as the teacher's HighlightConfig.Enabled *bool default handling.
type ThemeConfig struct {
	Name string `toml:"name" yaml:"name" json:"name"`
}

// VersioningConfig holds versioning.* keys.
type VersioningConfig struct {
	Enabled          bool     `toml:"enabled" yaml:"enabled" json:"enabled"`
	DefaultRedirect  bool     `toml:"default_redirect" yaml:"default_redirect" json:"default_redirect"`
	EmitVersionsJSON bool     `toml:"emit_versions_json" yaml:"emit_versions_json" json:"emit_versions_json"`
	DeployPrefix     string   `toml:"deploy_prefix" yaml:"deploy_prefix" json:"deploy_prefix"`
	Sections         []string `toml:"sections" yaml:"sections" json:"sections"`
}

// HealthCheckConfig holds health_check.*. Per spec.md §6, `health_check` may
// be a bare bool (shorthand for Enabled) or an object with Enabled plus the
// other fields.
type HealthCheckConfig struct {
	Enabled    bool `toml:"enabled" yaml:"enabled" json:"enabled"`
	StrictMode bool `toml:"strict_mode" yaml:"strict_mode" json:"strict_mode"`
	Verbose    bool `toml:"verbose" yaml:"verbose" json:"verbose"`
}

// PaginationConfig holds pagination.* keys.
type PaginationConfig struct {
	PerPage   int `toml:"per_page" yaml:"per_page" json:"per_page"`
	Threshold int `toml:"threshold" yaml:"threshold" json:"threshold"`
}

// I18nStrategy is the i18n.strategy enum.
type I18nStrategy string

const (
	I18nNone   I18nStrategy = "none"
	I18nPrefix I18nStrategy = "prefix"
)

// I18nConfig holds i18n.* keys.
type I18nConfig struct {
	Strategy        I18nStrategy `toml:"strategy" yaml:"strategy" json:"strategy"`
	DefaultLanguage string       `toml:"default_language" yaml:"default_language" json:"default_language"`
	Languages       []string     `toml:"languages" yaml:"languages" json:"languages"`
	DefaultInSubdir bool         `toml:"default_in_subdir" yaml:"default_in_subdir" json:"default_in_subdir"`
}

// DefaultConfig returns the configuration used when no file is present and
// as the base layer MergeConfigs fills missing values from, mirroring the
// teacher's models.NewConfig.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Language: "en",
		},
		Build: BuildConfig{
			OutputDir:  "public",
			ContentDir: "content",
		},
		Assets: AssetsConfig{},
		Theme: ThemeConfig{
			Name: "default",
		},
		Pagination: PaginationConfig{
			PerPage:   10,
			Threshold: 1,
		},
		I18n: I18nConfig{
			Strategy:        I18nNone,
			DefaultLanguage: "en",
		},
	}
}

// remarshalJSON is a small helper used by the flexible-shape Unmarshal
// methods in flexible.go to re-enter encoding/json for a value already decoded into
// an interface{} by a format-specific decoder.
func remarshalJSON(v interface{}, out interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
