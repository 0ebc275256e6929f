package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Build.OutputDir != "public" {
		t.Errorf("OutputDir = %q, want public", cfg.Build.OutputDir)
	}
	if !cfg.Build.IsParallel() {
		t.Errorf("expected Parallel to default true")
	}
	if !cfg.Assets.IsMinify() {
		t.Errorf("expected Minify to default true")
	}
}

func TestLoad_DiscoversTOMLAndMergesOverDefaults(t *testing.T) {
	root := t.TempDir()
	content := `
[site]
title = "My Site"
baseurl = "/blog"

[build]
strict_mode = true

[assets]
minify = false
`
	if err := os.WriteFile(filepath.Join(root, "bengal.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Site.Title != "My Site" || cfg.Site.BaseURL != "/blog" {
		t.Errorf("site section not loaded: %+v", cfg.Site)
	}
	if !cfg.Build.StrictMode {
		t.Errorf("expected StrictMode true")
	}
	if cfg.Build.ContentDir != "content" {
		t.Errorf("expected default ContentDir preserved, got %q", cfg.Build.ContentDir)
	}
	if cfg.Assets.IsMinify() {
		t.Errorf("expected explicit minify=false to be honored, not defaulted")
	}
}

func TestLoad_ThemeShorthandString(t *testing.T) {
	root := t.TempDir()
	content := `theme = "forest"`
	if err := os.WriteFile(filepath.Join(root, "bengal.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme.Name != "forest" {
		t.Errorf("Theme.Name = %q, want forest", cfg.Theme.Name)
	}
}

func TestLoad_HealthCheckShorthandBool(t *testing.T) {
	root := t.TempDir()
	content := `health_check = true`
	if err := os.WriteFile(filepath.Join(root, "bengal.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.HealthCheck.Enabled {
		t.Errorf("expected health_check.enabled true from bare bool shorthand")
	}
}

func TestLoad_YAMLThemeShorthand(t *testing.T) {
	root := t.TempDir()
	content := "theme: forest\n"
	if err := os.WriteFile(filepath.Join(root, "bengal.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme.Name != "forest" {
		t.Errorf("Theme.Name = %q, want forest", cfg.Theme.Name)
	}
}

func TestValidate_RejectsUnknownI18nStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.I18n.Strategy = "bogus"
	if err := Validate(cfg); err == nil {
		t.Errorf("expected validation error for unknown i18n strategy")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("BENGAL_SITE__TITLE", "Env Title")
	t.Setenv("BENGAL_BUILD__STRICT_MODE", "true")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	if cfg.Site.Title != "Env Title" {
		t.Errorf("Site.Title = %q, want Env Title", cfg.Site.Title)
	}
	if !cfg.Build.StrictMode {
		t.Errorf("expected StrictMode true from env override")
	}
}

func TestMergeConfigs_NilBase(t *testing.T) {
	override := DefaultConfig()
	if got := MergeConfigs(nil, override); got != override {
		t.Errorf("expected MergeConfigs(nil, override) to return override")
	}
}
