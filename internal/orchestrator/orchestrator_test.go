package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newTestSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "bengal.toml"), `
[site]
title = "Test Site"
baseurl = "https://example.com"

[build]
output_dir = "public"
content_dir = "content"
`)

	writeFile(t, filepath.Join(root, "templates", "page.html"),
		`<html><head><link href="/style.css"></head><body>{{ content|safe }}</body></html>`)

	writeFile(t, filepath.Join(root, "content", "about.md"), `---
title: About
---
Hello from about.
`)

	writeFile(t, filepath.Join(root, "assets", "css", "style.css"), `body { color: black; }`)

	return root
}

func TestRun_FullBuildWritesOutput(t *testing.T) {
	root := newTestSite(t)

	o := New(Options{SiteRoot: root, BuildID: "test-build"})
	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.PagesRendered == 0 {
		t.Errorf("result.PagesRendered = 0, want at least 1")
	}

	out, err := os.ReadFile(filepath.Join(root, "public", "about", "index.html"))
	if err != nil {
		t.Fatalf("reading rendered output: %v", err)
	}
	if !strings.Contains(string(out), "Hello from about") {
		t.Errorf("output = %q, missing rendered body", out)
	}

	if _, err := os.Stat(filepath.Join(root, "public", "sitemap.xml")); err != nil {
		t.Errorf("sitemap.xml not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".bengal", "provenance")); err != nil {
		t.Errorf("provenance cache dir not written: %v", err)
	}

	if result.AssetsProcessed == 0 {
		t.Errorf("result.AssetsProcessed = 0, want style.css to be bundled as a CSS entry point")
	}
	manifestData, err := os.ReadFile(filepath.Join(root, "public", "asset-manifest.json"))
	if err != nil {
		t.Fatalf("reading asset manifest: %v", err)
	}
	if !strings.Contains(string(manifestData), "css/style.css") {
		t.Errorf("manifest = %s, missing css/style.css entry", manifestData)
	}
}

func TestRun_SecondBuildIsIncrementalCacheHit(t *testing.T) {
	root := newTestSite(t)

	first := New(Options{SiteRoot: root, BuildID: "build-1"})
	if _, err := first.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	second := New(Options{SiteRoot: root, BuildID: "build-2", Incremental: true})
	result, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if result.FullRebuild {
		t.Errorf("second build: FullRebuild = true, want incremental since nothing changed")
	}
	if result.PagesRendered != 0 {
		t.Errorf("second build: PagesRendered = %d, want 0 (unchanged content)", result.PagesRendered)
	}
	if result.AssetsProcessed != 0 {
		t.Errorf("second build: AssetsProcessed = %d, want 0 (unchanged assets)", result.AssetsProcessed)
	}
}

func TestRun_RootIndexMapsToRootOutput(t *testing.T) {
	root := newTestSite(t)
	writeFile(t, filepath.Join(root, "content", "index.md"), `---
title: Home
---
Welcome home.
`)

	o := New(Options{SiteRoot: root, BuildID: "test-build"})
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(root, "public", "index.html"))
	if err != nil {
		t.Fatalf("reading root index output: %v", err)
	}
	if !strings.Contains(string(out), "Welcome home") {
		t.Errorf("output = %q, missing rendered body", out)
	}
	if _, err := os.Stat(filepath.Join(root, "public", "index", "index.html")); err == nil {
		t.Errorf("root index.md must not produce public/index/index.html")
	}
}

func TestRun_CancelledContextStopsEarly(t *testing.T) {
	root := newTestSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(Options{SiteRoot: root})
	_, err := o.Run(ctx)
	if err == nil {
		t.Fatalf("expected an error from a pre-cancelled context")
	}
}
