package templatert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bengalssg/bengal/internal/hashutil"
	"github.com/bengalssg/bengal/internal/provenance"
)

type fakeRecorder struct {
	records []provenance.InputRecord
}

func (f *fakeRecorder) RecordInput(kind provenance.InputType, logicalPath string, hash hashutil.ContentHash) {
	f.records = append(f.records, provenance.InputRecord{InputType: kind, LogicalPath: logicalPath, Hash: hash})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRender_SiteLocalFallsBackWhenThemeMissing(t *testing.T) {
	root := t.TempDir()
	themesRoot := filepath.Join(root, "themes")
	siteTemplates := filepath.Join(root, "templates")

	writeFile(t, filepath.Join(siteTemplates, "page.html"), "Hello {{ name }}")

	rt, err := New(themesRoot, "default", siteTemplates)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := &fakeRecorder{}
	out, err := rt.Render("page.html", map[string]interface{}{"name": "World"}, rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "Hello World" {
		t.Errorf("out = %q, want %q", out, "Hello World")
	}
	if len(rec.records) != 1 || rec.records[0].InputType != provenance.InputTemplate {
		t.Errorf("expected 1 template input record, got %v", rec.records)
	}
}

func TestRender_ThemeTakesPriorityOverSiteLocal(t *testing.T) {
	root := t.TempDir()
	themesRoot := filepath.Join(root, "themes")
	siteTemplates := filepath.Join(root, "templates")

	writeFile(t, filepath.Join(themesRoot, "custom", "templates", "page.html"), "theme version")
	writeFile(t, filepath.Join(siteTemplates, "page.html"), "site version")

	rt, err := New(themesRoot, "custom", siteTemplates)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := rt.Render("page.html", nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "theme version" {
		t.Errorf("out = %q, want theme to take priority over site-local", out)
	}
}

func TestRender_ThemeInheritanceChainViaExtends(t *testing.T) {
	root := t.TempDir()
	themesRoot := filepath.Join(root, "themes")

	writeFile(t, filepath.Join(themesRoot, "base", "templates", "footer.html"), "base footer")
	writeFile(t, filepath.Join(themesRoot, "child", "theme.toml"), `extends = "base"`)
	writeFile(t, filepath.Join(themesRoot, "child", "templates", "page.html"), "page with {% include \"footer.html\" %}")

	rt, err := New(themesRoot, "child", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := &fakeRecorder{}
	out, err := rt.Render("page.html", nil, rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "page with base footer" {
		t.Errorf("out = %q, want footer resolved through parent theme", out)
	}

	var sawPartial bool
	for _, r := range rec.records {
		if r.InputType == provenance.InputPartial {
			sawPartial = true
		}
	}
	if !sawPartial {
		t.Errorf("expected a partial input record for the included footer, got %v", rec.records)
	}
}

func TestRender_CacheHitStillRecordsInputs(t *testing.T) {
	root := t.TempDir()
	themesRoot := filepath.Join(root, "themes")
	siteTemplates := filepath.Join(root, "templates")
	writeFile(t, filepath.Join(siteTemplates, "page.html"), "static page")

	rt, err := New(themesRoot, "", siteTemplates)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec1 := &fakeRecorder{}
	if _, err := rt.Render("page.html", nil, rec1); err != nil {
		t.Fatalf("Render (first): %v", err)
	}
	rec2 := &fakeRecorder{}
	if _, err := rt.Render("page.html", nil, rec2); err != nil {
		t.Fatalf("Render (second): %v", err)
	}
	if len(rec2.records) != 1 {
		t.Errorf("expected cache-hit render to still record its template input, got %v", rec2.records)
	}
}

func TestJoinBaseURL(t *testing.T) {
	cases := []struct{ baseurl, path, want string }{
		{"", "/foo", "/foo"},
		{"/", "foo", "/foo"},
		{"/blog", "/foo", "/blog/foo"},
		{"/blog/", "/foo", "/blog/foo"},
		{"https://example.com", "/foo", "https://example.com/foo"},
		{"https://example.com/", "/foo", "https://example.com/foo"},
	}
	for _, c := range cases {
		got := JoinBaseURL(c.baseurl, c.path)
		if got != c.want {
			t.Errorf("JoinBaseURL(%q, %q) = %q, want %q", c.baseurl, c.path, got, c.want)
		}
	}
}
