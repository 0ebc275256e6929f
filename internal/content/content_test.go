package content

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestParseFrontmatter_YAML(t *testing.T) {
	content := "---\ntitle: Hello\ntags:\n  - a\n  - b\n---\nBody text\n"
	meta, body, err := ParseFrontmatter(content)
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if meta.Get("title").AsStringOr("") != "Hello" {
		t.Errorf("title = %v", meta.Get("title"))
	}
	if got := meta.Get("tags").AsListOfStringsOr(nil); len(got) != 2 || got[0] != "a" {
		t.Errorf("tags = %v", got)
	}
	if body != "Body text\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontmatter_TOML(t *testing.T) {
	content := "+++\ntitle = \"Hello\"\n+++\nBody\n"
	meta, body, err := ParseFrontmatter(content)
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if meta.Get("title").AsStringOr("") != "Hello" {
		t.Errorf("title = %v", meta.Get("title"))
	}
	if body != "Body\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontmatter_NoFrontmatter(t *testing.T) {
	meta, body, err := ParseFrontmatter("just content")
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if len(meta) != 0 {
		t.Errorf("expected empty metadata, got %v", meta)
	}
	if body != "just content" {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontmatter_Unclosed(t *testing.T) {
	_, _, err := ParseFrontmatter("---\ntitle: Hello\n")
	if err == nil {
		t.Errorf("expected error for unclosed frontmatter")
	}
}

func TestPathToSlug(t *testing.T) {
	cases := map[string]string{
		"docs/getting-started.md": "docs/getting-started",
		"blog/2024/index.md":      "blog/2024",
		"index.md":                "",
	}
	for in, want := range cases {
		if got := PathToSlug(in); got != want {
			t.Errorf("PathToSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetermineKind_DateHeuristic(t *testing.T) {
	sec := &Section{Name: "random", Metadata: Metadata{}}
	pages := []*Page{
		{RawMetadata: Metadata{"date": NewString("2024-01-01")}},
		{RawMetadata: Metadata{"date": NewString("2024-01-02")}},
		{RawMetadata: Metadata{}},
	}
	if got := DetermineKind(sec, pages); got != KindArchive {
		t.Errorf("DetermineKind = %v, want archive", got)
	}
}

func TestDetermineKind_NameConvention(t *testing.T) {
	sec := &Section{Name: "api", Metadata: Metadata{}}
	if got := DetermineKind(sec, nil); got != KindAPIReference {
		t.Errorf("DetermineKind = %v, want api-reference", got)
	}
}

func TestDiscover_BuildsTreeAndSkipsUnparseableInNonStrictMode(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "index.md"), "---\ntitle: Home\n---\nWelcome\n")
	writeTestFile(t, filepath.Join(root, "blog", "post-one.md"), "---\ntitle: Post One\ndate: 2024-01-01\n---\nHi\n")
	writeTestFile(t, filepath.Join(root, "blog", "broken.md"), "---\ntitle: Broken\n")

	tree, err := Discover(DiscoverOptions{ContentDir: root})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(tree.Pages) != 2 {
		t.Errorf("expected 2 successfully parsed pages, got %d: %v", len(tree.Pages), tree.Pages)
	}
	blog, ok := tree.Sections["blog"]
	if !ok {
		t.Fatalf("expected blog section to exist")
	}
	if len(blog.Pages) != 1 {
		t.Errorf("expected 1 page in blog section, got %d", len(blog.Pages))
	}
}

func TestDiscover_StrictModeAbortsOnUnparseable(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "broken.md"), "---\ntitle: Broken\n")

	_, err := Discover(DiscoverOptions{ContentDir: root, StrictMode: true})
	if err == nil {
		t.Errorf("expected strict-mode Discover to abort on unparseable frontmatter")
	}
}
