package cssbundle

import (
	"strings"
	"testing"
)

func fakeFS(files map[string]string) FileReader {
	return func(path string) ([]byte, error) {
		if content, ok := files[path]; ok {
			return []byte(content), nil
		}
		return nil, &missingFileError{path: path}
	}
}

type missingFileError struct{ path string }

func (e *missingFileError) Error() string { return "file not found: " + e.path }

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestBundle_InlinesSimpleImport(t *testing.T) {
	fs := fakeFS(map[string]string{
		"/css/main.css":  `@import "base.css"; body { color: red; }`,
		"/css/base.css":  `html { margin: 0; }`,
	})
	out, err := Bundle("/css/main.css", fs)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if !strings.Contains(out, "html { margin: 0; }") {
		t.Errorf("expected inlined base.css, got: %s", out)
	}
	if !strings.Contains(out, "body { color: red; }") {
		t.Errorf("expected entry content preserved, got: %s", out)
	}
}

func TestBundle_ResolvesRelativeToImportingFile(t *testing.T) {
	fs := fakeFS(map[string]string{
		"/css/main.css":         `@import "components/button.css";`,
		"/css/components/button.css": `.btn { padding: 1px; }`,
	})
	out, err := Bundle("/css/main.css", fs)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if !strings.Contains(out, ".btn { padding: 1px; }") {
		t.Errorf("expected nested relative import resolved, got: %s", out)
	}
}

func TestBundle_MissingImportPreservedVerbatim(t *testing.T) {
	fs := fakeFS(map[string]string{
		"/css/main.css": `@import "missing.css"; body {}`,
	})
	out, err := Bundle("/css/main.css", fs)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if !strings.Contains(out, `@import "missing.css"`) {
		t.Errorf("expected missing import preserved verbatim, got: %s", out)
	}
}

func TestBundle_ExternalURLPreservedVerbatim(t *testing.T) {
	fs := fakeFS(map[string]string{
		"/css/main.css": `@import url(https://fonts.example.com/a.css); body {}`,
	})
	out, err := Bundle("/css/main.css", fs)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if !strings.Contains(out, "https://fonts.example.com/a.css") {
		t.Errorf("expected external import preserved verbatim, got: %s", out)
	}
}

func TestBundle_PreservesLayerBlockStructureAndOrder(t *testing.T) {
	fs := fakeFS(map[string]string{
		"/css/main.css": `
@layer base {
  @import "reset.css";
  html { margin: 0; }
}
@layer components {
  .btn { color: blue; }
}
`,
		"/css/reset.css": `* { box-sizing: border-box; }`,
	})
	out, err := Bundle("/css/main.css", fs)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	normalized := normalize(out)
	baseIdx := strings.Index(normalized, "@layer base")
	componentsIdx := strings.Index(normalized, "@layer components")
	if baseIdx < 0 || componentsIdx < 0 || baseIdx > componentsIdx {
		t.Fatalf("expected @layer base before @layer components, got: %s", normalized)
	}
	if !strings.Contains(normalized, "box-sizing: border-box") {
		t.Errorf("expected reset.css inlined inside @layer base, got: %s", normalized)
	}
}

func TestBundle_CircularImportDoesNotInfiniteLoop(t *testing.T) {
	fs := fakeFS(map[string]string{
		"/css/a.css": `@import "b.css"; .a {}`,
		"/css/b.css": `@import "a.css"; .b {}`,
	})
	out, err := Bundle("/css/a.css", fs)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if !strings.Contains(out, ".a {}") || !strings.Contains(out, ".b {}") {
		t.Errorf("expected both files' content present, got: %s", out)
	}
}
