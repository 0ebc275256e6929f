package markdown

import "testing"

func TestRender_BasicGFMAndHighlighting(t *testing.T) {
	r := New(DefaultOptions())
	out, err := r.Render([]byte("# Title\n\n```go\nfunc main() {}\n```\n\n~~gone~~ and a table:\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out == "" {
		t.Fatalf("expected non-empty output")
	}
}

func TestRender_Emoji(t *testing.T) {
	r := New(DefaultOptions())
	out, err := r.Render([]byte("I :heart: Go"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out == "" {
		t.Fatalf("expected non-empty output")
	}
}
