package incremental

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bengalssg/bengal/internal/content"
	"github.com/bengalssg/bengal/internal/hashutil"
	"github.com/bengalssg/bengal/internal/provenance"
	"github.com/bengalssg/bengal/internal/render"
	"github.com/bengalssg/bengal/internal/templatert"
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

func testSetup(t *testing.T) (root string, tree *content.Tree, store *provenance.Store, templates *templatert.Runtime) {
	t.Helper()
	root = t.TempDir()
	writeFile(t, filepath.Join(root, "templates", "page.html"), "hi")
	var err error
	templates, err = templatert.New(filepath.Join(root, "themes"), "", filepath.Join(root, "templates"))
	if err != nil {
		t.Fatalf("templatert.New: %v", err)
	}
	store, err = provenance.Open(filepath.Join(root, "cache"))
	if err != nil {
		t.Fatalf("provenance.Open: %v", err)
	}

	tree = content.NewTree()
	tree.AddPage(&content.Page{
		PageID:      "a.md",
		SourcePath:  filepath.Join(root, "content", "a.md"),
		ContentHash: hashutil.HashBytes([]byte("a body")),
		RawMetadata: content.Metadata{},
	})
	return root, tree, store, templates
}

func TestEvaluate_DisabledIsFullRebuild(t *testing.T) {
	_, tree, store, templates := testSetup(t)
	result := Evaluate(tree, store, templates, Options{Enabled: false})
	if !result.FullRebuild || result.Reason != ReasonDisabled {
		t.Errorf("result = %+v, want full rebuild with ReasonDisabled", result)
	}
	if len(result.PagesToBuild) != 1 {
		t.Errorf("PagesToBuild = %v, want 1 page", result.PagesToBuild)
	}
}

func TestEvaluate_ConfigHashChangedIsFullRebuildAndInvalidates(t *testing.T) {
	_, tree, store, templates := testSetup(t)
	result := Evaluate(tree, store, templates, Options{
		Enabled:        true,
		OutputDir:      t.TempDir(),
		ConfigHash:     "new",
		PrevConfigHash: "old",
	})
	if !result.FullRebuild || result.Reason != ReasonConfigChanged || !result.InvalidateCache {
		t.Errorf("result = %+v, want full rebuild + invalidate for config change", result)
	}
}

func TestEvaluate_MissingOutputDirIsFullRebuild(t *testing.T) {
	_, tree, store, templates := testSetup(t)
	result := Evaluate(tree, store, templates, Options{
		Enabled:   true,
		OutputDir: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	if !result.FullRebuild || result.Reason != ReasonOutputMissing {
		t.Errorf("result = %+v, want full rebuild for missing output dir", result)
	}
}

func TestEvaluate_UnchangedPageIsCacheHit(t *testing.T) {
	root, tree, store, templates := testSetup(t)
	outputDir := t.TempDir()
	manifestPath := filepath.Join(outputDir, "asset-manifest.json")
	writeFile(t, manifestPath, "{}")

	page := tree.Pages["a.md"]
	in := render.Inputs{ConfigHash: "cfg"}
	probed := render.ProbePageProvenance(templates, page, in)
	store.Store(provenance.ProvenanceRecord{PageID: page.PageID, Provenance: probed, OutputHash: "out1"})

	result := Evaluate(tree, store, templates, Options{
		Enabled:        true,
		OutputDir:      outputDir,
		ManifestPath:   manifestPath,
		ConfigHash:     "cfg",
		PrevConfigHash: "cfg",
	})
	if result.FullRebuild {
		t.Fatalf("result = %+v, want incremental (not full rebuild)", result)
	}
	if len(result.PagesToBuild) != 0 {
		t.Errorf("PagesToBuild = %v, want none (page unchanged)", result.PagesToBuild)
	}
	_ = root
}

func TestEvaluate_ChangedPageIsRebuilt(t *testing.T) {
	root, tree, store, templates := testSetup(t)
	outputDir := t.TempDir()
	manifestPath := filepath.Join(outputDir, "asset-manifest.json")
	writeFile(t, manifestPath, "{}")

	page := tree.Pages["a.md"]
	in := render.Inputs{ConfigHash: "cfg"}
	probed := render.ProbePageProvenance(templates, page, in)
	store.Store(provenance.ProvenanceRecord{PageID: page.PageID, Provenance: probed, OutputHash: "out1"})

	// Content changes after the last recorded build.
	page.ContentHash = hashutil.HashBytes([]byte("changed body"))

	result := Evaluate(tree, store, templates, Options{
		Enabled:        true,
		OutputDir:      outputDir,
		ManifestPath:   manifestPath,
		ConfigHash:     "cfg",
		PrevConfigHash: "cfg",
	})
	if len(result.PagesToBuild) != 1 || result.PagesToBuild[0] != "a.md" {
		t.Errorf("PagesToBuild = %v, want [a.md]", result.PagesToBuild)
	}
	_ = root
}

func TestEvaluate_TemplateChangeRebuildsReferencingPages(t *testing.T) {
	root, tree, store, templates := testSetup(t)
	outputDir := t.TempDir()
	manifestPath := filepath.Join(outputDir, "asset-manifest.json")
	writeFile(t, manifestPath, "{}")

	page := tree.Pages["a.md"]
	in := render.Inputs{ConfigHash: "cfg"}
	probed := render.ProbePageProvenance(templates, page, in)
	store.Store(provenance.ProvenanceRecord{PageID: page.PageID, Provenance: probed, OutputHash: "out1"})

	// TemplateHashes is keyed by the template's resolved logical path,
	// the same path RenderPage records as an InputTemplate — not the
	// bare template name.
	templatePath, _, _, ok := templates.ProbeTemplateInputs("page.html")
	if !ok {
		t.Fatalf("expected page.html to resolve")
	}

	result := Evaluate(tree, store, templates, Options{
		Enabled:            true,
		OutputDir:          outputDir,
		ManifestPath:       manifestPath,
		ConfigHash:         "cfg",
		PrevConfigHash:     "cfg",
		TemplateHashes:     map[string]hashutil.ContentHash{templatePath: "v2"},
		PrevTemplateHashes: map[string]hashutil.ContentHash{templatePath: "v1"},
	})
	if len(result.PagesToBuild) != 1 || result.PagesToBuild[0] != "a.md" {
		t.Errorf("PagesToBuild = %v, want [a.md] after template change", result.PagesToBuild)
	}
	_ = root
}

func TestEvaluate_AffectedTagsUnionsChangedPageTags(t *testing.T) {
	_, tree, store, templates := testSetup(t)
	tree.Pages["a.md"].RawMetadata = content.Metadata{
		"tags": content.NewList([]content.Value{content.NewString("go"), content.NewString("ssg")}),
	}
	result := Evaluate(tree, store, templates, Options{Enabled: false})
	if len(result.AffectedTags) != 2 || result.AffectedTags[0] != "go" || result.AffectedTags[1] != "ssg" {
		t.Errorf("AffectedTags = %v, want [go ssg]", result.AffectedTags)
	}
}
