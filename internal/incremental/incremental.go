// Package incremental implements the IncrementalFilterEngine of spec.md
// §4.9: the R1-R7 decision table that turns a full content/asset tree
// plus a previous-build cache into the narrower `pages_to_build` and
// `assets_to_process` sets an incremental build actually needs to touch.
//
// No single teacher file implements this — markata-go always does a
// full rebuild — so the decision table itself is grounded directly on
// spec.md §4.9's rule list. The freshness probe it reuses
// (render.ProbePageProvenance) and the persistent state it reads
// (provenance.Store) are both teacher-shaped: internal/provenance
// mirrors the teacher's never-built buildcache concept one level more
// precisely (content-addressed rather than mtime-based), and the
// subvenance fan-out below follows provenance.Store's own
// GetAffectedBy contract exactly as documented there.
package incremental

import (
	"os"
	"sort"

	"github.com/bengalssg/bengal/internal/content"
	"github.com/bengalssg/bengal/internal/hashutil"
	"github.com/bengalssg/bengal/internal/provenance"
	"github.com/bengalssg/bengal/internal/render"
	"github.com/bengalssg/bengal/internal/templatert"
)

// Reason names which rule of the R1-R7 table decided a build's scope,
// for build-summary reporting.
type Reason string

const (
	ReasonDisabled         Reason = "incremental_disabled"          // R1
	ReasonConfigChanged     Reason = "config_hash_changed"          // R2
	ReasonOutputMissing     Reason = "output_dir_or_manifest_missing" // R3
	ReasonAutodocMissing    Reason = "autodoc_content_missing"       // R4
	ReasonTemplatesChanged  Reason = "template_set_changed"          // R5
	ReasonIncremental       Reason = "incremental"                    // R6/R7 per-page evaluation ran
)

// Options configures one Evaluate call with everything the R1-R4 rules
// need to decide whether a full rebuild is unavoidable before any
// per-page work happens.
type Options struct {
	// Enabled is false when the build was invoked without incremental
	// mode (R1), or after a "clean" request.
	Enabled bool

	// OutputDir and ManifestPath back R3: a missing/empty output
	// directory or an absent asset manifest means there is nothing
	// valid to incrementally build on top of.
	OutputDir    string
	ManifestPath string

	// ConfigHash is the current build's config hash; PrevConfigHash is
	// the hash recorded by the last successful build (empty if none).
	ConfigHash     hashutil.ContentHash
	PrevConfigHash hashutil.ContentHash

	// AutodocPaths are output paths the build expects autodoc-generated
	// content to already occupy (R4); any missing path forces a full
	// rebuild since that content can't be incrementally regenerated
	// from a content-tree diff alone.
	AutodocPaths []string

	// TemplateHashes maps every resolved top-level template's logical
	// path (the same absolute path templatert.Runtime records as an
	// InputTemplate — not the bare template name) to its current
	// content hash; PrevTemplateHashes is the set recorded by the last
	// successful build. A path present in one but not the other, or
	// present in both with a different hash, counts as "changed" for
	// R5 — provenanceReferencesAny matches these paths directly against
	// each stored record's InputTemplate entries.
	TemplateHashes     map[string]hashutil.ContentHash
	PrevTemplateHashes map[string]hashutil.ContentHash

	// PageTemplateName resolves a page to the template name it will
	// render with, for folding template changes into the page-level
	// rebuild set (R5) and for probing accurate per-page provenance
	// (R6/R7). A nil func defaults every page to "page.html".
	PageTemplateName func(*content.Page) string

	// SectionMetaHash resolves a page's owning section to the metadata
	// hash RenderPage would probe, mirroring spec.md §4.8 step 2.
	SectionMetaHash func(content.SectionID) hashutil.ContentHash

	// AssetSourceHashes is every discovered asset's logical path mapped
	// to its current source content hash; PrevAssetSourceHashes is the
	// set recorded by the last successful build.
	AssetSourceHashes     map[string]hashutil.ContentHash
	PrevAssetSourceHashes map[string]hashutil.ContentHash
}

// Result is the outcome of one Evaluate call.
type Result struct {
	FullRebuild     bool
	Reason          Reason
	InvalidateCache bool // R2: the previous ProvenanceStore contents are no longer trustworthy

	PagesToBuild    []content.PageID
	AssetsToProcess []string
	AffectedTags    []string
}

// Evaluate runs the R1-R7 decision table against tree and store, per
// spec.md §4.9.
func Evaluate(tree *content.Tree, store *provenance.Store, templates *templatert.Runtime, opts Options) *Result {
	if !opts.Enabled {
		return fullRebuild(tree, opts, ReasonDisabled, false)
	}
	if opts.ConfigHash != opts.PrevConfigHash {
		return fullRebuild(tree, opts, ReasonConfigChanged, true)
	}
	if outputMissingOrEmpty(opts.OutputDir) || manifestAbsent(opts.ManifestPath) {
		return fullRebuild(tree, opts, ReasonOutputMissing, false)
	}
	if autodocMissing(opts.AutodocPaths) {
		return fullRebuild(tree, opts, ReasonAutodocMissing, false)
	}

	changedTemplates := diffTemplateHashes(opts.TemplateHashes, opts.PrevTemplateHashes)

	rebuild := make(map[content.PageID]bool)
	if len(changedTemplates) > 0 {
		for pageID, page := range tree.Pages {
			if rec, ok := store.Get(pageID); ok && provenanceReferencesAny(rec.Provenance, changedTemplates) {
				rebuild[pageID] = true
			}
			_ = page
		}
	}

	// Subvenance fan-out (spec.md §4.9's "applied before per-page
	// evaluation"): every input whose hash changed pulls in every page
	// whose last stored provenance referenced the old hash.
	for _, oldHash := range changedInputHashes(opts) {
		for _, pageID := range store.GetAffectedBy(oldHash) {
			rebuild[pageID] = true
		}
	}

	// R6/R7 per remaining page: a freshly-probed provenance that still
	// matches the stored one is a cache-hit; anything else rebuilds.
	for pageID, page := range tree.Pages {
		if rebuild[pageID] {
			continue
		}
		templateName := ""
		if opts.PageTemplateName != nil {
			templateName = opts.PageTemplateName(page)
		}
		var sectionHash hashutil.ContentHash
		if opts.SectionMetaHash != nil {
			sectionHash = opts.SectionMetaHash(page.SectionRef)
		}
		in := render.Inputs{
			ConfigHash:      opts.ConfigHash,
			SectionMetaHash: sectionHash,
			TemplateName:    templateName,
		}
		probed := render.ProbePageProvenance(templates, page, in)
		if !store.IsFresh(pageID, probed) {
			rebuild[pageID] = true
		}
	}

	pagesToBuild := sortedPageIDs(rebuild)
	return &Result{
		Reason:          ReasonIncremental,
		PagesToBuild:    pagesToBuild,
		AssetsToProcess: changedAssets(opts.AssetSourceHashes, opts.PrevAssetSourceHashes),
		AffectedTags:    affectedTags(tree, pagesToBuild),
	}
}

func fullRebuild(tree *content.Tree, opts Options, reason Reason, invalidate bool) *Result {
	pages := make([]content.PageID, 0, len(tree.Pages))
	for id := range tree.Pages {
		pages = append(pages, id)
	}
	sort.Strings(pages)

	assets := make([]string, 0, len(opts.AssetSourceHashes))
	for logicalPath := range opts.AssetSourceHashes {
		assets = append(assets, logicalPath)
	}
	sort.Strings(assets)

	return &Result{
		FullRebuild:     true,
		Reason:          reason,
		InvalidateCache: invalidate,
		PagesToBuild:    pages,
		AssetsToProcess: assets,
		AffectedTags:    affectedTags(tree, pages),
	}
}

func outputMissingOrEmpty(dir string) bool {
	if dir == "" {
		return true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}
	return len(entries) == 0
}

func manifestAbsent(path string) bool {
	if path == "" {
		return true
	}
	_, err := os.Stat(path)
	return err != nil
}

func autodocMissing(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return true
		}
	}
	return false
}

// diffTemplateHashes returns the resolved template paths (not bare
// template names) whose hash differs between current and previous, or
// that are new.
func diffTemplateHashes(current, previous map[string]hashutil.ContentHash) []string {
	var changed []string
	for name, hash := range current {
		if prev, ok := previous[name]; !ok || prev != hash {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

func provenanceReferencesAny(p provenance.Provenance, logicalPaths []string) bool {
	set := make(map[string]bool, len(logicalPaths))
	for _, lp := range logicalPaths {
		set[lp] = true
	}
	for _, in := range p.Inputs {
		if in.InputType == provenance.InputTemplate && set[in.LogicalPath] {
			return true
		}
	}
	return false
}

// changedInputHashes collects every "old" hash value the subvenance
// fan-out should probe: a template, config, or asset hash present in
// the previous build's recorded set but absent (or different) in the
// current one means that old hash is no longer live, so every page that
// referenced it is stale.
func changedInputHashes(opts Options) []string {
	var out []string
	for name, prevHash := range opts.PrevTemplateHashes {
		if cur, ok := opts.TemplateHashes[name]; !ok || cur != prevHash {
			out = append(out, string(prevHash))
		}
	}
	if opts.PrevConfigHash != opts.ConfigHash && opts.PrevConfigHash != "" {
		out = append(out, string(opts.PrevConfigHash))
	}
	for logicalPath, prevHash := range opts.PrevAssetSourceHashes {
		if cur, ok := opts.AssetSourceHashes[logicalPath]; !ok || cur != prevHash {
			out = append(out, string(prevHash))
		}
	}
	return out
}

func changedAssets(current, previous map[string]hashutil.ContentHash) []string {
	var out []string
	for logicalPath, hash := range current {
		if prev, ok := previous[logicalPath]; !ok || prev != hash {
			out = append(out, logicalPath)
		}
	}
	sort.Strings(out)
	return out
}

func sortedPageIDs(set map[content.PageID]bool) []content.PageID {
	out := make([]content.PageID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// affectedTags collects the union of frontmatter `tags` values across
// the given pages, exposed so taxonomy generation can rebuild only the
// tag pages a changed page actually belongs to.
func affectedTags(tree *content.Tree, pageIDs []content.PageID) []string {
	set := make(map[string]bool)
	for _, id := range pageIDs {
		page, ok := tree.Pages[id]
		if !ok {
			continue
		}
		for _, tag := range page.RawMetadata.Get("tags").AsListOfStringsOr(nil) {
			set[tag] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
