// Package orchestrator implements the BuildOrchestrator of spec.md
// §4.10: the fixed P1-P15 phase sequence that turns a site root into a
// built output directory, wiring together every other internal/
// package. Grounded on the teacher's pkg/lifecycle.Manager — the same
// phased Run/runStage idea (a fixed stage order, each stage's failure
// either aborting the whole run or being downgraded to a collected
// warning) and the same bounded-worker-pool shape
// (Manager.ProcessPostsConcurrently's semaphore+WaitGroup) reused here
// for P9/P10's required parallelism (spec.md §5).
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	dateparser "github.com/markusmobius/go-dateparser"

	"github.com/bengalssg/bengal/internal/assetmanifest"
	"github.com/bengalssg/bengal/internal/assetpipeline"
	"github.com/bengalssg/bengal/internal/atomicio"
	"github.com/bengalssg/bengal/internal/bengalerr"
	"github.com/bengalssg/bengal/internal/buildlog"
	"github.com/bengalssg/bengal/internal/config"
	"github.com/bengalssg/bengal/internal/content"
	"github.com/bengalssg/bengal/internal/hashutil"
	"github.com/bengalssg/bengal/internal/healthcheck"
	"github.com/bengalssg/bengal/internal/incremental"
	"github.com/bengalssg/bengal/internal/markdown"
	"github.com/bengalssg/bengal/internal/provenance"
	"github.com/bengalssg/bengal/internal/render"
	"github.com/bengalssg/bengal/internal/templatert"
)

const cacheDirName = ".bengal"

// Phase identifies one of the fixed P1-P15 steps, for timing/progress
// reporting and for deciding fatal-vs-log-continue policy.
type Phase string

const (
	PhaseInit                Phase = "P1 Init"
	PhaseFonts               Phase = "P2 Fonts"
	PhaseDiscovery           Phase = "P3 Discovery"
	PhaseIncrementalFilter   Phase = "P4 Incremental filter"
	PhaseSectionFinalization Phase = "P5 Section finalization"
	PhaseTaxonomies          Phase = "P6 Taxonomies"
	PhaseMenus               Phase = "P7 Menus"
	PhaseRelatedPosts        Phase = "P8 Related posts index"
	PhaseAssets              Phase = "P9 Assets"
	PhaseRender              Phase = "P10 Render"
	PhaseSitePagesReconcile  Phase = "P11 Site-pages reconciliation"
	PhaseAssetDependencyFlush Phase = "P12 Asset-dependency persistence"
	PhasePostprocess         Phase = "P13 Postprocess"
	PhaseCacheSave           Phase = "P14 Cache save"
	PhaseHealthCheck         Phase = "P15 Health check"
)

var log = buildlog.New("orchestrator", "")

// PhaseTiming records how long one phase took, for the build summary.
type PhaseTiming struct {
	Phase    Phase
	Duration time.Duration
}

// Result summarizes one Run call.
type Result struct {
	Timings         []PhaseTiming
	PagesRendered   int
	PagesCacheHit   int
	PagesFailed     int
	AssetsProcessed int
	FullRebuild     bool
	IncrementalReason incremental.Reason
	HealthReport    *healthcheck.Report
}

// Options configures one build run. SiteRoot is the only required
// field; everything else has a spec.md §6-compliant default.
type Options struct {
	SiteRoot    string
	ConfigPath  string // explicit config path; empty discovers one under SiteRoot
	Incremental bool
	BuildID     string // defaults to a timestamp-derived string if empty
}

// Orchestrator runs builds for one site root. A fresh Orchestrator can
// be reused across multiple Run calls (e.g. a dev-server watch loop);
// each call re-discovers content and re-evaluates incremental state.
type Orchestrator struct {
	opts Options
}

// New returns an Orchestrator for opts.
func New(opts Options) *Orchestrator {
	return &Orchestrator{opts: opts}
}

// Run executes every phase in order, stopping early on a fatal phase
// failure or on ctx cancellation (spec.md §5's cancellation semantics:
// in-flight work finishes, already-written outputs are left in place,
// and a cancellation error is returned with no rollback).
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	siteRoot := o.opts.SiteRoot
	cacheDir := filepath.Join(siteRoot, cacheDirName)

	// P1 Init.
	var cfg *config.Config
	var store *provenance.Store
	var configHash hashutil.ContentHash
	var prevConfigHash hashutil.ContentHash
	err := timed(result, PhaseInit, func() error {
		var err error
		cfg, err = config.Load(siteRoot, o.opts.ConfigPath)
		if err != nil {
			return err
		}
		store, err = provenance.Open(cacheDir)
		if err != nil {
			return err
		}
		configHash = hashConfig(cfg)
		prevConfigHash = loadPrevConfigHash(cacheDir)
		return nil
	})
	if err != nil {
		return result, err
	}
	if err := checkCancelled(ctx); err != nil {
		return result, err
	}

	// P2 Fonts: no web-font pipeline is in scope for this build core
	// (spec.md names no FontProcessor component); the phase exists as a
	// fixed slot in the order and is a documented no-op.
	_ = timed(result, PhaseFonts, func() error { return nil })

	outputDir := filepath.Join(siteRoot, cfg.Build.OutputDir)
	contentDir := filepath.Join(siteRoot, cfg.Build.ContentDir)

	// P3 Discovery.
	var tree *content.Tree
	err = timed(result, PhaseDiscovery, func() error {
		var err error
		tree, err = content.Discover(content.DiscoverOptions{ContentDir: contentDir, StrictMode: cfg.Build.StrictMode})
		return err
	})
	if err != nil {
		return result, err
	}
	if err := checkCancelled(ctx); err != nil {
		return result, err
	}

	themesRoot := filepath.Join(siteRoot, "themes")
	siteTemplatesDir := filepath.Join(siteRoot, "templates")
	templates, err := templatert.New(themesRoot, cfg.Theme.Name, siteTemplatesDir)
	if err != nil {
		return result, bengalerr.RenderError("", "theme_resolution_failed", err.Error(),
			"check theme.name and the themes/ directory", err)
	}
	md := markdown.New(markdown.DefaultOptions())

	sectionMetaHash := func(sectionRef content.SectionID) hashutil.ContentHash {
		sec, ok := tree.Sections[sectionRef]
		if !ok {
			return ""
		}
		return hashutil.HashBytes([]byte(fmt.Sprintf("%+v", sec.Metadata)))
	}
	pageTemplateName := func(*content.Page) string { return render.DefaultTemplateName }

	assetsRoot := filepath.Join(siteRoot, "assets")
	assets, err := discoverAssets(assetsRoot)
	if err != nil {
		return result, bengalerr.AssetError(assetsRoot, "discovery_failed", err.Error(), "", false, err)
	}
	assetSourceHashes, err := hashAssetSources(assets)
	if err != nil {
		return result, err
	}

	templateHashes := map[string]hashutil.ContentHash{}
	if path, hash, _, ok := templates.ProbeTemplateInputs(render.DefaultTemplateName); ok {
		templateHashes[path] = hash
	}
	prevTemplateHashes := loadHashMap(filepath.Join(cacheDir, "template-hashes.json"))
	prevAssetSourceHashes := loadHashMap(filepath.Join(cacheDir, "asset-hashes.json"))

	// P4 Incremental filter.
	var filterResult *incremental.Result
	err = timed(result, PhaseIncrementalFilter, func() error {
		filterResult = incremental.Evaluate(tree, store, templates, incremental.Options{
			Enabled:               o.opts.Incremental && cfg.Build.IsCacheEnabled(),
			OutputDir:             outputDir,
			ManifestPath:          filepath.Join(outputDir, "asset-manifest.json"),
			ConfigHash:            configHash,
			PrevConfigHash:        prevConfigHash,
			SectionMetaHash:       sectionMetaHash,
			PageTemplateName:      pageTemplateName,
			TemplateHashes:        templateHashes,
			PrevTemplateHashes:    prevTemplateHashes,
			AssetSourceHashes:     assetSourceHashes,
			PrevAssetSourceHashes: prevAssetSourceHashes,
		})
		return nil
	})
	if err != nil {
		return result, err
	}
	result.FullRebuild = filterResult.FullRebuild
	result.IncrementalReason = filterResult.Reason

	// P5 Section finalization.
	var synthesized []content.PageID
	err = timed(result, PhaseSectionFinalization, func() error {
		var err error
		synthesized, err = finalizeSections(tree, outputDir)
		return err
	})
	if err != nil && cfg.Build.StrictMode {
		return result, err
	} else if err != nil {
		log.Warn("section finalization: %v", err)
	}
	// Virtual index pages synthesized just now postdate P4's evaluation,
	// so they can never appear in its cache; they always need a render.
	filterResult.PagesToBuild = append(filterResult.PagesToBuild, synthesized...)

	// P6 Taxonomies.
	var tagIndex map[string][]content.PageID
	err = timed(result, PhaseTaxonomies, func() error {
		tagIndex = buildTagIndex(tree)
		return nil
	})
	if err != nil {
		return result, err
	}

	// P7 Menus: no navigation-menu builder is in this build core's
	// scope; reserved phase slot, documented no-op.
	_ = timed(result, PhaseMenus, func() error { return nil })

	// P8 Related posts index.
	err = timed(result, PhaseRelatedPosts, func() error {
		computeRelatedPages(tree, tagIndex)
		return nil
	})
	if err != nil {
		log.Warn("related posts index: %v", err)
	}

	if err := checkCancelled(ctx); err != nil {
		return result, err
	}

	// P9 Assets.
	var manifest *assetmanifest.Manifest
	err = timed(result, PhaseAssets, func() error {
		var err error
		var reprocessed int
		manifest, reprocessed, err = runAssetPipeline(outputDir, cfg, assets, filterResult)
		result.AssetsProcessed = reprocessed
		return err
	})
	if err != nil {
		return result, err
	}

	if err := checkCancelled(ctx); err != nil {
		return result, err
	}

	// P10 Render.
	pipeline := render.New(templates, md, store, buildID(o.opts.BuildID), cfg.Build.StrictMode)
	err = timed(result, PhaseRender, func() error {
		return runRenderPhase(ctx, tree, pipeline, filterResult, cfg, configHash, sectionMetaHash)
	})
	stats := pipeline.Stats()
	result.PagesRendered = stats.Rendered
	result.PagesCacheHit = stats.CacheHits
	result.PagesFailed = stats.Failed
	if err != nil {
		return result, err
	}

	// P11 Site-pages reconciliation: the Tree is the single canonical
	// set of pages throughout this run (there is no separate "stale
	// cached page proxy" representation to reconcile against), so this
	// phase is a documented no-op for this build core.
	_ = timed(result, PhaseSitePagesReconcile, func() error { return nil })

	// P12 Asset-dependency persistence.
	err = timed(result, PhaseAssetDependencyFlush, func() error {
		return persistAssetRefs(cacheDir, pipeline.AssetRefs())
	})
	if err != nil {
		log.Warn("asset-dependency persistence: %v", err)
	}

	// P13 Postprocess.
	err = timed(result, PhasePostprocess, func() error {
		return runPostprocess(tree, outputDir, cfg)
	})
	if err != nil {
		log.Warn("postprocess: %v", err)
	}

	// P14 Cache save.
	err = timed(result, PhaseCacheSave, func() error {
		if err := store.Save(); err != nil {
			return err
		}
		if err := saveConfigHash(cacheDir, configHash); err != nil {
			return err
		}
		if err := saveHashMap(filepath.Join(cacheDir, "template-hashes.json"), templateHashes); err != nil {
			return err
		}
		return saveHashMap(filepath.Join(cacheDir, "asset-hashes.json"), assetSourceHashes)
	})
	if err != nil {
		return result, err
	}

	// P15 Health check.
	var report *healthcheck.Report
	err = timed(result, PhaseHealthCheck, func() error {
		report = healthcheck.Run(tree, manifest, pipeline.AssetRefs(), healthcheck.Options{
			Enabled:    cfg.HealthCheck.Enabled,
			StrictMode: cfg.HealthCheck.StrictMode,
			Verbose:    cfg.HealthCheck.Verbose,
		})
		return nil
	})
	result.HealthReport = report
	if err != nil {
		return result, err
	}
	if report != nil && report.HasErrors() && cfg.HealthCheck.StrictMode {
		return result, bengalerr.RenderError("", "health_check_failed",
			fmt.Sprintf("%d health-check error(s) found", countErrors(report)),
			"run with health_check.strict_mode=false to build anyway", nil)
	}

	return result, nil
}

func countErrors(r *healthcheck.Report) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == healthcheck.SeverityError {
			n++
		}
	}
	return n
}

func timed(result *Result, phase Phase, fn func() error) error {
	start := time.Now()
	err := fn()
	result.Timings = append(result.Timings, PhaseTiming{Phase: phase, Duration: time.Since(start)})
	return err
}

func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return &bengalerr.CriticalInterrupt{Cause: ctx.Err()}
	default:
		return nil
	}
}

func buildID(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return "build-" + time.Now().UTC().Format("20060102T150405Z")
}

func hashConfig(cfg *config.Config) hashutil.ContentHash {
	m := map[string]interface{}{
		"site":        cfg.Site,
		"build":       cfg.Build,
		"assets":      cfg.Assets,
		"css":         cfg.CSS,
		"theme":       cfg.Theme,
		"versioning":  cfg.Versioning,
		"health_check": cfg.HealthCheck,
		"pagination":  cfg.Pagination,
		"i18n":        cfg.I18n,
	}
	return hashutil.HashBytes([]byte(fmt.Sprintf("%+v", m)))
}

func loadPrevConfigHash(cacheDir string) hashutil.ContentHash {
	data, err := os.ReadFile(filepath.Join(cacheDir, "config-hash.txt"))
	if err != nil {
		return ""
	}
	return hashutil.ContentHash(strings.TrimSpace(string(data)))
}

func saveConfigHash(cacheDir string, hash hashutil.ContentHash) error {
	return atomicio.WriteText(filepath.Join(cacheDir, "config-hash.txt"), string(hash))
}

// loadHashMap reads a JSON-encoded name/logical-path -> hash map
// persisted by saveHashMap, mirroring loadPrevConfigHash's "missing or
// corrupt means absent" tolerance. Used for PrevTemplateHashes and
// PrevAssetSourceHashes.
func loadHashMap(filePath string) map[string]hashutil.ContentHash {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(map[string]hashutil.ContentHash, len(raw))
	for k, v := range raw {
		out[k] = hashutil.ContentHash(v)
	}
	return out
}

func saveHashMap(filePath string, hashes map[string]hashutil.ContentHash) error {
	raw := make(map[string]string, len(hashes))
	for k, v := range hashes {
		raw[k] = string(v)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filePath, err)
	}
	return atomicio.WriteBytes(filePath, data)
}

// hashAssetSources hashes every discovered asset's source file, for the
// AssetSourceHashes the incremental filter diffs against the previous
// build's recorded set (spec.md §4.9 R6/R7 applied to assets).
func hashAssetSources(assets []assetpipeline.Asset) (map[string]hashutil.ContentHash, error) {
	out := make(map[string]hashutil.ContentHash, len(assets))
	for _, a := range assets {
		hash, err := hashutil.HashFile(a.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("hashing asset %s: %w", a.LogicalPath, err)
		}
		out[a.LogicalPath] = hash
	}
	return out, nil
}

// finalizeSections assigns every page's OutputPath and synthesizes a
// virtual index page for any non-root section that has none, mirroring
// the teacher's GenerateSlug/GenerateHref convention (an index source
// resolves to its section's own path; anything else gets a pretty
// trailing-slash URL) onto an on-disk directory-style layout: every
// page becomes output_dir/<section>/[<slug>/]index.html.
func finalizeSections(tree *content.Tree, outputDir string) ([]content.PageID, error) {
	for _, page := range tree.Pages {
		if page.IsIndex {
			page.OutputPath = filepath.Join(outputDir, page.SectionRef, "index.html")
		} else {
			page.OutputPath = filepath.Join(outputDir, page.SectionRef, page.Slug, "index.html")
		}
		computePageDate(page)
	}

	var synthesized []content.PageID
	for path, sec := range tree.Sections {
		if path == "" {
			continue
		}
		pages := make([]*content.Page, 0, len(sec.Pages))
		for _, id := range sec.Pages {
			if p, ok := tree.Pages[id]; ok {
				pages = append(pages, p)
			}
		}
		sec.Kind = content.DetermineKind(sec, pages)

		if sec.IndexPage != "" {
			continue
		}

		synthetic := &content.Page{
			PageID:     path + "/_index",
			IsIndex:    true,
			SectionRef: path,
			Slug:       path,
			OutputPath: filepath.Join(outputDir, path, "index.html"),
			RawMetadata: content.Metadata{
				"title": content.NewString(sec.Name),
			},
		}
		tree.Pages[synthetic.PageID] = synthetic
		sec.IndexPage = synthetic.PageID
		synthesized = append(synthesized, synthetic.PageID)
	}
	return synthesized, nil
}

func buildTagIndex(tree *content.Tree) map[string][]content.PageID {
	idx := make(map[string][]content.PageID)
	for id, page := range tree.Pages {
		for _, tag := range page.RawMetadata.Get("tags").AsListOfStringsOr(nil) {
			idx[tag] = append(idx[tag], id)
		}
	}
	for tag := range idx {
		sort.Strings(idx[tag])
	}
	return idx
}

// computeRelatedPages fills page.RelatedPages from taxonomy (tag)
// overlap, O(n·t) as spec.md §4.10 P8 requires: for every tag a page
// has, every other page sharing that tag is a related-page candidate.
func computeRelatedPages(tree *content.Tree, tagIndex map[string][]content.PageID) {
	for id, page := range tree.Pages {
		tags := page.RawMetadata.Get("tags").AsListOfStringsOr(nil)
		if len(tags) == 0 {
			continue
		}
		seen := map[content.PageID]bool{id: true}
		var related []content.PageID
		for _, tag := range tags {
			for _, other := range tagIndex[tag] {
				if !seen[other] {
					seen[other] = true
					related = append(related, other)
				}
			}
		}
		sort.Strings(related)
		page.RelatedPages = related
	}
}

// runAssetPipeline runs P9 over only the assets the incremental filter
// marked AssetsToProcess (or every discovered asset on a full rebuild),
// reusing the previous manifest's entries for everything it left
// untouched, so a no-change build reprocesses zero assets (spec.md §8
// invariant 9, scenario S5).
func runAssetPipeline(outputDir string, cfg *config.Config, assets []assetpipeline.Asset, filterResult *incremental.Result) (*assetmanifest.Manifest, int, error) {
	entryPoints := cssEntryPoints(assets)
	reprocess := assetsToReprocess(assets, filterResult, entryPoints)

	pipeline := assetpipeline.New(outputDir, assetpipeline.Options{
		Minify:         cfg.Assets.IsMinify(),
		Fingerprint:    cfg.Assets.IsFingerprint(),
		CSSEntryPoints: entryPoints,
	})
	manifest, err := pipeline.Run(reprocess)
	if err != nil {
		return nil, 0, err
	}

	manifestPath := filepath.Join(outputDir, "asset-manifest.json")
	if !filterResult.FullRebuild {
		reuseManifestEntries(manifest, manifestPath, reprocess)
	}

	if err := manifest.Write(manifestPath, time.Now()); err != nil {
		return nil, 0, err
	}
	return manifest, len(reprocess), nil
}

// assetsToReprocess narrows the full discovered asset list down to P9's
// incremental scope. A CSS entry point is reprocessed whenever any CSS
// file changed, even if the entry itself didn't: cssbundle resolves
// @import targets straight off disk rather than from this asset list,
// so there's no cheaper way here to tell which entry point a changed
// module feeds into.
func assetsToReprocess(assets []assetpipeline.Asset, filterResult *incremental.Result, entryPoints map[string]bool) []assetpipeline.Asset {
	if filterResult.FullRebuild {
		return assets
	}

	toProcess := make(map[string]bool, len(filterResult.AssetsToProcess))
	for _, lp := range filterResult.AssetsToProcess {
		toProcess[lp] = true
	}

	anyCSSChanged := false
	for lp := range toProcess {
		if strings.HasSuffix(lp, ".css") {
			anyCSSChanged = true
			break
		}
	}

	var out []assetpipeline.Asset
	for _, a := range assets {
		if toProcess[a.LogicalPath] || (anyCSSChanged && entryPoints[a.LogicalPath]) {
			out = append(out, a)
		}
	}
	return out
}

// reuseManifestEntries carries forward every previous manifest entry P9
// didn't reprocess this build, so an incremental manifest still
// describes every asset rather than only the ones just rewritten.
func reuseManifestEntries(manifest *assetmanifest.Manifest, manifestPath string, reprocessed []assetpipeline.Asset) {
	prev, err := assetmanifest.Load(manifestPath)
	if err != nil || prev == nil {
		return
	}
	skip := make(map[string]bool, len(reprocessed))
	for _, a := range reprocessed {
		skip[a.LogicalPath] = true
	}
	for _, e := range prev.Entries() {
		if skip[e.LogicalPath] {
			continue
		}
		if _, ok := manifest.Get(e.LogicalPath); ok {
			continue
		}
		updatedAt := time.Now()
		if e.UpdatedAt != nil {
			updatedAt = *e.UpdatedAt
		}
		manifest.SetEntry(e.LogicalPath, e.OutputPath, e.Fingerprint, e.SizeBytes, updatedAt)
	}
}

// frontmatterDateParser parses the free-form `date:` frontmatter value
// into a time.Time, the same multi-parser configuration the teacher
// reaches for when normalizing post dates.
var frontmatterDateParser = &dateparser.Parser{
	ParserTypes: []dateparser.ParserType{
		dateparser.AbsoluteTime,
		dateparser.NoSpacesTime,
		dateparser.Timestamp,
		dateparser.RelativeTime,
		dateparser.CustomFormat,
	},
}

// computePageDate parses page's raw `date` frontmatter field, if any,
// and stores the normalized RFC 3339 form in ComputedMetadata so
// templates see a consistent format regardless of how the author wrote
// it in the source file. The section-kind heuristic does not read this
// value; it checks only whether the raw `date` field is present.
func computePageDate(page *content.Page) {
	raw := page.RawMetadata.Get("date").AsStringOr("")
	if raw == "" {
		return
	}
	result, err := frontmatterDateParser.Parse(&dateparser.Configuration{StrictParsing: false}, raw)
	if err != nil {
		log.Warn("page %s: unparsable date %q: %v", page.PageID, raw, err)
		return
	}
	if page.ComputedMetadata == nil {
		page.ComputedMetadata = content.Metadata{}
	}
	page.ComputedMetadata["date"] = content.NewString(result.Time.UTC().Format(time.RFC3339))
}

// cssEntryPoints implements the entry-point rule: style.css at any
// directory depth is a bundle root, every other .css file is a module
// only reachable via @import from one.
func cssEntryPoints(assets []assetpipeline.Asset) map[string]bool {
	entries := make(map[string]bool)
	for _, a := range assets {
		if path.Base(a.LogicalPath) == "style.css" {
			entries[a.LogicalPath] = true
		}
	}
	return entries
}

func discoverAssets(assetsRoot string) ([]assetpipeline.Asset, error) {
	if _, err := os.Stat(assetsRoot); err != nil {
		return nil, nil
	}
	var assets []assetpipeline.Asset
	err := filepath.Walk(assetsRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(assetsRoot, path)
		if err != nil {
			return err
		}
		assets = append(assets, assetpipeline.Asset{
			LogicalPath: filepath.ToSlash(rel),
			SourcePath:  path,
		})
		return nil
	})
	return assets, err
}

// maxRenderWorkers bounds P10's worker pool absent an explicit
// build.max_workers override, mirroring the teacher's default
// concurrency of a small fixed pool rather than one goroutine per page.
const maxRenderWorkers = 8

func runRenderPhase(ctx context.Context, tree *content.Tree, pipeline *render.Pipeline, filterResult *incremental.Result, cfg *config.Config, configHash hashutil.ContentHash, sectionMetaHash func(content.SectionID) hashutil.ContentHash) error {
	pagesToBuild := filterResult.PagesToBuild
	workers := cfg.Build.MaxWorkers
	if workers <= 0 {
		workers = maxRenderWorkers
	}
	if !cfg.Build.IsParallel() {
		workers = 1
	}

	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	errs := &bengalerr.Errors{}
	var mu sync.Mutex

	for _, id := range pagesToBuild {
		page, ok := tree.Pages[id]
		if !ok {
			continue
		}
		if checkCancelled(ctx) != nil {
			break
		}
		wg.Add(1)
		semaphore <- struct{}{}
		go func(p *content.Page) {
			defer wg.Done()
			defer func() { <-semaphore }()

			in := render.Inputs{
				ConfigHash:      configHash,
				SectionMetaHash: sectionMetaHash(p.SectionRef),
				ExtraContext: map[string]interface{}{
					"baseurl": cfg.Site.BaseURL,
				},
			}
			if err := pipeline.RenderPage(p, in); err != nil {
				mu.Lock()
				if be, ok := err.(*bengalerr.Error); ok {
					errs.Add(be)
				}
				mu.Unlock()
			}
		}(page)
	}
	wg.Wait()

	if errs.HasFatal() && cfg.Build.StrictMode {
		return errs
	}
	return nil
}

func persistAssetRefs(cacheDir string, refs map[string][]string) error {
	var sb strings.Builder
	paths := make([]string, 0, len(refs))
	for p := range refs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		sb.WriteString(p)
		sb.WriteString(" -> ")
		sb.WriteString(strings.Join(refs[p], ", "))
		sb.WriteString("\n")
	}
	return atomicio.WriteText(filepath.Join(cacheDir, "asset-dependencies.txt"), sb.String())
}

func runPostprocess(tree *content.Tree, outputDir string, cfg *config.Config) error {
	if err := writeSitemap(tree, outputDir, cfg.Site.BaseURL); err != nil {
		return err
	}
	if cfg.Versioning.EmitVersionsJSON {
		if err := writeVersionsJSON(outputDir, cfg); err != nil {
			return err
		}
	}
	if cfg.Versioning.Enabled && cfg.Versioning.DefaultRedirect {
		if err := writeRootRedirect(outputDir, cfg.Versioning.DeployPrefix); err != nil {
			return err
		}
	}
	return nil
}

func writeSitemap(tree *content.Tree, outputDir, baseurl string) error {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")

	ids := make([]string, 0, len(tree.Pages))
	for id := range tree.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		page := tree.Pages[id]
		loc := templatert.JoinBaseURL(baseurl, "/"+strings.TrimSuffix(page.Slug, "/")+"/")
		sb.WriteString("  <url><loc>")
		sb.WriteString(loc)
		sb.WriteString("</loc></url>\n")
	}
	sb.WriteString("</urlset>\n")
	return atomicio.WriteText(filepath.Join(outputDir, "sitemap.xml"), sb.String())
}

func writeVersionsJSON(outputDir string, cfg *config.Config) error {
	data := fmt.Sprintf(`[{"version":"%s","title":"%s","aliases":[],"url_prefix":"%s"}]`,
		"latest", cfg.Site.Title, cfg.Versioning.DeployPrefix)
	return atomicio.WriteText(filepath.Join(outputDir, "versions.json"), data+"\n")
}

func writeRootRedirect(outputDir, prefix string) error {
	target := templatert.JoinBaseURL("", "/"+strings.TrimPrefix(prefix, "/"))
	html := fmt.Sprintf(`<!DOCTYPE html><html><head><meta http-equiv="refresh" content="0; url=%s"></head><body></body></html>`, target)
	return atomicio.WriteText(filepath.Join(outputDir, "index.html"), html)
}
