// Package render implements the RenderingPipeline of spec.md §4.8: the
// per-page cache-probe/render/write/extract-assets contract that turns
// a discovered content.Page into output HTML, grounded on the teacher's
// pkg/plugins/render_markdown.go (markdown body rendering) composed with
// internal/templatert's template execution and internal/provenance's
// freshness check, plus pkg/plugins/link_avatars.go's
// goquery.NewDocumentFromReader / Find / Attr pattern for pulling asset
// references back out of rendered HTML.
package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/bengalssg/bengal/internal/atomicio"
	"github.com/bengalssg/bengal/internal/bengalerr"
	"github.com/bengalssg/bengal/internal/buildlog"
	"github.com/bengalssg/bengal/internal/content"
	"github.com/bengalssg/bengal/internal/hashutil"
	"github.com/bengalssg/bengal/internal/markdown"
	"github.com/bengalssg/bengal/internal/provenance"
	"github.com/bengalssg/bengal/internal/templatert"
)

var log = buildlog.New("P10", "render")

// assetSelectors names the HTML attributes step 6 of the rendering
// contract extracts asset references from. Each selector is compiled
// once via cascadia and reused across every page's extraction instead
// of goquery re-parsing the CSS selector string per render.
var assetSelectors = []struct {
	matcher cascadia.Sel
	attr    string
}{
	{cascadia.MustCompile("img[src]"), "src"},
	{cascadia.MustCompile("script[src]"), "src"},
	{cascadia.MustCompile("link[href]"), "href"},
	{cascadia.MustCompile("source[src]"), "src"},
}

// Inputs carries the page-specific context a single RenderPage call needs
// beyond the page itself: the known inputs spec.md §4.8 step 2 says to
// probe before deciding freshness, plus whatever extra template context
// the caller (the orchestrator) wants exposed, e.g. site-wide data or
// navigation menus.
type Inputs struct {
	ConfigHash      hashutil.ContentHash
	SectionMetaHash hashutil.ContentHash
	TemplateName    string // defaults to "page.html" if empty
	ExtraContext    map[string]interface{}
}

// Stats summarizes one pipeline's outcomes across every page it has seen,
// for the build summary the orchestrator prints.
type Stats struct {
	CacheHits int
	Rendered  int
	Failed    int
}

// Pipeline is one build's RenderingPipeline: it knows how to turn a page
// into output HTML and tracks the (page source → asset URLs) map the
// orchestrator needs for P12's asset-dependency persistence.
//
// A Pipeline is safe for concurrent RenderPage calls, per spec.md §5's
// requirement that P10 run parallel across pages.
type Pipeline struct {
	Templates  *templatert.Runtime
	Markdown   markdown.Renderer
	Store      *provenance.Store
	BuildID    string
	StrictMode bool

	mu        sync.Mutex
	stats     Stats
	assetRefs map[string]map[string]bool // page source path -> set<asset url>
}

// New builds a Pipeline. buildID is stamped onto every ProvenanceRecord
// this pipeline stores, so a later `bengal inspect` can tell which build
// last touched a page.
func New(templates *templatert.Runtime, md markdown.Renderer, store *provenance.Store, buildID string, strictMode bool) *Pipeline {
	return &Pipeline{
		Templates:  templates,
		Markdown:   md,
		Store:      store,
		BuildID:    buildID,
		StrictMode: strictMode,
		assetRefs:  make(map[string]map[string]bool),
	}
}

// recorder accumulates the provenance inputs a single page's render
// touches, satisfying templatert.InputRecorder. A page is rendered by one
// goroutine at a time, so no locking is needed within a single call.
type recorder struct {
	inputs []provenance.InputRecord
}

func (r *recorder) RecordInput(kind provenance.InputType, logicalPath string, hash hashutil.ContentHash) {
	r.inputs = append(r.inputs, provenance.InputRecord{InputType: kind, LogicalPath: logicalPath, Hash: hash})
}

// DefaultTemplateName is the template every page renders with absent an
// explicit override, per spec.md §4.8 step 2.
const DefaultTemplateName = "page.html"

// resolvedTemplateName applies the DefaultTemplateName default when a
// page's resolved top-level template isn't otherwise identifiable.
func resolvedTemplateName(in Inputs) string {
	if in.TemplateName == "" {
		return DefaultTemplateName
	}
	return in.TemplateName
}

// newProbeRecorder builds the known-inputs recorder for step 2 of the
// rendering contract: the page's source, its frontmatter, the site
// config, the owning section's metadata, and the resolved template set
// (the top-level template plus every partial it includes/extends) —
// everything identifiable before any rendering happens. Reproducing
// the partials here, not just the top-level file, is what lets the
// freshness check below actually hit for pages whose templates use
// {% include %}/{% extends %}.
func newProbeRecorder(templates *templatert.Runtime, page *content.Page, in Inputs) *recorder {
	rec := &recorder{}
	rec.RecordInput(provenance.InputContent, page.SourcePath, page.ContentHash)
	rec.RecordInput(provenance.InputMetadata, page.SourcePath, page.FrontmatterHash)
	if !in.ConfigHash.Empty() {
		rec.RecordInput(provenance.InputConfig, "config", in.ConfigHash)
	}
	if page.SectionRef != "" && !in.SectionMetaHash.Empty() {
		rec.RecordInput(provenance.InputSection, page.SectionRef, in.SectionMetaHash)
	}
	templateName := resolvedTemplateName(in)
	if path, hash, partials, ok := templates.ProbeTemplateInputs(templateName); ok {
		rec.RecordInput(provenance.InputTemplate, path, hash)
		for _, p := range partials {
			rec.RecordInput(provenance.InputPartial, p.LogicalPath, p.Hash)
		}
	}
	return rec
}

// ProbePageProvenance computes the same initial Provenance RenderPage
// probes before deciding freshness, without rendering or writing
// anything. IncrementalFilterEngine uses this to decide pages_to_build
// membership (spec.md §4.9 R6/R7) ahead of the render phase proper.
func ProbePageProvenance(templates *templatert.Runtime, page *content.Page, in Inputs) provenance.Provenance {
	return provenance.NewProvenance(newProbeRecorder(templates, page, in).inputs)
}

// RenderPage executes the RenderingPipeline contract for one page: probe
// for a cache hit, and on a miss render the markdown body, execute the
// page's template, write the output, store the new provenance, and
// extract asset references from the result.
//
// A nil return means the page is settled — either served from cache or
// freshly rendered and written. A non-nil return is always a
// *bengalerr.Error with Kind render; the caller decides (per spec.md §7
// and the orchestrator's strict-mode policy) whether a single page's
// failure aborts the build or is merely recorded and skipped.
func (p *Pipeline) RenderPage(page *content.Page, in Inputs) error {
	pageID := page.PageID
	rec := newProbeRecorder(p.Templates, page, in)

	initial := provenance.NewProvenance(rec.inputs)
	if p.Store.IsFresh(pageID, initial) {
		p.mu.Lock()
		p.stats.CacheHits++
		p.mu.Unlock()
		log.Debug("cache-hit %s", pageID)
		return nil
	}

	bodyHTML, err := p.Markdown.Render([]byte(page.RawContent))
	if err != nil {
		return p.fail(page, "markdown_render_failed", err)
	}

	ctx := map[string]interface{}{
		"page":    page,
		"content": bodyHTML,
	}
	for k, v := range in.ExtraContext {
		ctx[k] = v
	}

	rendered, err := p.Templates.Render(resolvedTemplateName(in), ctx, rec)
	if err != nil {
		return p.fail(page, "template_render_failed", err)
	}

	outputHash := hashutil.HashBytes([]byte(rendered))
	if page.OutputPath == "" {
		return p.fail(page, "missing_output_path", fmt.Errorf("page has no output_path assigned"))
	}
	if err := atomicio.WriteText(page.OutputPath, rendered); err != nil {
		return p.fail(page, "write_failed", err)
	}

	final := provenance.NewProvenance(rec.inputs)
	p.Store.Store(provenance.ProvenanceRecord{
		PageID:     pageID,
		Provenance: final,
		OutputHash: outputHash,
		CreatedAt:  time.Now(),
		BuildID:    p.BuildID,
	})

	page.RenderedHTML = rendered
	p.recordAssetRefs(page.SourcePath, extractAssetRefs(rendered))

	p.mu.Lock()
	p.stats.Rendered++
	p.mu.Unlock()
	log.Debug("rendered %s -> %s", pageID, page.OutputPath)
	return nil
}

func (p *Pipeline) fail(page *content.Page, code string, cause error) error {
	p.mu.Lock()
	p.stats.Failed++
	p.mu.Unlock()
	rerr := bengalerr.RenderError(page.PageID, code, cause.Error(),
		"check the page's frontmatter and its resolved template for errors", cause)
	log.Warn("%s: %v", page.PageID, rerr)
	return rerr
}

// Stats returns a snapshot of the pipeline's accumulated outcome counts.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// AssetRefs returns the (page source path → sorted asset URLs) map
// accumulated across every RenderPage call so far, for P12's
// asset-dependency persistence.
func (p *Pipeline) AssetRefs() map[string][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string][]string, len(p.assetRefs))
	for path, set := range p.assetRefs {
		urls := make([]string, 0, len(set))
		for u := range set {
			urls = append(urls, u)
		}
		sort.Strings(urls)
		out[path] = urls
	}
	return out
}

func (p *Pipeline) recordAssetRefs(sourcePath string, urls []string) {
	if len(urls) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.assetRefs[sourcePath]
	if !ok {
		set = make(map[string]bool, len(urls))
		p.assetRefs[sourcePath] = set
	}
	for _, u := range urls {
		set[u] = true
	}
}

// extractAssetRefs implements step 6 of the rendering contract: pull
// every img/script/link/source asset reference out of rendered HTML.
// Malformed HTML never fails a render — goquery parses permissively, and
// a parse error here just means no asset references are recorded for
// this page.
func extractAssetRefs(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var urls []string
	add := func(raw string) {
		v := strings.TrimSpace(raw)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		urls = append(urls, v)
	}

	for _, sel := range assetSelectors {
		doc.FindMatcher(sel.matcher).Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr(sel.attr); ok {
				add(v)
			}
		})
	}

	sort.Strings(urls)
	return urls
}
