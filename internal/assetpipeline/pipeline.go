// Package assetpipeline implements the AssetPipeline of spec.md §4.6:
// CSS entry-point bundling (via internal/cssbundle), CSS/JS
// minification, content-hash fingerprinting, JS bundling from a
// declared module order, and atomic output writes that populate an
// internal/assetmanifest.Manifest. Grounded on the teacher's
// pkg/plugins/css_bundle.go (classification, exclude-pattern, ordering
// idiom) and pkg/plugins/css_minify.go (tdewolff/minify wiring), but
// generalized: the teacher bundles/minifies files already written to
// the output directory, where this pipeline owns the whole
// asset -> output-path lifecycle, including fingerprinting and the
// manifest the teacher has no equivalent of.
package assetpipeline

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"github.com/bengalssg/bengal/internal/assetmanifest"
	"github.com/bengalssg/bengal/internal/atomicio"
	"github.com/bengalssg/bengal/internal/buildlog"
	"github.com/bengalssg/bengal/internal/cssbundle"
	"github.com/bengalssg/bengal/internal/hashutil"
)

// Asset is one file the pipeline may bundle, minify, fingerprint, and
// write to the output directory.
type Asset struct {
	LogicalPath string // slash-separated, relative to the assets root, e.g. "css/style.css"
	SourcePath  string // absolute path on disk
}

// JSBundleConfig drives the fixed-order JS concatenation of spec.md
// §4.6. Modules named in Order are excluded from standalone copying
// once bundled.
type JSBundleConfig struct {
	Order      []string // logical paths, in declared concatenation order
	Exclude    map[string]bool
	OutputPath string // defaults to "js/bundle.js"
}

// ExternalHook runs an optional external toolchain (Node/SCSS/PostCSS/
// TS) that produces additional assets in tempRoot before the normal
// pipeline runs. A failing hook is logged, never fatal, per spec.md
// §4.6's "Optional external toolchain hook" contract.
type ExternalHook func(tempRoot string) ([]Asset, error)

// Options are the processing flags spec.md §4.6 describes.
type Options struct {
	Minify         bool
	Fingerprint    bool
	CSSEntryPoints map[string]bool // logical paths treated as CSS bundle entry points
	JSBundle       *JSBundleConfig
	ExternalHook   ExternalHook
}

// Pipeline is the AssetPipeline for one build's output directory.
type Pipeline struct {
	outputDir string
	opts      Options
	minifier  *minify.M
	log       *buildlog.Logger
}

// New constructs a Pipeline writing into outputDir/assets.
func New(outputDir string, opts Options) *Pipeline {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)

	if opts.CSSEntryPoints == nil {
		opts.CSSEntryPoints = map[string]bool{}
	}

	return &Pipeline{
		outputDir: outputDir,
		opts:      opts,
		minifier:  m,
		log:       buildlog.New("P-assets", "assetpipeline"),
	}
}

// assetsDir is where the pipeline's output lives, per spec.md §4.6's
// "output_dir/assets/..." contract.
func (p *Pipeline) assetsDir() string {
	return filepath.Join(p.outputDir, "assets")
}

// Run classifies, bundles, minifies, fingerprints, and writes assets,
// returning the populated manifest. It does not call Manifest.Write —
// the caller decides when to persist it (typically once per build, at
// output_dir/asset-manifest.json).
func (p *Pipeline) Run(assets []Asset) (*assetmanifest.Manifest, error) {
	if p.opts.ExternalHook != nil {
		extra, err := p.runExternalHook()
		if err != nil {
			p.log.Warn("external toolchain hook failed, continuing without it: %v", err)
		} else {
			assets = append(assets, extra...)
		}
	}

	cssEntries, cssModules, jsCandidates, other := classify(assets, p.opts.CSSEntryPoints)

	manifest := assetmanifest.New()
	now := time.Now()

	bundledCSSCount := 0
	for _, entry := range cssEntries {
		if err := p.processCSSEntry(entry, cssModules, manifest, now); err != nil {
			return nil, err
		}
		bundledCSSCount++
	}

	bundledJS := map[string]bool{}
	if p.opts.JSBundle != nil && len(p.opts.JSBundle.Order) > 0 {
		if err := p.processJSBundle(jsCandidates, manifest, now); err != nil {
			return nil, err
		}
		for _, lp := range p.opts.JSBundle.Order {
			if !p.opts.JSBundle.Exclude[lp] {
				bundledJS[lp] = true
			}
		}
	}

	for _, a := range other {
		if err := p.copyThrough(a, manifest, now); err != nil {
			return nil, err
		}
	}
	for _, a := range jsCandidates {
		if bundledJS[a.LogicalPath] {
			continue // excluded from direct copy once bundled
		}
		if err := p.copyThrough(a, manifest, now); err != nil {
			return nil, err
		}
	}

	p.log.Info("processed %d CSS entry point(s), %d other/JS asset(s)", bundledCSSCount, len(other)+len(jsCandidates))
	return manifest, nil
}

func (p *Pipeline) runExternalHook() ([]Asset, error) {
	tempRoot, err := os.MkdirTemp("", "bengal-asset-hook-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp root: %w", err)
	}
	defer os.RemoveAll(tempRoot)
	return p.opts.ExternalHook(tempRoot)
}

// classify splits assets into CSS entry points, CSS modules (available
// for @import resolution but not written standalone), JS candidates,
// and everything else — spec.md §4.6's classification step.
func classify(assets []Asset, entryPoints map[string]bool) (cssEntries, cssModules, jsCandidates, other []Asset) {
	for _, a := range assets {
		switch {
		case strings.HasSuffix(a.LogicalPath, ".css") && entryPoints[a.LogicalPath]:
			cssEntries = append(cssEntries, a)
		case strings.HasSuffix(a.LogicalPath, ".css"):
			cssModules = append(cssModules, a)
		case strings.HasSuffix(a.LogicalPath, ".js"):
			jsCandidates = append(jsCandidates, a)
		default:
			other = append(other, a)
		}
	}
	return
}

func (p *Pipeline) processCSSEntry(entry Asset, modules []Asset, manifest *assetmanifest.Manifest, now time.Time) error {
	bundled, err := cssbundle.Bundle(entry.SourcePath, readFileReader)
	if err != nil {
		return fmt.Errorf("assetpipeline: bundling %s: %w", entry.LogicalPath, err)
	}

	content := []byte(bundled)
	if p.opts.Minify {
		minified, err := p.minifier.Bytes("text/css", content)
		if err != nil {
			p.log.Warn("minifying %s failed, writing unminified: %v", entry.LogicalPath, err)
		} else {
			content = minified
		}
	}

	return p.writeFinal(entry.LogicalPath, content, manifest, now)
}

func (p *Pipeline) processJSBundle(candidates []Asset, manifest *assetmanifest.Manifest, now time.Time) error {
	byPath := make(map[string]Asset, len(candidates))
	for _, a := range candidates {
		byPath[a.LogicalPath] = a
	}

	var buf strings.Builder
	included := 0
	for _, lp := range p.opts.JSBundle.Order {
		if p.opts.JSBundle.Exclude[lp] {
			continue
		}
		asset, ok := byPath[lp]
		if !ok {
			p.log.Warn("js bundle module %q not found among assets, skipping", lp)
			continue
		}
		data, err := os.ReadFile(asset.SourcePath)
		if err != nil {
			return fmt.Errorf("assetpipeline: reading js module %s: %w", lp, err)
		}
		buf.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
		included++
	}
	if included == 0 {
		return nil
	}

	content := []byte(buf.String())
	if p.opts.Minify {
		minified, err := p.minifier.Bytes("application/javascript", content)
		if err != nil {
			p.log.Warn("minifying js bundle failed, writing unminified: %v", err)
		} else {
			content = minified
		}
	}

	outputLogical := p.opts.JSBundle.OutputPath
	if outputLogical == "" {
		outputLogical = "js/bundle.js"
	}
	return p.writeFinal(outputLogical, content, manifest, now)
}

func (p *Pipeline) copyThrough(a Asset, manifest *assetmanifest.Manifest, now time.Time) error {
	data, err := os.ReadFile(a.SourcePath)
	if err != nil {
		return fmt.Errorf("assetpipeline: reading %s: %w", a.LogicalPath, err)
	}
	return p.writeFinal(a.LogicalPath, data, manifest, now)
}

// writeFinal fingerprints (when enabled), writes content atomically
// under output_dir/assets/..., removes stale fingerprinted siblings,
// and records the result in manifest.
func (p *Pipeline) writeFinal(logicalPath string, content []byte, manifest *assetmanifest.Manifest, now time.Time) error {
	dir := path.Dir(logicalPath)
	ext := path.Ext(logicalPath)
	stem := strings.TrimSuffix(path.Base(logicalPath), ext)

	fingerprint := ""
	filename := stem + ext
	if p.opts.Fingerprint {
		fingerprint = string(hashutil.HashBytes(content))[:8]
		filename = fmt.Sprintf("%s.%s%s", stem, fingerprint, ext)
	}

	outputDirAbs := filepath.Join(p.assetsDir(), filepath.FromSlash(dir))
	if err := removeStaleFingerprintedSiblings(outputDirAbs, stem, ext, filename); err != nil {
		p.log.Warn("cleaning stale fingerprinted siblings for %s: %v", logicalPath, err)
	}

	outputAbsPath := filepath.Join(outputDirAbs, filename)
	if err := atomicio.WriteBytes(outputAbsPath, content); err != nil {
		return fmt.Errorf("assetpipeline: writing %s: %w", logicalPath, err)
	}

	outputLogical := path.Join("assets", dir, filename)
	manifest.SetEntry(logicalPath, "/"+outputLogical, fingerprint, int64(len(content)), now)
	return nil
}

// removeStaleFingerprintedSiblings deletes earlier fingerprinted
// outputs for the same <stem>.<ext> in dir, per spec.md §4.6.
func removeStaleFingerprintedSiblings(dir, stem, ext, keep string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	prefix := stem + "."
	var stale []string
	for _, e := range entries {
		name := e.Name()
		if name == keep || e.IsDir() {
			continue
		}
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ext) {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	for _, name := range stale {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func readFileReader(path string) ([]byte, error) {
	return os.ReadFile(path)
}
