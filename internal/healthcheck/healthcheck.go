// Package healthcheck implements P15's profile-enabled output validators:
// broken internal links, sections missing an index page, and orphaned
// assets (present in the manifest but never referenced by any rendered
// page). Grounded on the teacher's pkg/diagnostics package — the same
// Severity/Issue shape, generalized from per-content-file linting to
// whole-site, post-render validation.
package healthcheck

import (
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bengalssg/bengal/internal/assetmanifest"
	"github.com/bengalssg/bengal/internal/content"
)

// Severity mirrors the teacher's diagnostics.Severity: every validator
// reports at one of these levels, and only SeverityError ones ever fail
// a strict build.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Issue is one finding from a validator run.
type Issue struct {
	Validator string
	Page      content.PageID // empty when the issue isn't page-scoped (e.g. an orphan asset)
	Severity  Severity
	Message   string
}

// Options configures which validators run and how strictly their
// findings are treated.
type Options struct {
	Enabled    bool
	StrictMode bool
	Verbose    bool
}

// Report is the aggregate result of Run: every Issue found, in one list,
// each carrying its own Severity.
type Report struct {
	Issues []Issue
}

// HasErrors reports whether any SeverityError issue was found — the
// signal P15 uses to fail a strict build.
func (r *Report) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Run executes every enabled validator over the finished build: the
// content tree (for missing-index-page), the rendered pages (for
// broken-internal-link), and the asset manifest plus the render
// pipeline's accumulated asset references (for orphan-asset).
func Run(tree *content.Tree, manifest *assetmanifest.Manifest, assetRefs map[string][]string, opts Options) *Report {
	report := &Report{}
	if !opts.Enabled {
		return report
	}

	report.Issues = append(report.Issues, checkMissingIndexPages(tree)...)
	report.Issues = append(report.Issues, checkBrokenInternalLinks(tree)...)
	if manifest != nil {
		report.Issues = append(report.Issues, checkOrphanAssets(manifest, assetRefs)...)
	}
	return report
}

// checkMissingIndexPages flags any non-root, non-virtual section that
// still has no index_page assigned — spec.md §4.10 P5 expects section
// finalization to have given every such section one, so if none exists
// by the time health checks run, something upstream is misconfigured.
func checkMissingIndexPages(tree *content.Tree) []Issue {
	var issues []Issue
	for path, sec := range tree.Sections {
		if path == "" || sec.IsVirtual {
			continue
		}
		if sec.IndexPage == "" {
			issues = append(issues, Issue{
				Validator: "missing-index-page",
				Severity:  SeverityError,
				Message:   fmt.Sprintf("section %q has no index page", path),
			})
		}
	}
	return issues
}

// checkBrokenInternalLinks scans every rendered page's HTML for anchors
// whose href looks site-relative and points at a page/section slug this
// build never produced.
func checkBrokenInternalLinks(tree *content.Tree) []Issue {
	known := knownOutputPaths(tree)

	var issues []Issue
	for pageID, page := range tree.Pages {
		if page.RenderedHTML == "" {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.RenderedHTML))
		if err != nil {
			continue
		}
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || !isInternalLink(href) {
				return
			}
			target := strings.TrimSuffix(strings.SplitN(href, "#", 2)[0], "/")
			if target == "" {
				return
			}
			if !known[target] {
				issues = append(issues, Issue{
					Validator: "broken-internal-link",
					Page:      pageID,
					Severity:  SeverityError,
					Message:   fmt.Sprintf("link to %q does not match any known page or section", href),
				})
			}
		})
	}
	return issues
}

// knownOutputPaths collects every slug a link could validly resolve to:
// each page's own site-relative path and every section path (since a
// section's index page is addressable by the section's own path).
func knownOutputPaths(tree *content.Tree) map[string]bool {
	known := make(map[string]bool, len(tree.Pages)+len(tree.Sections))
	for _, page := range tree.Pages {
		if page.IsIndex {
			known["/"+page.SectionRef] = true
		} else {
			known["/"+path.Join(page.SectionRef, page.Slug)] = true
		}
	}
	for secPath := range tree.Sections {
		known["/"+secPath] = true
	}
	return known
}

func isInternalLink(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	if strings.Contains(href, "://") || strings.HasPrefix(href, "//") {
		return false
	}
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
		return false
	}
	return strings.HasPrefix(href, "/")
}

// checkOrphanAssets flags every manifest entry that no rendered page's
// asset-reference set points at, per spec.md §4.10 P15's own
// responsibility for this (the AssetPipeline never does this check
// itself, since it runs before pages are rendered).
func checkOrphanAssets(manifest *assetmanifest.Manifest, assetRefs map[string][]string) []Issue {
	referenced := make(map[string]bool)
	for _, urls := range assetRefs {
		for _, u := range urls {
			referenced[path.Clean(u)] = true
		}
	}

	var issues []Issue
	for _, entry := range manifest.Entries() {
		if referenced[path.Clean(entry.OutputPath)] || referenced[path.Clean("/"+entry.LogicalPath)] {
			continue
		}
		issues = append(issues, Issue{
			Validator: "orphan-asset",
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("asset %q is never referenced by any rendered page", entry.LogicalPath),
		})
	}
	return issues
}
