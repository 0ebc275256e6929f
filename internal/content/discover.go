package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bengalssg/bengal/internal/bengalerr"
	"github.com/bengalssg/bengal/internal/buildlog"
	"github.com/bengalssg/bengal/internal/hashutil"
)

var log = buildlog.New("discovery", "content")

// DiscoverOptions configures a content tree walk.
type DiscoverOptions struct {
	ContentDir string
	StrictMode bool
}

// Discover walks opts.ContentDir, parses every recognized content file's
// frontmatter, and returns the resulting Tree. Per spec.md §4.10 P3 and
// §7's DiscoveryError policy: a single unreadable/unparseable file is
// logged and skipped, unless StrictMode is set, in which case discovery
// aborts on the first such error — grounded on the teacher's
// pkg/plugins/glob.go (doublestar recursive glob over the content tree)
// generalized from a single `**/*.md` pattern to every extension in
// ContentExtensions.
func Discover(opts DiscoverOptions) (*Tree, error) {
	tree := NewTree()

	paths, err := globContentFiles(opts.ContentDir)
	if err != nil {
		return nil, bengalerr.DiscoveryError(opts.ContentDir, "glob_failed",
			fmt.Sprintf("failed to scan content directory: %v", err),
			"check that build.content_dir points to a readable directory", err)
	}
	sort.Strings(paths)

	for _, abs := range paths {
		rel, err := filepath.Rel(opts.ContentDir, abs)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)

		page, err := loadPage(abs, rel)
		if err != nil {
			derr := bengalerr.DiscoveryError(rel, "unparseable_content", err.Error(),
				"check the file's frontmatter for malformed YAML/TOML", err)
			if opts.StrictMode {
				return nil, derr
			}
			log.Warn("skipping %s: %v", rel, err)
			continue
		}

		tree.AddPage(page)
	}

	return tree, nil
}

func globContentFiles(contentDir string) ([]string, error) {
	if _, err := os.Stat(contentDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []string
	for ext := range ContentExtensions {
		matches, err := doublestar.FilepathGlob(filepath.Join(contentDir, "**/*"+ext))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}

func loadPage(sourcePath, relPath string) (*Page, error) {
	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", relPath, err)
	}

	meta, body, err := ParseFrontmatter(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing frontmatter in %s: %w", relPath, err)
	}

	base := filepath.Base(relPath)
	sectionPath := strings.TrimSuffix(filepath.ToSlash(filepath.Dir(relPath)), "/")
	if sectionPath == "." {
		sectionPath = ""
	}

	page := &Page{
		SourcePath:      sourcePath,
		PageID:          relPath,
		RawMetadata:     meta,
		RawContent:      body,
		ContentHash:     hashutil.HashBytes(raw),
		FrontmatterHash: hashutil.HashBytes([]byte(frontmatterCanonical(meta))),
		SectionRef:      sectionPath,
		IsIndex:         IsIndexFile(base),
	}

	if !page.IsIndex {
		if title := meta.Get("title").AsStringOr(""); title != "" {
			page.Slug = TitleToSlug(title)
		}
		if page.Slug == "" {
			page.Slug = lastPathComponent(PathToSlug(relPath))
		}
	}

	return page, nil
}

func lastPathComponent(slug string) string {
	if idx := strings.LastIndexByte(slug, '/'); idx != -1 {
		return slug[idx+1:]
	}
	return slug
}

// frontmatterCanonical renders Metadata deterministically for hashing
// purposes (key order must not affect the hash, per spec.md §4.2).
func frontmatterCanonical(m Metadata) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(m[k].AsStringOr(""))
		sb.WriteString("\n")
	}
	return sb.String()
}
