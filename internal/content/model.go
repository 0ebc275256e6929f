package content

import "github.com/bengalssg/bengal/internal/hashutil"

// PageID is a stable, site-relative POSIX path identifying a page's source
// file. Per spec.md §9's arena design note, Section and Page never hold
// pointers to each other directly — only PageID/SectionID references into
// Tree's flat containers — so the whole model is trivially thread-safe and
// serializable, and nothing in it needs a cycle-aware GC or finalizer.
type PageID = string

// SectionID is a stable, site-relative POSIX path identifying a section's
// directory (empty string for the root section).
type SectionID = string

// Page is one content file: its raw source, parsed frontmatter, and the
// computed fields the render pipeline fills in before output.
type Page struct {
	SourcePath   string // absolute filesystem path
	PageID       PageID // site-relative POSIX path, e.g. "blog/post-one.md"
	RawMetadata  Metadata
	RawContent   string // body after frontmatter extraction
	ContentHash  hashutil.ContentHash
	FrontmatterHash hashutil.ContentHash

	// Computed by section finalization / slug assignment.
	ComputedMetadata Metadata
	Slug             string
	OutputPath       string // absolute path under output_dir, set before rendering
	RenderedHTML     string

	SectionRef  SectionID
	Language    string
	Version     string
	RelatedPages []PageID

	// IsIndex marks a page discovered as its section's index source
	// (an "_index" or bare "index" stem, per IsIndexFile).
	IsIndex bool
}

// SectionKind classifies a Section's archive/listing behavior, per
// spec.md §3's SectionKind sum type — dispatch on this tag rather than on
// a section class hierarchy (spec.md §9's "deep inheritance" design note).
type SectionKind string

const (
	KindUnknown       SectionKind = ""
	KindArchive       SectionKind = "archive"
	KindAPIReference  SectionKind = "api-reference"
	KindCLIReference  SectionKind = "cli-reference"
	KindTutorial      SectionKind = "tutorial"
	KindList          SectionKind = "list"
)

// Section is a directory-backed tree node. ParentRef/Subsections/Pages
// hold SectionID/PageID references rather than pointers, per the arena
// design note above.
type Section struct {
	Name        string
	Path        SectionID // "" for root
	ParentRef   SectionID // "" for root
	Subsections []SectionID
	Pages       []PageID
	IndexPage   PageID // "" until assigned by section finalization
	Metadata    Metadata
	IsVirtual   bool // true if synthesized (no _index source file on disk)
	Kind        SectionKind
}

// Tree is the flat arena holding every discovered Page and Section,
// indexed by their stable IDs.
type Tree struct {
	Pages    map[PageID]*Page
	Sections map[SectionID]*Section
	Root     SectionID
}

// NewTree returns an empty Tree with its root section initialized.
func NewTree() *Tree {
	root := &Section{Path: "", Metadata: Metadata{}}
	return &Tree{
		Pages:    map[PageID]*Page{},
		Sections: map[SectionID]*Section{"": root},
		Root:     "",
	}
}

// EnsureSection returns the Section at path, creating it (and any missing
// ancestors) as a virtual section if it doesn't already exist.
func (t *Tree) EnsureSection(path string) *Section {
	if s, ok := t.Sections[path]; ok {
		return s
	}
	parentPath, name := splitSectionPath(path)
	parent := t.EnsureSection(parentPath)

	s := &Section{
		Name:      name,
		Path:      path,
		ParentRef: parentPath,
		Metadata:  Metadata{},
		IsVirtual: true,
	}
	t.Sections[path] = s
	parent.Subsections = append(parent.Subsections, path)
	return s
}

func splitSectionPath(path string) (parent, name string) {
	if path == "" {
		return "", ""
	}
	idx := lastSlash(path)
	if idx == -1 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

// AddPage inserts a page into its section's Pages list (or sets it as
// the section's IndexPage), creating the section via EnsureSection if it
// does not exist yet.
func (t *Tree) AddPage(p *Page) {
	t.Pages[p.PageID] = p
	sec := t.EnsureSection(p.SectionRef)
	if p.IsIndex {
		sec.IndexPage = p.PageID
	} else {
		sec.Pages = append(sec.Pages, p.PageID)
	}
}
