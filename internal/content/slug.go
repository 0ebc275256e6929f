package content

import (
	"path"
	"regexp"
	"strings"
)

// ContentExtensions lists the source file extensions spec.md §6 recognizes
// as content, grounded on original_source/bengal/content/utils/constants.py
// CONTENT_EXTENSIONS (.md/.markdown/.rst/.txt) extended with notebooks per
// spec.md §1.
var ContentExtensions = map[string]bool{
	".md": true, ".markdown": true, ".rst": true, ".txt": true, ".ipynb": true,
}

// indexStemPrefix is the filename-stem convention marking a page as its
// directory's index page, per spec.md §6: "Filenames beginning with
// _index designate the index page of their directory/section."
const indexStemPrefix = "_index"

// IsIndexFile reports whether base (a content file's basename) is an
// index-page source: either the _index convention or a bare "index"
// stem, matching the two stems PathToSlug already collapses to a
// section's root.
func IsIndexFile(base string) bool {
	stem := strings.TrimSuffix(base, path.Ext(base))
	return stem == "index" || strings.HasPrefix(stem, indexStemPrefix)
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\-_/]+`)
	slugMultiHyphen  = regexp.MustCompile(`-+`)
)

// PathToSlug derives a URL-friendly slug from a relative content path,
// ported from original_source/bengal/content/utils/slugify.py path_to_slug:
// strip the extension, normalize separators to '/', and collapse an
// "index"/"_index" basename down to its containing directory.
func PathToSlug(relPath string) string {
	relPath = strings.ReplaceAll(relPath, "\\", "/")
	ext := path.Ext(relPath)
	if ContentExtensions[strings.ToLower(ext)] {
		relPath = strings.TrimSuffix(relPath, ext)
	}

	if relPath == "index" || relPath == indexStemPrefix {
		return ""
	}
	if strings.HasSuffix(relPath, "/index") {
		relPath = strings.TrimSuffix(relPath, "/index")
	}
	if strings.HasSuffix(relPath, "/"+indexStemPrefix) {
		relPath = strings.TrimSuffix(relPath, "/"+indexStemPrefix)
	}
	return relPath
}

// TitleToSlug derives a URL-friendly slug from a page title, ported from
// original_source/bengal/content/utils/slugify.py title_to_slug.
func TitleToSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = slugMultiHyphen.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
