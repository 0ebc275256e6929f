package templatert

import "strings"

// JoinBaseURL implements spec.md §4.7's baseurl semantics: empty or "/"
// leaves the path unchanged; otherwise the baseurl is trimmed of any
// trailing slash, the path is forced to begin with "/", and the two are
// concatenated with no doubled "//" (except immediately after a URL
// scheme in an absolute/protocol-relative baseurl).
func JoinBaseURL(baseurl, p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if baseurl == "" || baseurl == "/" {
		return p
	}

	trimmed := strings.TrimRight(baseurl, "/")
	return trimmed + p
}

// AssetURL resolves a logical asset path to its final site URL, using
// the AssetManifest entry's output path (falling back to the logical
// path itself when the asset is not in the manifest, e.g. during a
// dev preview where the pipeline has not run) and applying baseurl.
func AssetURL(baseurl string, manifestOutputPath, logicalPath string) string {
	target := manifestOutputPath
	if target == "" {
		if !strings.HasPrefix(logicalPath, "/") {
			target = "/" + logicalPath
		} else {
			target = logicalPath
		}
	}
	return JoinBaseURL(baseurl, target)
}
