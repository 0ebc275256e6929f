package content

import "strings"

// dateHeuristicThreshold is spec.md §3's "≥60% of sampled pages have a
// date ⇒ archive" constant.
const dateHeuristicThreshold = 0.6

// nameConventionKinds maps a section's directory-name convention to a
// SectionKind, checked before the date-presence heuristic.
var nameConventionKinds = map[string]SectionKind{
	"api":     KindAPIReference,
	"api-ref": KindAPIReference,
	"cli":     KindCLIReference,
	"commands": KindCLIReference,
	"tutorials": KindTutorial,
	"guides":    KindTutorial,
	"blog":      KindArchive,
	"posts":     KindArchive,
	"news":      KindArchive,
}

// DetermineKind resolves a Section's SectionKind in the priority order
// spec.md §3 names: explicit override (the section's own `type`/`kind`
// frontmatter key) > name convention > page-type metadata majority >
// date-presence heuristic > default KindList.
func DetermineKind(sec *Section, pages []*Page) SectionKind {
	if explicit := sec.Metadata.Get("kind").AsStringOr(""); explicit != "" {
		return SectionKind(explicit)
	}
	if explicit := sec.Metadata.Get("type").AsStringOr(""); explicit != "" {
		if k, ok := knownKind(explicit); ok {
			return k
		}
	}

	if k, ok := nameConventionKinds[strings.ToLower(sec.Name)]; ok {
		return k
	}

	if k, ok := majorityPageType(pages); ok {
		return k
	}

	if hasDateMajority(pages) {
		return KindArchive
	}

	return KindList
}

func knownKind(s string) (SectionKind, bool) {
	switch SectionKind(s) {
	case KindArchive, KindAPIReference, KindCLIReference, KindTutorial, KindList:
		return SectionKind(s), true
	default:
		return KindUnknown, false
	}
}

// majorityPageType looks for an explicit `type` frontmatter key shared by
// a strict majority of a section's pages (e.g. all pages tagged
// type: api-reference), treating that as the section's kind.
func majorityPageType(pages []*Page) (SectionKind, bool) {
	if len(pages) == 0 {
		return KindUnknown, false
	}
	counts := map[SectionKind]int{}
	for _, p := range pages {
		if t := p.RawMetadata.Get("type").AsStringOr(""); t != "" {
			if k, ok := knownKind(t); ok {
				counts[k]++
			}
		}
	}
	for k, n := range counts {
		if float64(n) > float64(len(pages))/2 {
			return k, true
		}
	}
	return KindUnknown, false
}

// hasDateMajority reports whether at least dateHeuristicThreshold of
// pages declare a non-empty `date` frontmatter field.
func hasDateMajority(pages []*Page) bool {
	if len(pages) == 0 {
		return false
	}
	withDate := 0
	for _, p := range pages {
		if p.RawMetadata.Get("date").AsStringOr("") != "" {
			withDate++
		}
	}
	return float64(withDate)/float64(len(pages)) >= dateHeuristicThreshold
}
