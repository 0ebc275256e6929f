// Package provenance implements the content-addressed provenance store:
// a persistent record of every input that contributed to each rendered
// page, plus the inverse (subvenance) index used to fan out rebuilds
// when an input changes.
package provenance

import (
	"sort"
	"time"

	"github.com/bengalssg/bengal/internal/hashutil"
)

// InputType enumerates the kinds of inputs a page's render can depend on.
type InputType string

const (
	InputContent  InputType = "content"
	InputMetadata InputType = "metadata"
	InputTemplate InputType = "template"
	InputPartial  InputType = "partial"
	InputData     InputType = "data"
	InputConfig   InputType = "config"
	InputSection  InputType = "section"
	InputAsset    InputType = "asset"
)

// InputRecord is one immutable input that contributed to a page's output.
type InputRecord struct {
	InputType   InputType          `json:"input_type"`
	LogicalPath string             `json:"logical_path"`
	Hash        hashutil.ContentHash `json:"hash"`
}

// Provenance is an ordered, de-duplicated list of InputRecords plus a
// combined hash derived deterministically from the sorted list. Two
// Provenances are equal iff their CombinedHash values are equal.
type Provenance struct {
	Inputs       []InputRecord        `json:"inputs"`
	CombinedHash hashutil.ContentHash `json:"combined_hash"`
}

// NewProvenance builds a Provenance from a set of inputs, sorting and
// de-duplicating them (last write for a given (type, path) pair wins)
// and computing the combined hash.
func NewProvenance(inputs []InputRecord) Provenance {
	dedup := dedupeInputs(inputs)
	sort.Slice(dedup, func(i, j int) bool {
		if dedup[i].InputType != dedup[j].InputType {
			return dedup[i].InputType < dedup[j].InputType
		}
		return dedup[i].LogicalPath < dedup[j].LogicalPath
	})
	return Provenance{
		Inputs:       dedup,
		CombinedHash: combinedHash(dedup),
	}
}

func dedupeInputs(inputs []InputRecord) []InputRecord {
	seen := make(map[string]int, len(inputs))
	out := make([]InputRecord, 0, len(inputs))
	for _, in := range inputs {
		key := string(in.InputType) + "\x00" + in.LogicalPath
		if idx, ok := seen[key]; ok {
			out[idx] = in // last write wins
			continue
		}
		seen[key] = len(out)
		out = append(out, in)
	}
	return out
}

// combinedHash derives a single ContentHash from a sorted InputRecord
// list. It depends only on the inputs — never on timestamps — so that
// ProvenanceRecord.CombinedHash is a pure function of its inputs.
func combinedHash(sorted []InputRecord) hashutil.ContentHash {
	var buf []byte
	for _, in := range sorted {
		buf = append(buf, in.InputType...)
		buf = append(buf, 0)
		buf = append(buf, in.LogicalPath...)
		buf = append(buf, 0)
		buf = append(buf, in.Hash...)
		buf = append(buf, 0)
	}
	return hashutil.HashBytes(buf)
}

// RecomputeCombinedHash recomputes the combined hash of an arbitrary
// (possibly unsorted) input slice the same way NewProvenance does. It is
// used to verify a stored record's integrity (spec.md §8 invariant 3).
func RecomputeCombinedHash(inputs []InputRecord) hashutil.ContentHash {
	return NewProvenance(inputs).CombinedHash
}

// ProvenanceRecord is the persisted record of one page's last successful
// render: its full provenance plus the hash of the output it produced.
type ProvenanceRecord struct {
	PageID      string               `json:"page_path"`
	Provenance  Provenance           `json:"provenance"`
	OutputHash  hashutil.ContentHash `json:"output_hash"`
	CreatedAt   time.Time            `json:"created_at"`
	BuildID     string               `json:"build_id,omitempty"`
}
