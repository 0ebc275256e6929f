// Package assetmanifest implements the logical-path -> fingerprinted
// output-path map that the asset pipeline persists as JSON (spec.md
// §4.4). It is the contract between the asset pipeline and the template
// runtime's asset URL helpers.
package assetmanifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/bengalssg/bengal/internal/atomicio"
)

// Version is the manifest schema version written to disk.
const Version = 1

// Entry describes one asset's final, possibly-fingerprinted location.
type Entry struct {
	LogicalPath string     `json:"-"`
	OutputPath  string     `json:"output_path"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	SizeBytes   int64      `json:"size_bytes,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Manifest is the in-memory, mutable form of the asset manifest.
type Manifest struct {
	GeneratedAt time.Time
	assets      map[string]Entry
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{assets: make(map[string]Entry)}
}

// SetEntry inserts or replaces the entry for logicalPath.
func (m *Manifest) SetEntry(logicalPath, outputPath, fingerprint string, sizeBytes int64, updatedAt time.Time) {
	m.assets[logicalPath] = Entry{
		LogicalPath: logicalPath,
		OutputPath:  outputPath,
		Fingerprint: fingerprint,
		SizeBytes:   sizeBytes,
		UpdatedAt:   &updatedAt,
	}
}

// Get returns the entry for logicalPath, if present.
func (m *Manifest) Get(logicalPath string) (Entry, bool) {
	e, ok := m.assets[logicalPath]
	return e, ok
}

// Entries returns all entries sorted by logical path.
func (m *Manifest) Entries() []Entry {
	paths := make([]string, 0, len(m.assets))
	for p := range m.assets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]Entry, 0, len(paths))
	for _, p := range paths {
		out = append(out, m.assets[p])
	}
	return out
}

// onDiskManifest mirrors the JSON shape specified in spec.md §4.4 / §6.
type onDiskManifest struct {
	Version     int                  `json:"version"`
	GeneratedAt string               `json:"generated_at"`
	Assets      map[string]diskEntry `json:"assets"`
}

type diskEntry struct {
	OutputPath  string     `json:"output_path"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	SizeBytes   int64      `json:"size_bytes,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Write atomically serializes the manifest to path: pretty-printed JSON,
// two-space indent, assets sorted by logical path, trailing newline.
func (m *Manifest) Write(path string, generatedAt time.Time) error {
	disk := onDiskManifest{
		Version:     Version,
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Assets:      make(map[string]diskEntry, len(m.assets)),
	}
	for logicalPath, e := range m.assets {
		disk.Assets[logicalPath] = diskEntry{
			OutputPath:  e.OutputPath,
			Fingerprint: e.Fingerprint,
			SizeBytes:   e.SizeBytes,
			UpdatedAt:   e.UpdatedAt,
		}
	}

	// encoding/json sorts map keys alphabetically when marshaling, which
	// gives us the "assets sorted by logical path" contract for free.
	data, err := json.MarshalIndent(disk, "", "  ")
	if err != nil {
		return fmt.Errorf("assetmanifest: marshaling: %w", err)
	}
	data = append(data, '\n')

	return atomicio.WriteBytes(path, data)
}

// Load reads a manifest from path. A missing or corrupt manifest is
// tolerated: Load returns (nil, nil) rather than an error, matching
// spec.md §4.4's "tolerate missing/corrupt manifest by returning None".
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil //nolint:nilerr // missing manifest is not an error condition
	}

	var disk onDiskManifest
	if err := json.Unmarshal(data, &disk); err != nil {
		return nil, nil //nolint:nilerr // corrupt manifest treated as absent
	}

	m := New()
	for logicalPath, e := range disk.Assets {
		m.assets[logicalPath] = Entry{
			LogicalPath: logicalPath,
			OutputPath:  e.OutputPath,
			Fingerprint: e.Fingerprint,
			SizeBytes:   e.SizeBytes,
			UpdatedAt:   e.UpdatedAt,
		}
	}
	return m, nil
}
