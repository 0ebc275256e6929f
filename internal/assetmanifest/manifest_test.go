package assetmanifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWrite_SortsKeysAndPrettyPrints(t *testing.T) {
	m := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.SetEntry("css/zeta.css", "assets/css/zeta.abcd1234.css", "abcd1234", 100, now)
	m.SetEntry("css/alpha.css", "assets/css/alpha.11112222.css", "11112222", 50, now)

	path := filepath.Join(t.TempDir(), "asset-manifest.json")
	if err := m.Write(path, now); err != nil {
		t.Fatalf("Write: %v", err)
	}

	loaded, err := Load(path)
	if err != nil || loaded == nil {
		t.Fatalf("Load failed: %v", err)
	}

	entries := loaded.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].LogicalPath != "css/alpha.css" || entries[1].LogicalPath != "css/zeta.css" {
		t.Errorf("entries not sorted: %+v", entries)
	}
}

func TestWrite_BitExactSchema(t *testing.T) {
	m := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.SetEntry("css/style.css", "assets/css/style.deadbeef.css", "deadbeef", 10, now)

	path := filepath.Join(t.TempDir(), "asset-manifest.json")
	if err := m.Write(path, now); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := readFile(path)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}

	if !strings.HasSuffix(string(data), "\n") {
		t.Errorf("expected trailing newline")
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if raw["version"].(float64) != 1 {
		t.Errorf("version = %v, want 1", raw["version"])
	}
	if _, ok := raw["generated_at"]; !ok {
		t.Errorf("missing generated_at")
	}
}

func TestLoad_MissingFileReturnsNil(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("expected no error for missing manifest, got %v", err)
	}
	if m != nil {
		t.Errorf("expected nil manifest for missing file")
	}
}

func TestLoad_CorruptFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asset-manifest.json")
	if err := writeFile(path, []byte("{not json")); err != nil {
		t.Fatalf("setup: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error for corrupt manifest, got %v", err)
	}
	if m != nil {
		t.Errorf("expected nil manifest for corrupt file")
	}
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
