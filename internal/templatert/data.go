package templatert

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bengalssg/bengal/internal/hashutil"
	"github.com/bengalssg/bengal/internal/provenance"
)

// LoadData reads a data file (YAML/JSON/TOML/CSV, chosen by extension)
// from disk and decodes it into a generic value, recording the read as
// a provenance input of kind "data" per spec.md §4.7.
func LoadData(path string, rec InputRecorder) (interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("templatert: reading data file %q: %w", path, err)
	}

	var value interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("templatert: parsing YAML data %q: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("templatert: parsing JSON data %q: %w", path, err)
		}
	case ".toml":
		var m map[string]interface{}
		if err := toml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("templatert: parsing TOML data %q: %w", path, err)
		}
		value = m
	case ".csv":
		rows, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("templatert: parsing CSV data %q: %w", path, err)
		}
		value = rows
	default:
		return nil, fmt.Errorf("templatert: unsupported data file extension for %q", path)
	}

	if rec != nil {
		rec.RecordInput(provenance.InputData, path, hashutil.HashBytes(raw))
	}
	return value, nil
}
