package templatert

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/bengalssg/bengal/internal/hashutil"
)

// recordingLoader implements pongo2.TemplateLoader across Runtime's
// ordered search paths, and records every file it actually reads
// (i.e. every partial/extended template pongo2 resolves while
// compiling) into partials — grounded on the teacher's
// searchPathLoader in pkg/templates/engine.go, which performs the same
// multi-directory resolution without the recording step.
type recordingLoader struct {
	searchPaths []string

	mu       sync.Mutex
	partials *[]partialRef
}

func (l *recordingLoader) Abs(base, name string) string {
	if filepath.IsAbs(name) {
		return name
	}

	if base != "" {
		candidate := filepath.Join(filepath.Dir(base), name)
		if _, err := os.Stat(candidate); err == nil {
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs
			}
			return candidate
		}
	}

	for _, dir := range l.searchPaths {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs
			}
			return candidate
		}
	}

	if len(l.searchPaths) > 0 {
		if abs, err := filepath.Abs(filepath.Join(l.searchPaths[0], name)); err == nil {
			return abs
		}
	}
	return name
}

func (l *recordingLoader) Get(path string) (io.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("templatert: loading partial %q: %w", path, err)
	}

	l.mu.Lock()
	*l.partials = append(*l.partials, partialRef{
		logicalPath: path,
		hash:        hashutil.HashBytes(data),
	})
	l.mu.Unlock()

	return bytes.NewReader(data), nil
}
