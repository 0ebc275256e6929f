// Package atomicio provides crash-safe file writes: temp-then-rename,
// directory fsync on POSIX, and cleanup of orphan temp files on failure.
//
// Every write goes through the same path: create the parent directory,
// write the payload to a randomized hidden temp file in the same
// directory as the target, then atomically rename it over the target.
// Concurrent writers to the same path may race; the last rename wins and
// no partial file is ever observable.
package atomicio

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
)

// WriteBytes atomically writes content to path.
func WriteBytes(path string, content []byte) error {
	return write(path, func(f *os.File) error {
		_, err := f.Write(content)
		return err
	})
}

// WriteText atomically writes a string to path.
func WriteText(path string, content string) error {
	return WriteBytes(path, []byte(content))
}

// ScopedWriter buffers writes to a temp file and commits (renames it into
// place) only when Close succeeds. Calling Abort instead discards the
// temp file; so does any Close error.
type ScopedWriter struct {
	target  string
	tmpPath string
	f       *os.File
	closed  bool
}

// ScopedWriterFor opens a new ScopedWriter targeting path.
func ScopedWriterFor(path string) (*ScopedWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("atomicio: creating parent dir for %s: %w", path, err)
	}
	tmpPath, f, err := createTemp(path)
	if err != nil {
		return nil, err
	}
	return &ScopedWriter{target: path, tmpPath: tmpPath, f: f}, nil
}

// Write implements io.Writer, buffering into the temp file.
func (w *ScopedWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Close commits the write: flushes, closes, fsyncs, and renames the temp
// file over the target. On any failure the temp file is removed and the
// target is left untouched.
func (w *ScopedWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("atomicio: syncing temp file: %w", err)
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("atomicio: closing temp file: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.target); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("atomicio: renaming into place: %w", err)
	}
	fsyncDir(filepath.Dir(w.target))
	return nil
}

// Abort discards the in-progress write, removing the temp file and
// leaving the target untouched.
func (w *ScopedWriter) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	_ = w.f.Close()
	_ = os.Remove(w.tmpPath)
}

func write(path string, fill func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("atomicio: creating parent dir for %s: %w", path, err)
	}

	tmpPath, f, err := createTemp(path)
	if err != nil {
		return err
	}

	if err := fill(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomicio: writing %s: %w", path, err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomicio: syncing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomicio: closing temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomicio: renaming into place %s: %w", path, err)
	}

	fsyncDir(filepath.Dir(path))
	return nil
}

// createTemp creates a hidden, randomly-suffixed temp file in the same
// directory as path so the final rename is same-filesystem and atomic.
func createTemp(path string) (string, *os.File, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	for attempt := 0; attempt < 10; attempt++ {
		name := fmt.Sprintf(".%s.%08x.tmp", base, rand.Uint32())
		tmpPath := filepath.Join(dir, name)
		f, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return tmpPath, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("atomicio: creating temp file in %s: %w", dir, err)
		}
	}
	return "", nil, fmt.Errorf("atomicio: could not create unique temp file in %s", dir)
}

// fsyncDir fsyncs a directory on POSIX so the rename is durable. Best
// effort: Windows has no directory fsync, and failures here never fail
// the write itself, since the rename already succeeded.
func fsyncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// CopyFile atomically copies src to dst using the same temp-then-rename
// discipline as WriteBytes.
func CopyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("atomicio: opening source %s: %w", src, err)
	}
	defer in.Close()

	return write(dst, func(f *os.File) error {
		_, err := io.Copy(f, in)
		return err
	})
}
