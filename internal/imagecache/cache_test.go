package imagecache

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("writing fixture image: %v", err)
	}
}

func TestProcess_FillProducesExactDimensions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.png")
	writeTestPNG(t, src, 800, 600)

	cache, err := Open(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	result, err := cache.Process(src, OpFill, "100x50 png", "/images/hero")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Width != 100 || result.Height != 50 {
		t.Errorf("fill dimensions = %dx%d, want 100x50", result.Width, result.Height)
	}
	if _, err := os.Stat(result.CachePath); err != nil {
		t.Errorf("cache file not written: %v", err)
	}
}

func TestProcess_FitNeverUpscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.png")
	writeTestPNG(t, src, 50, 50)

	cache, _ := Open(filepath.Join(dir, "cache"))
	result, err := cache.Process(src, OpFit, "500x500 png", "/images/small")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Width > 50 || result.Height > 50 {
		t.Errorf("fit upscaled: got %dx%d from a 50x50 source", result.Width, result.Height)
	}
}

func TestProcess_ResizeWidthOnlyPreservesAspectRatio(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.png")
	writeTestPNG(t, src, 400, 200) // 2:1

	cache, _ := Open(filepath.Join(dir, "cache"))
	result, err := cache.Process(src, OpResize, "200x png", "/images/wide")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Width != 200 || result.Height != 100 {
		t.Errorf("resize width-only = %dx%d, want 200x100", result.Width, result.Height)
	}
}

func TestProcess_CacheHitAvoidsRewrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.png")
	writeTestPNG(t, src, 100, 100)

	cache, _ := Open(filepath.Join(dir, "cache"))
	first, err := cache.Process(src, OpFill, "50x50 png", "/images/x")
	if err != nil {
		t.Fatalf("Process (first): %v", err)
	}
	info1, _ := os.Stat(first.CachePath)

	second, err := cache.Process(src, OpFill, "50x50 png", "/images/x")
	if err != nil {
		t.Fatalf("Process (second): %v", err)
	}
	info2, _ := os.Stat(second.CachePath)

	if info1.ModTime() != info2.ModTime() {
		t.Errorf("expected cache hit to avoid rewriting the image file")
	}
}

func TestProcess_SourceMtimeChangeInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.png")
	writeTestPNG(t, src, 100, 100)

	cache, _ := Open(filepath.Join(dir, "cache"))
	first, err := cache.Process(src, OpFill, "50x50 png", "/images/x")
	if err != nil {
		t.Fatalf("Process (first): %v", err)
	}

	info, err := os.Stat(src)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	later := info.ModTime().Add(time.Second)
	if err := os.Chtimes(src, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	second, err := cache.Process(src, OpFill, "50x50 png", "/images/x")
	if err != nil {
		t.Fatalf("Process (second): %v", err)
	}
	if first.CachePath == second.CachePath {
		t.Errorf("expected different cache entries after source mtime changed")
	}
}

func TestProcess_UnencodableFormatFallsBackToEncodableFormat(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.png")
	writeTestPNG(t, src, 64, 64)

	cache, _ := Open(filepath.Join(dir, "cache"))
	result, err := cache.Process(src, OpFill, "32x32 webp", "/images/x")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Format != "png" {
		t.Errorf("format = %q, want png fallback for unsupported webp encoder", result.Format)
	}
}
