// Package imagecache implements the ImageProcessorCache of spec.md
// §4.5: a content-addressed cache of processed images (fill, fit,
// resize, filter) keyed by (schema_version, source identity, operation,
// spec), persisted as an image file plus a metadata sidecar written
// atomically via internal/atomicio. Grounded on the teacher's
// cache-entry/sidecar approach in pkg/plugins/image_optimization.go,
// re-expressed around github.com/disintegration/imaging instead of
// shelling out to avifenc/cwebp.
package imagecache

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/bengalssg/bengal/internal/atomicio"
	"github.com/bengalssg/bengal/internal/buildlog"
	"github.com/bengalssg/bengal/internal/hashutil"
)

// SchemaVersion is bumped whenever the cache key derivation or on-disk
// sidecar shape changes, invalidating every prior cache entry.
const SchemaVersion = 1

var log = buildlog.New("", "imagecache")

// ProcessedImage is the result of a cache hit or a freshly performed
// operation: the sidecar metadata plus where the processed file lives.
type ProcessedImage struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	RelPermalink string `json:"rel_permalink"`
	CachePath    string `json:"-"`
}

// sidecar is the on-disk JSON metadata companion to the processed image.
type sidecar struct {
	SchemaVersion int    `json:"schema_version"`
	SourcePath    string `json:"source_path"`
	SourceHash    string `json:"source_identity_hash"`
	Op            Op     `json:"op"`
	SpecHash      string `json:"spec_hash"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	RelPermalink  string `json:"rel_permalink"`
}

// Cache is the ImageProcessorCache rooted at cache_dir/image-cache.
type Cache struct {
	dir string
}

// Open returns a Cache rooted at filepath.Join(cacheDir, "image-cache"),
// creating the directory if it does not already exist.
func Open(cacheDir string) (*Cache, error) {
	dir := filepath.Join(cacheDir, "image-cache")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagecache: creating cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// sourceIdentityHash hashes the source path plus its mtime in
// nanoseconds, so touching the file (even with identical bytes)
// invalidates entries derived from it — matching spec.md §4.5's key
// function exactly.
func sourceIdentityHash(sourcePath string, mtimeNS int64) hashutil.ContentHash {
	return hashutil.HashBytes([]byte(fmt.Sprintf("%s\x00%d", sourcePath, mtimeNS)))
}

func (c *Cache) keyBase(srcHash hashutil.ContentHash, op Op, spec Spec) string {
	specHash := hashutil.HashBytes([]byte(spec.String()))
	return fmt.Sprintf("v%d_%s_%s_%s", SchemaVersion, srcHash, op, specHash)
}

// Process returns the ProcessedImage for (sourcePath, op, specString),
// serving a cache hit when one exists or performing the operation and
// populating the cache otherwise. relPermalinkBase is the URL path
// prefix the caller wants recorded in the sidecar, without an extension
// (e.g. "/images/hero.fill.400x300"); the output format's extension is
// appended to it.
func (c *Cache) Process(sourcePath string, op Op, specString, relPermalinkBase string) (*ProcessedImage, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("imagecache: stat source %s: %w", sourcePath, err)
	}

	spec, unknown := ParseSpec(specString)
	for _, tok := range unknown {
		log.Warn("unknown spec token %q for %s, ignoring", tok, sourcePath)
	}
	if spec.Format == "" {
		spec.Format = inferFormatFromExt(sourcePath)
	}

	srcHash := sourceIdentityHash(sourcePath, info.ModTime().UnixNano())
	base := c.keyBase(srcHash, op, spec)
	sidecarPath := filepath.Join(c.dir, base+".json")

	if cached := c.loadSidecar(sidecarPath, base, spec.Format); cached != nil {
		return cached, nil
	}

	img, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("imagecache: decoding %s: %w", sourcePath, err)
	}

	out, err := applyOp(img, op, spec)
	if err != nil {
		return nil, fmt.Errorf("imagecache: applying %s to %s: %w", op, sourcePath, err)
	}

	outFormat, encFormat := resolveEncodeFormat(spec.Format)
	if outFormat != spec.Format {
		log.Warn("format %q has no pure-Go encoder available, writing %q instead for %s", spec.Format, outFormat, sourcePath)
	}

	ext := "." + outFormat
	imagePath := filepath.Join(c.dir, base+ext)

	if err := writeImageAtomic(imagePath, out, encFormat, spec.Quality); err != nil {
		return nil, fmt.Errorf("imagecache: writing %s: %w", imagePath, err)
	}

	bounds := out.Bounds()
	result := ProcessedImage{
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Format:       outFormat,
		RelPermalink: relPermalinkBase + ext,
		CachePath:    imagePath,
	}

	sc := sidecar{
		SchemaVersion: SchemaVersion,
		SourcePath:    sourcePath,
		SourceHash:    string(srcHash),
		Op:            op,
		SpecHash:      string(hashutil.HashBytes([]byte(spec.String()))),
		Width:         result.Width,
		Height:        result.Height,
		Format:        result.Format,
		RelPermalink:  result.RelPermalink,
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("imagecache: marshaling sidecar: %w", err)
	}
	if err := atomicio.WriteBytes(sidecarPath, data); err != nil {
		return nil, fmt.Errorf("imagecache: writing sidecar: %w", err)
	}

	return &result, nil
}

// loadSidecar returns a ProcessedImage reconstructed from a cached
// sidecar + image pair, or nil if either is missing/corrupt (a cache
// miss, not an error — the caller falls through to a fresh encode).
func (c *Cache) loadSidecar(sidecarPath, base, requestedFormat string) *ProcessedImage {
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return nil
	}
	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil
	}
	imagePath := filepath.Join(c.dir, base+"."+sc.Format)
	if _, err := os.Stat(imagePath); err != nil {
		return nil
	}
	return &ProcessedImage{
		Width:        sc.Width,
		Height:       sc.Height,
		Format:       sc.Format,
		RelPermalink: sc.RelPermalink,
		CachePath:    imagePath,
	}
}

func inferFormatFromExt(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 0 {
		ext = ext[1:]
	}
	if f, ok := knownFormats[ext]; ok {
		return f
	}
	return "jpeg"
}

// applyOp dispatches to the fill/fit/resize/filter semantics of
// spec.md §4.5.
func applyOp(img image.Image, op Op, spec Spec) (image.Image, error) {
	switch op {
	case OpFill:
		return fill(img, spec), nil
	case OpFit:
		return fit(img, spec), nil
	case OpResize:
		return resize(img, spec), nil
	case OpFilter:
		return filterImage(img, spec), nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func fill(img image.Image, spec Spec) image.Image {
	anchor := anchorFor(spec.Anchor)
	return imaging.Fill(img, spec.Width, spec.Height, anchor, imaging.Lanczos)
}

func fit(img image.Image, spec Spec) image.Image {
	b := img.Bounds()
	if spec.Width >= b.Dx() && spec.Height >= b.Dy() {
		return img // never upscale
	}
	return imaging.Fit(img, spec.Width, spec.Height, imaging.Lanczos)
}

func resize(img image.Image, spec Spec) image.Image {
	// imaging.Resize treats a 0 side as "preserve aspect ratio".
	return imaging.Resize(img, spec.Width, spec.Height, imaging.Lanczos)
}

func filterImage(img image.Image, spec Spec) image.Image {
	out := img
	for _, f := range spec.Filters {
		switch {
		case f == "grayscale":
			out = imaging.Grayscale(out)
		case len(f) > 5 && f[:5] == "blur:":
			var sigma float64
			fmt.Sscanf(f[5:], "%f", &sigma)
			out = imaging.Blur(out, sigma)
		default:
			// Unknown filter names are no-ops per spec.md §4.5.
		}
	}
	return out
}

// anchorFor maps a spec anchor token to imaging.Anchor, falling back to
// Center for "smart" (face-detection is unavailable in this stack) and
// for any unrecognized token.
func anchorFor(a string) imaging.Anchor {
	switch a {
	case "top":
		return imaging.Top
	case "bottom":
		return imaging.Bottom
	case "left":
		return imaging.Left
	case "right":
		return imaging.Right
	case "topleft":
		return imaging.TopLeft
	case "topright":
		return imaging.TopRight
	case "bottomleft":
		return imaging.BottomLeft
	case "bottomright":
		return imaging.BottomRight
	default: // "center", "smart", or unrecognized
		return imaging.Center
	}
}

// resolveEncodeFormat maps a requested format to the format this stack
// can actually encode. disintegration/imaging encodes JPEG/PNG/GIF/TIFF/
// BMP; it has no WebP or AVIF encoder, so those requests fall back to
// PNG (lossless, safest default for pipeline correctness over
// size — callers needing true WebP/AVIF output must add a codec).
func resolveEncodeFormat(format string) (outFormat string, encFormat imaging.Format) {
	switch format {
	case "jpeg":
		return "jpeg", imaging.JPEG
	case "png":
		return "png", imaging.PNG
	case "gif":
		return "gif", imaging.GIF
	case "webp", "avif":
		return "png", imaging.PNG
	default:
		return "jpeg", imaging.JPEG
	}
}

func writeImageAtomic(path string, img image.Image, format imaging.Format, quality int) error {
	w, err := atomicio.ScopedWriterFor(path)
	if err != nil {
		return err
	}
	opts := []imaging.EncodeOption{imaging.JPEGQuality(quality)}
	if err := imaging.Encode(w, img, format, opts...); err != nil {
		w.Abort()
		return err
	}
	return w.Close()
}
