package imagecache

import "testing"

func TestParseSpec_DimensionsAndFormat(t *testing.T) {
	spec, unknown := ParseSpec("400x300 webp q80 smart")
	if len(unknown) != 0 {
		t.Errorf("unexpected unknown tokens: %v", unknown)
	}
	if spec.Width != 400 || spec.Height != 300 {
		t.Errorf("dimensions = %dx%d, want 400x300", spec.Width, spec.Height)
	}
	if spec.Format != "webp" {
		t.Errorf("format = %q, want webp", spec.Format)
	}
	if spec.Quality != 80 {
		t.Errorf("quality = %d, want 80", spec.Quality)
	}
	if spec.Anchor != "smart" {
		t.Errorf("anchor = %q, want smart", spec.Anchor)
	}
}

func TestParseSpec_JpgNormalizesToJpeg(t *testing.T) {
	spec, _ := ParseSpec("jpg")
	if spec.Format != "jpeg" {
		t.Errorf("format = %q, want jpeg", spec.Format)
	}
}

func TestParseSpec_InvalidQualityRevertsToDefault(t *testing.T) {
	spec, _ := ParseSpec("q150")
	if spec.Quality != defaultQuality {
		t.Errorf("quality = %d, want default %d", spec.Quality, defaultQuality)
	}
	spec2, _ := ParseSpec("q0")
	if spec2.Quality != defaultQuality {
		t.Errorf("quality = %d, want default %d", spec2.Quality, defaultQuality)
	}
}

func TestParseSpec_WidthOnlyAndHeightOnly(t *testing.T) {
	wOnly, _ := ParseSpec("200x")
	if wOnly.Width != 200 || wOnly.Height != 0 {
		t.Errorf("width-only = %dx%d, want 200x0", wOnly.Width, wOnly.Height)
	}
	hOnly, _ := ParseSpec("x150")
	if hOnly.Width != 0 || hOnly.Height != 150 {
		t.Errorf("height-only = %dx%d, want 0x150", hOnly.Width, hOnly.Height)
	}
}

func TestParseSpec_UnknownTokensWarnedNotFatal(t *testing.T) {
	spec, unknown := ParseSpec("400x300 bogus123")
	if spec.Width != 400 {
		t.Errorf("parsing should continue past unknown tokens")
	}
	if len(unknown) != 1 || unknown[0] != "bogus123" {
		t.Errorf("unknown = %v, want [bogus123]", unknown)
	}
}

func TestParseSpec_BlurWithSigma(t *testing.T) {
	spec, _ := ParseSpec("blur 5 grayscale")
	if len(spec.Filters) != 2 {
		t.Fatalf("expected 2 filters, got %v", spec.Filters)
	}
	if spec.Filters[0] != "blur:5" || spec.Filters[1] != "grayscale" {
		t.Errorf("filters = %v", spec.Filters)
	}
}

func TestSpec_StringIsOrderIndependent(t *testing.T) {
	a, _ := ParseSpec("400x300 webp q80")
	b, _ := ParseSpec("q80 webp 400x300")
	if a.String() != b.String() {
		t.Errorf("canonical spec strings differ: %q vs %q", a.String(), b.String())
	}
}
