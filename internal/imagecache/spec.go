package imagecache

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is one of the four image operations spec.md §4.5 defines.
type Op string

const (
	OpFill   Op = "fill"
	OpFit    Op = "fit"
	OpResize Op = "resize"
	OpFilter Op = "filter"
)

// defaultQuality is used whenever the spec string omits a quality token
// or supplies one outside [1, 100].
const defaultQuality = 85

// Spec is the parsed form of a space-separated spec string such as
// "400x300 webp q80 smart" or "blur 5 grayscale".
type Spec struct {
	Width   int // 0 means unspecified
	Height  int // 0 means unspecified
	Format  string
	Quality int
	Anchor  string
	Filters []string // e.g. "grayscale", "blur:5"
	raw     string
}

var knownFormats = map[string]string{
	"webp": "webp",
	"avif": "avif",
	"jpeg": "jpeg",
	"jpg":  "jpeg", // jpg normalizes to jpeg
	"png":  "png",
	"gif":  "gif",
}

var knownAnchors = map[string]bool{
	"center": true, "smart": true, "top": true, "bottom": true,
	"left": true, "right": true, "topleft": true, "topright": true,
	"bottomleft": true, "bottomright": true,
}

// ParseSpec parses a spec string per spec.md §4.5's grammar. Unknown
// tokens are tolerated: ParseSpec returns them as its second result,
// and the caller is responsible for warning about them.
func ParseSpec(s string) (Spec, []string) {
	spec := Spec{Quality: defaultQuality, raw: s}
	var unknown []string

	tokens := strings.Fields(s)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		lower := strings.ToLower(tok)

		switch {
		case isDimensionToken(lower):
			w, h := parseDimensionToken(lower)
			spec.Width, spec.Height = w, h
		case knownFormats[lower] != "":
			spec.Format = knownFormats[lower]
		case knownAnchors[lower]:
			spec.Anchor = lower
		case strings.HasPrefix(lower, "q") && isQualityToken(lower):
			q, err := strconv.Atoi(lower[1:])
			if err != nil || q < 1 || q > 100 {
				spec.Quality = defaultQuality
			} else {
				spec.Quality = q
			}
		case lower == "grayscale" || lower == "greyscale":
			spec.Filters = append(spec.Filters, "grayscale")
		case lower == "blur":
			sigma := "1"
			if i+1 < len(tokens) {
				if _, err := strconv.ParseFloat(tokens[i+1], 64); err == nil {
					sigma = tokens[i+1]
					i++
				}
			}
			spec.Filters = append(spec.Filters, "blur:"+sigma)
		default:
			unknown = append(unknown, tok)
		}
	}

	if spec.Anchor == "" {
		spec.Anchor = "center"
	}

	return spec, unknown
}

func isQualityToken(lower string) bool {
	if len(lower) < 2 {
		return false
	}
	for _, r := range lower[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isDimensionToken matches "<W>x<H>", "<W>x", or "x<H>" where W/H are
// digit strings and at least one side is present.
func isDimensionToken(tok string) bool {
	idx := strings.Index(tok, "x")
	if idx < 0 {
		return false
	}
	left, right := tok[:idx], tok[idx+1:]
	if left == "" && right == "" {
		return false
	}
	if left != "" && !isDigits(left) {
		return false
	}
	if right != "" && !isDigits(right) {
		return false
	}
	return true
}

func parseDimensionToken(tok string) (w, h int) {
	idx := strings.Index(tok, "x")
	left, right := tok[:idx], tok[idx+1:]
	if left != "" {
		w, _ = strconv.Atoi(left)
	}
	if right != "" {
		h, _ = strconv.Atoi(right)
	}
	return w, h
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String renders the normalized spec back into a canonical token string,
// independent of the original token order, so that two differently
// ordered but semantically identical spec strings hash identically.
func (s Spec) String() string {
	var parts []string
	if s.Width > 0 || s.Height > 0 {
		w, h := "", ""
		if s.Width > 0 {
			w = strconv.Itoa(s.Width)
		}
		if s.Height > 0 {
			h = strconv.Itoa(s.Height)
		}
		parts = append(parts, fmt.Sprintf("%sx%s", w, h))
	}
	if s.Format != "" {
		parts = append(parts, s.Format)
	}
	parts = append(parts, fmt.Sprintf("q%d", s.Quality))
	if s.Anchor != "" {
		parts = append(parts, s.Anchor)
	}
	for _, f := range s.Filters {
		parts = append(parts, "filter:"+f)
	}
	return strings.Join(parts, " ")
}
