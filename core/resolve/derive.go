package resolve

import (
	"math"
	"strings"

	"github.com/ankit-chaubey/photo-manifest/core"
	"github.com/ankit-chaubey/photo-manifest/core/normalize"
)

// FlashFired interprets the EXIF Flash value. Numbers report bit 0. A
// string containing "not fire" is false and one containing "fired" is true;
// anything else is parsed as a number.
func FlashFired(v any) (bool, bool) {
	if s, ok := v.(string); ok {
		lower := strings.ToLower(s)
		switch {
		case strings.Contains(lower, "not fire"):
			return false, true
		case strings.Contains(lower, "fired"):
			return true, true
		}
	}
	n, ok := normalize.ToInt(v)
	if !ok {
		return false, false
	}
	return n&0x1 == 1, true
}

// Focal length categories, keyed by 35mm-equivalent focal length.
const (
	UltraWide      = "ultra-wide"
	Wide           = "wide"
	Normal         = "normal"
	ShortTelephoto = "short-telephoto"
	Telephoto      = "telephoto"
	SuperTelephoto = "super-telephoto"
)

// FocalCategory buckets a 35mm-equivalent focal length. Boundaries are
// exclusive upper limits.
func FocalCategory(mm float64) string {
	switch {
	case mm < 24:
		return UltraWide
	case mm < 35:
		return Wide
	case mm < 70:
		return Normal
	case mm < 135:
		return ShortTelephoto
	case mm < 300:
		return Telephoto
	default:
		return SuperTelephoto
	}
}

// CropFactor returns eq35/actual rounded to two decimals. It is absent when
// actual is not positive.
func CropFactor(eq35, actual float64) (float64, bool) {
	if actual <= 0 || math.IsNaN(actual) || math.IsNaN(eq35) {
		return 0, false
	}
	return math.Round(eq35/actual*100) / 100, true
}

// FilterTags drops tags in the exclusion set (exact, case-insensitive) and
// blank entries. An empty result is nil.
func FilterTags(tags []string, cfg core.Config) []string {
	var out []string
	for _, tag := range tags {
		tag = normalize.CleanString(tag)
		if tag == "" || cfg.Excluded(tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}
