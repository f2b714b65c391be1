// Package core defines the shared types, the decoder contract, and the
// configuration for photo-manifest.
package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDecode marks a container that could not be opened or decoded.
	ErrDecode = errors.New("image decode failed")
	// ErrUnsupportedFormat marks a file whose container is not recognised.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrNoMetadata is reported when a source yields nothing.
	ErrNoMetadata = errors.New("no metadata found")
)

// Source is everything a container reader hands to the extraction core for
// one image. Any field may be empty; the core treats missing parts as a normal
// fallback trigger.
type Source struct {
	Format  FormatID
	Tags    map[uint16]any    // Primary tag dictionary (IFD0), or empty
	ExifIFD map[uint16]any    // EXIF sub-directory referenced by 0x8769, or nil
	RawExif []byte            // Opaque EXIF block for the re-parse fallback, or nil
	IPTC    map[string]string // IPTC records keyed by dataset name, or nil
	XMP     any               // Parsed XMP tree (map[string]any / []any / string), or nil
	Width   int
	Height  int
}

// Rational is an EXIF RATIONAL or SRATIONAL value.
type Rational struct {
	Num int64
	Den int64
}

// Float returns Num/Den. A zero denominator yields false instead of Inf.
func (r Rational) Float() (float64, bool) {
	if r.Den == 0 {
		return 0, false
	}
	return float64(r.Num) / float64(r.Den), true
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// RawTagMap maps a canonical tag name to its undecoded value: int64, []int64,
// float64, string, []byte, Rational or []Rational.
type RawTagMap map[string]any

// Has reports whether name holds a usable value.
func (m RawTagMap) Has(name string) bool {
	v, ok := m[name]
	return ok && !isBlank(v)
}

// Fill stores v under name only if name is absent so far. It reports whether
// the value was stored.
func (m RawTagMap) Fill(name string, v any) bool {
	if isBlank(v) || m.Has(name) {
		return false
	}
	m[name] = v
	return true
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(strings.ReplaceAll(x, "\x00", "")) == ""
	case []byte:
		return len(x) == 0
	case []int64:
		return len(x) == 0
	case []Rational:
		return len(x) == 0
	}
	return false
}

// Timestamp is a capture time without zone information, the way EXIF stores
// it. It serializes as "2006-01-02T15:04:05".
type Timestamp struct {
	time.Time
}

const timestampLayout = "2006-01-02T15:04:05"

func (t Timestamp) String() string {
	return t.Format(timestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// Record is the canonical per-image output. A nil field means absent.
type Record struct {
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	Tags                []string   `json:"tags"`
	Creator             *string    `json:"creator"`
	Copyright           *string    `json:"copyright"`
	Notes               *string    `json:"notes"`
	CameraMake          *string    `json:"cameraMake"`
	CameraModel         *string    `json:"cameraModel"`
	LensMake            *string    `json:"lensMake"`
	LensModel           *string    `json:"lensModel"`
	Flash               *bool      `json:"flash"`
	FocalLength         *float64   `json:"focalLength"`
	FocalLength35mm     *int       `json:"focalLength35mmEquiv"`
	FocalLengthCategory *string    `json:"focalLengthCategory"`
	CropFactor          *float64   `json:"cropFactor"`
	Aperture            *float64   `json:"apertureValue"`
	ISO                 *int       `json:"isoSpeedRatings"`
	ExposureTime        *float64   `json:"exposureTime"`
	DateTaken           *Timestamp `json:"dateTaken"`
}

// IssueKind classifies a field-level degradation.
type IssueKind int

const (
	// SourceUnavailable means a tag source yielded nothing.
	SourceUnavailable IssueKind = iota + 1
	// ShapeMismatch means an XMP node matched no expected structure.
	ShapeMismatch
	// ConversionFailure means a raw value could not be coerced to its type.
	ConversionFailure
)

func (k IssueKind) String() string {
	switch k {
	case SourceUnavailable:
		return "source unavailable"
	case ShapeMismatch:
		return "shape mismatch"
	case ConversionFailure:
		return "conversion failure"
	default:
		return "unknown"
	}
}

// Issue records why a field or source ended up absent.
type Issue struct {
	Field string
	Kind  IssueKind
	Err   error
}

func (i Issue) Error() string {
	if i.Err == nil {
		return fmt.Sprintf("%s: %s", i.Field, i.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", i.Field, i.Kind, i.Err)
}

func (i Issue) Unwrap() error { return i.Err }

// FormatInfo describes what a container reader supports.
type FormatInfo struct {
	Name       string   // "JPEG"
	Extensions []string // [".jpg", ".jpeg"]
	MIMETypes  []string
	Native     bool   // Container exposes a full tag dictionary
	Notes      string // Any caveats or notes
}

// Handler is the interface every container reader implements.
type Handler interface {
	// Read opens path and returns the decoder contract for it.
	Read(path string) (*Source, error)
	// Info returns format capabilities.
	Info() FormatInfo
}
