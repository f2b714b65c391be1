package tags

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/photo-manifest/core"
)

var exifHeader = []byte("Exif\x00\x00")

// StripExifHeader drops the "Exif\0\0" preamble that JPEG APP1 and WebP EXIF
// chunks carry in front of the TIFF header.
func StripExifHeader(block []byte) []byte {
	return bytes.TrimPrefix(block, exifHeader)
}

// HasTIFFHeader reports whether b starts with a TIFF byte-order mark.
func HasTIFFHeader(b []byte) bool {
	return bytes.HasPrefix(b, []byte("II*\x00")) || bytes.HasPrefix(b, []byte("MM\x00*"))
}

// Directories holds the decoded IFD0 and EXIF sub-IFD of one EXIF block.
type Directories struct {
	IFD0 map[uint16]any
	Exif map[uint16]any
}

// DecodeBlock decodes a TIFF-structured EXIF block into raw tag values. A
// broken EXIF sub-IFD is not an error; Exif is left nil so the raw-block
// fallback can retry it.
func DecodeBlock(block []byte) (Directories, error) {
	var dirs Directories
	block = StripExifHeader(block)
	if !HasTIFFHeader(block) {
		return dirs, fmt.Errorf("%w: missing TIFF header", core.ErrDecode)
	}

	if err := CheckBlock(block); err != nil {
		return dirs, err
	}

	r := bytes.NewReader(block)
	t, err := decodeTIFF(r)
	if err != nil {
		return dirs, fmt.Errorf("%w: %v", core.ErrDecode, err)
	}
	if len(t.Dirs) == 0 {
		return dirs, fmt.Errorf("%w: no IFD", core.ErrDecode)
	}

	dirs.IFD0 = dirValues(t.Dirs[0])
	if sub, err := subDir(r, t, ExifIFDPointer); err == nil && sub != nil {
		dirs.Exif = dirValues(sub)
	}
	return dirs, nil
}

// decodeTIFF runs the goexif TIFF decoder and turns its panics into errors.
func decodeTIFF(r *bytes.Reader) (t *tiff.Tiff, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while decoding: %v", rec)
		}
	}()
	return tiff.Decode(r)
}

// subDir decodes the directory that the pointer tag in IFD0 references.
func subDir(r *bytes.Reader, t *tiff.Tiff, pointer uint16) (*tiff.Dir, error) {
	for _, tag := range t.Dirs[0].Tags {
		if tag.Id != pointer {
			continue
		}
		off, err := tag.Int64(0)
		if err != nil {
			return nil, err
		}
		if _, err := r.Seek(off, io.SeekStart); err != nil {
			return nil, err
		}
		d, _, err := tiff.DecodeDir(r, t.Order)
		return d, err
	}
	return nil, nil
}

func dirValues(d *tiff.Dir) map[uint16]any {
	out := make(map[uint16]any, len(d.Tags))
	for _, tag := range d.Tags {
		if v := TagValue(tag); v != nil {
			out[tag.Id] = v
		}
	}
	return out
}

// TagValue converts a goexif tag into one of the RawTagMap value types:
// string for ASCII, int64 or []int64 for integer types (BYTE included),
// core.Rational or []core.Rational, float64 or []float64, and []byte for
// UNDEFINED.
func TagValue(tag *tiff.Tag) any {
	n := int(tag.Count)
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return nil
		}
		return strings.TrimRight(s, "\x00")
	case tiff.IntVal:
		vals := make([]int64, 0, n)
		for i := 0; i < n; i++ {
			v, err := tag.Int64(i)
			if err != nil {
				break
			}
			vals = append(vals, v)
		}
		if len(vals) == 1 && tag.Type != tiff.DTByte {
			return vals[0]
		}
		if len(vals) == 0 {
			return nil
		}
		return vals
	case tiff.RatVal:
		vals := make([]core.Rational, 0, n)
		for i := 0; i < n; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				break
			}
			vals = append(vals, core.Rational{Num: num, Den: den})
		}
		switch len(vals) {
		case 0:
			return nil
		case 1:
			return vals[0]
		}
		return vals
	case tiff.FloatVal:
		vals := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			v, err := tag.Float(i)
			if err != nil {
				break
			}
			vals = append(vals, v)
		}
		switch len(vals) {
		case 0:
			return nil
		case 1:
			return vals[0]
		}
		return vals
	case tiff.UndefVal:
		return append([]byte(nil), tag.Val...)
	}
	return nil
}
