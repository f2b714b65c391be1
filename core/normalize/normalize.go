// Package normalize turns raw tag values into clean strings and typed
// numbers. Every function degrades to "absent" (a false second return or an
// empty result) instead of failing.
package normalize

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/ankit-chaubey/photo-manifest/core"
)

// CleanString strips embedded NUL characters and surrounding whitespace.
func CleanString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// DecodeBytes decodes b as UTF-8, replacing invalid sequences rather than
// rejecting the value.
func DecodeBytes(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "")
}

// decodeUTF16 decodes UTF-16 with the given byte order and falls back to a
// lossy byte decode.
func decodeUTF16(b []byte, order unicode.Endianness) string {
	out, err := unicode.UTF16(order, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return DecodeBytes(b)
	}
	return string(out)
}

// DecodeXPKeywords decodes XPKeywords into a keyword list.
func DecodeXPKeywords(b []byte) []string {
	s := strings.TrimRight(decodeUTF16(b, unicode.LittleEndian), "\x00")
	return SplitKeywords(s)
}

// SplitKeywords splits a ";"-delimited keyword string, dropping empty
// segments.
func SplitKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if kw := CleanString(part); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Character code prefixes of the EXIF UserComment tag.
var (
	commentASCII     = []byte("ASCII\x00\x00\x00")
	commentUnicode   = []byte("UNICODE\x00")
	commentJIS       = []byte("JIS\x00\x00\x00\x00\x00")
	commentUndefined = make([]byte, 8)
)

// DecodeUserComment strips the 8-byte character code header of a
// UserComment value and decodes the remainder.
func DecodeUserComment(b []byte) string {
	switch {
	case bytes.HasPrefix(b, commentASCII), bytes.HasPrefix(b, commentJIS):
		return CleanString(DecodeBytes(b[8:]))
	case bytes.HasPrefix(b, commentUnicode):
		body := b[8:]
		order := unicode.BigEndian
		if len(body) >= 2 && body[0] != 0 && body[1] == 0 {
			order = unicode.LittleEndian
		}
		return CleanString(decodeUTF16(body, order))
	case bytes.HasPrefix(b, commentUndefined):
		return CleanString(DecodeBytes(b[8:]))
	}
	return CleanString(DecodeBytes(b))
}

// Bytes extracts a byte sequence from raw values that decoders hand out for
// BYTE and UNDEFINED tags.
func Bytes(v any) ([]byte, bool) {
	switch x := v.(type) {
	case []byte:
		return x, len(x) > 0
	case []int64:
		out := make([]byte, 0, len(x))
		for _, n := range x {
			if n < 0 || n > 0xFF {
				return nil, false
			}
			out = append(out, byte(n))
		}
		return out, len(out) > 0
	case string:
		return []byte(x), x != ""
	}
	return nil, false
}

// RationalFloat converts r to a float. A zero denominator is absent.
func RationalFloat(r core.Rational) (float64, bool) {
	return r.Float()
}

// ToString converts a raw value to a cleaned string. Empty results are
// absent.
func ToString(v any) (string, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s = x
	case []byte:
		s = DecodeBytes(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case int:
		s = strconv.Itoa(x)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case core.Rational:
		s = x.String()
	case []string:
		if len(x) == 0 {
			return "", false
		}
		s = x[0]
	default:
		return "", false
	}
	s = CleanString(s)
	return s, s != ""
}

// ToFloat coerces a raw value to float64.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int64:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case core.Rational:
		return x.Float()
	case []core.Rational:
		if len(x) == 0 {
			return 0, false
		}
		return x[0].Float()
	case []int64:
		if len(x) == 0 {
			return 0, false
		}
		f = float64(x[0])
	case []float64:
		if len(x) == 0 {
			return 0, false
		}
		f = x[0]
	case []byte:
		return parseFloat(DecodeBytes(x))
	case string:
		return parseFloat(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloat(s string) (float64, bool) {
	s = CleanString(s)
	if s == "" {
		return 0, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
		d, err2 := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return core.Rational{Num: n, Den: d}.Float()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToInt coerces a raw value to int. Fractional values are truncated toward
// zero, so "100.0" and 100.7 both become 100.
func ToInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint16:
		return int(x), true
	case uint32:
		return int(x), true
	case []int64:
		if len(x) == 0 {
			return 0, false
		}
		return int(x[0]), true
	case string:
		s := CleanString(x)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	f, ok := ToFloat(v)
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

var dateLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDateTime parses an EXIF capture time such as "2025:05:17 10:20:30".
func ParseDateTime(v any) (time.Time, bool) {
	s, ok := ToString(v)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
