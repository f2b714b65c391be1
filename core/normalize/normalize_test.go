package normalize

import (
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/photo-manifest/core"
)

func utf16le(s string) []byte {
	var out []byte
	for _, u := range utf16.Encode([]rune(s)) {
		out = append(out, byte(u), byte(u>>8))
	}
	return out
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Canon EOS R5", CleanString("  Canon EOS R5\x00\x00 "))
	assert.Equal(t, "", CleanString("\x00\x00"))
	assert.Equal(t, "a b", CleanString("a\x00 b"))
}

func TestDecodeBytes(t *testing.T) {
	assert.Equal(t, "héllo", DecodeBytes([]byte("héllo")))
	assert.Equal(t, "ab", DecodeBytes([]byte{'a', 0xFF, 'b'}))
}

func TestDecodeXPKeywords(t *testing.T) {
	raw := append(utf16le("travel;nature; ;city"), 0, 0)
	assert.Equal(t, []string{"travel", "nature", "city"}, DecodeXPKeywords(raw))
	assert.Nil(t, DecodeXPKeywords(append(utf16le(";;"), 0, 0)))
}

func TestDecodeUserComment(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", append([]byte("ASCII\x00\x00\x00"), "Sunset over the bay\x00"...), "Sunset over the bay"},
		{"unicode little endian", append([]byte("UNICODE\x00"), utf16le("Hi there")...), "Hi there"},
		{"undefined charset", append(make([]byte, 8), "plain"...), "plain"},
		{"no header", []byte("  bare comment "), "bare comment"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecodeUserComment(tc.in))
		})
	}
}

func TestBytes(t *testing.T) {
	b, ok := Bytes([]int64{0x41, 0x00})
	require.True(t, ok)
	assert.Equal(t, []byte{0x41, 0x00}, b)

	_, ok = Bytes([]int64{300})
	assert.False(t, ok)
	_, ok = Bytes(42)
	assert.False(t, ok)
}

func TestRationalFloat(t *testing.T) {
	f, ok := RationalFloat(core.Rational{Num: 1, Den: 4})
	require.True(t, ok)
	assert.Equal(t, 0.25, f)

	_, ok = RationalFloat(core.Rational{Num: 1, Den: 0})
	assert.False(t, ok)
}

func TestToFloat(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float", 2.8, 2.8, true},
		{"int", int64(200), 200, true},
		{"rational", core.Rational{Num: 28, Den: 10}, 2.8, true},
		{"rational list", []core.Rational{{Num: 1, Den: 125}}, 0.008, true},
		{"fraction string", "1/125", 0.008, true},
		{"decimal string", " 100.0 ", 100, true},
		{"zero denominator", core.Rational{Num: 5, Den: 0}, 0, false},
		{"zero denominator string", "1/0", 0, false},
		{"garbage", "fast", 0, false},
		{"nil", nil, 0, false},
		{"empty list", []core.Rational{}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ToFloat(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestToInt(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{"int64", int64(400), 400, true},
		{"list takes first", []int64{800, 1600}, 800, true},
		{"decimal string truncates", "100.0", 100, true},
		{"float truncates", 35.9, 35, true},
		{"integer string", "50", 50, true},
		{"rational", core.Rational{Num: 50, Den: 1}, 50, true},
		{"garbage", "n/a", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ToInt(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToString(t *testing.T) {
	s, ok := ToString([]byte("ILCE-7M3\x00"))
	require.True(t, ok)
	assert.Equal(t, "ILCE-7M3", s)

	_, ok = ToString("  \x00")
	assert.False(t, ok)

	s, ok = ToString(int64(7))
	require.True(t, ok)
	assert.Equal(t, "7", s)
}

func TestParseDateTime(t *testing.T) {
	got, ok := ParseDateTime("2025:05:17 10:20:30\x00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 5, 17, 10, 20, 30, 0, time.UTC), got)

	got, ok = ParseDateTime("2024-01-02T03:04:05")
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())

	_, ok = ParseDateTime("0000:00:00 00:00:00")
	assert.False(t, ok)
	_, ok = ParseDateTime("yesterday")
	assert.False(t, ok)
	_, ok = ParseDateTime(nil)
	assert.False(t, ok)
}
