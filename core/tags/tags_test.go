package tags

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/photo-manifest/core"
	"github.com/ankit-chaubey/photo-manifest/core/tags/tagstest"
)

func sampleTIFF() []byte {
	return tagstest.TIFF(
		[]tagstest.Entry{
			tagstest.ASCII(0x010F, "FUJIFILM"),
			tagstest.ASCII(0x0110, "X-T30"),
			tagstest.Bytes(0x9C9E, tagstest.UTF16LE("street;night")),
		},
		[]tagstest.Entry{
			tagstest.Rational(0x829D, 28, 10),
			tagstest.Short(0x8827, 800),
			tagstest.ASCII(0x9003, "2024:03:09 21:15:00"),
			tagstest.Undefined(0x9286, append([]byte("ASCII\x00\x00\x00"), "late walk"...)),
		},
	)
}

func TestDecodeBlock(t *testing.T) {
	dirs, err := DecodeBlock(tagstest.ExifBlock(sampleTIFF()))
	require.NoError(t, err)

	assert.Equal(t, "FUJIFILM", dirs.IFD0[0x010F])
	assert.Equal(t, "X-T30", dirs.IFD0[0x0110])
	assert.IsType(t, []int64{}, dirs.IFD0[0x9C9E])
	require.NotNil(t, dirs.Exif)
	assert.Equal(t, core.Rational{Num: 28, Den: 10}, dirs.Exif[0x829D])
	assert.Equal(t, int64(800), dirs.Exif[0x8827])
	assert.Equal(t, "2024:03:09 21:15:00", dirs.Exif[0x9003])
	assert.IsType(t, []byte{}, dirs.Exif[0x9286])
}

func TestDecodeBlockRejectsGarbage(t *testing.T) {
	_, err := DecodeBlock([]byte("not a tiff at all"))
	assert.ErrorIs(t, err, core.ErrDecode)
}

// oversizedCount is a TIFF block whose only entry, an ISO SHORT, declares
// two billion values.
func oversizedCount() []byte {
	b := []byte{'I', 'I', 42, 0, 8, 0, 0, 0, 1, 0}
	b = binary.LittleEndian.AppendUint16(b, 0x8827)
	b = binary.LittleEndian.AppendUint16(b, tagstest.TypeShort)
	b = binary.LittleEndian.AppendUint32(b, 0x80000002)
	b = append(b, 0, 0, 0, 0)
	return binary.LittleEndian.AppendUint32(b, 0)
}

func TestCheckBlock(t *testing.T) {
	huge := tagstest.Entry{ID: 0x9C9B, Type: tagstest.TypeShort, Count: 0x80000002, Data: make([]byte, 4)}
	loop := tagstest.TIFF([]tagstest.Entry{tagstest.ASCII(0x0110, "X")}, nil)
	// point IFD0's next-IFD offset back at itself
	binary.LittleEndian.PutUint32(loop[8+2+12:], 8)

	tests := []struct {
		name    string
		block   []byte
		wantErr bool
	}{
		{"valid", tagstest.ExifBlock(sampleTIFF()), false},
		{"oversized in ifd0", oversizedCount(), true},
		{"oversized in exif ifd", tagstest.TIFF(nil, []tagstest.Entry{huge}), true},
		{"ifd chain loop", loop, true},
		{"truncated directory", []byte("II*\x00\x08\x00\x00\x00\x05"), false},
		{"no header", []byte("garbage!"), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckBlock(tc.block)
			if tc.wantErr {
				assert.ErrorIs(t, err, core.ErrDecode)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDecodeBlockRejectsOversizedCount(t *testing.T) {
	_, err := DecodeBlock(oversizedCount())
	assert.ErrorIs(t, err, core.ErrDecode)
}

func TestReparseOversizedCount(t *testing.T) {
	labels, err := Reparse(oversizedCount())
	assert.Error(t, err)
	assert.Empty(t, labels)
}

func TestReparseFallsBackToImagemeta(t *testing.T) {
	block := tagstest.TIFF(
		[]tagstest.Entry{
			tagstest.ASCII(0x010F, "FUJIFILM"),
			tagstest.ASCII(0x0110, "X-T30"),
			{ID: 0x9C9B, Type: tagstest.TypeShort, Count: 0x80000002, Data: make([]byte, 4)},
		},
		nil,
	)
	require.Error(t, CheckBlock(block))

	labels, err := Reparse(block)
	require.NoError(t, err)
	assert.Equal(t, "FUJIFILM", labels["Image Make"])
	assert.Equal(t, "X-T30", labels["Image Model"])
}

func TestWiden(t *testing.T) {
	assert.Equal(t, 2.8, widen(2.8))
	assert.Equal(t, 0.004, widen(0.004))
}

func TestReparseLabels(t *testing.T) {
	labels, err := Reparse(tagstest.ExifBlock(sampleTIFF()))
	require.NoError(t, err)

	assert.Equal(t, "FUJIFILM", labels["Image Make"])
	assert.Equal(t, core.Rational{Num: 28, Den: 10}, labels["EXIF FNumber"])
	assert.Equal(t, int64(800), labels["EXIF ISOSpeedRatings"])
	assert.Contains(t, labels, "Image XPKeywords")
	assert.Contains(t, labels, "Image ExifIFDPointer")
}

func TestPrimaryAndEmbedded(t *testing.T) {
	src := &core.Source{
		Tags: map[uint16]any{
			0x010F: "Canon",
			0x0110: "",
			0x8769: int64(1234),
			0x1234: "unknown tag",
		},
		ExifIFD: map[uint16]any{
			0x0110: "EOS R6",
			0x829A: core.Rational{Num: 1, Den: 250},
		},
	}
	cfg := core.DefaultConfig()

	primary := Primary{}.Probe(src, cfg)
	assert.Equal(t, core.RawTagMap{"Make": "Canon"}, primary)

	embedded := EmbeddedIFD{}.Probe(src, cfg)
	assert.Equal(t, "EOS R6", embedded["Model"])
	assert.Equal(t, core.Rational{Num: 1, Den: 250}, embedded["ExposureTime"])
}

func TestEmbeddedNestedUnderPointer(t *testing.T) {
	src := &core.Source{Tags: map[uint16]any{
		0x8769: map[uint16]any{0xA434: "XF23mmF2 R WR"},
	}}
	got := EmbeddedIFD{}.Probe(src, core.DefaultConfig())
	assert.Equal(t, "XF23mmF2 R WR", got["LensModel"])
}

func TestCollectFillAbsent(t *testing.T) {
	src := &core.Source{
		Tags:    map[uint16]any{0x0110: "Primary Model", 0x013B: "\x00\x00"},
		ExifIFD: map[uint16]any{0x0110: "Embedded Model", 0x013B: "Jane"},
		IPTC:    map[string]string{"ObjectName": "Harbour"},
	}
	m, issues := Collect(src, core.DefaultConfig())

	assert.Equal(t, "Primary Model", m["Model"])
	assert.Equal(t, "Jane", m["Artist"], "blank primary value is filled later")
	assert.Equal(t, "Harbour", m["ObjectName"])
	for _, is := range issues {
		assert.NotEqual(t, "raw-exif", is.Field, "raw block is skipped when absent")
	}
}

func TestCollectRawFallback(t *testing.T) {
	block := tagstest.ExifBlock(sampleTIFF())
	src := &core.Source{
		Tags:    map[uint16]any{0x010F: "FUJIFILM"},
		RawExif: block,
	}
	m, issues := Collect(src, core.DefaultConfig())

	assert.Equal(t, "X-T30", m["Model"])
	assert.Equal(t, core.Rational{Num: 28, Den: 10}, m["FNumber"])
	assert.Equal(t, int64(800), m["ISOSpeedRatings"])
	assert.Equal(t, "2024:03:09 21:15:00", m["DateTimeOriginal"])
	assert.NotContains(t, m, "ExifIFDPointer")

	var unavailable []string
	for _, is := range issues {
		assert.Equal(t, core.SourceUnavailable, is.Kind)
		unavailable = append(unavailable, is.Field)
	}
	assert.ElementsMatch(t, []string{"exif-ifd", "iptc"}, unavailable)
}

func TestCollectRawSkippedWhenEmbeddedContributes(t *testing.T) {
	src := &core.Source{
		ExifIFD: map[uint16]any{0x829D: core.Rational{Num: 4, Den: 1}},
		RawExif: tagstest.ExifBlock(sampleTIFF()),
	}
	m, _ := Collect(src, core.DefaultConfig())
	assert.Equal(t, core.Rational{Num: 4, Den: 1}, m["FNumber"])
	assert.NotContains(t, m, "Model")
}

func TestRawBlockUsesSynonyms(t *testing.T) {
	src := &core.Source{RawExif: sampleTIFF()}
	cfg := core.NewConfig(nil, map[string]string{"Image Make": "Make"})
	got := RawBlock{}.Probe(src, cfg)
	assert.Equal(t, core.RawTagMap{"Make": "FUJIFILM"}, got)
}

func TestCollectSurvivesOversizedCount(t *testing.T) {
	src := &core.Source{RawExif: oversizedCount()}
	m, _ := Collect(src, core.DefaultConfig())
	assert.NotContains(t, m, "ISOSpeedRatings")
}

func TestCollectNilSource(t *testing.T) {
	m, issues := Collect(nil, core.DefaultConfig())
	assert.Empty(t, m)
	assert.Len(t, issues, 3)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, []string{"Make=Nikon", "Model=Z6"}, Describe(core.RawTagMap{"Model": "Z6", "Make": "Nikon"}))
}
