package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/photo-manifest/core"
	"github.com/ankit-chaubey/photo-manifest/core/tags/tagstest"
	"github.com/ankit-chaubey/photo-manifest/core/xmpnav"
)

func ptr(s string) *string { return &s }

func TestTitlePrefersXMP(t *testing.T) {
	raw := core.RawTagMap{"ImageDescription": "exif title"}
	rec, _ := Resolve(raw, xmpnav.FieldSet{Title: ptr("xmp title")}, core.DefaultConfig())

	require.NotNil(t, rec.Title)
	assert.Equal(t, "xmp title", *rec.Title)
	require.NotNil(t, rec.Description, "unclaimed ImageDescription may describe")
	assert.Equal(t, "exif title", *rec.Description)
}

func TestImageDescriptionNotDuplicated(t *testing.T) {
	raw := core.RawTagMap{"ImageDescription": "Harbour at dawn\x00"}
	rec, _ := Resolve(raw, xmpnav.FieldSet{}, core.DefaultConfig())

	require.NotNil(t, rec.Title)
	assert.Equal(t, "Harbour at dawn", *rec.Title)
	assert.Nil(t, rec.Description)
}

func TestDescriptionIndependentXMP(t *testing.T) {
	raw := core.RawTagMap{"ImageDescription": "Harbour"}
	rec, _ := Resolve(raw, xmpnav.FieldSet{Description: ptr("Boats leaving the harbour")}, core.DefaultConfig())

	assert.Equal(t, ptr("Harbour"), rec.Title)
	assert.Equal(t, ptr("Boats leaving the harbour"), rec.Description)
}

func TestDescriptionSkipsCommentEchoingTitle(t *testing.T) {
	raw := core.RawTagMap{
		"ImageDescription": "Harbour",
		"UserComment":      append([]byte("ASCII\x00\x00\x00"), "Harbour"...),
	}
	rec, _ := Resolve(raw, xmpnav.FieldSet{}, core.DefaultConfig())
	assert.Equal(t, ptr("Harbour"), rec.Title)
	assert.Nil(t, rec.Description)
}

func TestDescriptionFromUserComment(t *testing.T) {
	raw := core.RawTagMap{
		"ImageDescription": "Title text",
		"UserComment":      append([]byte("ASCII\x00\x00\x00"), "A long caption"...),
	}
	rec, _ := Resolve(raw, xmpnav.FieldSet{}, core.DefaultConfig())
	assert.Equal(t, ptr("Title text"), rec.Title)
	assert.Equal(t, ptr("A long caption"), rec.Description)
}

func TestTitleFallsBackToObjectName(t *testing.T) {
	raw := core.RawTagMap{"ObjectName": "IPTC object"}
	rec, _ := Resolve(raw, xmpnav.FieldSet{}, core.DefaultConfig())
	assert.Equal(t, ptr("IPTC object"), rec.Title)
}

func TestTextFieldsPrecedence(t *testing.T) {
	raw := core.RawTagMap{
		"Artist":          "exif artist",
		"Copyright":       "exif copyright",
		"Byline":          "iptc byline",
		"CopyrightNotice": "iptc notice",
	}
	rec, _ := Resolve(raw, xmpnav.FieldSet{Creator: ptr("xmp creator"), Notes: ptr(" notes ")}, core.DefaultConfig())
	assert.Equal(t, ptr("xmp creator"), rec.Creator)
	assert.Equal(t, ptr("exif copyright"), rec.Copyright)
	assert.Equal(t, ptr("notes"), rec.Notes)

	rec, _ = Resolve(core.RawTagMap{"Byline": "iptc byline"}, xmpnav.FieldSet{}, core.DefaultConfig())
	assert.Equal(t, ptr("iptc byline"), rec.Creator)
	assert.Nil(t, rec.Notes)
}

func TestTagsFromXPKeywords(t *testing.T) {
	raw := core.RawTagMap{"XPKeywords": tagstest.UTF16LE("travel\x00;nature\x00;")}
	rec, _ := Resolve(raw, xmpnav.FieldSet{}, core.DefaultConfig())
	assert.Equal(t, []string{"travel", "nature"}, rec.Tags)

	ints := make([]int64, 0)
	for _, b := range tagstest.UTF16LE("a;darktable;b") {
		ints = append(ints, int64(b))
	}
	rec, _ = Resolve(core.RawTagMap{"XPKeywords": ints}, xmpnav.FieldSet{}, core.DefaultConfig())
	assert.Equal(t, []string{"a", "b"}, rec.Tags)
}

func TestTagsPreferXMPAndFilter(t *testing.T) {
	raw := core.RawTagMap{"XPKeywords": tagstest.UTF16LE("ignored")}
	xmp := xmpnav.FieldSet{Subject: []string{"Darktable", "sunset", "RAW"}}
	cfg := core.NewConfig([]string{"darktable", "raw"}, nil)

	rec, _ := Resolve(raw, xmp, cfg)
	assert.Equal(t, []string{"sunset"}, rec.Tags)

	rec, _ = Resolve(core.RawTagMap{}, xmpnav.FieldSet{Subject: []string{"RAW"}}, cfg)
	assert.Nil(t, rec.Tags)
}

func TestNumericFields(t *testing.T) {
	raw := core.RawTagMap{
		"Make":                  "FUJIFILM",
		"Model":                 "X100V\x00",
		"LensMake":              "Fujifilm",
		"LensModel":             []byte("23mm F2"),
		"FocalLength":           core.Rational{Num: 230, Den: 10},
		"FocalLengthIn35mmFilm": int64(35),
		"FNumber":               core.Rational{Num: 2, Den: 1},
		"ISOSpeedRatings":       "100.0",
		"ExposureTime":          "1/125",
		"Flash":                 int64(16),
		"DateTimeOriginal":      "2023:11:04 18:22:10",
	}
	rec, issues := Resolve(raw, xmpnav.FieldSet{}, core.DefaultConfig())
	assert.Empty(t, issues)

	assert.Equal(t, ptr("FUJIFILM"), rec.CameraMake)
	assert.Equal(t, ptr("X100V"), rec.CameraModel)
	assert.Equal(t, ptr("Fujifilm"), rec.LensMake)
	assert.Equal(t, ptr("23mm F2"), rec.LensModel)
	require.NotNil(t, rec.FocalLength)
	assert.InDelta(t, 23.0, *rec.FocalLength, 1e-9)
	require.NotNil(t, rec.FocalLength35mm)
	assert.Equal(t, 35, *rec.FocalLength35mm)
	assert.Equal(t, ptr(Normal), rec.FocalLengthCategory)
	require.NotNil(t, rec.CropFactor)
	assert.Equal(t, 1.52, *rec.CropFactor)
	require.NotNil(t, rec.Aperture)
	assert.Equal(t, 2.0, *rec.Aperture)
	require.NotNil(t, rec.ISO)
	assert.Equal(t, 100, *rec.ISO)
	require.NotNil(t, rec.ExposureTime)
	assert.InDelta(t, 0.008, *rec.ExposureTime, 1e-12)
	require.NotNil(t, rec.Flash)
	assert.False(t, *rec.Flash)
	require.NotNil(t, rec.DateTaken)
	assert.Equal(t, time.Date(2023, 11, 4, 18, 22, 10, 0, time.UTC), rec.DateTaken.Time)
}

func TestConversionFailuresDegrade(t *testing.T) {
	raw := core.RawTagMap{
		"FNumber":          core.Rational{Num: 1, Den: 0},
		"ISOSpeedRatings":  "fast",
		"Flash":            "unknown",
		"DateTimeOriginal": "0000:00:00 00:00:00",
		"DateTime":         "2020:01:01 00:00:00",
	}
	rec, issues := Resolve(raw, xmpnav.FieldSet{}, core.DefaultConfig())

	assert.Nil(t, rec.Aperture)
	assert.Nil(t, rec.ISO)
	assert.Nil(t, rec.Flash)
	require.NotNil(t, rec.DateTaken, "falls back to DateTime")
	assert.Equal(t, 2020, rec.DateTaken.Year())

	fields := map[string]bool{}
	for _, is := range issues {
		assert.Equal(t, core.ConversionFailure, is.Kind)
		fields[is.Field] = true
	}
	assert.True(t, fields["FNumber"])
	assert.True(t, fields["ISOSpeedRatings"])
	assert.True(t, fields["flash"])
	assert.True(t, fields["DateTimeOriginal"])
}

func TestDateTakenFallbackOrder(t *testing.T) {
	raw := core.RawTagMap{
		"DateTimeDigitized": "2021:07:08 09:10:11",
		"DateTime":          "2022:01:01 00:00:00",
	}
	rec, issues := Resolve(raw, xmpnav.FieldSet{}, core.DefaultConfig())
	assert.Empty(t, issues)
	require.NotNil(t, rec.DateTaken)
	assert.Equal(t, time.Date(2021, 7, 8, 9, 10, 11, 0, time.UTC), rec.DateTaken.Time)
}

func TestEmptyInputs(t *testing.T) {
	rec, issues := Resolve(nil, xmpnav.FieldSet{}, core.Config{})
	assert.Equal(t, core.Record{}, rec)
	assert.Empty(t, issues)
}
