package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/photo-manifest/core"
	"github.com/ankit-chaubey/photo-manifest/core/tags/tagstest"
	"github.com/ankit-chaubey/photo-manifest/core/xmpnav"
)

const packet = `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
<rdf:Description xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title><rdf:Alt><rdf:li xml:lang="x-default">Night market</rdf:li></rdf:Alt></dc:title>
<dc:subject><rdf:Bag><rdf:li>street</rdf:li><rdf:li>Lightroom</rdf:li></rdf:Bag></dc:subject>
</rdf:Description></rdf:RDF></x:xmpmeta>`

func TestExtractNeverFails(t *testing.T) {
	sources := []*core.Source{
		nil,
		{},
		{Tags: map[uint16]any{0x9209: "???"}},
		{RawExif: []byte("garbage")},
		// ISO entry declaring two billion SHORT values
		{RawExif: []byte{'I', 'I', 42, 0, 8, 0, 0, 0, 1, 0, 0x27, 0x88, 3, 0, 2, 0, 0, 0x80, 0, 0, 0, 0, 0, 0, 0, 0}},
		{XMP: "not a tree"},
		{XMP: []any{nil, 3, map[string]any{"RDF": 1}}},
	}
	for _, src := range sources {
		assert.NotPanics(t, func() {
			res := Extract(src, core.DefaultConfig())
			assert.Nil(t, res.Record.Title)
		})
	}
}

func TestExtractCombinesSources(t *testing.T) {
	tree, err := xmpnav.Parse([]byte(packet))
	require.NoError(t, err)

	block := tagstest.ExifBlock(tagstest.TIFF(
		[]tagstest.Entry{
			tagstest.ASCII(0x010E, "exif description"),
			tagstest.ASCII(0x0110, "Z f"),
		},
		[]tagstest.Entry{
			tagstest.Short(0x9209, 1),
			tagstest.Short(0xA405, 40),
			tagstest.Rational(0x920A, 40, 1),
		},
	))
	src := &core.Source{XMP: tree, RawExif: block}

	res := Extract(src, core.DefaultConfig())
	rec := res.Record

	require.NotNil(t, rec.Title)
	assert.Equal(t, "Night market", *rec.Title)
	require.NotNil(t, rec.Description)
	assert.Equal(t, "exif description", *rec.Description)
	assert.Equal(t, []string{"street"}, rec.Tags)
	require.NotNil(t, rec.CameraModel)
	assert.Equal(t, "Z f", *rec.CameraModel)
	require.NotNil(t, rec.Flash)
	assert.True(t, *rec.Flash)
	require.NotNil(t, rec.CropFactor)
	assert.Equal(t, 1.0, *rec.CropFactor)
	assert.Empty(t, res.Degraded())
	assert.Error(t, res.Err(), "unavailable sources are still reported")
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, Result{}.Err())

	res := Result{Issues: []core.Issue{
		{Field: "FNumber", Kind: core.ConversionFailure},
		{Field: "iptc", Kind: core.SourceUnavailable},
	}}
	err := res.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FNumber")
	assert.Len(t, res.Degraded(), 1)
}
