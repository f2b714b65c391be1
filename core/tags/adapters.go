package tags

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/photo-manifest/core"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Adapter exposes one tag source under canonical names. Probe never fails;
// missing input yields an empty map.
type Adapter interface {
	Name() string
	Probe(src *core.Source, cfg core.Config) core.RawTagMap
}

// fillNamed copies a numeric dictionary into m through the tag-name table.
func fillNamed(m core.RawTagMap, dict map[uint16]any) {
	ids := make([]int, 0, len(dict))
	for id := range dict {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		if uint16(id) == ExifIFDPointer {
			continue
		}
		if name, ok := Name(uint16(id)); ok {
			m.Fill(name, dict[uint16(id)])
		}
	}
}

// Primary reads the decoder's primary tag dictionary.
type Primary struct{}

func (Primary) Name() string { return "primary" }

func (Primary) Probe(src *core.Source, _ core.Config) core.RawTagMap {
	m := core.RawTagMap{}
	if src != nil {
		fillNamed(m, src.Tags)
	}
	return m
}

// EmbeddedIFD flattens the EXIF sub-directory into the same namespace. Some
// decoders nest the sub-directory under the pointer tag itself; that form
// is accepted when ExifIFD is empty.
type EmbeddedIFD struct{}

func (EmbeddedIFD) Name() string { return "exif-ifd" }

func (EmbeddedIFD) Probe(src *core.Source, _ core.Config) core.RawTagMap {
	m := core.RawTagMap{}
	if src == nil {
		return m
	}
	dict := src.ExifIFD
	if len(dict) == 0 {
		if nested, ok := src.Tags[ExifIFDPointer].(map[uint16]any); ok {
			dict = nested
		}
	}
	fillNamed(m, dict)
	return m
}

// RawBlock re-parses the opaque EXIF block and renames its group-qualified
// labels through the configured synonym table. Labels without a synonym are
// dropped.
type RawBlock struct{}

func (RawBlock) Name() string { return "raw-exif" }

func (RawBlock) Probe(src *core.Source, cfg core.Config) core.RawTagMap {
	m := core.RawTagMap{}
	if src == nil || len(src.RawExif) == 0 {
		return m
	}
	labels, err := Reparse(src.RawExif)
	if err != nil {
		return m
	}
	keys := make([]string, 0, len(labels))
	for label := range labels {
		keys = append(keys, label)
	}
	sort.Strings(keys)
	for _, label := range keys {
		if name, ok := cfg.Synonym(label); ok {
			m.Fill(name, labels[label])
		}
	}
	return m
}

// tagKey identifies a decoded tag by content, so the same entry read twice
// from one block compares equal.
type tagKey struct {
	id    uint16
	typ   tiff.DataType
	count uint32
	val   string
}

func keyOf(tag *tiff.Tag) tagKey {
	return tagKey{id: tag.Id, typ: tag.Type, count: tag.Count, val: string(tag.Val)}
}

// labelWalker collects goexif fields that did not come from a standard
// directory, which in practice means maker notes.
type labelWalker struct {
	seen   map[tagKey]bool
	labels map[string]any
}

func (w labelWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if w.seen[keyOf(tag)] {
		return nil
	}
	label := "MakerNote " + string(name)
	if _, dup := w.labels[label]; !dup {
		w.labels[label] = TagValue(tag)
	}
	return nil
}

// Reparse decodes an EXIF block with goexif and labels every tag with its
// directory group: "Image <Name>" for IFD0, "EXIF <Name>" for the EXIF
// sub-IFD, "GPS <Name>" for the GPS sub-IFD and "MakerNote <Name>" for
// vendor fields. Unknown IDs are labelled "<Group> Tag 0xNNNN". A block
// goexif cannot take is read by imagemeta instead, which yields the common
// camera fields under the same labels.
func Reparse(block []byte) (map[string]any, error) {
	block = StripExifHeader(block)
	if err := CheckBlock(block); err != nil {
		return reparseImagemeta(block, err)
	}
	labels, err := reparseGoexif(block)
	if err != nil {
		return reparseImagemeta(block, err)
	}
	return labels, nil
}

func reparseGoexif(block []byte) (labels map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic while decoding: %v", core.ErrDecode, rec)
		}
	}()

	x, err := exif.Decode(bytes.NewReader(block))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, err
	}
	if x.Tiff == nil || len(x.Tiff.Dirs) == 0 {
		return nil, core.ErrNoMetadata
	}

	labels = map[string]any{}
	seen := map[tagKey]bool{}
	addDir := func(group string, d *tiff.Dir, names map[uint16]string) {
		for _, tag := range d.Tags {
			seen[keyOf(tag)] = true
			name, ok := names[tag.Id]
			if !ok {
				name = fmt.Sprintf("Tag 0x%04X", tag.Id)
			}
			if v := TagValue(tag); v != nil {
				labels[group+" "+name] = v
			}
		}
	}

	r := bytes.NewReader(x.Raw)
	addDir("Image", x.Tiff.Dirs[0], tagNames)
	if d, err := subDir(r, x.Tiff, ExifIFDPointer); err == nil && d != nil {
		addDir("EXIF", d, tagNames)
	}
	if d, err := subDir(r, x.Tiff, GPSIFDPointer); err == nil && d != nil {
		addDir("GPS", d, gpsNames)
	}
	for _, d := range x.Tiff.Dirs[1:] {
		for _, tag := range d.Tags {
			seen[keyOf(tag)] = true
		}
	}
	_ = x.Walk(labelWalker{seen: seen, labels: labels})
	return labels, nil
}

// IPTC exposes the IPTC application records under their dataset names.
type IPTC struct{}

func (IPTC) Name() string { return "iptc" }

var iptcFields = []string{"ObjectName", "Caption", "Byline", "CopyrightNotice"}

func (IPTC) Probe(src *core.Source, _ core.Config) core.RawTagMap {
	m := core.RawTagMap{}
	if src == nil {
		return m
	}
	for _, name := range iptcFields {
		if v, ok := src.IPTC[name]; ok {
			m.Fill(name, v)
		}
	}
	return m
}
