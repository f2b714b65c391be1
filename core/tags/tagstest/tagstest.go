// Package tagstest builds small EXIF blocks and image containers for tests.
package tagstest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"unicode/utf16"
)

// TIFF data types.
const (
	TypeByte      uint16 = 1
	TypeASCII     uint16 = 2
	TypeShort     uint16 = 3
	TypeLong      uint16 = 4
	TypeRational  uint16 = 5
	TypeUndefined uint16 = 7
)

// Entry is one IFD entry with its little-endian encoded value.
type Entry struct {
	ID    uint16
	Type  uint16
	Count uint32
	Data  []byte
}

// ASCII returns a NUL-terminated ASCII entry.
func ASCII(id uint16, s string) Entry {
	b := append([]byte(s), 0)
	return Entry{ID: id, Type: TypeASCII, Count: uint32(len(b)), Data: b}
}

// Short returns a SHORT entry.
func Short(id uint16, vals ...uint16) Entry {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return Entry{ID: id, Type: TypeShort, Count: uint32(len(vals)), Data: b}
}

// Rational returns a single RATIONAL entry.
func Rational(id uint16, num, den uint32) Entry {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b, num)
	binary.LittleEndian.PutUint32(b[4:], den)
	return Entry{ID: id, Type: TypeRational, Count: 1, Data: b}
}

// Bytes returns a BYTE entry.
func Bytes(id uint16, b []byte) Entry {
	return Entry{ID: id, Type: TypeByte, Count: uint32(len(b)), Data: b}
}

// Undefined returns an UNDEFINED entry.
func Undefined(id uint16, b []byte) Entry {
	return Entry{ID: id, Type: TypeUndefined, Count: uint32(len(b)), Data: b}
}

// UTF16LE encodes s the way Windows XP* tags store text, NUL-terminated.
func UTF16LE(s string) []byte {
	var out []byte
	for _, u := range utf16.Encode([]rune(s)) {
		out = append(out, byte(u), byte(u>>8))
	}
	return append(out, 0, 0)
}

// TIFF builds a little-endian TIFF block with IFD0 and, when exif is not
// nil, an EXIF sub-IFD referenced from IFD0 through tag 0x8769.
func TIFF(ifd0, exif []Entry) []byte {
	buf := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	pointer := -1
	if exif != nil {
		ifd0 = append(append([]Entry(nil), ifd0...), Entry{ID: 0x8769, Type: TypeLong, Count: 1, Data: make([]byte, 4)})
		pointer = len(ifd0) - 1
	}
	buf = appendIFD(buf, ifd0)
	if exif != nil {
		// IFD0 starts at 8; the pointer value sits 8 bytes into its entry.
		at := 8 + 2 + 12*pointer + 8
		binary.LittleEndian.PutUint32(buf[at:], uint32(len(buf)))
		buf = appendIFD(buf, exif)
	}
	return buf
}

func appendIFD(buf []byte, entries []Entry) []byte {
	start := len(buf)
	dataOff := start + 2 + 12*len(entries) + 4
	var data []byte

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(entries)))
	for _, e := range entries {
		buf = binary.LittleEndian.AppendUint16(buf, e.ID)
		buf = binary.LittleEndian.AppendUint16(buf, e.Type)
		buf = binary.LittleEndian.AppendUint32(buf, e.Count)
		if len(e.Data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.Data)
			buf = append(buf, v...)
			continue
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(dataOff+len(data)))
		data = append(data, e.Data...)
		if len(data)%2 != 0 {
			data = append(data, 0)
		}
	}
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	return append(buf, data...)
}

// ExifBlock prefixes a TIFF block with the "Exif\0\0" header.
func ExifBlock(tiff []byte) []byte {
	return append([]byte("Exif\x00\x00"), tiff...)
}

// JPEG wraps optional APP segments around a 1x1 JPEG body. Each
// segment is given as marker and payload.
func JPEG(segments ...Segment) []byte {
	out := []byte{0xFF, 0xD8}
	for _, s := range segments {
		out = append(out, 0xFF, s.Marker)
		out = binary.BigEndian.AppendUint16(out, uint16(len(s.Payload)+2))
		out = append(out, s.Payload...)
	}
	return append(out, tinyJPEGBody...)
}

// Segment is one JPEG marker segment.
type Segment struct {
	Marker  byte
	Payload []byte
}

// APP1Exif returns an APP1 segment carrying an EXIF TIFF block.
func APP1Exif(tiff []byte) Segment {
	return Segment{Marker: 0xE1, Payload: ExifBlock(tiff)}
}

// APP1XMP returns an APP1 segment carrying an XMP packet.
func APP1XMP(packet string) Segment {
	return Segment{Marker: 0xE1, Payload: append([]byte("http://ns.adobe.com/xap/1.0/\x00"), packet...)}
}

// APP13IPTC returns an APP13 Photoshop segment holding the given IPTC
// datasets of record 2.
func APP13IPTC(datasets map[byte]string) Segment {
	var iptc []byte
	for _, id := range []byte{0x05, 0x50, 0x74, 0x78} {
		v, ok := datasets[id]
		if !ok {
			continue
		}
		iptc = append(iptc, 0x1C, 0x02, id)
		iptc = binary.BigEndian.AppendUint16(iptc, uint16(len(v)))
		iptc = append(iptc, v...)
	}
	res := []byte("Photoshop 3.0\x00")
	res = append(res, "8BIM"...)
	res = binary.BigEndian.AppendUint16(res, 0x0404)
	res = append(res, 0, 0) // empty pascal name, padded
	res = binary.BigEndian.AppendUint32(res, uint32(len(iptc)))
	res = append(res, iptc...)
	if len(iptc)%2 != 0 {
		res = append(res, 0)
	}
	return Segment{Marker: 0xED, Payload: res}
}

// PNG builds a 1x1 grayscale PNG with extra chunks inserted before IDAT.
func PNG(chunks ...Chunk) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'})
	writePNGChunk(&buf, "IHDR", []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 0, 0, 0, 0})
	for _, c := range chunks {
		writePNGChunk(&buf, c.Type, c.Data)
	}
	// zlib stream of one filter byte and one pixel
	writePNGChunk(&buf, "IDAT", []byte{0x78, 0x9C, 0x62, 0x60, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01})
	writePNGChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

// Chunk is one PNG or RIFF chunk.
type Chunk struct {
	Type string
	Data []byte
}

// PNGXMP returns an iTXt chunk with the standard XMP keyword.
func PNGXMP(packet string) Chunk {
	data := append([]byte("XML:com.adobe.xmp"), 0, 0, 0, 0, 0)
	return Chunk{Type: "iTXt", Data: append(data, packet...)}
}

func writePNGChunk(buf *bytes.Buffer, typ string, data []byte) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(data)))
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	buf.WriteString(typ)
	buf.Write(data)
	_ = binary.Write(buf, binary.BigEndian, crc.Sum32())
}

// WebP builds an extended (VP8X) WebP file with the given chunks after the
// header. Width and height are written into VP8X.
func WebP(width, height int, chunks ...Chunk) []byte {
	vp8x := make([]byte, 10)
	vp8x[0] = 0x08 | 0x04 // EXIF and XMP flags
	w, h := width-1, height-1
	vp8x[4], vp8x[5], vp8x[6] = byte(w), byte(w>>8), byte(w>>16)
	vp8x[7], vp8x[8], vp8x[9] = byte(h), byte(h>>8), byte(h>>16)

	var body []byte
	body = append(body, "WEBP"...)
	body = appendRIFFChunk(body, "VP8X", vp8x)
	for _, c := range chunks {
		body = appendRIFFChunk(body, c.Type, c.Data)
	}

	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

func appendRIFFChunk(b []byte, typ string, data []byte) []byte {
	b = append(b, typ...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(data)))
	b = append(b, data...)
	if len(data)%2 != 0 {
		b = append(b, 0)
	}
	return b
}

// tinyJPEGBody follows SOI with DQT, a 1x1 grayscale SOF0, an SOS header,
// one byte of scan data and EOI. That is enough for image.DecodeConfig and
// for segment walkers, not for a full decode.
var tinyJPEGBody = []byte{
	0xFF, 0xDB, 0x00, 0x43, 0x00,
	0x08, 0x06, 0x06, 0x07, 0x06, 0x05, 0x08, 0x07, 0x07, 0x07, 0x09, 0x09, 0x08, 0x0A, 0x0C, 0x14,
	0x0D, 0x0C, 0x0B, 0x0B, 0x0C, 0x19, 0x12, 0x13, 0x0F, 0x14, 0x1D, 0x1A, 0x1F, 0x1E, 0x1D, 0x1A,
	0x1C, 0x1C, 0x20, 0x24, 0x2E, 0x27, 0x20, 0x22, 0x2C, 0x23, 0x1C, 0x1C, 0x28, 0x37, 0x29, 0x2C,
	0x30, 0x31, 0x34, 0x34, 0x34, 0x1F, 0x27, 0x39, 0x3D, 0x38, 0x32, 0x3C, 0x2E, 0x33, 0x34, 0x32,
	0xFF, 0xC0, 0x00, 0x0B, 0x08, 0x00, 0x01, 0x00, 0x01, 0x01, 0x01, 0x11, 0x00,
	0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3F, 0x00, 0x37, 0xFF, 0xD9,
}

// HEIF builds an ISOBMFF file with an ftyp box of the given brand, a meta
// box declaring one image extent per size pair, and an mdat holding the
// EXIF item when tiff is not nil.
func HEIF(brand string, tiff []byte, sizes ...[2]uint32) []byte {
	ftyp := append([]byte(brand), 0, 0, 0, 0)
	ftyp = append(ftyp, "mif1"...)
	out := appendBox(nil, "ftyp", ftyp)

	meta := []byte{0, 0, 0, 0}
	for _, s := range sizes {
		ispe := []byte{0, 0, 0, 0}
		ispe = binary.BigEndian.AppendUint32(ispe, s[0])
		ispe = binary.BigEndian.AppendUint32(ispe, s[1])
		meta = appendBox(meta, "ispe", ispe)
	}
	out = appendBox(out, "meta", meta)

	if tiff != nil {
		item := binary.BigEndian.AppendUint32(nil, 6)
		item = append(item, ExifBlock(tiff)...)
		out = appendBox(out, "mdat", item)
	}
	return out
}

func appendBox(b []byte, typ string, payload []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(8+len(payload)))
	b = append(b, typ...)
	return append(b, payload...)
}

// XMP returns a minimal XMP packet with a dc:title and a dc:subject bag.
func XMP(title string, subjects ...string) string {
	var buf bytes.Buffer
	buf.WriteString(`<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/">
`)
	if title != "" {
		buf.WriteString(`   <dc:title><rdf:Alt><rdf:li xml:lang="x-default">` + title + `</rdf:li></rdf:Alt></dc:title>
`)
	}
	if len(subjects) > 0 {
		buf.WriteString("   <dc:subject><rdf:Bag>")
		for _, s := range subjects {
			buf.WriteString("<rdf:li>" + s + "</rdf:li>")
		}
		buf.WriteString("</rdf:Bag></dc:subject>\n")
	}
	buf.WriteString(`  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`)
	return buf.String()
}
