package image

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var (
	jpegExifPrefix      = []byte("Exif\x00\x00")
	jpegXMPPrefix       = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jpegPhotoshopPrefix = []byte("Photoshop 3.0\x00")

	errNotJPEG = errors.New("not a JPEG stream")
)

// readJPEG walks the marker segments up to the start of scan and keeps the
// first EXIF, XMP and IPTC payloads it meets.
func readJPEG(data []byte) (containerBlocks, error) {
	var b containerBlocks
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return b, errNotJPEG
	}

	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			break
		}
		marker := data[i+1]
		// Fill bytes before a marker.
		if marker == 0xFF {
			i++
			continue
		}
		// Markers without a length field.
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2:i+4])) - 2
		start := i + 4
		if segLen < 0 || start+segLen > len(data) {
			break
		}
		seg := data[start : start+segLen]

		switch marker {
		case 0xE1:
			switch {
			case bytes.HasPrefix(seg, jpegExifPrefix) && b.exif == nil:
				b.exif = seg
			case bytes.HasPrefix(seg, jpegXMPPrefix) && b.xmp == nil:
				b.xmp = seg[len(jpegXMPPrefix):]
			}
		case 0xED:
			if bytes.HasPrefix(seg, jpegPhotoshopPrefix) && b.iptc == nil {
				b.iptc = parsePhotoshopIPTC(seg[len(jpegPhotoshopPrefix):])
			}
		}

		// Stop at SOS (start of scan)
		if marker == 0xDA {
			break
		}
		i = start + segLen
	}
	return b, nil
}

// ─── IPTC ─────────────────────────────────────────────────────────────────────

// iptcDatasets names the record 2 datasets that carry text.
var iptcDatasets = map[byte]string{
	0x05: "ObjectName",
	0x0F: "Category",
	0x19: "Keywords",
	0x28: "SpecialInstructions",
	0x37: "DateCreated",
	0x3C: "TimeCreated",
	0x50: "Byline",
	0x55: "BylineTitle",
	0x5A: "City",
	0x5F: "Province",
	0x65: "Country",
	0x69: "Headline",
	0x6E: "Credit",
	0x73: "Source",
	0x74: "CopyrightNotice",
	0x76: "Contact",
	0x78: "Caption",
	0x7A: "CaptionWriter",
}

// parsePhotoshopIPTC finds the IPTC-NAA resource (0x0404) among the 8BIM
// image resource blocks and decodes its record 2 datasets.
func parsePhotoshopIPTC(data []byte) map[string]string {
	i := 0
	for i+8 < len(data) {
		if !bytes.Equal(data[i:i+4], []byte("8BIM")) {
			i++
			continue
		}
		resType := binary.BigEndian.Uint16(data[i+4 : i+6])
		// Pascal name, padded to an even size including the length byte.
		nameLen := int(data[i+6])
		if nameLen%2 == 0 {
			nameLen++
		}
		i += 7 + nameLen
		if i+4 > len(data) {
			break
		}
		blockLen := int(binary.BigEndian.Uint32(data[i : i+4]))
		i += 4
		if resType == 0x0404 && i+blockLen <= len(data) {
			return parseIPTCRecords(data[i : i+blockLen])
		}
		i += blockLen
		if blockLen%2 != 0 {
			i++
		}
	}
	return nil
}

// parseIPTCRecords decodes IIM datasets. Repeated datasets such as Keywords
// are joined with ";".
func parseIPTCRecords(data []byte) map[string]string {
	out := map[string]string{}
	i := 0
	for i+5 <= len(data) {
		if data[i] != 0x1C {
			i++
			continue
		}
		record, dataset := data[i+1], data[i+2]
		length := int(binary.BigEndian.Uint16(data[i+3 : i+5]))
		i += 5
		if length&0x8000 != 0 || i+length > len(data) {
			break
		}
		val := string(data[i : i+length])
		i += length
		if record != 2 {
			continue
		}
		name, ok := iptcDatasets[dataset]
		if !ok {
			continue
		}
		if prev, dup := out[name]; dup {
			out[name] = prev + ";" + val
			continue
		}
		out[name] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
