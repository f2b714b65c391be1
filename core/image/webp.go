package image

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var errNotWebP = errors.New("not a RIFF WebP file")

// readWebP walks the RIFF chunks after the WEBP form type.
func readWebP(data []byte) (containerBlocks, error) {
	var b containerBlocks
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WEBP")) {
		return b, errNotWebP
	}

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8
		if chunkSize < 0 || offset+chunkSize > len(data) {
			break
		}
		chunk := data[offset : offset+chunkSize]

		switch chunkID {
		case "EXIF":
			if b.exif == nil {
				b.exif = chunk
			}
		case "XMP ":
			if b.xmp == nil {
				b.xmp = chunk
			}
		case "VP8X":
			// 24-bit canvas size minus one, after flags and reserved bytes
			if len(chunk) >= 10 {
				b.width = 1 + (int(chunk[4]) | int(chunk[5])<<8 | int(chunk[6])<<16)
				b.height = 1 + (int(chunk[7]) | int(chunk[8])<<8 | int(chunk[9])<<16)
			}
		}

		offset += chunkSize
		if chunkSize%2 != 0 {
			offset++ // padding
		}
	}
	return b, nil
}
