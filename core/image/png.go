package image

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"io"
)

// maxInflated caps a decompressed text chunk.
const maxInflated = 16 << 20

var (
	pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	pngXMPKey    = "XML:com.adobe.xmp"

	errNotPNG = errors.New("not a valid PNG")
)

type pngChunk struct {
	typ  string
	data []byte
}

// readPNGChunks splits a PNG file into chunks. Chunk data aliases data. A
// truncated tail, or a length running past the end of the file, ends the
// walk without an error.
func readPNGChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errNotPNG
	}

	var chunks []pngChunk
	rest := data[len(pngSignature):]
	for len(rest) >= 8 {
		length := uint64(binary.BigEndian.Uint32(rest[0:4]))
		typ := string(rest[4:8])
		// data, then the CRC
		if length+12 > uint64(len(rest)) {
			break
		}
		chunks = append(chunks, pngChunk{typ: typ, data: rest[8 : 8+length]})
		rest = rest[12+length:]
		if typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

func readPNG(data []byte) (containerBlocks, error) {
	var b containerBlocks
	chunks, err := readPNGChunks(data)
	if err != nil {
		return b, err
	}
	for _, c := range chunks {
		switch c.typ {
		case "eXIf":
			if b.exif == nil {
				b.exif = c.data
			}
		case "iTXt", "tEXt", "zTXt":
			if b.xmp != nil {
				continue
			}
			if key, text, ok := pngText(c); ok && key == pngXMPKey {
				b.xmp = text
			}
		case "IHDR":
			if len(c.data) >= 8 {
				b.width = int(binary.BigEndian.Uint32(c.data[0:4]))
				b.height = int(binary.BigEndian.Uint32(c.data[4:8]))
			}
		}
	}
	return b, nil
}

// pngText returns the keyword and decoded text of a textual chunk.
func pngText(c pngChunk) (string, []byte, bool) {
	null := bytes.IndexByte(c.data, 0)
	if null <= 0 {
		return "", nil, false
	}
	key := string(c.data[:null])
	rest := c.data[null+1:]

	switch c.typ {
	case "tEXt":
		return key, rest, true
	case "zTXt":
		// compression method, then the zlib stream
		if len(rest) < 1 {
			return key, nil, false
		}
		text, err := inflate(rest[1:])
		return key, text, err == nil
	}

	// iTXt: compression flag, method, language\0, translated keyword\0, text
	if len(rest) < 2 {
		return key, nil, false
	}
	compressed := rest[0] == 1
	rest = rest[2:]
	for i := 0; i < 2; i++ {
		n := bytes.IndexByte(rest, 0)
		if n < 0 {
			return key, nil, false
		}
		rest = rest[n+1:]
	}
	if !compressed {
		return key, rest, true
	}
	text, err := inflate(rest)
	return key, text, err == nil
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, maxInflated))
}
