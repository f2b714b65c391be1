package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	mp4 "github.com/abema/go-mp4"
	"github.com/evanoberholster/imagemeta"
	"github.com/evanoberholster/imagemeta/exif2"
	"go.uber.org/zap"

	"github.com/ankit-chaubey/photo-manifest/core/tags"
)

var errNoFtyp = errors.New("no ftyp box")

// readISOBMFF reads a HEIF-family file. The box walk provides the brand and
// the meta box; the EXIF item is located by its header because its bytes
// usually live in mdat behind an iloc indirection.
func readISOBMFF(data []byte, logger *zap.Logger) (containerBlocks, error) {
	var b containerBlocks
	var brand string
	var meta []byte

	_, err := mp4.ReadBoxStructure(bytes.NewReader(data), func(h *mp4.ReadHandle) (any, error) {
		switch h.BoxInfo.Type {
		case mp4.BoxTypeFtyp():
			box, _, err := h.ReadPayload()
			if err != nil {
				return nil, fmt.Errorf("reading ftyp payload: %w", err)
			}
			if ftyp, ok := box.(*mp4.Ftyp); ok {
				brand = string(ftyp.MajorBrand[:])
			}
		case mp4.BoxTypeMeta():
			var buf bytes.Buffer
			if _, err := h.ReadData(&buf); err != nil {
				return nil, fmt.Errorf("reading meta box: %w", err)
			}
			meta = buf.Bytes()
		}
		return nil, nil
	})
	if err != nil {
		return b, err
	}
	if brand == "" {
		return b, errNoFtyp
	}
	logger.Debug("isobmff container", zap.String("brand", brand), zap.Int("metaBytes", len(meta)))

	b.width, b.height = largestISPE(meta)
	b.exif = findExifItem(data)
	if b.exif == nil {
		b.tags, b.exifIFD = decodeImagemeta(data, logger)
	}
	return b, nil
}

// largestISPE returns the biggest image spatial extent declared in the meta
// box. Grid tiles and thumbnails declare smaller ones.
func largestISPE(meta []byte) (int, int) {
	var w, h int
	tag := []byte("ispe")
	for i := 0; ; {
		k := bytes.Index(meta[i:], tag)
		if k < 0 {
			break
		}
		at := i + k
		// type, version and flags, then width and height
		if at+16 <= len(meta) {
			cw := int(binary.BigEndian.Uint32(meta[at+8 : at+12]))
			ch := int(binary.BigEndian.Uint32(meta[at+12 : at+16]))
			if cw*ch > w*h {
				w, h = cw, ch
			}
		}
		i = at + len(tag)
	}
	return w, h
}

// findExifItem locates "Exif\0\0" followed by a TIFF header.
func findExifItem(data []byte) []byte {
	for i := 0; ; {
		k := bytes.Index(data[i:], jpegExifPrefix)
		if k < 0 {
			return nil
		}
		start := i + k + len(jpegExifPrefix)
		if tags.HasTIFFHeader(data[start:]) {
			return data[start:]
		}
		i = start
	}
}

// decodeImagemeta is the fallback when no EXIF item header is found. It only
// recovers the camera and the capture time.
func decodeImagemeta(data []byte, logger *zap.Logger) (map[uint16]any, map[uint16]any) {
	ex, err := decodeExifSafe(data)
	if err != nil {
		logger.Debug("imagemeta decode failed", zap.Error(err))
		return nil, nil
	}

	ifd0 := map[uint16]any{}
	if ex.Make != "" {
		ifd0[0x010F] = ex.Make
	}
	if ex.Model != "" {
		ifd0[0x0110] = ex.Model
	}
	var sub map[uint16]any
	if t := ex.DateTimeOriginal(); !t.IsZero() {
		sub = map[uint16]any{0x9003: t.Format(tags.ExifDateLayout)}
	}
	return ifd0, sub
}

// decodeExifSafe protects against panics from the decoder on malformed files.
func decodeExifSafe(data []byte) (ex exif2.Exif, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while decoding: %v", rec)
		}
	}()
	return imagemeta.Decode(bytes.NewReader(data))
}
