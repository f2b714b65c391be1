// Package image reads the metadata blocks of still-image containers:
// JPEG, PNG, WebP, TIFF and HEIC/AVIF. It hands the extraction core a
// core.Source and never interprets tag values itself.
package image

import (
	"bytes"
	"errors"
	"fmt"
	stdimage "image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/trimmer-io/go-xmp/xmp"
	"go.uber.org/zap"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ankit-chaubey/photo-manifest/core"
	"github.com/ankit-chaubey/photo-manifest/core/normalize"
	"github.com/ankit-chaubey/photo-manifest/core/tags"
	"github.com/ankit-chaubey/photo-manifest/core/xmpnav"
)

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// Handler implements core.Handler for one image container.
type Handler struct {
	format core.FormatID
	logger *zap.Logger
}

// New returns a Handler for the given format. A nil logger discards output.
func New(format core.FormatID, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{format: format, logger: logger}
}

func (h *Handler) Info() core.FormatInfo {
	return formatInfo[h.format]
}

var formatInfo = map[core.FormatID]core.FormatInfo{
	core.FmtJPEG: {
		Name:       "JPEG",
		Extensions: []string{".jpg", ".jpeg"},
		MIMETypes:  []string{"image/jpeg"},
		Native:     true,
		Notes:      "APP1 EXIF and XMP, APP13 IPTC.",
	},
	core.FmtPNG: {
		Name:       "PNG",
		Extensions: []string{".png"},
		MIMETypes:  []string{"image/png"},
		Native:     false,
		Notes:      "eXIf chunk, XMP in iTXt/tEXt/zTXt.",
	},
	core.FmtWebP: {
		Name:       "WebP",
		Extensions: []string{".webp"},
		MIMETypes:  []string{"image/webp"},
		Native:     false,
		Notes:      "EXIF and XMP chunks in RIFF container.",
	},
	core.FmtTIFF: {
		Name:       "TIFF",
		Extensions: []string{".tiff", ".tif"},
		MIMETypes:  []string{"image/tiff"},
		Native:     true,
		Notes:      "The file is the EXIF block. XMP from tag 0x02BC.",
	},
	core.FmtHEIC: {
		Name:       "HEIC/HEIF",
		Extensions: []string{".heic", ".heif"},
		MIMETypes:  []string{"image/heic", "image/heif"},
		Native:     false,
		Notes:      "EXIF item in ISOBMFF container. Dimensions from ispe.",
	},
	core.FmtAVIF: {
		Name:       "AVIF",
		Extensions: []string{".avif"},
		MIMETypes:  []string{"image/avif"},
		Native:     false,
		Notes:      "EXIF item in ISOBMFF container. Dimensions from ispe.",
	},
}

// Open detects the container of path and reads it.
func Open(path string, logger *zap.Logger) (*core.Source, error) {
	format, err := core.DetectFormat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecode, err)
	}
	if format == core.FmtUnknown {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, path)
	}
	return New(format, logger).Read(path)
}

// ──────────────────────────────────────────────────────────────────────────────
// Read
// ──────────────────────────────────────────────────────────────────────────────

// Read loads path and collects its metadata blocks. Only an unreadable or
// unrecognisable file is an error; a missing block just stays empty.
func (h *Handler) Read(path string) (*core.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecode, err)
	}

	src := &core.Source{Format: h.format}
	var blocks containerBlocks
	switch h.format {
	case core.FmtJPEG:
		blocks, err = readJPEG(data)
	case core.FmtPNG:
		blocks, err = readPNG(data)
	case core.FmtWebP:
		blocks, err = readWebP(data)
	case core.FmtTIFF:
		blocks, err = readTIFF(data)
	case core.FmtHEIC, core.FmtAVIF:
		blocks, err = readISOBMFF(data, h.logger)
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, h.format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDecode, path, err)
	}

	log := h.logger.With(zap.String("path", path), zap.String("format", string(h.format)))
	h.applyExif(src, blocks.exif, log)
	for id, v := range blocks.tags {
		if src.Tags == nil {
			src.Tags = map[uint16]any{}
		}
		if _, ok := src.Tags[id]; !ok {
			src.Tags[id] = v
		}
	}
	for id, v := range blocks.exifIFD {
		if src.ExifIFD == nil {
			src.ExifIFD = map[uint16]any{}
		}
		if _, ok := src.ExifIFD[id]; !ok {
			src.ExifIFD[id] = v
		}
	}
	if len(blocks.iptc) > 0 {
		src.IPTC = blocks.iptc
	}

	packet := blocks.xmp
	if len(packet) == 0 {
		packet = xmpFromTag(src.Tags[tiffXMPTag])
	}
	if len(packet) == 0 {
		packet = scanXMP(data)
	}
	if len(packet) > 0 {
		tree, err := xmpnav.Parse(packet)
		if err != nil {
			log.Debug("xmp packet unreadable", zap.Error(err))
		} else {
			src.XMP = tree
		}
	}

	if blocks.width > 0 && blocks.height > 0 {
		src.Width, src.Height = blocks.width, blocks.height
	} else if cfg, _, err := stdimage.DecodeConfig(bytes.NewReader(data)); err == nil {
		src.Width, src.Height = cfg.Width, cfg.Height
	} else {
		log.Debug("dimensions unavailable", zap.Error(err))
	}
	return src, nil
}

// containerBlocks is what a container walker found, before decoding.
type containerBlocks struct {
	exif    []byte
	xmp     []byte
	iptc    map[string]string
	tags    map[uint16]any
	exifIFD map[uint16]any
	width   int
	height  int
}

// applyExif keeps the block for the re-parse fallback and decodes what it
// can into the primary and embedded dictionaries.
func (h *Handler) applyExif(src *core.Source, block []byte, log *zap.Logger) {
	if len(block) == 0 {
		return
	}
	src.RawExif = tags.StripExifHeader(block)
	dirs, err := tags.DecodeBlock(block)
	if err != nil {
		log.Debug("exif block not decodable, leaving it to the re-parse", zap.Error(err))
		return
	}
	src.Tags = dirs.IFD0
	src.ExifIFD = dirs.Exif
}

// scanXMP looks for an XMP packet anywhere in data.
func scanXMP(data []byte) []byte {
	packets, err := xmp.ScanPackets(bytes.NewReader(data))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil
	}
	for _, p := range packets {
		if len(bytes.TrimSpace(p)) > 0 {
			return p
		}
	}
	return nil
}

// xmpFromTag reads an XMP packet stored as a TIFF tag value.
func xmpFromTag(v any) []byte {
	b, ok := normalize.Bytes(v)
	if !ok || len(b) == 0 {
		return nil
	}
	return b
}
