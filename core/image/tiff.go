package image

import (
	"errors"

	"github.com/ankit-chaubey/photo-manifest/core/tags"
)

// tiffXMPTag holds an XMP packet inside an IFD.
const tiffXMPTag = 0x02BC

var errNotTIFF = errors.New("missing TIFF byte-order header")

// readTIFF treats the whole file as the EXIF block. The XMP packet, if any,
// is picked up from IFD0 once the block is decoded.
func readTIFF(data []byte) (containerBlocks, error) {
	if !tags.HasTIFFHeader(data) {
		return containerBlocks{}, errNotTIFF
	}
	return containerBlocks{exif: data}, nil
}
