package tags

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ankit-chaubey/photo-manifest/core"
)

// Pointer and vendor tags the structure walk follows.
const (
	interopIFDPointer uint16 = 0xA005
	makeTag           uint16 = 0x010F
	makerNoteTag      uint16 = 0x927C
)

// maxIFDs bounds the directories visited in one block.
const maxIFDs = 64

var (
	errOversizedValue = errors.New("tag value larger than the block")
	errIFDLoop        = errors.New("IFD chain loops")
)

// tiffTypeSize is the byte size of each TIFF data type. Unknown types are
// absent and never reach an allocation.
var tiffTypeSize = map[uint16]uint64{
	1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1,
	7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8,
}

// CheckBlock walks the directory structure of an EXIF block without
// decoding any value. It fails when an entry declares more value bytes than
// the block holds, or when the IFD chain loops. goexif sizes its value
// slices from the declared count, so such a block must not reach it.
func CheckBlock(block []byte) error {
	block = StripExifHeader(block)
	if len(block) < 8 || !HasTIFFHeader(block) {
		return fmt.Errorf("%w: missing TIFF header", core.ErrDecode)
	}
	w := &ifdWalker{seen: map[uint32]bool{}}
	if err := w.walk(block); err != nil {
		return fmt.Errorf("%w: %v", core.ErrDecode, err)
	}
	return nil
}

type ifdWalker struct {
	seen   map[uint32]bool
	visits int
	camera string
}

// makerNote records where the maker note value sits in its block.
type makerNote struct {
	off, size uint32
}

// walk checks the IFD chain of one TIFF structure, then the sub-IFDs and
// maker note it references.
func (w *ifdWalker) walk(b []byte) error {
	order := byteOrder(b)
	var subs []uint32
	var note *makerNote

	chain := map[uint32]bool{}
	for off := order.Uint32(b[4:8]); off != 0; {
		if chain[off] {
			return errIFDLoop
		}
		chain[off] = true
		next, ifd, err := w.dir(b, order, off)
		if err != nil {
			return err
		}
		if !ifd.ok {
			// goexif rejects a broken chain on its own, before any value.
			return nil
		}
		subs = append(subs, ifd.subs...)
		if ifd.note != nil {
			note = ifd.note
		}
		off = next
	}

	for len(subs) > 0 {
		off := subs[0]
		subs = subs[1:]
		if w.seen[off] {
			continue
		}
		_, ifd, err := w.dir(b, order, off)
		if err != nil {
			return err
		}
		subs = append(subs, ifd.subs...)
		if ifd.note != nil {
			note = ifd.note
		}
	}

	if note != nil {
		return w.makerNote(b, order, *note)
	}
	return nil
}

// ifdResult is what one directory contributed to the walk.
type ifdResult struct {
	ok   bool
	subs []uint32
	note *makerNote
}

// dir checks the entries of the directory at off. A truncated directory is
// not an error here: its complete entries are checked and the walk of that
// directory stops.
func (w *ifdWalker) dir(b []byte, order binary.ByteOrder, off uint32) (uint32, ifdResult, error) {
	var res ifdResult
	w.seen[off] = true
	w.visits++
	if w.visits > maxIFDs {
		return 0, res, errIFDLoop
	}
	if uint64(off)+2 > uint64(len(b)) {
		return 0, res, nil
	}
	n := int(int16(order.Uint16(b[off:])))
	if n < 0 {
		n = 0
	}
	start := int(off) + 2

	for i := 0; i < n && start+12*(i+1) <= len(b); i++ {
		e := b[start+12*i : start+12*(i+1)]
		id := order.Uint16(e)
		typ := order.Uint16(e[2:])
		count := order.Uint32(e[4:])
		size, known := tiffTypeSize[typ]
		if !known || count == 1<<32-1 {
			continue
		}
		total := size * uint64(count)
		if total > uint64(len(b)) {
			return 0, res, fmt.Errorf("%w: tag 0x%04X declares %d bytes", errOversizedValue, id, total)
		}

		switch id {
		case ExifIFDPointer, GPSIFDPointer, interopIFDPointer:
			if typ == 3 {
				res.subs = append(res.subs, uint32(order.Uint16(e[8:])))
			} else {
				res.subs = append(res.subs, order.Uint32(e[8:]))
			}
		case makeTag:
			w.camera = asciiValue(b, order, e[8:12], total)
		case makerNoteTag:
			if total > 4 {
				res.note = &makerNote{off: order.Uint32(e[8:]), size: uint32(total)}
			}
		}
	}

	end := start + 12*n
	if end+4 > len(b) {
		return 0, res, nil
	}
	res.ok = true
	return order.Uint32(b[end:]), res, nil
}

// makerNote checks the vendor directories the registered maker note
// parsers decode: Canon stores a bare IFD in the parent block, Nikon a
// complete TIFF structure after a 10-byte header.
func (w *ifdWalker) makerNote(b []byte, order binary.ByteOrder, note makerNote) error {
	if uint64(note.off)+uint64(note.size) > uint64(len(b)) {
		return nil
	}
	val := b[note.off : note.off+note.size]
	switch {
	case w.camera == "Canon":
		_, _, err := w.dir(b[:note.off+note.size], order, note.off)
		return err
	case bytes.HasPrefix(val, []byte("Nikon\x00")) && len(val) >= 18 && HasTIFFHeader(val[10:]):
		nested := &ifdWalker{seen: map[uint32]bool{}, visits: w.visits}
		return nested.walk(val[10:])
	}
	return nil
}

func asciiValue(b []byte, order binary.ByteOrder, field []byte, size uint64) string {
	var raw []byte
	if size <= 4 {
		raw = field[:size]
	} else {
		off := uint64(order.Uint32(field))
		if off+size > uint64(len(b)) {
			return ""
		}
		raw = b[off : off+size]
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}

func byteOrder(b []byte) binary.ByteOrder {
	if b[0] == 'M' {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
