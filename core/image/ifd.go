package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// maxIFDs bounds the IFD chain of one TIFF block. Real files carry a handful.
const maxIFDs = 64

const (
	tagExifIFD   = 0x8769
	tagMakerNote = 0x927C
)

// ErrIFDLoop is returned for a TIFF block whose IFD chain revisits an offset.
var ErrIFDLoop = errors.New("tiff: IFD chain loops")

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32 // inline value or offset, as stored
}

// checkExif walks the IFD chains the EXIF decoder will follow and rejects
// blocks that would make it loop: the main IFD chain and the self-contained
// TIFF inside a Nikon type 3 maker note. goexif only catches an IFD that
// names itself as its successor.
func checkExif(data []byte) error {
	order, err := tiffOrder(data)
	if err != nil {
		return err
	}
	ifd0, err := checkChain(data, order)
	if err != nil {
		return err
	}
	if ifd0 == nil {
		return nil
	}

	exifOff, ok := findTag(ifd0, tagExifIFD)
	if !ok {
		return nil
	}
	sub, _, ok := readIFD(data, order, exifOff.value)
	if !ok {
		return nil
	}
	mn, ok := findTag(sub, tagMakerNote)
	if !ok || mn.count <= 4 || uint64(mn.value)+uint64(mn.count) > uint64(len(data)) {
		return nil
	}
	note := data[mn.value : mn.value+mn.count]
	if bytes.HasPrefix(note, []byte("Nikon\x00")) && len(note) > 18 {
		inner := note[10:]
		innerOrder, err := tiffOrder(inner)
		if err != nil {
			return nil
		}
		if _, err := checkChain(inner, innerOrder); err != nil {
			return fmt.Errorf("maker note: %w", err)
		}
	}
	return nil
}

func tiffOrder(data []byte) (binary.ByteOrder, error) {
	if len(data) < 8 {
		return nil, errors.New("tiff: header too short")
	}
	switch string(data[:2]) {
	case "II":
		return binary.LittleEndian, nil
	case "MM":
		return binary.BigEndian, nil
	}
	return nil, errors.New("tiff: bad byte order mark")
}

// checkChain follows the next-IFD links from the header and returns the
// entries of the first IFD. A chain that runs off the end of data is left
// for the decoder to report.
func checkChain(data []byte, order binary.ByteOrder) ([]ifdEntry, error) {
	var first []ifdEntry
	seen := make(map[uint32]bool)
	for off := order.Uint32(data[4:8]); off != 0; {
		if seen[off] {
			return nil, fmt.Errorf("%w at offset %d", ErrIFDLoop, off)
		}
		if len(seen) == maxIFDs {
			return nil, fmt.Errorf("tiff: more than %d IFDs", maxIFDs)
		}
		seen[off] = true

		entries, next, ok := readIFD(data, order, off)
		if !ok {
			break
		}
		if first == nil {
			first = entries
		}
		off = next
	}
	return first, nil
}

func readIFD(data []byte, order binary.ByteOrder, off uint32) ([]ifdEntry, uint32, bool) {
	start := uint64(off)
	if start+2 > uint64(len(data)) {
		return nil, 0, false
	}
	n := uint64(order.Uint16(data[start:]))
	end := start + 2 + n*12
	if end+4 > uint64(len(data)) {
		return nil, 0, false
	}
	entries := make([]ifdEntry, 0, n)
	for p := start + 2; p < end; p += 12 {
		entries = append(entries, ifdEntry{
			tag:   order.Uint16(data[p:]),
			typ:   order.Uint16(data[p+2:]),
			count: order.Uint32(data[p+4:]),
			value: order.Uint32(data[p+8:]),
		})
	}
	return entries, order.Uint32(data[end:]), true
}

func findTag(entries []ifdEntry, tag uint16) (ifdEntry, bool) {
	for _, e := range entries {
		if e.tag == tag {
			return e, true
		}
	}
	return ifdEntry{}, false
}
