package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
)

var (
	heifExifLE = []byte("Exif\x00\x00II*\x00")
	heifExifBE = []byte("Exif\x00\x00MM\x00*")
	heifColr   = []byte("colrprof")
	xmpStart   = []byte("<x:xmpmeta")
	xmpEnd     = []byte("</x:xmpmeta>")
)

// parseHEIF walks the top-level ISOBMFF boxes for the brand and then locates
// the Exif item, the embedded colour profile and the XMP packet by their
// signatures inside the item data.
func parseHEIF(data []byte, c *Container) error {
	if len(data) < 16 {
		return errors.New("heif: file too short")
	}
	for off := 0; off+8 <= len(data); {
		size := uint64(binary.BigEndian.Uint32(data[off : off+4]))
		boxType := string(data[off+4 : off+8])
		if boxType == "ftyp" && off+12 <= len(data) {
			c.addText("HEIF_Brand", strings.TrimSpace(string(data[off+8:off+12])))
		}
		switch size {
		case 0: // box runs to the end of the file
			size = uint64(len(data) - off)
		case 1:
			if off+16 > len(data) {
				size = 0
				break
			}
			size = binary.BigEndian.Uint64(data[off+8 : off+16])
		}
		if size < 8 || size > uint64(len(data)-off) {
			break
		}
		off += int(size)
	}

	if i := indexAny(data, heifExifLE, heifExifBE); i >= 0 {
		c.setExif(data[i:])
	}
	if i := bytes.Index(data, heifColr); i >= 4 {
		size := uint64(binary.BigEndian.Uint32(data[i-4 : i]))
		if size > 12 && size <= uint64(len(data)-(i-4)) {
			c.ICC = data[i+len(heifColr) : i-4+int(size)]
		}
	}
	if i := bytes.Index(data, xmpStart); i >= 0 {
		if j := bytes.Index(data[i:], xmpEnd); j >= 0 {
			c.XMP = data[i : i+j+len(xmpEnd)]
		}
	}
	if c.Exif == nil {
		return errors.New("heif: no Exif item found")
	}
	return nil
}

func indexAny(data []byte, seps ...[]byte) int {
	best := -1
	for _, sep := range seps {
		if i := bytes.Index(data, sep); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}
