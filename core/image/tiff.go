package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rwcarlsen/goexif/tiff"
)

// IFD0 tags that carry embedded metadata blocks.
const (
	tagXMP       = 0x02BC // XMLPacket
	tagIPTC      = 0x83BB // IPTC-NAA
	tagPhotoshop = 0x8649 // Photoshop image resources
	tagICC       = 0x8773 // InterColorProfile
)

// parseTIFF handles TIFF and TIFF-structured RAW files. The whole file is the
// EXIF block; the ICC, XMP and IPTC payloads live in IFD tags.
func parseTIFF(data []byte, c *Container) error {
	if err := checkExif(data); err != nil {
		return err
	}
	c.Exif = data
	t, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("could not parse TIFF IFDs: %w", err)
	}
	for _, dir := range t.Dirs {
		for _, tag := range dir.Tags {
			switch tag.Id {
			case tagICC:
				if c.ICC == nil {
					c.ICC = tag.Val
				}
			case tagXMP:
				if c.XMP == nil {
					c.XMP = tag.Val
				}
			case tagPhotoshop:
				if c.IPTC == nil {
					c.IPTC = tag.Val
				}
			case tagIPTC:
				if c.IPTC == nil {
					c.IPTC = wrapIPTC(tag.Val)
				}
			}
		}
	}
	return nil
}

// wrapIPTC packs bare IPTC records into an 8BIM 0x0404 resource so both TIFF
// tags decode through ParseIPTC.
func wrapIPTC(records []byte) []byte {
	var b bytes.Buffer
	b.WriteString("8BIM")
	binary.Write(&b, binary.BigEndian, uint16(0x0404))
	b.Write([]byte{0, 0}) // empty pascal name, padded
	binary.Write(&b, binary.BigEndian, uint32(len(records)))
	b.Write(records)
	if len(records)%2 != 0 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

// ─── RAF ─────────────────────────────────────────────────────────────────────

// parseRAF reads the JPEG preview a Fujifilm RAF embeds; its APP segments
// carry the camera EXIF and ICC profile.
func parseRAF(data []byte, c *Container) error {
	if len(data) < 92 {
		return errors.New("raf: file too short")
	}
	off := int(binary.BigEndian.Uint32(data[84:88]))
	size := int(binary.BigEndian.Uint32(data[88:92]))
	if off <= 0 || size <= 0 || off+size > len(data) {
		return errors.New("raf: invalid JPEG preview offset")
	}
	c.addText("RAF_Version", string(bytes.TrimRight(data[60:64], "\x00")))
	preview := &Container{}
	err := parseJPEG(data[off:off+size], preview)
	c.Exif, c.ICC, c.XMP, c.IPTC = preview.Exif, preview.ICC, preview.XMP, preview.IPTC
	return err
}
