package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ─── WebP ─────────────────────────────────────────────────────────────────────

func parseWebP(data []byte, c *Container) error {
	if len(data) < 12 {
		return errors.New("webp: file too short")
	}
	// Parse RIFF chunks
	offset := 12 // skip RIFF header
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8
		if chunkSize < 0 || offset+chunkSize > len(data) {
			return fmt.Errorf("webp: chunk %q overruns file", chunkID)
		}
		chunkData := data[offset : offset+chunkSize]

		switch chunkID {
		case "EXIF":
			c.setExif(chunkData)
		case "XMP ":
			if c.XMP == nil {
				c.XMP = chunkData
			}
		case "ICCP":
			if c.ICC == nil {
				c.ICC = chunkData
			}
		case "VP8 ", "VP8L", "VP8X":
			c.addText("WebP_Encoding", strings.TrimSpace(chunkID))
		}

		offset += chunkSize
		if chunkSize%2 != 0 {
			offset++ // padding
		}
	}
	return nil
}

// ─── BMP ─────────────────────────────────────────────────────────────────────

// LCS_PROFILE_EMBEDDED ('MBED') in a BITMAPV5HEADER.
const bmpProfileEmbedded = 0x4D424544

func parseBMP(data []byte, c *Container) error {
	if len(data) < 54 {
		return errors.New("bmp: file too short for header")
	}
	headerSize := binary.LittleEndian.Uint32(data[14:18])
	bpp := binary.LittleEndian.Uint16(data[28:30])
	compression := binary.LittleEndian.Uint32(data[30:34])
	c.addText("BMP_HeaderSize", fmt.Sprintf("%d", headerSize))
	c.addText("BMP_BitsPerPixel", fmt.Sprintf("%d", bpp))
	c.addText("BMP_Compression", fmt.Sprintf("%d", compression))
	c.addText("BMP_XPelsPerMeter", fmt.Sprintf("%d", int32(binary.LittleEndian.Uint32(data[38:42]))))
	c.addText("BMP_YPelsPerMeter", fmt.Sprintf("%d", int32(binary.LittleEndian.Uint32(data[42:46]))))

	const hdr = 14
	if headerSize >= 124 && len(data) >= hdr+124 {
		if binary.LittleEndian.Uint32(data[hdr+56:hdr+60]) == bmpProfileEmbedded {
			off := hdr + int(binary.LittleEndian.Uint32(data[hdr+112:hdr+116]))
			size := int(binary.LittleEndian.Uint32(data[hdr+116 : hdr+120]))
			if off > 0 && size > 0 && off+size <= len(data) {
				c.ICC = data[off : off+size]
			}
		}
	}
	return nil
}

// ─── GIF ─────────────────────────────────────────────────────────────────────

func parseGIF(data []byte, c *Container) error {
	if len(data) < 13 {
		return errors.New("gif: file too short")
	}
	c.addText("GIF_Version", "GIF"+string(data[3:6]))

	// Scan for comment extensions (0x21 0xFE)
	i := 13 // skip header (6) + logical screen descriptor (7)
	if data[10]&0x80 != 0 {
		// Global color table present
		colorTableSize := 1 << (int(data[10]&0x07) + 1)
		i += colorTableSize * 3
	}

	commentCount := 0
	for i < len(data)-1 {
		if data[i] == 0x3B { // trailer
			break
		}
		if data[i] == 0x21 && data[i+1] == 0xFE {
			i += 2
			var comment []byte
			for i < len(data) {
				blockSize := int(data[i])
				i++
				if blockSize == 0 || i+blockSize > len(data) {
					break
				}
				comment = append(comment, data[i:i+blockSize]...)
				i += blockSize
			}
			if len(comment) > 0 {
				commentCount++
				c.addText(fmt.Sprintf("Comment_%d", commentCount), string(comment))
			}
			continue
		}
		i++
	}
	return nil
}
