// Package testimg builds small synthetic images with embedded metadata for
// tests.
package testimg

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	stdimage "image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sort"
	"time"
)

// EXIF tag ids used by the builders.
const (
	TagImageDescription = 0x010E
	TagMake             = 0x010F
	TagModel            = 0x0110
	TagSoftware         = 0x0131
	TagDateTime         = 0x0132
	TagArtist           = 0x013B
	TagCopyright        = 0x8298
)

// ExifTIFF returns a little-endian TIFF block with one IFD holding the given
// ASCII fields, in tag order.
func ExifTIFF(fields map[uint16]string) []byte {
	tags := make([]uint16, 0, len(fields))
	for t := range fields {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	var buf bytes.Buffer
	buf.WriteString("II")
	buf.Write([]byte{0x2A, 0x00})
	buf.Write([]byte{0x08, 0x00, 0x00, 0x00})

	// Each entry: 2 tag + 2 type + 4 count + 4 value/offset.
	const ifdBase = 8
	valOffset := ifdBase + 2 + len(tags)*12 + 4

	var ifd, values bytes.Buffer
	le16 := func(v uint16) { _ = binary.Write(&ifd, binary.LittleEndian, v) }
	le32 := func(v uint32) { _ = binary.Write(&ifd, binary.LittleEndian, v) }

	le16(uint16(len(tags)))
	for _, t := range tags {
		val := fields[t] + "\x00"
		le16(t)
		le16(2) // ASCII
		le32(uint32(len(val)))
		if len(val) <= 4 {
			padded := make([]byte, 4)
			copy(padded, val)
			ifd.Write(padded)
			continue
		}
		le32(uint32(valOffset + values.Len()))
		values.WriteString(val)
		if values.Len()%2 == 1 {
			values.WriteByte(0)
		}
	}
	le32(0)

	buf.Write(ifd.Bytes())
	buf.Write(values.Bytes())
	return buf.Bytes()
}

func solid(w, h int) stdimage.Image {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img
}

// Segment encodes a JPEG marker segment.
func Segment(marker byte, payload []byte) []byte {
	seg := []byte{0xFF, marker, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

// App1Exif wraps a TIFF block in an APP1 "Exif" segment.
func App1Exif(tiff []byte) []byte {
	return Segment(0xE1, append([]byte("Exif\x00\x00"), tiff...))
}

// App1XMP wraps an XMP packet in an APP1 segment.
func App1XMP(packet string) []byte {
	return Segment(0xE1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), packet...))
}

// App2ICC wraps a profile in a single APP2 "ICC_PROFILE" chunk.
func App2ICC(profile []byte) []byte {
	p := append([]byte("ICC_PROFILE\x00"), 1, 1)
	return Segment(0xE2, append(p, profile...))
}

// App13IPTC wraps IPTC record 2 datasets in a Photoshop APP13 segment.
func App13IPTC(datasets map[byte]string) []byte {
	ids := make([]int, 0, len(datasets))
	for id := range datasets {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	var rec bytes.Buffer
	for _, id := range ids {
		v := datasets[byte(id)]
		rec.Write([]byte{0x1C, 0x02, byte(id), 0, 0})
		binary.BigEndian.PutUint16(rec.Bytes()[rec.Len()-2:], uint16(len(v)))
		rec.WriteString(v)
	}

	var res bytes.Buffer
	res.WriteString("Photoshop 3.0\x00")
	res.WriteString("8BIM")
	res.Write([]byte{0x04, 0x04, 0, 0}) // resource id, empty pascal name
	size := make([]byte, 4)
	binary.BigEndian.PutUint32(size, uint32(rec.Len()))
	res.Write(size)
	res.Write(rec.Bytes())
	if rec.Len()%2 == 1 {
		res.WriteByte(0)
	}
	return Segment(0xED, res.Bytes())
}

// JPEG encodes a w×h image and inserts segments right after SOI.
func JPEG(w, h int, segments ...[]byte) []byte {
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, solid(w, h), &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	b := enc.Bytes()
	out := append([]byte{}, b[:2]...)
	for _, s := range segments {
		out = append(out, s...)
	}
	return append(out, b[2:]...)
}

// Chunk encodes a PNG chunk.
func Chunk(typ string, data []byte) []byte {
	out := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(data)))
	copy(out[4:8], typ)
	out = append(out, data...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(out, crc.Sum32())
}

// PNG encodes a w×h image and inserts chunks right after IHDR.
func PNG(w, h int, chunks ...[]byte) []byte {
	var enc bytes.Buffer
	if err := png.Encode(&enc, solid(w, h)); err != nil {
		panic(err)
	}
	b := enc.Bytes()
	// 8-byte signature, then IHDR: 4 length + 4 type + 13 data + 4 crc.
	const ihdrEnd = 8 + 25
	out := append([]byte{}, b[:ihdrEnd]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, b[ihdrEnd:]...)
}

// ICCProfile builds a minimal v2 display profile with a header creation date
// and a 'desc' tag.
func ICCProfile(created time.Time, desc string) []byte {
	descTag := make([]byte, 12, 12+len(desc)+1)
	copy(descTag, "desc")
	binary.BigEndian.PutUint32(descTag[8:], uint32(len(desc)+1))
	descTag = append(descTag, desc...)
	descTag = append(descTag, 0)

	const tagTable = 4 + 12
	off := 128 + tagTable
	size := off + len(descTag)

	b := make([]byte, off, size)
	binary.BigEndian.PutUint32(b[0:], uint32(size))
	copy(b[4:], "lcms")
	b[8], b[9] = 2, 0x10
	copy(b[12:], "mntr")
	copy(b[16:], "RGB ")
	copy(b[20:], "XYZ ")
	if !created.IsZero() {
		for i, v := range []int{created.Year(), int(created.Month()), created.Day(),
			created.Hour(), created.Minute(), created.Second()} {
			binary.BigEndian.PutUint16(b[24+i*2:], uint16(v))
		}
	}
	copy(b[36:], "acsp")

	binary.BigEndian.PutUint32(b[128:], 1)
	copy(b[132:], "desc")
	binary.BigEndian.PutUint32(b[136:], uint32(off))
	binary.BigEndian.PutUint32(b[140:], uint32(len(descTag)))
	return append(b, descTag...)
}
