package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

const (
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP0  = 0xE0
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2
	markerAPP13 = 0xED
	markerCOM   = 0xFE
)

var (
	xmpPrefix  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	iccPrefix  = []byte("ICC_PROFILE\x00")
	iptcPrefix = []byte("Photoshop 3.0\x00")
	jfifPrefix = []byte("JFIF\x00")
)

// Segment is one JPEG marker segment. Data excludes the marker and length.
type Segment struct {
	Marker byte
	Data   []byte
}

// Segments walks the JPEG marker segments up to the start of scan.
func Segments(data []byte) ([]Segment, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, errors.New("not a JPEG")
	}
	var segs []Segment
	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			return segs, fmt.Errorf("jpeg: expected marker at offset %d", i)
		}
		// Fill bytes.
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			break
		}
		marker := data[i]
		i++
		// Standalone markers carry no length.
		if marker == markerSOI || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			continue
		}
		if marker == markerEOI {
			break
		}
		if i+2 > len(data) {
			return segs, errors.New("jpeg: truncated segment length")
		}
		segLen := int(binary.BigEndian.Uint16(data[i:i+2])) - 2
		i += 2
		if segLen < 0 || i+segLen > len(data) {
			return segs, fmt.Errorf("jpeg: segment 0x%02X overruns file", marker)
		}
		segs = append(segs, Segment{Marker: marker, Data: data[i : i+segLen]})
		i += segLen
		// Stop at SOS (start of scan)
		if marker == markerSOS {
			break
		}
	}
	return segs, nil
}

func parseJPEG(data []byte, c *Container) error {
	segs, err := Segments(data)

	type iccChunk struct {
		seq  byte
		data []byte
	}
	var chunks []iccChunk

	for _, seg := range segs {
		switch seg.Marker {
		case markerAPP0:
			if bytes.HasPrefix(seg.Data, jfifPrefix) && len(seg.Data) >= 12 {
				d := seg.Data[len(jfifPrefix):]
				c.addText("JFIF_Version", fmt.Sprintf("%d.%02d", d[0], d[1]))
				c.addText("JFIF_Density", fmt.Sprintf("%dx%d (units %d)",
					binary.BigEndian.Uint16(d[3:5]), binary.BigEndian.Uint16(d[5:7]), d[2]))
			}
		case markerAPP1:
			switch {
			case bytes.HasPrefix(seg.Data, exifHeader):
				c.setExif(seg.Data)
			case bytes.HasPrefix(seg.Data, xmpPrefix) && c.XMP == nil:
				c.XMP = seg.Data[len(xmpPrefix):]
			}
		case markerAPP2:
			if bytes.HasPrefix(seg.Data, iccPrefix) && len(seg.Data) > len(iccPrefix)+2 {
				n := len(iccPrefix)
				chunks = append(chunks, iccChunk{seq: seg.Data[n], data: seg.Data[n+2:]})
			}
		case markerAPP13:
			if bytes.HasPrefix(seg.Data, iptcPrefix) && c.IPTC == nil {
				c.IPTC = seg.Data[len(iptcPrefix):]
			}
		case markerCOM:
			c.addText("Comment", string(bytes.TrimRight(seg.Data, "\x00")))
		}
	}

	if len(chunks) > 0 {
		sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })
		var icc []byte
		for _, ch := range chunks {
			icc = append(icc, ch.data...)
		}
		c.ICC = icc
	}
	return err
}
