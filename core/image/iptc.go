package image

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// ─── IPTC ─────────────────────────────────────────────────────────────────────

var iptcFieldNames = map[byte]string{
	0x05: "ObjectName",
	0x0F: "Category",
	0x14: "SupplementalCategory",
	0x19: "Keywords",
	0x1E: "ReleaseDate",
	0x23: "ReleaseTime",
	0x28: "SpecialInstructions",
	0x37: "DateCreated",
	0x3C: "TimeCreated",
	0x3E: "DigitalCreationDate",
	0x3F: "DigitalCreationTime",
	0x50: "Byline",
	0x55: "BylineTitle",
	0x5A: "City",
	0x5F: "Province",
	0x65: "Country",
	0x67: "OriginalTransmissionReference",
	0x69: "Headline",
	0x6E: "Credit",
	0x73: "Source",
	0x74: "CopyrightNotice",
	0x76: "Contact",
	0x78: "Caption",
	0x7A: "CaptionWriter",
}

// ParseIPTC decodes the application record (2:xx) datasets found in the
// Photoshop 8BIM 0x0404 resource. Repeated datasets are joined with ", ".
func ParseIPTC(data []byte) []Field {
	var fields []Field
	// Skip "8BIM" Photoshop resource blocks to find IPTC resource (0x0404)
	i := 0
	for i+8 < len(data) {
		if !bytes.Equal(data[i:i+4], []byte("8BIM")) {
			i++
			continue
		}
		resType := binary.BigEndian.Uint16(data[i+4 : i+6])
		nameLen := int(data[i+6])
		if nameLen%2 == 0 {
			nameLen++
		}
		i += 7 + nameLen
		if i+4 > len(data) {
			break
		}
		blockLen := int(binary.BigEndian.Uint32(data[i : i+4]))
		i += 4
		if resType == 0x0404 && i+blockLen <= len(data) {
			fields = append(fields, parseIPTCBlock(data[i:i+blockLen])...)
		}
		i += blockLen
		if blockLen%2 != 0 {
			i++
		}
	}
	return fields
}

func parseIPTCBlock(data []byte) []Field {
	var (
		order  []string
		values = map[string][]string{}
	)
	i := 0
	for i+5 <= len(data) {
		if data[i] != 0x1C {
			i++
			continue
		}
		record := data[i+1]
		dataset := data[i+2]
		length := int(binary.BigEndian.Uint16(data[i+3 : i+5]))
		i += 5
		if i+length > len(data) {
			break
		}
		val := strings.TrimRight(string(data[i:i+length]), "\x00")
		i += length
		if record != 2 {
			continue
		}
		name, ok := iptcFieldNames[dataset]
		if !ok {
			continue
		}
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = append(values[name], val)
	}

	fields := make([]Field, 0, len(order))
	for _, k := range order {
		fields = append(fields, Field{Key: k, Value: strings.Join(values[k], ", ")})
	}
	return fields
}
