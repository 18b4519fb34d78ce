package image

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// maxInflate caps decompressed text and profile chunks.
const maxInflate = 16 << 20

type pngChunk struct {
	typ  string
	data []byte
}

func readPNGChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errors.New("not a valid PNG")
	}
	var chunks []pngChunk
	i := len(pngSignature)
	for i+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		i += 8
		if length < 0 || i+length > len(data) {
			return chunks, fmt.Errorf("png: chunk %q overruns file", typ)
		}
		chunks = append(chunks, pngChunk{typ: typ, data: data[i : i+length]})
		i += length + 4 // data + CRC
		if typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

func parsePNG(data []byte, c *Container) error {
	chunks, err := readPNGChunks(data)
	for _, ch := range chunks {
		switch ch.typ {
		case "tEXt":
			// Format: keyword\0value
			key, val, ok := bytes.Cut(ch.data, []byte{0})
			if ok {
				c.pngText(string(key), string(val))
			}
		case "zTXt":
			// Format: keyword\0method compressed-text
			key, rest, ok := bytes.Cut(ch.data, []byte{0})
			if ok && len(rest) > 1 {
				if val, err := inflate(rest[1:]); err == nil {
					c.pngText(string(key), string(val))
				}
			}
		case "iTXt":
			c.parseITXt(ch.data)
		case "eXIf":
			c.setExif(ch.data)
		case "iCCP":
			// Format: name\0method compressed-profile
			_, rest, ok := bytes.Cut(ch.data, []byte{0})
			if ok && len(rest) > 1 && c.ICC == nil {
				if icc, err := inflate(rest[1:]); err == nil {
					c.ICC = icc
				}
			}
		case "tIME":
			if len(ch.data) == 7 {
				year := binary.BigEndian.Uint16(ch.data[0:2])
				c.addText("LastModified", fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
					year, ch.data[2], ch.data[3], ch.data[4], ch.data[5], ch.data[6]))
			}
		}
	}
	return err
}

// parseITXt decodes keyword\0flag method language\0translated\0text.
func (c *Container) parseITXt(data []byte) {
	key, rest, ok := bytes.Cut(data, []byte{0})
	if !ok || len(rest) < 2 {
		return
	}
	compressed := rest[0] == 1
	rest = rest[2:]
	for i := 0; i < 2; i++ {
		_, after, found := bytes.Cut(rest, []byte{0})
		if !found {
			return
		}
		rest = after
	}
	if compressed {
		v, err := inflate(rest)
		if err != nil {
			return
		}
		rest = v
	}
	if string(key) == "XML:com.adobe.xmp" {
		if c.XMP == nil {
			c.XMP = rest
		}
		return
	}
	c.pngText(string(key), string(rest))
}

// pngText records a text chunk, unpacking ImageMagick-style
// "Raw profile type" payloads into the matching container slot.
func (c *Container) pngText(key, val string) {
	if profile, ok := strings.CutPrefix(key, "Raw profile type "); ok {
		raw, err := decodeRawProfile(val)
		if err == nil {
			switch strings.ToLower(profile) {
			case "exif", "app1":
				c.setExif(raw)
				return
			case "icc", "icm":
				if c.ICC == nil {
					c.ICC = raw
				}
				return
			case "xmp":
				if c.XMP == nil {
					c.XMP = raw
				}
				return
			case "iptc", "8bim":
				if c.IPTC == nil {
					c.IPTC = raw
				}
				return
			}
		}
	}
	c.addText(key, val)
}

// decodeRawProfile decodes "\n<name>\n<length>\n<hex lines>".
func decodeRawProfile(s string) ([]byte, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return nil, errors.New("raw profile: too short")
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("raw profile length: %w", err)
	}
	raw, err := hex.DecodeString(strings.Join(fields[2:], ""))
	if err != nil {
		return nil, fmt.Errorf("raw profile: %w", err)
	}
	if n < len(raw) {
		raw = raw[:n]
	}
	return raw, nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, maxInflate))
}
