// Package image locates the metadata payloads embedded in image containers:
// JPEG/JPG, PNG, GIF, WebP, TIFF and TIFF-based RAW, BMP, HEIC/HEIF, RAF.
//
// It does not interpret EXIF itself; it hands the TIFF-structured EXIF block,
// the ICC profile, XMP packet, IPTC records and free-form text chunks to the
// extraction methods.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ankit-chaubey/exif-report/core"
)

// ErrUnknownFormat is returned by Parse for data it cannot identify.
var ErrUnknownFormat = errors.New("unknown image format")

// Field is a plain key-value pair found in a container.
type Field struct {
	Key   string
	Value string
}

// Container holds the raw bytes of one image file and the payloads located
// inside it. Any payload may be nil.
type Container struct {
	Path   string
	Format core.FormatID
	Data   []byte

	Exif []byte // TIFF header onwards, without the "Exif\0\0" prefix
	ICC  []byte
	XMP  []byte
	IPTC []byte // Photoshop image resource block (8BIM records)
	Text []Field
}

var exifHeader = []byte("Exif\x00\x00")

// Read loads path and parses it. A nil Container means the file could not be
// read; otherwise the error, if any, comes from Parse.
func Read(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse identifies data and collects its payloads. The Container is always
// non-nil, so callers can still hand the bytes to format-agnostic methods
// when err reports a malformed or unknown container.
//
// The EXIF block is dropped when its IFD chain loops, and a panic inside a
// format parser is returned as an error with every payload cleared.
func Parse(name string, data []byte) (c *Container, err error) {
	head := data
	if len(head) > 16 {
		head = head[:16]
	}
	c = &Container{Path: name, Format: core.DetectBytes(head, name), Data: data}
	defer func() {
		if r := recover(); r != nil {
			*c = Container{Path: c.Path, Format: c.Format, Data: c.Data}
			err = fmt.Errorf("%s: malformed %s container: %v", name, c.Format, r)
		}
	}()

	switch {
	case c.Format == core.FmtJPEG:
		err = parseJPEG(data, c)
	case c.Format == core.FmtPNG:
		err = parsePNG(data, c)
	case c.Format == core.FmtGIF:
		err = parseGIF(data, c)
	case c.Format == core.FmtWebP:
		err = parseWebP(data, c)
	case c.Format == core.FmtBMP:
		err = parseBMP(data, c)
	case c.Format == core.FmtHEIC:
		err = parseHEIF(data, c)
	case c.Format == core.FmtRAF:
		err = parseRAF(data, c)
	case core.IsTIFFBased(c.Format):
		err = parseTIFF(data, c)
	default:
		err = fmt.Errorf("%s: %w", name, ErrUnknownFormat)
	}
	if c.Exif != nil {
		if exifErr := checkExif(c.Exif); exifErr != nil {
			c.Exif = nil
			err = errors.Join(err, fmt.Errorf("exif: %w", exifErr))
		}
	}
	return c, err
}

// setExif stores a payload as the container's EXIF block, dropping an
// optional "Exif\0\0" prefix. The first payload wins.
func (c *Container) setExif(p []byte) {
	if c.Exif != nil || len(p) == 0 {
		return
	}
	p = bytes.TrimPrefix(p, exifHeader)
	if len(p) < 8 {
		return
	}
	c.Exif = p
}

func (c *Container) addText(key, value string) {
	if key == "" {
		return
	}
	c.Text = append(c.Text, Field{Key: key, Value: value})
}
