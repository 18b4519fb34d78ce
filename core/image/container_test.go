package image

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ankit-chaubey/exif-report/core"
	"github.com/ankit-chaubey/exif-report/internal/testimg"
)

func exifBlock() []byte {
	return testimg.ExifTIFF(map[uint16]string{
		testimg.TagMake:  "Canon",
		testimg.TagModel: "EOS R5",
	})
}

func fieldMap(fs []Field) map[string]string {
	m := make(map[string]string, len(fs))
	for _, f := range fs {
		m[f.Key] = f.Value
	}
	return m
}

func TestParseJPEG(t *testing.T) {
	profile := testimg.ICCProfile(time.Date(2021, 5, 6, 7, 8, 9, 0, time.UTC), "sRGB test")
	xmp := `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmp:Rating="4"/></rdf:RDF></x:xmpmeta>`
	data := testimg.JPEG(8, 8,
		testimg.App1Exif(exifBlock()),
		testimg.App1XMP(xmp),
		testimg.App2ICC(profile),
		testimg.App13IPTC(map[byte]string{0x05: "Sunset", 0x5A: "Oslo"}),
		testimg.Segment(0xFE, []byte("hello")),
	)

	c, err := Parse("photo.JPG", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Format != core.FmtJPEG {
		t.Errorf("Format = %q", c.Format)
	}
	if !bytes.Equal(c.Exif, exifBlock()) {
		t.Errorf("Exif block not extracted intact (%d bytes)", len(c.Exif))
	}
	if !bytes.Equal(c.ICC, profile) {
		t.Errorf("ICC = %d bytes, want %d", len(c.ICC), len(profile))
	}
	if string(c.XMP) != xmp {
		t.Errorf("XMP = %q", c.XMP)
	}
	if got := fieldMap(ParseIPTC(c.IPTC)); got["ObjectName"] != "Sunset" || got["City"] != "Oslo" {
		t.Errorf("IPTC = %v", got)
	}
	if got := fieldMap(c.Text); got["Comment"] != "hello" {
		t.Errorf("Text = %v", c.Text)
	}
}

func TestParseJPEGMultiChunkICC(t *testing.T) {
	profile := testimg.ICCProfile(time.Time{}, "split")
	half := len(profile) / 2
	chunk := func(seq byte, p []byte) []byte {
		return testimg.Segment(0xE2, append(append([]byte("ICC_PROFILE\x00"), seq, 2), p...))
	}
	// Chunks out of order must be reassembled by sequence number.
	data := testimg.JPEG(4, 4, chunk(2, profile[half:]), chunk(1, profile[:half]))

	c, err := Parse("a.jpg", data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(c.ICC, profile) {
		t.Error("ICC chunks not reassembled in sequence order")
	}
}

func TestParseJPEGTruncated(t *testing.T) {
	data := testimg.JPEG(4, 4, testimg.App1Exif(exifBlock()))
	c, err := Parse("a.jpg", data[:30])
	if c == nil {
		t.Fatal("Parse returned nil container")
	}
	if err == nil {
		t.Error("expected error for truncated JPEG")
	}
}

func TestSegments(t *testing.T) {
	data := testimg.JPEG(4, 4, testimg.Segment(0xFE, []byte("x")))
	segs, err := Segments(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) == 0 || segs[0].Marker != markerCOM || string(segs[0].Data) != "x" {
		t.Errorf("first segment = %+v", segs[0])
	}
	if _, err := Segments([]byte("not a jpeg")); err == nil {
		t.Error("expected error without SOI")
	}
}

func deflate(b []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(b)
	zw.Close()
	return buf.Bytes()
}

func TestParsePNG(t *testing.T) {
	profile := testimg.ICCProfile(time.Date(2019, 1, 2, 3, 4, 5, 0, time.UTC), "png profile")
	exifHex := hex.EncodeToString(exifBlock())
	raw := fmt.Sprintf("\nexif\n%d\n%s\n", len(exifBlock()), exifHex)

	data := testimg.PNG(3, 2,
		testimg.Chunk("tEXt", []byte("Author\x00Jane")),
		testimg.Chunk("zTXt", append([]byte("Description\x00\x00"), deflate([]byte("long text"))...)),
		testimg.Chunk("iTXt", []byte("Title\x00\x00\x00en\x00Titel\x00A title")),
		testimg.Chunk("iCCP", append([]byte("icc\x00\x00"), deflate(profile)...)),
		testimg.Chunk("tEXt", []byte("Raw profile type exif\x00"+raw)),
		testimg.Chunk("tIME", []byte{0x07, 0xE8, 3, 9, 14, 5, 7}),
	)

	c, err := Parse("img.png", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	text := fieldMap(c.Text)
	want := map[string]string{
		"Author":       "Jane",
		"Description":  "long text",
		"Title":        "A title",
		"LastModified": "2024-03-09 14:05:07",
	}
	for k, v := range want {
		if text[k] != v {
			t.Errorf("Text[%s] = %q, want %q", k, text[k], v)
		}
	}
	if !bytes.Equal(c.ICC, profile) {
		t.Error("iCCP profile not inflated")
	}
	if !bytes.Equal(c.Exif, exifBlock()) {
		t.Error("raw exif profile not decoded")
	}
	if _, ok := text["Raw profile type exif"]; ok {
		t.Error("raw profile leaked into text fields")
	}
}

func TestParsePNGeXIfAndXMP(t *testing.T) {
	xmp := `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:tiff="http://ns.adobe.com/tiff/1.0/"><tiff:Make>Nikon</tiff:Make></rdf:Description></rdf:RDF></x:xmpmeta>`
	data := testimg.PNG(1, 1,
		testimg.Chunk("eXIf", exifBlock()),
		testimg.Chunk("iTXt", append([]byte("XML:com.adobe.xmp\x00\x00\x00\x00\x00"), xmp...)),
	)
	c, err := Parse("x.png", data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(c.Exif, exifBlock()) {
		t.Error("eXIf chunk not used")
	}
	if got := fieldMap(ParseXMP(c.XMP)); got["Make"] != "Nikon" {
		t.Errorf("XMP = %v", got)
	}
}

func TestParseTIFF(t *testing.T) {
	block := exifBlock()
	c, err := Parse("scan.tif", block)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Format != core.FmtTIFF || !bytes.Equal(c.Exif, block) {
		t.Errorf("Format = %q, Exif = %d bytes", c.Format, len(c.Exif))
	}

	c, err = Parse("shot.dng", block)
	if err != nil || c.Format != core.FmtDNG {
		t.Errorf("Parse(dng) = %q, %v", c.Format, err)
	}
}

func TestParseWebP(t *testing.T) {
	var body bytes.Buffer
	chunk := func(id string, data []byte) {
		body.WriteString(id)
		size := []byte{byte(len(data)), byte(len(data) >> 8), byte(len(data) >> 16), byte(len(data) >> 24)}
		body.Write(size)
		body.Write(data)
		if len(data)%2 == 1 {
			body.WriteByte(0)
		}
	}
	chunk("VP8X", make([]byte, 10))
	chunk("EXIF", append([]byte("Exif\x00\x00"), exifBlock()...))
	chunk("XMP ", []byte("<x:xmpmeta/>"))

	data := append([]byte("RIFF\x00\x00\x00\x00WEBP"), body.Bytes()...)
	c, err := Parse("a.webp", data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(c.Exif, exifBlock()) {
		t.Error("EXIF chunk not extracted")
	}
	if string(c.XMP) != "<x:xmpmeta/>" {
		t.Errorf("XMP = %q", c.XMP)
	}
	if fieldMap(c.Text)["WebP_Encoding"] != "VP8X" {
		t.Errorf("Text = %v", c.Text)
	}
}

func TestParseGIFComment(t *testing.T) {
	data := []byte("GIF89a")
	data = append(data, 1, 0, 1, 0, 0, 0, 0) // 1x1, no global colour table
	data = append(data, 0x21, 0xFE, 5, 'h', 'e', 'l', 'l', 'o', 0)
	data = append(data, 0x3B)

	c, err := Parse("a.gif", data)
	if err != nil {
		t.Fatal(err)
	}
	got := fieldMap(c.Text)
	if got["GIF_Version"] != "GIF89a" || got["Comment_1"] != "hello" {
		t.Errorf("Text = %v", got)
	}
}

func TestParseUnknown(t *testing.T) {
	c, err := Parse("notes.bin", []byte("plain text content"))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
	if c == nil || c.Format != core.FmtUnknown {
		t.Errorf("container = %+v", c)
	}
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	if c, err := Read(filepath.Join(dir, "missing.jpg")); c != nil || err == nil {
		t.Errorf("Read(missing) = %v, %v", c, err)
	}

	path := filepath.Join(dir, "photo.JPG")
	if err := os.WriteFile(path, testimg.JPEG(4, 4, testimg.App1Exif(exifBlock())), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != path || len(c.Exif) == 0 {
		t.Errorf("Read = %+v", c)
	}
}
