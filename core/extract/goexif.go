package extract

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/exif-report/core"
	"github.com/ankit-chaubey/exif-report/core/image"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// GoExif decodes the container's EXIF block with goexif, including the Canon
// and Nikon maker notes.
type GoExif struct{}

// NewGoExif returns the EXIF-tag library method.
func NewGoExif() *GoExif { return &GoExif{} }

func (*GoExif) Name() string { return "exif" }

func (m *GoExif) Extract(_ context.Context, c *image.Container) ([]core.Entry, error) {
	if len(c.Exif) == 0 {
		return nil, nil
	}
	x, err := exif.Decode(bytes.NewReader(c.Exif))
	if x == nil {
		return nil, fmt.Errorf("no EXIF metadata found: %w", err)
	}
	// Tag-level errors leave a usable Exif; only structural ones are fatal.
	if err != nil && exif.IsCriticalError(err) {
		return nil, fmt.Errorf("decode exif: %w", err)
	}

	w := &exifWalker{source: m.Name()}
	if err := x.Walk(w); err != nil {
		return w.entries, fmt.Errorf("walk exif: %w", err)
	}
	// Walk visits a map; sort so reports are stable between runs.
	sort.SliceStable(w.entries, func(i, j int) bool { return w.entries[i].Key < w.entries[j].Key })

	if lat, long, err := x.LatLong(); err == nil {
		w.add(core.CatGPS, "LATITUDE", fmt.Sprintf("%.6f", lat))
		w.add(core.CatGPS, "LONGITUDE", fmt.Sprintf("%.6f", long))
	}
	if thumb, err := x.JpegThumbnail(); err == nil && len(thumb) > 0 {
		w.add(core.CatThumbnail, "PRESENT", "True")
		w.add(core.CatThumbnail, "SIZE", fmt.Sprintf("%d", len(thumb)))
	}
	return w.entries, nil
}

type exifWalker struct {
	source  string
	entries []core.Entry
}

func (w *exifWalker) add(cat, name, value string) {
	w.entries = append(w.entries, core.NewEntry(cat, name, value, w.source))
}

func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	n := string(name)
	switch {
	case strings.Contains(n, "."):
		w.add(core.CatMakerNote, strings.ReplaceAll(n, ".", "_"), tagValue(tag))
	case strings.HasPrefix(n, "GPS"):
		w.add(core.CatGPS, n, tagValue(tag))
	default:
		w.add(core.CatExif, n, tagValue(tag))
	}
	return nil
}

// tagValue renders a tag as text. ASCII tags lose their quoting, undefined
// byte blobs are shown as text only when printable, and long arrays are
// abbreviated.
func tagValue(tag *tiff.Tag) string {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err == nil {
			return strings.TrimSpace(s)
		}
	case tiff.UndefVal:
		return undefValue(tag.Val)
	}

	val := tag.String()
	// Remove surrounding quotes from string values
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	}
	if tag.Count > 5 && strings.HasPrefix(val, "[") && strings.HasSuffix(val, "]") {
		items := strings.Split(strings.Trim(val, "[]"), ",")
		return core.FormatList(items)
	}
	return val
}

func undefValue(b []byte) string {
	t := bytes.TrimRight(b, "\x00 ")
	// UserComment starts with an 8-byte character code.
	if bytes.HasPrefix(t, []byte("ASCII\x00\x00\x00")) || bytes.HasPrefix(t, []byte("UNICODE\x00")) {
		t = bytes.TrimRight(t[8:], "\x00 ")
	}
	if len(t) == 0 {
		return ""
	}
	for _, r := range string(t) {
		if r == unicode.ReplacementChar || (!unicode.IsPrint(r) && r != '\n') {
			return fmt.Sprintf("<binary data: %d bytes>", len(b))
		}
	}
	return string(t)
}
