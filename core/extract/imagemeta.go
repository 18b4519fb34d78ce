package extract

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/evanoberholster/imagemeta"

	"github.com/ankit-chaubey/exif-report/core"
	"github.com/ankit-chaubey/exif-report/core/image"
)

// ImageMeta reads tags with imagemeta, an independent EXIF reader that also
// understands HEIC and most camera RAW layouts.
type ImageMeta struct{}

// NewImageMeta returns the raw-tag reader method.
func NewImageMeta() *ImageMeta { return &ImageMeta{} }

func (*ImageMeta) Name() string { return "imagemeta" }

func (m *ImageMeta) Extract(_ context.Context, c *image.Container) ([]core.Entry, error) {
	switch c.Format {
	case core.FmtGIF, core.FmtBMP, core.FmtWebP, core.FmtUnknown:
		return nil, ErrUnavailable
	}
	// imagemeta re-reads the whole file; only trust it with containers whose
	// EXIF block survived the IFD checks in image.Parse.
	if len(c.Exif) == 0 {
		return nil, ErrUnavailable
	}

	e, err := imagemeta.Decode(bytes.NewReader(c.Data))
	if err != nil {
		return nil, fmt.Errorf("imagemeta decode: %w", err)
	}

	var entries []core.Entry
	add := func(name, value string) {
		if value == "" || value == "0" {
			return
		}
		entries = append(entries, core.NewEntry(core.CatImageMeta, name, value, m.Name()))
	}
	add("Make", e.Make)
	add("Model", e.Model)
	add("LensModel", e.LensModel)
	add("Software", e.Software)
	add("Artist", e.Artist)
	add("Copyright", e.Copyright)
	add("ImageWidth", fmt.Sprintf("%v", e.ImageWidth))
	add("ImageHeight", fmt.Sprintf("%v", e.ImageHeight))
	add("Orientation", fmt.Sprintf("%v", e.Orientation))
	add("DateTimeOriginal", formatTime(e.DateTimeOriginal()))
	add("CreateDate", formatTime(e.CreateDate()))
	return entries, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(core.TimestampLayout)
}
