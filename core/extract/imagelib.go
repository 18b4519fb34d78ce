package extract

import (
	"bytes"
	"context"
	"fmt"
	stdimage "image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ankit-chaubey/exif-report/core"
	"github.com/ankit-chaubey/exif-report/core/image"
)

// ImageLib reads what the image decoders and the container itself expose:
// format, colour mode and dimensions, plus text chunks, XMP and IPTC.
type ImageLib struct{}

// NewImageLib returns the image-library method.
func NewImageLib() *ImageLib { return &ImageLib{} }

func (*ImageLib) Name() string { return "image" }

func (m *ImageLib) Extract(_ context.Context, c *image.Container) ([]core.Entry, error) {
	var entries []core.Entry
	add := func(cat, name, value string) {
		entries = append(entries, core.NewEntry(cat, name, value, m.Name()))
	}

	cfg, format, decodeErr := stdimage.DecodeConfig(bytes.NewReader(c.Data))
	if decodeErr == nil {
		add(core.CatImage, "FORMAT", strings.ToUpper(format))
		add(core.CatImage, "MODE", colorMode(cfg.ColorModel))
		add(core.CatImage, "WIDTH", fmt.Sprintf("%d", cfg.Width))
		add(core.CatImage, "HEIGHT", fmt.Sprintf("%d", cfg.Height))
		add(core.CatImage, "SIZE", fmt.Sprintf("(%d, %d)", cfg.Width, cfg.Height))
	}

	for _, f := range c.Text {
		add(core.CatInfo, keyName(f.Key), f.Value)
	}
	if len(c.XMP) > 0 {
		for _, f := range image.ParseXMP(c.XMP) {
			add(core.CatXMP, keyName(f.Key), f.Value)
		}
	}
	if len(c.IPTC) > 0 {
		for _, f := range image.ParseIPTC(c.IPTC) {
			add(core.CatIPTC, keyName(f.Key), f.Value)
		}
	}

	if len(entries) == 0 && decodeErr != nil {
		return nil, fmt.Errorf("decode config: %w", decodeErr)
	}
	return entries, nil
}

// colorMode names a colour model the way image tools usually report it.
func colorMode(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA;16"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.YCbCrModel:
		return "YCbCr"
	case color.NYCbCrAModel:
		return "YCbCrA"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel:
		return "A"
	case color.Alpha16Model:
		return "A;16"
	}
	return "unknown"
}

// keyName makes a tag name safe to use inside a report key.
func keyName(s string) string {
	return strings.NewReplacer(":", "_", " ", "_", "\n", "_").Replace(strings.TrimSpace(s))
}
