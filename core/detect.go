package core

import (
	"bytes"
	"path/filepath"
	"strings"
)

// FormatID enumerates every recognised image container.
type FormatID string

const (
	FmtJPEG FormatID = "jpeg"
	FmtPNG  FormatID = "png"
	FmtGIF  FormatID = "gif"
	FmtWebP FormatID = "webp"
	FmtTIFF FormatID = "tiff"
	FmtBMP  FormatID = "bmp"
	FmtHEIC FormatID = "heic"

	// TIFF-structured camera RAW formats.
	FmtNEF FormatID = "nef"
	FmtCR2 FormatID = "cr2"
	FmtARW FormatID = "arw"
	FmtDNG FormatID = "dng"
	FmtORF FormatID = "orf"
	FmtRW2 FormatID = "rw2"

	// Fujifilm RAW wraps a JPEG preview carrying the EXIF block.
	FmtRAF FormatID = "raf"

	FmtUnknown FormatID = "unknown"
)

// extMap maps lowercase extensions to format IDs.
var extMap = map[string]FormatID{
	".jpg":  FmtJPEG,
	".jpeg": FmtJPEG,
	".jpe":  FmtJPEG,
	".png":  FmtPNG,
	".gif":  FmtGIF,
	".webp": FmtWebP,
	".tiff": FmtTIFF,
	".tif":  FmtTIFF,
	".bmp":  FmtBMP,
	".heic": FmtHEIC,
	".heif": FmtHEIC,

	".nef": FmtNEF,
	".cr2": FmtCR2,
	".arw": FmtARW,
	".dng": FmtDNG,
	".orf": FmtORF,
	".rw2": FmtRW2,
	".raf": FmtRAF,
}

// IsSupported reports whether name has a supported image extension.
// The match is case-insensitive.
func IsSupported(name string) bool {
	_, ok := extMap[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FormatFromExt returns the FormatID implied by the extension of name.
func FormatFromExt(name string) FormatID {
	if id, ok := extMap[strings.ToLower(filepath.Ext(name))]; ok {
		return id
	}
	return FmtUnknown
}

// IsTIFFBased reports whether the format stores its metadata in TIFF IFDs
// at the start of the file.
func IsTIFFBased(id FormatID) bool {
	switch id {
	case FmtTIFF, FmtNEF, FmtCR2, FmtARW, FmtDNG, FmtORF, FmtRW2:
		return true
	}
	return false
}

// DetectBytes identifies a container from its leading bytes, using the
// extension of name to refine TIFF-structured RAW files.
func DetectBytes(b []byte, name string) FormatID {
	id := detectMagic(b)
	ext := FormatFromExt(name)
	switch {
	case id == FmtTIFF && IsTIFFBased(ext):
		return ext
	case id != FmtUnknown:
		return id
	}
	return ext
}

func detectMagic(b []byte) FormatID {
	if len(b) < 4 {
		return FmtUnknown
	}
	switch {
	// JPEG: FF D8 FF
	case b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return FmtJPEG
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case bytes.HasPrefix(b, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return FmtPNG
	// GIF: GIF87a or GIF89a
	case bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a")):
		return FmtGIF
	// WebP: RIFF????WEBP
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return FmtWebP
	// TIFF: 49 49 2A 00 (little-endian) or 4D 4D 00 2A (big-endian)
	case bytes.HasPrefix(b, []byte{0x49, 0x49, 0x2A, 0x00}) ||
		bytes.HasPrefix(b, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return FmtTIFF
	// Olympus ORF (IIRO / IIRS) and Panasonic RW2 (IIU\0)
	case bytes.HasPrefix(b, []byte("IIRO")) || bytes.HasPrefix(b, []byte("IIRS")):
		return FmtORF
	case bytes.HasPrefix(b, []byte{0x49, 0x49, 0x55, 0x00}):
		return FmtRW2
	// BMP: 42 4D
	case b[0] == 0x42 && b[1] == 0x4D:
		return FmtBMP
	// HEIC/HEIF: ftyp box with a HEIF brand
	case len(b) >= 12 && bytes.Equal(b[4:8], []byte("ftyp")):
		return detectHEIFBrand(b)
	// Fujifilm RAF
	case bytes.HasPrefix(b, []byte("FUJIFILMCCD-RAW")):
		return FmtRAF
	}
	return FmtUnknown
}

func detectHEIFBrand(b []byte) FormatID {
	switch string(b[8:12]) {
	case "heic", "heix", "hevc", "hevx", "heim", "heis", "mif1", "msf1", "avif":
		return FmtHEIC
	}
	return FmtUnknown
}
