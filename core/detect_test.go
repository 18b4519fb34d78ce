package core

import "testing"

func TestIsSupported(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPG", true},
		{"scan.TIFF", true},
		{"raw.nef", true},
		{"raw.CR2", true},
		{"img.heic", true},
		{"notes.txt", false},
		{"photo.JPG.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsSupported(tt.name); got != tt.want {
			t.Errorf("IsSupported(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectBytes(t *testing.T) {
	tiffLE := []byte{0x49, 0x49, 0x2A, 0x00, 8, 0, 0, 0}
	tests := []struct {
		desc string
		b    []byte
		name string
		want FormatID
	}{
		{"jpeg magic", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "x.bin", FmtJPEG},
		{"png magic", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, "x", FmtPNG},
		{"gif magic", []byte("GIF89a.."), "x", FmtGIF},
		{"webp magic", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "x", FmtWebP},
		{"tiff magic", tiffLE, "scan.tif", FmtTIFF},
		{"tiff magic with raw extension", tiffLE, "shot.NEF", FmtNEF},
		{"tiff magic with jpeg extension", tiffLE, "odd.jpg", FmtTIFF},
		{"orf magic", []byte("IIRO\x08\x00\x00\x00"), "x", FmtORF},
		{"rw2 magic", []byte{0x49, 0x49, 0x55, 0x00, 0x18, 0, 0, 0}, "x", FmtRW2},
		{"bmp magic", []byte("BM\x00\x00\x00\x00"), "x", FmtBMP},
		{"heic brand", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00"), "x", FmtHEIC},
		{"raf magic", []byte("FUJIFILMCCD-RAW 0201"), "x", FmtRAF},
		{"unknown falls back to extension", []byte("garbage!"), "photo.png", FmtPNG},
		{"unknown everything", []byte("garbage!"), "photo.xyz", FmtUnknown},
		{"short input", []byte{0xFF}, "a.gif", FmtGIF},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := DetectBytes(tt.b, tt.name); got != tt.want {
				t.Errorf("DetectBytes = %q, want %q", got, tt.want)
			}
		})
	}
}
