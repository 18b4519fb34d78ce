package core

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestOrderCategories(t *testing.T) {
	in := []string{CatRaw, "Zeta", CatICC, CatExif, "Alpha", CatFile, CatProfile}
	want := []string{CatFile, CatExif, "Alpha", "Zeta", CatICC, CatProfile, CatRaw}
	if got := OrderCategories(in); !reflect.DeepEqual(got, want) {
		t.Errorf("OrderCategories = %v, want %v", got, want)
	}
}

func TestFormatReport(t *testing.T) {
	r := NewResult()
	r.Set(NewEntry(CatICC, "PROFILE_PRESENT", "True", "icc"))
	r.Set(NewEntry(CatExif, "Make", "Canon", "exif"))
	r.Set(NewEntry(CatFile, "NAME", "photo.JPG", "file"))
	r.Set(NewEntry(CatInfo, "Comment", "line one\nline two", "image"))

	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	got := FormatReport(r, at)

	want := strings.Join([]string{
		banner,
		"EXIF Data Extraction - 2024-03-09 14:05:07",
		banner,
		"",
		"[FILE]",
		separator,
		"FILE_NAME: photo.JPG",
		"",
		"[INFO]",
		separator,
		"INFO_Comment:",
		"    line one",
		"    line two",
		"",
		"[Exif]",
		separator,
		"Exif_Make: Canon",
		"",
		"[ICC]",
		separator,
		"ICC_PROFILE_PRESENT: True",
		"",
		"",
	}, "\n")
	if got != want {
		t.Errorf("FormatReport mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatReportOnlyTimestampVaries(t *testing.T) {
	r := NewResult()
	r.Set(NewEntry(CatExif, "Model", "EOS R5", "exif"))
	a := strings.Split(FormatReport(r, time.Unix(0, 0)), "\n")
	b := strings.Split(FormatReport(r, time.Unix(86400*400, 0)), "\n")
	if len(a) != len(b) {
		t.Fatalf("line counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] && i != 1 {
			t.Errorf("line %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestFormatList(t *testing.T) {
	tests := []struct {
		items []string
		want  string
	}{
		{nil, "[]"},
		{[]string{"1", "2", "3"}, "[1, 2, 3]"},
		{[]string{"1", "2", "3", "4", "5"}, "[1, 2, 3, 4, 5]"},
		{[]string{"1", "2", "3", "4", "5", "6", "7"}, "[1, 2, 3, 4, 5, ... (total items: 7)]"},
	}
	for _, tt := range tests {
		if got := FormatList(tt.items); got != tt.want {
			t.Errorf("FormatList(%v) = %q, want %q", tt.items, got, tt.want)
		}
	}
}

func TestPrinter(t *testing.T) {
	var out, errOut bytes.Buffer
	p := &Printer{Writer: &out, ErrWriter: &errOut}
	p.PrintInfo("Processing %d files", 3)
	p.PrintSuccess("done")
	p.PrintError("boom")

	if got, want := out.String(), "Processing 3 files\n✓ done\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if got, want := errOut.String(), "✗ Error: boom\n"; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}
