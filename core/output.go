package core

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	banner    = "================================================================================"
	separator = "--------------------------------------------------------------------------------"

	// TimestampLayout formats every timestamp written into a report.
	TimestampLayout = "2006-01-02 15:04:05"

	// maxListItems is how many list items are shown before abbreviating.
	maxListItems = 5
)

// leadCategories are printed first, trailCategories last; anything else sits
// between them in alphabetical order.
var (
	leadCategories = []string{
		CatFile, CatImage, CatInfo, CatExif, CatGPS, CatMakerNote,
		CatThumbnail, CatXMP, CatIPTC, CatImageMeta, CatExifTool,
	}
	trailCategories = []string{CatICC, CatProfile, CatRaw}
)

// OrderCategories sorts categories into report order.
func OrderCategories(cats []string) []string {
	present := make(map[string]bool, len(cats))
	for _, c := range cats {
		present[c] = true
	}
	known := make(map[string]bool)
	out := make([]string, 0, len(cats))
	for _, c := range leadCategories {
		known[c] = true
		if present[c] {
			out = append(out, c)
		}
	}
	for _, c := range trailCategories {
		known[c] = true
	}
	var middle []string
	for _, c := range cats {
		if !known[c] {
			middle = append(middle, c)
		}
	}
	sort.Strings(middle)
	out = append(out, middle...)
	for _, c := range trailCategories {
		if present[c] {
			out = append(out, c)
		}
	}
	return out
}

// FormatReport renders res as the grouped text report. The only line that
// depends on anything but res is the generation timestamp.
func FormatReport(res *Result, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, "EXIF Data Extraction - %s\n", generatedAt.Format(TimestampLayout))
	b.WriteString(banner + "\n\n")

	for _, cat := range OrderCategories(res.Categories()) {
		fmt.Fprintf(&b, "[%s]\n", cat)
		b.WriteString(separator + "\n")
		for _, e := range res.Entries(cat) {
			if strings.Contains(e.Value, "\n") {
				fmt.Fprintf(&b, "%s:\n", e.Key)
				for _, line := range strings.Split(e.Value, "\n") {
					b.WriteString("    " + line + "\n")
				}
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", e.Key, e.Value)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatList renders a list value, abbreviating after five items.
func FormatList(items []string) string {
	if len(items) > maxListItems {
		return fmt.Sprintf("[%s, ... (total items: %d)]", strings.Join(items[:maxListItems], ", "), len(items))
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// Printer handles all console output for the CLI.
type Printer struct {
	Writer    io.Writer
	ErrWriter io.Writer
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter() *Printer {
	return &Printer{Writer: os.Stdout, ErrWriter: os.Stderr}
}

// PrintInfo prints an info line.
func (p *Printer) PrintInfo(format string, args ...any) {
	fmt.Fprintf(p.Writer, format+"\n", args...)
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.Writer, "✓ "+msg)
}

// PrintError prints an error to ErrWriter, or stderr when unset.
func (p *Printer) PrintError(msg string) {
	w := p.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintln(w, "✗ Error: "+msg)
}
