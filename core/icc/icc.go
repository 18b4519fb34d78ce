// Package icc reads ICC colour profiles far enough to report their header
// fields and, above all, the profile creation date and time.
//
// Not every container exposes a well-formed profile, so Scan falls back to a
// textual search of the profile bytes, and ScanRaw searches a whole file for
// an explicit profile_date_time string.
package icc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/ankit-chaubey/exif-report/core"
)

const (
	headerSize = 128
	sourceName = "icc"
)

// ErrNotICC is returned by Parse when the bytes lack a valid ICC header.
var ErrNotICC = errors.New("not an ICC profile")

// Profile holds the decoded header fields of an ICC profile.
type Profile struct {
	Size        uint32
	CMM         string
	Version     string
	Class       string
	ColorSpace  string
	PCS         string
	Created     time.Time // zero when the header date is unset or invalid
	Description string
}

// Parse decodes the 128-byte header and the description tag.
func Parse(b []byte) (*Profile, error) {
	if len(b) < headerSize+4 || string(b[36:40]) != "acsp" {
		return nil, ErrNotICC
	}
	p := &Profile{
		Size:       binary.BigEndian.Uint32(b[0:4]),
		CMM:        sig(b[4:8]),
		Version:    fmt.Sprintf("%d.%d.%d", b[8], b[9]>>4, b[9]&0x0F),
		Class:      sig(b[12:16]),
		ColorSpace: sig(b[16:20]),
		PCS:        sig(b[20:24]),
		Created:    dateTimeNumber(b[24:36]),
	}
	p.Description = description(b)
	return p, nil
}

// dateTimeNumber decodes an ICC dateTimeNumber (six big-endian uint16).
func dateTimeNumber(b []byte) time.Time {
	v := make([]int, 6)
	for i := range v {
		v[i] = int(binary.BigEndian.Uint16(b[i*2:]))
	}
	year, month, day, hour, minute, sec := v[0], v[1], v[2], v[3], v[4], v[5]
	if year == 0 || month < 1 || month > 12 || day < 1 || day > 31 ||
		hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
}

func sig(b []byte) string {
	return strings.TrimRight(string(bytes.TrimRight(b, "\x00")), " ")
}

// description reads the 'desc' tag: textDescriptionType in v2 profiles,
// multiLocalizedUnicodeType in v4.
func description(b []byte) string {
	count := int(binary.BigEndian.Uint32(b[headerSize : headerSize+4]))
	for i := 0; i < count; i++ {
		entry := headerSize + 4 + i*12
		if entry+12 > len(b) {
			return ""
		}
		if string(b[entry:entry+4]) != "desc" {
			continue
		}
		off := int(binary.BigEndian.Uint32(b[entry+4:]))
		size := int(binary.BigEndian.Uint32(b[entry+8:]))
		if off < 0 || size < 12 || off+size > len(b) {
			return ""
		}
		return decodeText(b[off : off+size])
	}
	return ""
}

func decodeText(tag []byte) string {
	switch string(tag[0:4]) {
	case "desc":
		n := int(binary.BigEndian.Uint32(tag[8:12]))
		if 12+n > len(tag) {
			n = len(tag) - 12
		}
		return strings.TrimRight(string(tag[12:12+n]), "\x00")
	case "mluc":
		if len(tag) < 28 {
			return ""
		}
		// First record: language, country, length, offset.
		n := int(binary.BigEndian.Uint32(tag[20:24]))
		off := int(binary.BigEndian.Uint32(tag[24:28]))
		if off+n > len(tag) {
			return ""
		}
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		s, err := dec.Bytes(tag[off : off+n])
		if err != nil {
			return ""
		}
		return strings.TrimRight(string(s), "\x00")
	case "text":
		return strings.TrimRight(string(tag[8:]), "\x00")
	}
	return ""
}

var (
	dateTimeRe = regexp.MustCompile(`(\d{4}[-/:]\d{2}[-/:]\d{2})[ T](\d{2}:\d{2}:\d{2})`)
	dateRe     = regexp.MustCompile(`\d{4}[-/:]\d{2}[-/:]\d{2}`)
	timeRe     = regexp.MustCompile(`(?:^|[^\d:])(\d{2}:\d{2}:\d{2})(?:[^\d:]|$)`)
	profileRe  = regexp.MustCompile(`(?i)profile_date_time[:\s]+([^\n\x00]+)`)
	rawRe      = regexp.MustCompile(`(?i)profile[_\s]date[_\s]time[\s:=]+([^\x00-\x1F]{8,25})`)
)

// Scan reports the profile's presence, header fields and date/time. Empty
// input yields no entries.
func Scan(b []byte) []core.Entry {
	if len(b) == 0 {
		return nil
	}
	entries := []core.Entry{
		entry("PROFILE_PRESENT", "True"),
		entry("PROFILE_SIZE", fmt.Sprintf("%d", len(b))),
	}

	var date, clock string
	if p, err := Parse(b); err == nil {
		entries = append(entries,
			entry("PROFILE_VERSION", p.Version),
			entry("PROFILE_CMM", p.CMM),
			entry("PROFILE_CLASS", p.Class),
			entry("PROFILE_COLOR_SPACE", p.ColorSpace),
			entry("PROFILE_CONNECTION_SPACE", p.PCS),
			entry("PROFILE_DESCRIPTION", p.Description),
		)
		if !p.Created.IsZero() {
			date = p.Created.Format("2006-01-02")
			clock = p.Created.Format("15:04:05")
		}
	}
	text := printable(b)
	if date == "" {
		date, clock = textDateTime(text)
	}
	if date != "" {
		entries = append(entries, entry("PROFILE_DATE", date))
	}
	if clock != "" {
		entries = append(entries, entry("PROFILE_TIME", clock))
	}
	if m := profileRe.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			entries = append(entries, core.Entry{
				Category: core.CatProfile, Key: "PROFILE_DATE_TIME", Value: v, Source: sourceName,
			})
		}
	}

	// Drop fields the header left blank.
	out := entries[:0]
	for _, e := range entries {
		if e.Value != "" {
			out = append(out, e)
		}
	}
	return out
}

// textDateTime returns the first date and time substrings found in text,
// preferring a combined "date time" match.
func textDateTime(text string) (date, clock string) {
	if m := dateTimeRe.FindStringSubmatch(text); m != nil {
		return m[1], m[2]
	}
	date = dateRe.FindString(text)
	if m := timeRe.FindStringSubmatch(text); m != nil {
		clock = m[1]
	}
	return date, clock
}

// printable keeps ASCII bytes, replacing everything else with NUL so that
// matches cannot span binary data.
func printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 0x20 && c < 0x7F || c == '\n' {
			out[i] = c
		}
	}
	return string(out)
}

// ScanRaw searches a whole file for a textual profile_date_time value.
func ScanRaw(data []byte) []core.Entry {
	m := rawRe.FindSubmatch(data)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(strings.ToValidUTF8(string(m[1]), "�"))
	if v == "" {
		return nil
	}
	return []core.Entry{{Category: core.CatRaw, Key: "RAW_PROFILE_DATE_TIME", Value: v, Source: "raw"}}
}

func entry(name, value string) core.Entry {
	return core.NewEntry(core.CatICC, name, value, sourceName)
}
