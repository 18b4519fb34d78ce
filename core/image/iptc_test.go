package image

import (
	"reflect"
	"testing"
)

func iptcDataset(id byte, v string) []byte {
	return append([]byte{0x1C, 0x02, id, byte(len(v) >> 8), byte(len(v))}, v...)
}

func TestParseIPTC(t *testing.T) {
	var rec []byte
	rec = append(rec, iptcDataset(0x69, "Headline")...)
	rec = append(rec, iptcDataset(0x19, "one")...)
	rec = append(rec, iptcDataset(0x19, "two")...)
	rec = append(rec, iptcDataset(0x37, "20240309")...)
	rec = append(rec, iptcDataset(0x99, "unmapped")...)
	rec = append(rec, 0x1C, 0x01, 0x5A, 0, 3, 0x1B, 0x25, 0x47) // record 1, ignored

	got := ParseIPTC(wrapIPTC(rec))
	want := []Field{
		{Key: "Headline", Value: "Headline"},
		{Key: "Keywords", Value: "one, two"},
		{Key: "DateCreated", Value: "20240309"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseIPTC = %v, want %v", got, want)
	}
}

func TestParseIPTCSkipsOtherResources(t *testing.T) {
	var data []byte
	// A 0x03ED resolution resource precedes the IPTC one.
	data = append(data, "8BIM"...)
	data = append(data, 0x03, 0xED, 0, 0, 0, 0, 0, 3, 1, 2, 3, 0)
	data = append(data, wrapIPTC(iptcDataset(0x74, "(c) me"))...)

	got := ParseIPTC(data)
	if len(got) != 1 || got[0].Key != "CopyrightNotice" || got[0].Value != "(c) me" {
		t.Errorf("ParseIPTC = %v", got)
	}
}
