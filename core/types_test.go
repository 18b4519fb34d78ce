package core

import (
	"reflect"
	"testing"
)

func TestResultLastNonEmptyWriterWins(t *testing.T) {
	r := NewResult()
	r.Merge(
		NewEntry(CatExif, "Make", "Canon", "image"),
		NewEntry(CatExif, "Model", "EOS R5", "image"),
	)
	r.Merge(
		NewEntry(CatExif, "Make", "Canon Inc.", "exif"),
		NewEntry(CatExif, "Model", "", "exif"),
	)

	e, ok := r.Get(CatExif, "Exif_Make")
	if !ok || e.Value != "Canon Inc." || e.Source != "exif" {
		t.Errorf("Exif_Make = %+v, want Canon Inc. from exif", e)
	}
	e, _ = r.Get(CatExif, "Exif_Model")
	if e.Value != "EOS R5" {
		t.Errorf("empty value overwrote Exif_Model: %+v", e)
	}

	var keys []string
	for _, e := range r.Entries(CatExif) {
		keys = append(keys, e.Key)
	}
	if want := []string{"Exif_Make", "Exif_Model"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("order = %v, want %v", keys, want)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestResultEmptyValueOnNewKeyIsKept(t *testing.T) {
	r := NewResult()
	r.Set(NewEntry(CatXMP, "Label", "", "image"))
	if _, ok := r.Get(CatXMP, "XMP_Label"); !ok {
		t.Fatal("new key with empty value was dropped")
	}
}

func TestResultCategoriesInDiscoveryOrder(t *testing.T) {
	r := NewResult()
	r.Set(NewEntry(CatICC, "PROFILE_PRESENT", "True", "icc"))
	r.Set(NewEntry(CatFile, "NAME", "a.jpg", "file"))
	r.Set(NewEntry(CatICC, "PROFILE_SIZE", "10", "icc"))

	if got, want := r.Categories(), []string{CatICC, CatFile}; !reflect.DeepEqual(got, want) {
		t.Errorf("Categories = %v, want %v", got, want)
	}
}

func TestResultFind(t *testing.T) {
	r := NewResult()
	r.Set(NewEntry(CatFile, "NAME", "a.jpg", "file"))
	r.Set(NewEntry(CatICC, "PROFILE_DATE", "2020-01-02", "icc"))

	e, ok := r.Find(func(e Entry) bool { return e.Category == CatICC })
	if !ok || e.Key != "ICC_PROFILE_DATE" {
		t.Errorf("Find = %+v, %v", e, ok)
	}
	if _, ok := r.Find(func(Entry) bool { return false }); ok {
		t.Error("Find matched nothing but reported ok")
	}
}
