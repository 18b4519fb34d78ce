package extract

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ankit-chaubey/exif-report/core"
	"github.com/ankit-chaubey/exif-report/core/image"
)

type fakeExtractor struct {
	name    string
	entries []core.Entry
	err     error
	panics  bool
	closed  bool
	calls   int
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) Extract(context.Context, *image.Container) ([]core.Entry, error) {
	f.calls++
	if f.panics {
		panic("decoder exploded")
	}
	return f.entries, f.err
}

type closingExtractor struct {
	fakeExtractor
	closeErr error
}

func (c *closingExtractor) Close() error {
	c.closed = true
	return c.closeErr
}

func TestRegistryRunPrecedenceAndFailures(t *testing.T) {
	first := &fakeExtractor{name: "first", entries: []core.Entry{
		core.NewEntry(core.CatExif, "Make", "canon", "first"),
		core.NewEntry(core.CatExif, "Model", "EOS R5", "first"),
	}}
	unavailable := &fakeExtractor{name: "missing", err: ErrUnavailable}
	failing := &fakeExtractor{name: "failing", err: errors.New("corrupt")}
	panicking := &fakeExtractor{name: "panicking", panics: true}
	partial := &fakeExtractor{name: "partial", err: errors.New("half read"), entries: []core.Entry{
		core.NewEntry(core.CatGPS, "GPSVersionID", "[2, 2, 0, 0]", "partial"),
	}}
	last := &fakeExtractor{name: "last", entries: []core.Entry{
		core.NewEntry(core.CatExif, "Make", "Canon", "last"),
		core.NewEntry(core.CatExif, "Model", "", "last"),
	}}

	r := NewRegistry(first, unavailable, failing, panicking, partial, last)
	res := core.NewResult()
	used := r.Run(context.Background(), &image.Container{Path: "x.jpg"}, res)

	if want := []string{"first", "partial", "last"}; !reflect.DeepEqual(used, want) {
		t.Errorf("used = %v, want %v", used, want)
	}
	if e, _ := res.Get(core.CatExif, "Exif_Make"); e.Value != "Canon" {
		t.Errorf("Exif_Make = %q, want later method to win", e.Value)
	}
	if e, _ := res.Get(core.CatExif, "Exif_Model"); e.Value != "EOS R5" {
		t.Errorf("Exif_Model = %q, want empty value ignored", e.Value)
	}
	if _, ok := res.Get(core.CatGPS, "GPS_GPSVersionID"); !ok {
		t.Error("entries from a partially failing method were dropped")
	}
	for _, f := range []*fakeExtractor{first, unavailable, failing, panicking, partial, last} {
		if f.calls != 1 {
			t.Errorf("%s called %d times", f.name, f.calls)
		}
	}
}

func TestRegistryRunCancelled(t *testing.T) {
	f := &fakeExtractor{name: "f"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewRegistry(f).Run(ctx, &image.Container{}, core.NewResult())
	if f.calls != 0 {
		t.Error("extractor ran after cancellation")
	}
}

func TestRegistryClose(t *testing.T) {
	a := &closingExtractor{fakeExtractor: fakeExtractor{name: "a"}}
	b := &closingExtractor{fakeExtractor: fakeExtractor{name: "b"}, closeErr: errors.New("stuck")}
	r := NewRegistry(a, &fakeExtractor{name: "plain"}, b)

	err := r.Close()
	if !a.closed || !b.closed {
		t.Error("not every closer was closed")
	}
	if err == nil || err.Error() != "b: stuck" {
		t.Errorf("Close = %v", err)
	}
}

func TestDefault(t *testing.T) {
	r := Default(Options{})
	if want := []string{"image", "exif", "imagemeta", "exiftool"}; !reflect.DeepEqual(r.Names(), want) {
		t.Errorf("Names = %v, want %v", r.Names(), want)
	}

	r = Default(Options{Disabled: func(n string) bool { return n == "imagemeta" || n == "exiftool" }})
	if want := []string{"image", "exif"}; !reflect.DeepEqual(r.Names(), want) {
		t.Errorf("Names = %v, want %v", r.Names(), want)
	}
}
