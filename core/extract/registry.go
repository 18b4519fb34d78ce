// Package extract runs independent metadata extraction methods against an
// image container and merges what they find.
//
// Each method is an Extractor. A method that cannot run on this host or for
// this container returns ErrUnavailable and is skipped without complaint;
// any other failure, including a panic inside a third-party decoder, is
// logged and never stops the remaining methods.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"k8s.io/klog/v2"

	"github.com/ankit-chaubey/exif-report/core"
	"github.com/ankit-chaubey/exif-report/core/image"
)

// ErrUnavailable marks a method that cannot run (missing tool, format the
// library does not understand). It is a normal registry state, not a failure.
var ErrUnavailable = errors.New("extraction method unavailable")

// Extractor is one independent technique for reading metadata.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, c *image.Container) ([]core.Entry, error)
}

// Registry holds the extraction methods in precedence order: entries from a
// later method overwrite the same key from an earlier one.
type Registry struct {
	extractors []Extractor
}

// NewRegistry returns a Registry running ex in the given order.
func NewRegistry(ex ...Extractor) *Registry {
	return &Registry{extractors: ex}
}

// Register appends e; it takes precedence over everything registered before.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Names lists the registered methods in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.Name()
	}
	return names
}

// Run invokes every method against c and merges the entries into res.
// It returns the names of the methods that produced entries.
func (r *Registry) Run(ctx context.Context, c *image.Container, res *core.Result) []string {
	var used []string
	for _, e := range r.extractors {
		if ctx.Err() != nil {
			break
		}
		entries, err := safeExtract(ctx, e, c)
		switch {
		case errors.Is(err, ErrUnavailable):
			klog.V(2).Infof("%s: method %s unavailable", c.Path, e.Name())
			continue
		case err != nil:
			klog.V(1).Infof("%s: method %s failed: %v", c.Path, e.Name(), err)
		}
		if len(entries) > 0 {
			used = append(used, e.Name())
		}
		res.Merge(entries...)
	}
	return used
}

// Close releases methods holding external resources.
func (r *Registry) Close() error {
	var errs []error
	for _, e := range r.extractors {
		if cl, ok := e.(io.Closer); ok {
			if err := cl.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func safeExtract(ctx context.Context, e Extractor, c *image.Container) (entries []core.Entry, err error) {
	defer func() {
		if p := recover(); p != nil {
			klog.V(3).Infof("panic in %s: %v\n%s", e.Name(), p, debug.Stack())
			entries, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	return e.Extract(ctx, c)
}

// Options selects and configures the default methods.
type Options struct {
	ExifToolPath string
	Disabled     func(name string) bool
}

// Default builds the standard registry: image, exif, imagemeta, exiftool.
func Default(opts Options) *Registry {
	all := []Extractor{
		NewImageLib(),
		NewGoExif(),
		NewImageMeta(),
		NewExifTool(opts.ExifToolPath),
	}
	r := NewRegistry()
	for _, e := range all {
		if opts.Disabled != nil && opts.Disabled(e.Name()) {
			klog.Infof("extraction method %s disabled", e.Name())
			continue
		}
		r.Register(e)
	}
	return r
}
