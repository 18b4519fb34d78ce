// Package walk iterates an image folder, runs the extraction pipeline on
// every supported file and writes one text report per image.
package walk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/ankit-chaubey/exif-report/core"
	"github.com/ankit-chaubey/exif-report/core/extract"
	"github.com/ankit-chaubey/exif-report/core/icc"
	"github.com/ankit-chaubey/exif-report/core/image"
)

// ReportExt is appended to the image file name to form the report name.
const ReportExt = ".txt"

// Summary counts what a run did.
type Summary struct {
	Total     int // directory entries seen
	Processed int // reports written
	Failed    int // supported files without a report
	Skipped   int // entries that are not supported images
}

// Walker processes one folder according to a Config.
type Walker struct {
	cfg core.Config
	reg *extract.Registry

	// Now stamps the report header.
	Now func() time.Time
}

// New returns a Walker. cfg should already be validated.
func New(cfg core.Config, reg *extract.Registry) *Walker {
	return &Walker{cfg: cfg, reg: reg, Now: time.Now}
}

type job struct {
	path string // image path
	rel  string // path relative to the input folder
}

// Run processes every supported image in the folder. Per-file failures are
// logged and counted; only an unusable folder is returned as an error.
func (w *Walker) Run(ctx context.Context) (Summary, error) {
	if err := w.cfg.Validate(); err != nil {
		return Summary{}, err
	}
	jobs, sum, err := w.list()
	if err != nil {
		return sum, err
	}

	var processed, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(w.cfg.Workers)
	for _, j := range jobs {
		j := j
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := w.handle(ctx, j); err != nil {
				klog.Errorf("Error processing %s: %v", j.rel, err)
				failed.Add(1)
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	sum.Processed = int(processed.Load())
	sum.Failed = int(failed.Load())
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

// list collects the supported images in name order.
func (w *Walker) list() ([]job, Summary, error) {
	var (
		jobs []job
		sum  Summary
	)
	root := w.cfg.Folder
	outRoot := filepath.Clean(w.cfg.OutputRoot())

	visit := func(path string, d fs.DirEntry) error {
		sum.Total++
		if !core.IsSupported(d.Name()) || !isRegularFile(path, d) {
			sum.Skipped++
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		jobs = append(jobs, job{path: path, rel: rel})
		return nil
	}

	if !w.cfg.Recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, sum, fmt.Errorf("read folder %q: %w", root, err)
		}
		for _, d := range entries {
			if err := visit(filepath.Join(root, d.Name()), d); err != nil {
				return nil, sum, err
			}
		}
		return jobs, sum, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			klog.Warningf("skipping %s: %v", path, walkErr)
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() && outRoot != root && filepath.Clean(path) == outRoot {
			return filepath.SkipDir
		}
		if d.IsDir() {
			return nil
		}
		return visit(path, d)
	})
	if err != nil {
		return nil, sum, fmt.Errorf("walk folder %q: %w", root, err)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].rel < jobs[j].rel })
	return jobs, sum, nil
}

// ReportPath is where the report for the image at rel is written.
func (w *Walker) ReportPath(rel string) string {
	return filepath.Join(w.cfg.OutputRoot(), rel+ReportExt)
}

func (w *Walker) handle(ctx context.Context, j job) error {
	klog.Infof("Processing: %s", j.rel)
	res, err := w.ProcessFile(ctx, j.path)
	if err != nil {
		return err
	}
	logProfileDate(j.rel, res)

	out := w.ReportPath(j.rel)
	report := core.FormatReport(res, w.Now())
	if err := writeFileAtomic(out, []byte(report)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	klog.Infof("  EXIF data saved to: %s (%d tags)", out, res.Len())
	return nil
}

// ProcessFile builds the merged Result for one image. The FILE entries come
// straight from the filesystem, so a file whose contents cannot be read or
// understood still yields a FILE-only Result; an error is returned only when
// the file cannot be stat'ed at all.
func (w *Walker) ProcessFile(ctx context.Context, path string) (*core.Result, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	res := core.NewResult()
	res.Merge(fileEntries(path, fi)...)

	c, err := image.Read(path)
	if c == nil {
		klog.Warningf("%s: cannot read contents: %v", path, err)
		return res, nil
	}
	if err != nil {
		klog.Warningf("%s: %v", path, err)
	}
	res.Set(core.NewEntry(core.CatFile, "FORMAT", strings.ToUpper(string(c.Format)), "file"))

	w.reg.Run(ctx, c, res)
	res.Merge(icc.Scan(c.ICC)...)

	if limit := w.cfg.MaxRawScan; limit > 0 {
		data := c.Data
		if int64(len(data)) > limit {
			data = data[:limit]
		}
		res.Merge(icc.ScanRaw(data)...)
	}
	return res, nil
}

// isRegularFile reports whether d, following a symlink, is a regular file.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink != 0 {
		fi, err := os.Stat(path)
		return err == nil && fi.Mode().IsRegular()
	}
	return d.Type().IsRegular()
}

func fileEntries(path string, fi os.FileInfo) []core.Entry {
	e := func(name, value string) core.Entry {
		return core.NewEntry(core.CatFile, name, value, "file")
	}
	return []core.Entry{
		e("NAME", filepath.Base(path)),
		e("SIZE", fmt.Sprintf("%d", fi.Size())),
		e("CREATED", creationTime(fi).Format(core.TimestampLayout)),
		e("MODIFIED", fi.ModTime().Format(core.TimestampLayout)),
	}
}

func logProfileDate(name string, res *core.Result) {
	e, ok := res.Find(func(e core.Entry) bool {
		k := strings.ToLower(e.Key)
		return strings.Contains(k, "profile") && (strings.Contains(k, "date") || strings.Contains(k, "time"))
	})
	if ok {
		klog.Infof("  Found profile date/time: %s = %s", e.Key, e.Value)
		return
	}
	klog.Infof("  Note: No profile_date_time found in %s", name)
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
