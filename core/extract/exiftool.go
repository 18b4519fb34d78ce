package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"

	"github.com/ankit-chaubey/exif-report/core"
	"github.com/ankit-chaubey/exif-report/core/image"
)

// volatileTags change on every read and would make repeated reports differ.
var volatileTags = map[string]bool{
	"FileAccessDate": true,
}

// ExifTool drives an external exiftool process in stay-open mode. The
// process is started on first use and shared by all files; access is
// serialised.
type ExifTool struct {
	path string

	mu      sync.Mutex
	once    sync.Once
	et      *exiftool.Exiftool
	initErr error
}

// NewExifTool returns the external-tool method. An empty path makes the
// method permanently unavailable.
func NewExifTool(path string) *ExifTool {
	return &ExifTool{path: path}
}

func (*ExifTool) Name() string { return "exiftool" }

func (m *ExifTool) start() error {
	m.once.Do(func() {
		if m.path == "" {
			m.initErr = ErrUnavailable
			return
		}
		et, err := exiftool.NewExiftool(
			exiftool.SetExiftoolBinaryPath(m.path),
			exiftool.PrintGroupNames("1"),
		)
		if err != nil {
			m.initErr = fmt.Errorf("start exiftool: %w: %v", ErrUnavailable, err)
			return
		}
		m.et = et
	})
	return m.initErr
}

func (m *ExifTool) Extract(_ context.Context, c *image.Container) ([]core.Entry, error) {
	if err := m.start(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	infos := m.et.ExtractMetadata(c.Path)
	m.mu.Unlock()

	if len(infos) == 0 {
		return nil, errors.New("exiftool returned no result")
	}
	fm := infos[0]
	if fm.Err != nil {
		return nil, fmt.Errorf("exiftool: %w", fm.Err)
	}
	return exifToolEntries(fm.Fields, m.Name()), nil
}

// exifToolEntries converts exiftool's JSON fields into report entries in
// key order.
func exifToolEntries(fields map[string]interface{}, source string) []core.Entry {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var entries []core.Entry
	for _, k := range keys {
		tag := k
		if i := strings.LastIndex(k, ":"); i >= 0 {
			tag = k[i+1:]
		}
		if volatileTags[tag] {
			continue
		}
		v := fieldValue(fields[k])
		entries = append(entries, core.NewEntry(core.CatExifTool, keyName(k), v, source))

		lower := strings.ToLower(k)
		if strings.Contains(lower, "profile") && (strings.Contains(lower, "date") || strings.Contains(lower, "time")) {
			entries = append(entries, core.Entry{
				Category: core.CatProfile, Key: "PROFILE_DATE_TIME", Value: v, Source: source,
			})
		}
	}
	return entries
}

func fieldValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []interface{}:
		items := make([]string, len(t))
		for i, it := range t {
			items[i] = fieldValue(it)
		}
		return core.FormatList(items)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// Close stops the exiftool process if it was started.
func (m *ExifTool) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.et == nil {
		return nil
	}
	err := m.et.Close()
	m.et = nil
	return err
}

// ExifToolCandidates lists where exiftool is looked for, in order: PATH
// first, then the per-user and system install folders used on Windows.
func ExifToolCandidates() []string {
	candidates := []string{"exiftool"}
	if runtime.GOOS == "windows" {
		for _, env := range []string{"LOCALAPPDATA", "ProgramFiles", "USERPROFILE"} {
			if dir := os.Getenv(env); dir != "" {
				candidates = append(candidates, filepath.Join(dir, "ExifTool", "exiftool.exe"))
			}
		}
	}
	return candidates
}

// LocateExifTool returns the first working exiftool binary and its version.
// A configured path is tried before the standard candidates.
func LocateExifTool(ctx context.Context, configured string) (path, version string, err error) {
	candidates := ExifToolCandidates()
	if configured != "" {
		candidates = append([]string{configured}, candidates...)
	}
	for _, c := range candidates {
		p, err := exec.LookPath(c)
		if err != nil {
			continue
		}
		v, err := ExifToolVersion(ctx, p)
		if err != nil {
			klog.V(1).Infof("exiftool candidate %s: %v", p, err)
			continue
		}
		return p, v, nil
	}
	return "", "", fmt.Errorf("exiftool: %w", ErrUnavailable)
}

// ExifToolVersion runs "exiftool -ver".
func ExifToolVersion(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "-ver").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
