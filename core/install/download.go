package install

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

// DefaultURLs are tried in order until one download succeeds.
var DefaultURLs = []string{
	"https://exiftool.org/exiftool-13.27_64.zip",
	"https://exiftool.org/exiftool-13.27.zip",
}

// minArchiveSize rejects error pages saved in place of the archive.
const minArchiveSize = 1000

// Downloader fetches the Windows ExifTool archive and unpacks it.
type Downloader struct {
	Client *http.Client
	URLs   []string
	Runner Runner
}

// NewDownloader returns a Downloader using DefaultURLs.
func NewDownloader() *Downloader {
	return &Downloader{
		Client: &http.Client{Timeout: 5 * time.Minute},
		URLs:   DefaultURLs,
		Runner: ExecRunner{},
	}
}

// WindowsInstallDir is the per-user ExifTool folder, which needs no
// administrator rights.
func WindowsInstallDir() (string, error) {
	for _, env := range []string{"LOCALAPPDATA", "USERPROFILE"} {
		if dir := os.Getenv(env); dir != "" {
			return filepath.Join(dir, "ExifTool"), nil
		}
	}
	return "", errors.New("neither LOCALAPPDATA nor USERPROFILE is set")
}

// Install downloads the archive, unpacks it into dir and checks that the
// installed binary runs. It returns the path of exiftool.exe.
func (d *Downloader) Install(ctx context.Context, dir string) (string, error) {
	tmp, err := os.MkdirTemp("", "exiftool-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmp)
	archive := filepath.Join(tmp, "exiftool.zip")

	var lastErr error
	for _, url := range d.URLs {
		klog.Infof("Downloading ExifTool from: %s", url)
		if lastErr = d.fetch(ctx, url, archive); lastErr == nil {
			break
		}
		klog.Warningf("download %s: %v", url, lastErr)
	}
	if lastErr != nil {
		return "", fmt.Errorf("all download attempts failed: %w", lastErr)
	}

	exe, err := Unpack(archive, dir)
	if err != nil {
		return "", err
	}
	klog.Infof("ExifTool installed to: %s", dir)
	if err := d.Runner.Run(ctx, exe, "-ver"); err != nil {
		return exe, fmt.Errorf("installed ExifTool does not run: %w", err)
	}
	return exe, nil
}

func (d *Downloader) fetch(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n < minArchiveSize {
		return fmt.Errorf("downloaded file is invalid or empty (%d bytes)", n)
	}
	return nil
}

// Unpack extracts the ExifTool archive into dir, dropping the archive's
// top-level folder and renaming "exiftool(-k).exe" to "exiftool.exe".
func Unpack(archive, dir string) (string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	root := filepath.Clean(dir)
	top := commonTopDir(zr.File)
	var exe string
	for _, f := range zr.File {
		name := strings.TrimSuffix(strings.TrimPrefix(slashName(f.Name), top), "/")
		if name == "" {
			continue
		}
		base := filepath.Base(name)
		if !strings.Contains(name, "/") && strings.HasPrefix(strings.ToLower(base), "exiftool") &&
			strings.HasSuffix(strings.ToLower(base), ".exe") {
			name = "exiftool.exe"
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return "", fmt.Errorf("archive entry %q escapes install folder", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return "", err
		}
		if name == "exiftool.exe" {
			exe = target
		}
	}
	if exe == "" {
		return "", errors.New("ExifTool executable not found in the downloaded package")
	}
	return exe, nil
}

func slashName(name string) string {
	return strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
}

// commonTopDir returns "dir/" when every entry lives under the same
// top-level folder, and "" otherwise.
func commonTopDir(files []*zip.File) string {
	top := ""
	for _, f := range files {
		name := slashName(f.Name)
		i := strings.Index(name, "/")
		if i < 0 {
			return ""
		}
		switch {
		case top == "":
			top = name[:i+1]
		case !strings.HasPrefix(name, top):
			return ""
		}
	}
	return top
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
