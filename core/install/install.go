// Package install puts the optional external ExifTool utility on the host.
//
// Everything here modifies the host environment. Failures are returned to
// the caller, which reports them and carries on with whatever extraction
// methods are already available.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"k8s.io/klog/v2"
)

// ErrUnsupportedOS is returned when no install route exists for the host.
var ErrUnsupportedOS = errors.New("automatic ExifTool installation is not available on this platform")

// Runner executes an external command. It exists so tests can observe the
// commands without running a package manager.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = r.Stdout, r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

func (ExecRunner) LookPath(name string) (string, error) { return exec.LookPath(name) }

// packageManager is one way of installing ExifTool from a system repository.
type packageManager struct {
	bin  string
	args []string
	sudo bool
}

var linuxManagers = []packageManager{
	{bin: "apt-get", args: []string{"install", "-y", "libimage-exiftool-perl"}, sudo: true},
	{bin: "dnf", args: []string{"install", "-y", "perl-Image-ExifTool"}, sudo: true},
	{bin: "yum", args: []string{"install", "-y", "perl-Image-ExifTool"}, sudo: true},
	{bin: "pacman", args: []string{"-S", "--noconfirm", "perl-image-exiftool"}, sudo: true},
	{bin: "zypper", args: []string{"install", "-y", "exiftool"}, sudo: true},
	{bin: "apk", args: []string{"add", "exiftool"}, sudo: true},
}

var freebsdManagers = []packageManager{
	{bin: "pkg", args: []string{"install", "-y", "p5-Image-ExifTool"}, sudo: true},
}

var darwinManagers = []packageManager{
	{bin: "brew", args: []string{"install", "exiftool"}},
	{bin: "port", args: []string{"install", "p5-image-exiftool"}, sudo: true},
}

// Installer installs ExifTool for the host OS.
type Installer struct {
	GOOS   string
	Runner Runner
	// Download is used on Windows.
	Download *Downloader
}

// New returns an Installer for the running OS.
func New() *Installer {
	return &Installer{
		GOOS:     runtime.GOOS,
		Runner:   ExecRunner{},
		Download: NewDownloader(),
	}
}

// InstallDeps installs ExifTool through the host package manager. On
// Windows, which has none, it falls back to the direct download.
func (in *Installer) InstallDeps(ctx context.Context) (string, error) {
	var managers []packageManager
	switch in.GOOS {
	case "windows":
		return in.InstallExifTool(ctx)
	case "darwin":
		managers = darwinManagers
	case "linux":
		managers = linuxManagers
	case "freebsd":
		managers = freebsdManagers
	default:
		return "", fmt.Errorf("%w (%s)", ErrUnsupportedOS, in.GOOS)
	}

	for _, pm := range managers {
		if _, err := in.Runner.LookPath(pm.bin); err != nil {
			continue
		}
		name, args := pm.bin, pm.args
		if pm.sudo && os.Geteuid() != 0 {
			if _, err := in.Runner.LookPath("sudo"); err == nil {
				name, args = "sudo", append([]string{pm.bin}, pm.args...)
			}
		}
		klog.Infof("installing ExifTool: %s %s", name, strings.Join(args, " "))
		if err := in.Runner.Run(ctx, name, args...); err != nil {
			return "", fmt.Errorf("%s: %w", pm.bin, err)
		}
		path, err := in.Runner.LookPath("exiftool")
		if err != nil {
			return "", fmt.Errorf("exiftool not on PATH after install: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no supported package manager found; %s", Hint(in.GOOS))
}

// InstallExifTool downloads ExifTool directly. Only Windows is supported;
// elsewhere the error carries the package manager command to use instead.
func (in *Installer) InstallExifTool(ctx context.Context) (string, error) {
	if in.GOOS != "windows" {
		return "", fmt.Errorf("%w; %s", ErrUnsupportedOS, Hint(in.GOOS))
	}
	dir, err := WindowsInstallDir()
	if err != nil {
		return "", err
	}
	return in.Download.Install(ctx, dir)
}

// Hint returns a human-readable install instruction for goos.
func Hint(goos string) string {
	switch goos {
	case "darwin":
		return "install it with 'brew install exiftool'"
	case "linux":
		return "install it with 'apt-get install libimage-exiftool-perl' or equivalent"
	case "windows":
		return "download it from https://exiftool.org/"
	}
	return "see https://exiftool.org/install.html"
}
