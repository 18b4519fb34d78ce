package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/ankit-chaubey/exif-report/core"
	"github.com/ankit-chaubey/exif-report/core/extract"
	"github.com/ankit-chaubey/exif-report/core/install"
	"github.com/ankit-chaubey/exif-report/core/walk"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: exif-report run <folder> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extracts EXIF, XMP, IPTC and ICC metadata from every image in <folder>")
	fmt.Fprintln(w, "and writes one <image>.txt report per image.")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defer klog.Flush()

	p := &core.Printer{Writer: stdout, ErrWriter: stderr}
	if len(args) == 0 || args[0] != "run" {
		usage(stderr)
		return exitUsage
	}
	cfg, err := parseArgs(args[1:], stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		p.PrintError(err.Error())
		usage(stderr)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		p.PrintError(err.Error())
		return exitFail
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.InstallDeps || cfg.InstallExifTool {
		installTools(ctx, &cfg, install.New(), p)
	}

	if path, version, err := extract.LocateExifTool(ctx, cfg.ExifToolPath); err != nil {
		klog.Warningf("ExifTool not found; %s. Continuing with the built-in methods.", install.Hint(runtime.GOOS))
		cfg.ExifToolPath = ""
	} else {
		klog.Infof("ExifTool %s found at %s", version, path)
		cfg.ExifToolPath = path
	}

	reg := extract.Default(extract.Options{
		ExifToolPath: cfg.ExifToolPath,
		Disabled:     cfg.IsDisabled,
	})
	defer func() {
		if err := reg.Close(); err != nil {
			klog.Errorf("Failed to close extractors: %v", err)
		}
	}()

	p.PrintInfo("Processing images in: %s", cfg.Folder)
	p.PrintInfo("Extraction methods: %s", strings.Join(reg.Names(), ", "))

	sum, err := walk.New(cfg, reg).Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		p.PrintInfo("Interrupted.")
	case err != nil:
		p.PrintError(err.Error())
		return exitFail
	}

	p.PrintInfo("")
	p.PrintInfo("Files seen:      %d", sum.Total)
	p.PrintInfo("Reports written: %d", sum.Processed)
	p.PrintInfo("Failed:          %d", sum.Failed)
	p.PrintInfo("Skipped:         %d", sum.Skipped)
	p.PrintSuccess("EXIF extraction complete")
	return exitOK
}

// parseArgs reads the run flags. Flags may come before or after the folder.
func parseArgs(args []string, stderr io.Writer) (core.Config, error) {
	cfg := core.DefaultConfig()

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		usage(stderr)
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	klog.InitFlags(fs)

	var disable string
	fs.BoolVar(&cfg.InstallDeps, "install-deps", false, "install ExifTool through the system package manager")
	fs.BoolVar(&cfg.InstallExifTool, "install-exiftool", false, "download and install ExifTool (Windows)")
	fs.StringVar(&cfg.OutputDir, "out", "", "write reports to this folder instead of next to the images")
	fs.BoolVar(&cfg.Recursive, "recursive", false, "descend into sub-folders")
	fs.IntVar(&cfg.Workers, "workers", core.DefaultWorkers, "number of images processed at once")
	fs.StringVar(&cfg.ExifToolPath, "exiftool", cfg.ExifToolPath, "path to the exiftool binary (default $EXIFTOOL_PATH)")
	fs.StringVar(&disable, "disable", "", "comma-separated extraction methods to skip (image, exif, imagemeta, exiftool)")
	fs.Int64Var(&cfg.MaxRawScan, "max-raw-scan", core.DefaultMaxRawScan, "bytes of each file scanned for a raw profile date; 0 disables")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return cfg, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	switch len(positional) {
	case 0:
		return cfg, errors.New("folder path is required")
	case 1:
		cfg.Folder = positional[0]
	default:
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(positional[1:], " "))
	}
	if cfg.Workers < 1 {
		return cfg, fmt.Errorf("--workers must be at least 1, got %d", cfg.Workers)
	}
	for _, m := range strings.Split(disable, ",") {
		if m = strings.TrimSpace(m); m != "" {
			cfg.Disabled = append(cfg.Disabled, m)
		}
	}
	return cfg, nil
}

// installTools runs the requested installers. Failures are reported and the
// run continues with whatever methods are available.
func installTools(ctx context.Context, cfg *core.Config, in *install.Installer, p *core.Printer) {
	type step struct {
		name    string
		enabled bool
		fn      func(context.Context) (string, error)
	}
	for _, s := range []step{
		{"dependencies", cfg.InstallDeps, in.InstallDeps},
		{"ExifTool", cfg.InstallExifTool, in.InstallExifTool},
	} {
		if !s.enabled {
			continue
		}
		p.PrintInfo("Installing %s...", s.name)
		path, err := s.fn(ctx)
		if err != nil {
			klog.Errorf("Installing %s failed: %v", s.name, err)
			continue
		}
		p.PrintSuccess(fmt.Sprintf("Installed %s (%s)", s.name, path))
		cfg.ExifToolPath = path
	}
}
