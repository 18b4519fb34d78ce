package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultWorkers keeps processing sequential unless asked otherwise.
	DefaultWorkers = 1
	// DefaultMaxRawScan bounds the raw profile_date_time byte scan.
	DefaultMaxRawScan = 64 << 20
)

// ErrNotDirectory is returned when the input folder is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Config carries everything a run needs. It replaces process-wide flags:
// the CLI fills one in and hands it to the walker and installer.
type Config struct {
	// Folder is the directory holding the images.
	Folder string
	// OutputDir receives the reports. Empty means alongside the images.
	OutputDir string
	// Recursive descends into sub-folders, mirroring them under OutputDir.
	Recursive bool
	// Workers is the number of files processed at once.
	Workers int

	// ExifToolPath overrides ExifTool discovery.
	ExifToolPath string
	// Disabled lists extraction method names to skip.
	Disabled []string

	InstallDeps     bool
	InstallExifTool bool

	// MaxRawScan caps how many bytes of each file are scanned for a raw
	// profile_date_time string. Zero disables the scan.
	MaxRawScan int64
}

// DefaultConfig returns a Config with defaults applied and ExifToolPath taken
// from EXIFTOOL_PATH.
func DefaultConfig() Config {
	return Config{
		Workers:      DefaultWorkers,
		ExifToolPath: os.Getenv("EXIFTOOL_PATH"),
		MaxRawScan:   DefaultMaxRawScan,
	}
}

// Validate normalises paths and checks that Folder is an accessible
// directory.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Folder) == "" {
		return errors.New("folder path is required")
	}
	c.Folder = filepath.Clean(c.Folder)
	fi, err := os.Stat(c.Folder)
	if err != nil {
		return fmt.Errorf("folder %q: %w", c.Folder, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("folder %q: %w", c.Folder, ErrNotDirectory)
	}
	if c.OutputDir != "" {
		c.OutputDir = filepath.Clean(c.OutputDir)
	}
	if c.Workers < 1 {
		c.Workers = DefaultWorkers
	}
	if c.MaxRawScan < 0 {
		c.MaxRawScan = 0
	}
	return nil
}

// OutputRoot is the directory reports are written under.
func (c *Config) OutputRoot() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return c.Folder
}

// IsDisabled reports whether the named extraction method was switched off.
func (c *Config) IsDisabled(method string) bool {
	for _, d := range c.Disabled {
		if strings.EqualFold(strings.TrimSpace(d), method) {
			return true
		}
	}
	return false
}
