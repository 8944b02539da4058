package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for a config file when none is given
// on the command line. A missing file at this location is not an error.
const DefaultPath = "/etc/drydock/config.yaml"

const (
	defaultBlockSize = "512K"
	defaultLockPath  = "./drydock.pid"
	defaultLogPath   = "./drydock-log.json"
)

// Defaults holds site-wide settings loaded from a YAML file. Every
// field is optional; command-line flags override anything set here.
type Defaults struct {
	BlockSize     string `yaml:"block_size,omitempty"`
	Compression   string `yaml:"compression,omitempty"`
	IdentityFile  string `yaml:"identity_file,omitempty"`
	LockPath      string `yaml:"lock_path,omitempty"`
	LogPath       string `yaml:"log_path,omitempty"`
	ErrorDir      string `yaml:"error_dir,omitempty"`
	LibvirtSocket string `yaml:"libvirt_socket,omitempty"`
	OutputLevel   *int   `yaml:"output_level,omitempty"`
}

// Global carries the settings shared by every command after defaults
// and flags have been merged.
type Global struct {
	OutputLevel   int
	Headless      bool
	BlockSize     string
	Compression   string
	IdentityFile  string
	LockPath      string
	LogPath       string
	ErrorDir      string
	LibvirtSocket string
}

// Load reads a Defaults file from path. When path is DefaultPath and
// the file does not exist, empty defaults are returned; an explicitly
// named file must exist.
func Load(path string) (Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			return Defaults{}, nil
		}
		return Defaults{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := d.Validate(); err != nil {
		return Defaults{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return d, nil
}

// Validate checks the loaded defaults for errors.
func (d *Defaults) Validate() error {
	if d.Compression != "" {
		if err := ValidateCompression(d.Compression); err != nil {
			return err
		}
	}
	if d.OutputLevel != nil {
		if *d.OutputLevel < 0 || *d.OutputLevel > 4 {
			return fmt.Errorf("output_level must be between 0 and 4, got %d", *d.OutputLevel)
		}
	}
	return nil
}

// ValidateCompression checks that name is a supported compression mode.
func ValidateCompression(name string) error {
	switch strings.ToLower(name) {
	case "none", "gzip", "bzip2":
		return nil
	}
	return fmt.Errorf("compression must be one of none, gzip, bzip2, got %q", name)
}

// Resolve merges file defaults into g, then fills in built-in defaults
// for anything still unset. Flag values already present in g win.
func (g *Global) Resolve(d Defaults) {
	if g.BlockSize == "" {
		g.BlockSize = d.BlockSize
	}
	if g.Compression == "" {
		g.Compression = d.Compression
	}
	if g.IdentityFile == "" {
		g.IdentityFile = d.IdentityFile
	}
	if g.LockPath == "" {
		g.LockPath = d.LockPath
	}
	if g.LogPath == "" {
		g.LogPath = d.LogPath
	}
	if g.ErrorDir == "" {
		g.ErrorDir = d.ErrorDir
	}
	if g.LibvirtSocket == "" {
		g.LibvirtSocket = d.LibvirtSocket
	}
	if g.OutputLevel < 0 && d.OutputLevel != nil {
		g.OutputLevel = *d.OutputLevel
	}

	if g.BlockSize == "" {
		g.BlockSize = defaultBlockSize
	}
	if g.Compression == "" {
		g.Compression = "none"
	}
	if g.LockPath == "" {
		g.LockPath = defaultLockPath
	}
	if g.LogPath == "" {
		g.LogPath = defaultLogPath
	}
	if g.ErrorDir == "" {
		g.ErrorDir = "."
	}
	if g.OutputLevel < 0 {
		g.OutputLevel = 2
	}

	// Headless runs are silent regardless of the requested level.
	if g.Headless {
		g.OutputLevel = 0
	}
}

// Validate checks the merged settings.
func (g *Global) Validate() error {
	if g.OutputLevel < 0 || g.OutputLevel > 4 {
		return fmt.Errorf("output level must be between 0 and 4, got %d", g.OutputLevel)
	}
	if err := ValidateCompression(g.Compression); err != nil {
		return err
	}
	if g.BlockSize == "" {
		return fmt.Errorf("block size cannot be empty")
	}
	return nil
}
