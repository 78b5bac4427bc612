// Package config loads the YAML configuration file of the htmlatex CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	htmlatex "github.com/alnah/go-htmlatex"
	"github.com/alnah/go-htmlatex/internal/fileutil"
	"github.com/alnah/go-htmlatex/internal/logging"
)

// Sentinel errors for configuration loading.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// MaxInputSize limits the config file to 1MB.
var MaxInputSize = 1 << 20

// Field length limits.
const (
	MaxPathLength      = 4096
	MaxURLLength       = 2048
	MaxPreambleLength  = 64 * 1024
	MaxBlocklistLength = 256
	MaxFlagLength      = 128
	MaxAddrLength      = 256
	MaxConcurrency     = 64
)

// appDir is the directory under os.UserConfigDir searched for named configs.
const appDir = "go-htmlatex"

// Config is the configuration file layout.
type Config struct {
	Render RenderConfig `yaml:"render"`
	Log    LogConfig    `yaml:"log"`
	Serve  ServeConfig  `yaml:"serve"`
}

// RenderConfig mirrors htmlatex.Config plus the CLI's parallelism knobs.
type RenderConfig struct {
	WorkDir      string   `yaml:"workDir"`
	ImageDir     string   `yaml:"imageDir"`
	ImageURL     string   `yaml:"imageURL"`
	Latex        string   `yaml:"latex"`
	Dvipng       string   `yaml:"dvipng"`
	Flags        []string `yaml:"flags"`
	Preamble     string   `yaml:"preamble"`
	PreambleFile string   `yaml:"preambleFile"`
	Blocklist    []string `yaml:"blocklist"`
	Timeout      string   `yaml:"timeout"` // time.ParseDuration format
	Retain       bool     `yaml:"retain"`
	Concurrency  int      `yaml:"concurrency"`
	Workers      int      `yaml:"workers"`
}

// LogConfig selects the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	Addr string `yaml:"addr"`
	Root string `yaml:"root"`
}

// DefaultConfig returns an empty configuration; the library defaults apply.
func DefaultConfig() *Config {
	return &Config{}
}

// Validate checks field lengths and value ranges.
func (c *Config) Validate() error {
	r := c.Render
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"render.workDir", r.WorkDir, MaxPathLength},
		{"render.imageDir", r.ImageDir, MaxPathLength},
		{"render.imageURL", r.ImageURL, MaxURLLength},
		{"render.latex", r.Latex, MaxPathLength},
		{"render.dvipng", r.Dvipng, MaxPathLength},
		{"render.preamble", r.Preamble, MaxPreambleLength},
		{"render.preambleFile", r.PreambleFile, MaxPathLength},
		{"serve.addr", c.Serve.Addr, MaxAddrLength},
		{"serve.root", c.Serve.Root, MaxPathLength},
	} {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	for i, flag := range r.Flags {
		if err := validateFieldLength(fmt.Sprintf("render.flags[%d]", i), flag, MaxFlagLength); err != nil {
			return err
		}
	}
	for i, entry := range r.Blocklist {
		if err := validateFieldLength(fmt.Sprintf("render.blocklist[%d]", i), entry, MaxBlocklistLength); err != nil {
			return err
		}
	}

	if r.Preamble != "" && r.PreambleFile != "" {
		return fmt.Errorf("%w: render.preamble and render.preambleFile are mutually exclusive", ErrInvalidValue)
	}
	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return fmt.Errorf("%w: render.timeout: %v", ErrInvalidValue, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: render.timeout: must be positive, got %s", ErrInvalidValue, r.Timeout)
		}
	}
	if r.Concurrency < 0 || r.Concurrency > MaxConcurrency {
		return fmt.Errorf("%w: render.concurrency: must be between 0 and %d, got %d", ErrInvalidValue, MaxConcurrency, r.Concurrency)
	}
	if r.Workers < 0 || r.Workers > MaxConcurrency {
		return fmt.Errorf("%w: render.workers: must be between 0 and %d, got %d", ErrInvalidValue, MaxConcurrency, r.Workers)
	}

	if c.Log.Level != "" {
		if _, err := logging.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: log.level: %v", ErrInvalidValue, err)
		}
	}
	if c.Log.Format != "" {
		if _, err := logging.ParseFormat(c.Log.Format); err != nil {
			return fmt.Errorf("%w: log.format: %v", ErrInvalidValue, err)
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// ToLibrary overlays the render section on htmlatex.DefaultConfig.
// A preambleFile is read relative to the current directory.
func (c *Config) ToLibrary() (htmlatex.Config, error) {
	out := htmlatex.DefaultConfig()
	r := c.Render

	if r.WorkDir != "" {
		out.WorkingDirectory = r.WorkDir
	}
	if r.ImageDir != "" {
		out.ImageRootDirectory = r.ImageDir
	}
	if r.ImageURL != "" {
		out.ImageURLPrefix = r.ImageURL
	}
	if r.Latex != "" {
		out.CompilerPath = r.Latex
	}
	if r.Dvipng != "" {
		out.RasterizerPath = r.Dvipng
	}
	if len(r.Flags) > 0 {
		out.RasterizerFlags = slices.Clone(r.Flags)
	}
	if len(r.Blocklist) > 0 {
		out.Blocklist = slices.Clone(r.Blocklist)
	}
	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return htmlatex.Config{}, fmt.Errorf("%w: render.timeout: %v", ErrInvalidValue, err)
		}
		out.Timeout = d
	}
	out.RetainIntermediateFiles = r.Retain

	switch {
	case r.Preamble != "":
		out.Preamble = r.Preamble
	case r.PreambleFile != "":
		data, err := os.ReadFile(r.PreambleFile) // #nosec G304 -- path comes from the user's config
		if err != nil {
			return htmlatex.Config{}, fmt.Errorf("reading preamble file: %w", err)
		}
		out.Preamble = string(data)
	}

	return out, nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := unmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// unmarshalStrict rejects empty or oversized input and unknown fields.
func unmarshalStrict(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty config file")
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("input exceeds maximum size: %d bytes (max %d)", len(data), MaxInputSize)
	}
	return yaml.UnmarshalWithOptions(data, v, yaml.Strict())
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-htmlatex/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, appDir, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
