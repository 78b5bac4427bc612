package htmlatex

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-htmlatex/internal/latex"
	"github.com/alnah/go-htmlatex/internal/toolchain"
)

// Defaults applied by DefaultConfig and to zero-valued Config fields.
const (
	DefaultImageRootDirectory = "images"
	DefaultImageURLPrefix     = "/images"
	DefaultTimeout            = 30 * time.Second
)

// Config holds the static settings of a Renderer. Zero-valued fields fall
// back to their defaults, except WorkingDirectory and ImageRootDirectory
// which DefaultConfig fills in.
type Config struct {
	// RetainIntermediateFiles keeps .tex, .log, .aux and .dvi files in the
	// working directory for inspection.
	RetainIntermediateFiles bool

	// WorkingDirectory receives the compiler's intermediate files.
	WorkingDirectory string

	// ImageRootDirectory holds the sharded PNG cache.
	ImageRootDirectory string

	// ImageURLPrefix is prepended to <shard>/<key>.png in rewritten img tags.
	// A path ("/images") or an absolute URL.
	ImageURLPrefix string

	CompilerPath    string
	RasterizerPath  string
	RasterizerFlags []string

	// Preamble is everything before the equation, up to and including
	// \begin{document}.
	Preamble string

	// Blocklist replaces the default list of rejected substrings.
	Blocklist []string

	// Timeout bounds each compiler and rasterizer invocation.
	Timeout time.Duration
}

// DefaultConfig returns a Config with a working directory under the system
// temp dir and an images/ cache relative to the current directory.
func DefaultConfig() Config {
	return Config{
		WorkingDirectory:   filepath.Join(os.TempDir(), "htmlatex"),
		ImageRootDirectory: DefaultImageRootDirectory,
		ImageURLPrefix:     DefaultImageURLPrefix,
		CompilerPath:       toolchain.DefaultCompiler,
		RasterizerPath:     toolchain.DefaultRasterizer,
		RasterizerFlags:    slices.Clone(toolchain.DefaultRasterizerFlags),
		Preamble:           latex.DefaultPreamble,
		Blocklist:          slices.Clone(latex.DefaultBlocklist),
		Timeout:            DefaultTimeout,
	}
}

// withDefaults fills zero-valued fields that have a safe default.
func (c Config) withDefaults() Config {
	if c.ImageURLPrefix == "" {
		c.ImageURLPrefix = DefaultImageURLPrefix
	}
	if c.CompilerPath == "" {
		c.CompilerPath = toolchain.DefaultCompiler
	}
	if c.RasterizerPath == "" {
		c.RasterizerPath = toolchain.DefaultRasterizer
	}
	if len(c.RasterizerFlags) == 0 {
		c.RasterizerFlags = slices.Clone(toolchain.DefaultRasterizerFlags)
	}
	if c.Preamble == "" {
		c.Preamble = latex.DefaultPreamble
	}
	if len(c.Blocklist) == 0 {
		c.Blocklist = slices.Clone(latex.DefaultBlocklist)
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate checks that the configuration can be used to build a Renderer.
func (c Config) Validate() error {
	if strings.TrimSpace(c.WorkingDirectory) == "" {
		return fmt.Errorf("%w: working directory is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ImageRootDirectory) == "" {
		return fmt.Errorf("%w: image root directory is required", ErrInvalidConfig)
	}
	if strings.ContainsAny(c.ImageURLPrefix, "\"'<> \t\n") {
		return fmt.Errorf("%w: image URL prefix %q contains characters not allowed in a URL", ErrInvalidConfig, c.ImageURLPrefix)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative, got %v", ErrInvalidConfig, c.Timeout)
	}
	for _, f := range c.RasterizerFlags {
		if f == "-o" {
			return fmt.Errorf("%w: rasterizer flags must not set the output file", ErrInvalidConfig)
		}
	}
	if len(c.Blocklist) > 0 && !slices.ContainsFunc(c.Blocklist, func(e string) bool { return e != "" }) {
		return fmt.Errorf("%w: blocklist has no non-empty entries", ErrInvalidConfig)
	}
	if c.Preamble != "" && !strings.Contains(c.Preamble, `\begin{document}`) {
		return fmt.Errorf("%w: preamble must end with \\begin{document}", ErrInvalidConfig)
	}
	return nil
}
