package toolchain

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-htmlatex/internal/fileutil"
)

// DefaultRasterizer is the rasterizer executable looked up on PATH.
const DefaultRasterizer = "dvipng"

// DefaultRasterizerFlags crops to the ink, renders at 120 dpi with maximum
// PNG compression and a transparent background.
var DefaultRasterizerFlags = []string{"-T", "tight", "-D", "120", "-z", "9", "-bg", "Transparent"}

// Rasterizer turns a compiled DVI into a PNG.
type Rasterizer struct {
	Path    string
	Flags   []string
	Timeout time.Duration
	// Retain keeps the .dvi after rasterization.
	Retain bool
	Runner Runner
}

// NewRasterizer creates a Rasterizer with the default executable and flags
// and a real command runner.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{
		Path:   DefaultRasterizer,
		Flags:  append([]string(nil), DefaultRasterizerFlags...),
		Runner: &ExecRunner{},
	}
}

// Rasterize renders job.DVI into dest. dest must be in an existing
// directory; a missing or empty dest after the run is a failure.
func (r *Rasterizer) Rasterize(ctx context.Context, job Job, dest string) error {
	if !r.Retain {
		defer func() { _ = fileutil.RemoveFiles(job.DVI) }()
	}

	args := make([]string, 0, len(r.Flags)+3)
	args = append(args, r.Flags...)
	args = append(args, "-o", dest, job.DVI)

	res, err := r.Runner.Run(ctx, Command{
		Name:    r.Path,
		Args:    args,
		Dir:     filepath.Dir(job.DVI),
		Timeout: r.Timeout,
	})
	if err != nil {
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		detail := firstLine(res.Stderr)
		if detail == "" {
			detail = err.Error()
		}
		return &RasterizeError{Detail: detail, Err: err}
	}

	if !fileutil.NonEmptyFile(dest) {
		return &RasterizeError{Detail: "rasterizer produced no output"}
	}
	return nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
