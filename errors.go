package htmlatex

import (
	"errors"

	"github.com/alnah/go-htmlatex/internal/toolchain"
)

// Sentinel errors for library operations.
var (
	ErrSetup         = errors.New("renderer setup failed")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrEmptyDocument = errors.New("document cannot be empty")
	ErrInternal      = errors.New("internal error")

	// Toolchain failures. Match with errors.Is; the concrete types below carry details.
	ErrCompile   = toolchain.ErrCompile
	ErrRasterize = toolchain.ErrRasterize
	ErrTimeout   = toolchain.ErrTimeout
)

// CompileError reports a LaTeX compilation failure for one equation. Detail is
// the first error line of the compiler log.
type CompileError = toolchain.CompileError

// RasterizeError reports a dvipng failure for one equation.
type RasterizeError = toolchain.RasterizeError

// TimeoutError reports an external tool killed after exceeding its timeout.
// It matches both ErrTimeout and context.DeadlineExceeded.
type TimeoutError = toolchain.TimeoutError
