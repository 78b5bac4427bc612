package toolchain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for toolchain operations.
var (
	ErrCompile   = errors.New("latex compilation failed")
	ErrRasterize = errors.New("rasterization failed")
	ErrTimeout   = errors.New("external tool timed out")
)

// CompileError reports a compiler failure. Detail holds the first error line
// of the compiler log when one exists.
type CompileError struct {
	Key    string
	Detail string
	Err    error
}

func (e *CompileError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%v: %s", ErrCompile, e.Detail)
	}
	return fmt.Sprintf("%v for %s: %s", ErrCompile, e.Key, e.Detail)
}

func (e *CompileError) Is(target error) bool { return target == ErrCompile }

func (e *CompileError) Unwrap() error { return e.Err }

// RasterizeError reports a rasterizer failure.
type RasterizeError struct {
	Key    string
	Detail string
	Err    error
}

func (e *RasterizeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%v: %s", ErrRasterize, e.Detail)
	}
	return fmt.Sprintf("%v for %s: %s", ErrRasterize, e.Key, e.Detail)
}

func (e *RasterizeError) Is(target error) bool { return target == ErrRasterize }

func (e *RasterizeError) Unwrap() error { return e.Err }

// TimeoutError reports that an external tool exceeded its time budget and
// its process group was killed.
type TimeoutError struct {
	Tool    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v: %s after %v", ErrTimeout, e.Tool, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || target == context.DeadlineExceeded
}

// RunError reports a tool that ran but exited with a non-zero status.
type RunError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
}

func (e *RunError) Unwrap() error { return e.Err }
