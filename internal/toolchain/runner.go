package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/alnah/go-htmlatex/internal/process"
)

// Command describes one external tool invocation. Args never pass through a
// shell.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// Result holds what a finished invocation produced.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner abstracts command execution to enable testing without real subprocesses.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) (Result, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Result, error) { return f(ctx, cmd) }

// ExecRunner implements Runner using os/exec. Each command runs in its own
// process group; on timeout the group is killed and a *TimeoutError returned.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	process.Configure(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	// Parent cancellation is not a timeout of this tool.
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return res, &TimeoutError{Tool: c.Name, Timeout: c.Timeout}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &RunError{Tool: c.Name, ExitCode: exitErr.ExitCode(), Stderr: res.Stderr, Err: err}
	}
	return res, fmt.Errorf("running %s: %w", c.Name, err)
}
