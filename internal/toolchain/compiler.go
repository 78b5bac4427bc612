package toolchain

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-htmlatex/internal/fileutil"
	"github.com/alnah/go-htmlatex/internal/latex"
)

// DefaultCompiler is the compiler executable looked up on PATH.
const DefaultCompiler = "latex"

// Job is one compile/rasterize attempt: the files it creates in the working
// directory. All of them share the base name of Source.
type Job struct {
	Source string
	Log    string
	Aux    string
	DVI    string
}

func newJob(source string) Job {
	return Job{
		Source: source,
		Log:    fileutil.SwapExt(source, "log"),
		Aux:    fileutil.SwapExt(source, "aux"),
		DVI:    fileutil.SwapExt(source, "dvi"),
	}
}

// Intermediates lists every file the job may leave behind.
func (j Job) Intermediates() []string {
	return []string{j.Source, j.Log, j.Aux, j.DVI}
}

// Compiler turns a LaTeX fragment into a DVI file.
type Compiler struct {
	Path     string
	Preamble string
	Timeout  time.Duration
	// Retain keeps .tex, .log, .aux and failed .dvi files for inspection.
	Retain bool
	Runner Runner
}

// NewCompiler creates a Compiler with the default executable and preamble
// and a real command runner.
func NewCompiler() *Compiler {
	return &Compiler{
		Path:     DefaultCompiler,
		Preamble: latex.DefaultPreamble,
		Runner:   &ExecRunner{},
	}
}

// InteractionFlag stops the compiler from prompting on stdin after an error.
const InteractionFlag = "-interaction=batchmode"

// Compile writes fragment wrapped in the preamble to a fresh eq*.tex in
// workDir and runs the compiler there. On success the returned Job's DVI
// exists and the caller owns it.
func (c *Compiler) Compile(ctx context.Context, fragment, workDir string) (job Job, err error) {
	source, _, err := fileutil.WriteTempFile(workDir, "eq", "tex", latex.Document(c.Preamble, fragment))
	if err != nil {
		return Job{}, fmt.Errorf("writing compiler input: %w", err)
	}
	job = newJob(source)

	defer func() {
		if c.Retain {
			return
		}
		_ = fileutil.RemoveFiles(job.Source, job.Log, job.Aux)
		if err != nil {
			_ = fileutil.RemoveFiles(job.DVI)
		}
	}()

	// The compiler resolves the job name against its working directory.
	// Batch mode is forced here too: a custom preamble may omit \batchmode.
	_, runErr := c.Runner.Run(ctx, Command{
		Name:    c.Path,
		Args:    []string{InteractionFlag, filepath.Base(source)},
		Dir:     workDir,
		Timeout: c.Timeout,
	})

	var timeoutErr *TimeoutError
	if errors.As(runErr, &timeoutErr) {
		return job, runErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return job, ctxErr
	}

	if line, ok := firstLogError(job.Log); ok {
		return job, &CompileError{Detail: line, Err: runErr}
	}
	if runErr != nil {
		return job, &CompileError{Detail: runErr.Error(), Err: runErr}
	}
	if !fileutil.NonEmptyFile(job.DVI) {
		return job, &CompileError{Detail: "compiler produced no output"}
	}
	return job, nil
}

// firstLogError returns the first line of the compiler log that starts with
// "!", which is how TeX reports errors.
func firstLogError(logPath string) (string, bool) {
	data, err := os.ReadFile(logPath)
	if err != nil {
		return "", false
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "!") {
			return strings.TrimSpace(line), true
		}
	}
	return "", false
}
