package htmlatex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeToolchain stands in for latex and dvipng. It creates the files the real
// tools would and records every invocation.
type fakeToolchain struct {
	t *testing.T

	// compileLog, when set, is written as the compiler log and no DVI is produced.
	compileLog string
	// rasterErr, when set, makes dvipng fail.
	rasterErr error
	// delay is applied to every latex run, honoring cancellation.
	delay time.Duration
	// hook runs before a latex invocation returns, if set.
	hook func(Command) error

	mu        sync.Mutex
	sources   []string
	latexRuns int
	pngRuns   int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeToolchain(t *testing.T) *fakeToolchain {
	t.Helper()
	return &fakeToolchain{t: t}
}

func (f *fakeToolchain) Run(ctx context.Context, c Command) (Result, error) {
	switch filepath.Base(c.Name) {
	case "latex":
		return f.latex(ctx, c)
	case "dvipng":
		return f.dvipng(c)
	}
	f.t.Errorf("unexpected tool %q", c.Name)
	return Result{}, errors.New("unexpected tool")
}

func (f *fakeToolchain) latex(ctx context.Context, c Command) (Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	src := filepath.Join(c.Dir, c.Args[len(c.Args)-1])
	data, err := os.ReadFile(src)
	if err != nil {
		f.t.Errorf("fake latex: reading source: %v", err)
	}
	f.mu.Lock()
	f.sources = append(f.sources, string(data))
	f.latexRuns++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.hook != nil {
		if err := f.hook(c); err != nil {
			return Result{}, err
		}
	}

	base := strings.TrimSuffix(src, ".tex")
	if f.compileLog != "" {
		_ = os.WriteFile(base+".log", []byte(f.compileLog), 0o644)
		return Result{ExitCode: 1}, errors.New("exit status 1")
	}
	_ = os.WriteFile(base+".log", []byte("Output written on "+filepath.Base(base)+".dvi\n"), 0o644)
	_ = os.WriteFile(base+".aux", []byte("\\relax\n"), 0o644)
	if err := os.WriteFile(base+".dvi", []byte("DVI"), 0o644); err != nil {
		f.t.Errorf("fake latex: writing dvi: %v", err)
	}
	return Result{}, nil
}

func (f *fakeToolchain) dvipng(c Command) (Result, error) {
	f.mu.Lock()
	f.pngRuns++
	f.mu.Unlock()

	if f.rasterErr != nil {
		return Result{Stderr: "dvipng: fatal\n", ExitCode: 1}, f.rasterErr
	}
	for i, a := range c.Args {
		if a == "-o" && i+1 < len(c.Args) {
			return Result{}, os.WriteFile(c.Args[i+1], []byte("\x89PNG fake"), 0o600)
		}
	}
	f.t.Errorf("fake dvipng: no -o in %v", c.Args)
	return Result{}, errors.New("no output")
}

func (f *fakeToolchain) counts() (latexRuns, pngRuns int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latexRuns, f.pngRuns
}

func (f *fakeToolchain) lastSource() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sources) == 0 {
		return ""
	}
	return f.sources[len(f.sources)-1]
}

// testConfig returns a Config rooted in a fresh temp dir.
func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.WorkingDirectory = filepath.Join(dir, "work")
	cfg.ImageRootDirectory = filepath.Join(dir, "images")
	return cfg
}

// recordingObserver captures outcomes for assertions.
type recordingObserver struct {
	mu        sync.Mutex
	outcomes  []Outcome
	documents []error
}

func (o *recordingObserver) EquationRendered(outcome Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) DocumentRendered(_ int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.documents = append(o.documents, err)
}

func (o *recordingObserver) count(outcome Outcome) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, got := range o.outcomes {
		if got == outcome {
			n++
		}
	}
	return n
}
