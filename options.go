package htmlatex

import (
	"log/slog"
	"time"

	"github.com/alnah/go-htmlatex/internal/toolchain"
)

// Option configures a Renderer.
type Option func(*Renderer)

// Runner executes the external tools. Replace it with WithRunner to run the
// toolchain elsewhere (a container, a remote worker) or to fake it in tests.
type Runner = toolchain.Runner

// Command is one tool invocation passed to a Runner.
type Command = toolchain.Command

// Result is what a Runner reports for a finished invocation.
type Result = toolchain.Result

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc = toolchain.RunnerFunc

// Outcome classifies how one equation was resolved.
type Outcome string

const (
	OutcomeCacheHit  Outcome = "cache_hit"
	OutcomeRendered  Outcome = "rendered"
	OutcomeSanitized Outcome = "sanitized"
	OutcomeFailed    Outcome = "failed"
)

// Observer is notified as equations and documents complete. Implementations
// must be safe for concurrent use.
type Observer interface {
	EquationRendered(outcome Outcome, elapsed time.Duration)
	DocumentRendered(equations int, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) EquationRendered(Outcome, time.Duration)    {}
func (nopObserver) DocumentRendered(int, time.Duration, error) {}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers an observer for rendering events.
func WithObserver(o Observer) Option {
	return func(r *Renderer) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithConcurrency renders up to n equations of one document in parallel.
// The default is 1 (document order).
// Panics if n < 1 (programmer error, similar to time.NewTicker).
func WithConcurrency(n int) Option {
	if n < 1 {
		panic("htmlatex: WithConcurrency n must be positive")
	}
	return func(r *Renderer) {
		r.concurrency = n
	}
}

// WithTimeout overrides Config.Timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("htmlatex: WithTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.Timeout = d
	}
}

// WithRunner replaces the subprocess runner used for both tools.
func WithRunner(run Runner) Option {
	return func(r *Renderer) {
		if run != nil {
			r.runner = run
		}
	}
}
