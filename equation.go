package htmlatex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-htmlatex/internal/cache"
	"github.com/alnah/go-htmlatex/internal/latex"
	"github.com/alnah/go-htmlatex/internal/markup"
)

// state tracks an equation through the pipeline. Transitions:
//
//	new -> cacheHit
//	new -> translating -> sanitizing -> compiling -> rasterizing -> stored
//	compiling | rasterizing -> failed
type state int

const (
	stateNew state = iota
	stateCacheHit
	stateTranslating
	stateSanitizing
	stateCompiling
	stateRasterizing
	stateStored
	stateFailed
)

var stateNames = [...]string{
	stateNew:         "new",
	stateCacheHit:    "cache_hit",
	stateTranslating: "translating",
	stateSanitizing:  "sanitizing",
	stateCompiling:   "compiling",
	stateRasterizing: "rasterizing",
	stateStored:      "stored",
	stateFailed:      "failed",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// equation is the per-node working record. It lives for one render.
type equation struct {
	key      cache.Key
	node     *markup.Node
	verdict  latex.Verdict
	location cache.Location
	state    state
}

// renderEquation resolves one node to its image location, rendering it if
// it is not cached yet.
func (r *Renderer) renderEquation(ctx context.Context, node *markup.Node) (cache.Location, error) {
	if err := ctx.Err(); err != nil {
		return cache.Location{}, err
	}

	start := time.Now()
	eq := &equation{node: node, key: cache.DeriveKey(node.Serialized)}
	eq.location = r.store.Locate(eq.key)

	if r.store.Exists(eq.key) {
		eq.state = stateCacheHit
		r.logger.Debug("equation cached", "key", eq.key)
		r.observer.EquationRendered(OutcomeCacheHit, time.Since(start))
		return eq.location, nil
	}

	// The flight is shared by every caller of this key, so it must not die
	// with the caller that started it. Each tool run is bounded by
	// Config.Timeout; each waiter still gives up on its own ctx.
	flight := r.flight.DoChan(string(eq.key), func() (any, error) {
		return r.produce(context.WithoutCancel(ctx), eq)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		r.observer.EquationRendered(OutcomeFailed, time.Since(start))
		return cache.Location{}, ctx.Err()
	case res = <-flight:
	}
	if res.Err != nil {
		r.observer.EquationRendered(OutcomeFailed, time.Since(start))
		return cache.Location{}, res.Err
	}
	r.observer.EquationRendered(res.Val.(Outcome), time.Since(start))
	return eq.location, nil
}

// produce compiles, rasterizes and stores eq. It runs at most once at a time
// per key within a process.
func (r *Renderer) produce(ctx context.Context, eq *equation) (outcome Outcome, err error) {
	// DoChan re-panics on a fresh goroutine, where nothing could recover.
	defer func() {
		if rec := recover(); rec != nil {
			outcome, err = "", fmt.Errorf("%w: %v", ErrInternal, rec)
		}
	}()

	// Another caller may have finished the same key between our lookup and
	// entering the flight.
	if r.store.Exists(eq.key) {
		eq.state = stateCacheHit
		return OutcomeCacheHit, nil
	}

	defer func() {
		if err != nil {
			failed := eq.state
			eq.state = stateFailed
			r.logger.Error("equation failed", "key", eq.key, "stage", failed, "error", err)
		}
	}()

	eq.state = stateTranslating
	fragment, err := latex.Translate(eq.node.Kind, eq.node.Variant, eq.node.Content)
	if err != nil {
		return "", err
	}

	eq.state = stateSanitizing
	eq.verdict = r.sanitizer.Classify(fragment)
	outcome = OutcomeRendered
	if eq.verdict.Rejected {
		outcome = OutcomeSanitized
		r.logger.Warn("equation sanitized", "key", eq.key, "reason", eq.verdict.Reason)
	}

	tmp, err := r.store.TempFile(eq.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSetup, err)
	}
	committed := false
	defer func() {
		if !committed {
			r.store.Discard(tmp)
		}
	}()

	eq.state = stateCompiling
	job, err := r.compiler.Compile(ctx, eq.verdict.Fragment, r.cfg.WorkingDirectory)
	if err != nil {
		return "", withKey(err, eq.key)
	}

	eq.state = stateRasterizing
	if err := r.rasterizer.Rasterize(ctx, job, tmp); err != nil {
		return "", withKey(err, eq.key)
	}

	if _, err := r.store.Commit(eq.key, tmp); err != nil {
		return "", err
	}
	committed = true
	eq.state = stateStored
	r.logger.Debug("equation rendered", "key", eq.key, "variant", eq.node.Variant)
	return outcome, nil
}

// withKey records the cache key on toolchain errors so callers can find the
// offending equation.
func withKey(err error, key cache.Key) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		ce.Key = key.String()
	}
	var re *RasterizeError
	if errors.As(err, &re) {
		re.Key = key.String()
	}
	return err
}
