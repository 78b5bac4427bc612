package htmlatex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-htmlatex/internal/cache"
	"github.com/alnah/go-htmlatex/internal/fileutil"
	"github.com/alnah/go-htmlatex/internal/latex"
	"github.com/alnah/go-htmlatex/internal/logging"
	"github.com/alnah/go-htmlatex/internal/markup"
	"github.com/alnah/go-htmlatex/internal/pipeline"
	"github.com/alnah/go-htmlatex/internal/toolchain"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownConverter = (*pipeline.GoldmarkConverter)(nil)
	_ Runner                     = (*toolchain.ExecRunner)(nil)
	_ Observer                   = nopObserver{}
)

// Renderer turns equation markup into cached images. A Renderer is safe for
// concurrent use; concurrent renders of the same equation share one
// compilation.
type Renderer struct {
	cfg         Config
	logger      *slog.Logger
	observer    Observer
	concurrency int
	runner      Runner

	store      *cache.Store
	sanitizer  *latex.Sanitizer
	compiler   *toolchain.Compiler
	rasterizer *toolchain.Rasterizer
	markdown   pipeline.MarkdownConverter

	flight singleflight.Group
}

// NewRenderer creates a Renderer for cfg. Zero-valued optional fields of cfg
// take their defaults. Returns ErrInvalidConfig if cfg is unusable.
// No directories are touched until the first Render or Prepare.
func NewRenderer(cfg Config, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		cfg:         cfg.withDefaults(),
		logger:      logging.NewNop(),
		observer:    nopObserver{},
		concurrency: 1,
		runner:      &toolchain.ExecRunner{},
		markdown:    pipeline.NewGoldmarkConverter(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	r.store = cache.NewStore(r.cfg.ImageRootDirectory, r.cfg.ImageURLPrefix)
	r.sanitizer = latex.NewSanitizer(r.cfg.Blocklist)
	r.compiler = &toolchain.Compiler{
		Path:     r.cfg.CompilerPath,
		Preamble: r.cfg.Preamble,
		Timeout:  r.cfg.Timeout,
		Retain:   r.cfg.RetainIntermediateFiles,
		Runner:   r.runner,
	}
	r.rasterizer = &toolchain.Rasterizer{
		Path:    r.cfg.RasterizerPath,
		Flags:   r.cfg.RasterizerFlags,
		Timeout: r.cfg.Timeout,
		Retain:  r.cfg.RetainIntermediateFiles,
		Runner:  r.runner,
	}
	return r, nil
}

// Config returns the effective configuration, defaults applied.
func (r *Renderer) Config() Config {
	return r.cfg
}

// Prepare creates the working directory and the image cache layout if they
// do not exist. Render calls it; callers may call it early to fail fast.
func (r *Renderer) Prepare() error {
	if err := fileutil.EnsureDir(r.cfg.WorkingDirectory); err != nil {
		return fmt.Errorf("%w: working directory: %v", ErrSetup, err)
	}
	if err := r.store.EnsureLayout(); err != nil {
		return fmt.Errorf("%w: image root: %v", ErrSetup, err)
	}
	return nil
}

// Render replaces every equation element in document with an img tag
// pointing at its rendered image and returns the rewritten document.
// A document without equations is returned unchanged. If any equation
// fails, no output is returned and the error is one of *CompileError,
// *RasterizeError, *TimeoutError or a context error.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (r *Renderer) Render(ctx context.Context, document string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, rec)
		}
	}()

	start := time.Now()
	if err := r.Prepare(); err != nil {
		return "", err
	}

	doc, err := markup.Parse(document)
	if err != nil {
		return "", fmt.Errorf("parsing document: %w", err)
	}
	nodes, err := doc.Equations()
	if err != nil {
		return "", fmt.Errorf("scanning document: %w", err)
	}
	if len(nodes) == 0 {
		return document, nil
	}

	locations, err := r.renderAll(ctx, nodes)
	elapsed := time.Since(start)
	r.observer.DocumentRendered(len(nodes), elapsed, err)
	if err != nil {
		return "", err
	}

	for i, n := range nodes {
		doc.Replace(n, locations[i].URL)
	}
	out, err = doc.Render()
	if err != nil {
		return "", fmt.Errorf("rendering document: %w", err)
	}

	r.logger.Debug("document rendered", "equations", len(nodes), "duration", elapsed)
	return out, nil
}

// RenderMarkdown converts a Markdown document to HTML titled title and
// renders its equations. Returns ErrEmptyDocument for empty input.
func (r *Renderer) RenderMarkdown(ctx context.Context, markdown, title string) (string, error) {
	if markdown == "" {
		return "", ErrEmptyDocument
	}
	htmlContent, err := r.markdown.ToHTML(ctx, markdown, title)
	if err != nil {
		return "", fmt.Errorf("converting to HTML: %w", err)
	}
	return r.Render(ctx, htmlContent)
}

// renderAll renders nodes with at most r.concurrency in flight and returns
// their locations in document order. The first failure cancels the rest.
func (r *Renderer) renderAll(ctx context.Context, nodes []*markup.Node) ([]cache.Location, error) {
	locations := make([]cache.Location, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, n := range nodes {
		g.Go(func() (err error) {
			// errgroup goroutines are outside Render's recover.
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("%w: %v", ErrInternal, rec)
				}
			}()
			loc, err := r.renderEquation(gctx, n)
			if err != nil {
				return err
			}
			locations[i] = loc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return locations, nil
}
