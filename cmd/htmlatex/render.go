package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	htmlatex "github.com/alnah/go-htmlatex"
)

// Sentinel errors for the render command.
var (
	ErrNoInput      = errors.New("no input specified")
	ErrTooManyArgs  = errors.New("too many arguments")
	ErrNoDocuments  = errors.New("no documents found")
	ErrRenderFailed = errors.New("rendering failed")
)

// DocumentRenderer is the part of htmlatex.Renderer the CLI uses.
type DocumentRenderer interface {
	Render(ctx context.Context, document string) (string, error)
	RenderMarkdown(ctx context.Context, markdown, title string) (string, error)
}

// Compile-time interface implementation check.
var _ DocumentRenderer = (*htmlatex.Renderer)(nil)

// runRenderCmd parses flags and runs the render command.
func runRenderCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	return runRender(ctx, positional, flags, env)
}

// runRender renders every discovered document and reports the results.
func runRender(ctx context.Context, positional []string, flags *renderFlags, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	switch {
	case len(positional) == 0:
		return ErrNoInput
	case len(positional) > 1:
		return fmt.Errorf("%w: %s", ErrTooManyArgs, strings.Join(positional[1:], " "))
	}
	inputPath := positional[0]

	s, err := loadSettings(&flags.common, &flags.tools, env)
	if err != nil {
		return err
	}
	undo := configureRuntime(s.logger)
	defer undo()

	renderer, err := newRenderer(s, env, nil)
	if err != nil {
		return err
	}

	files, err := discoverFiles(inputPath, flags.output)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoDocuments, inputPath)
	}

	workers := flags.workers
	if workers == 0 {
		workers = s.file.Render.Workers
	}
	workers = htmlatex.ResolveWorkers(workers)
	s.logger.Debug("rendering documents", "count", len(files), "workers", workers)

	results := renderBatch(ctx, renderer, files, workers)
	summary := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d documents: %w", ErrRenderFailed, summary.Failed, len(results), firstError(results))
	}
	return nil
}
