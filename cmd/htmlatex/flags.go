package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrInvalidFlags wraps flag parsing errors. flag.ErrHelp stays matchable
// through it.
var ErrInvalidFlags = errors.New("invalid flags")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
}

// toolFlags override the render section of the config file.
type toolFlags struct {
	workDir     string
	imageDir    string
	imageURL    string
	latex       string
	dvipng      string
	timeout     string
	retain      bool
	concurrency int
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common  commonFlags
	tools   toolFlags
	output  string
	workers int
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common commonFlags
	tools  toolFlags
	addr   string
	root   string
}

// doctorFlags holds all flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	tools  toolFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
}

// addToolFlags adds renderer settings to a FlagSet.
func addToolFlags(fs *flag.FlagSet, f *toolFlags) {
	fs.StringVar(&f.workDir, "work-dir", "", "directory for latex intermediate files")
	fs.StringVar(&f.imageDir, "image-dir", "", "root of the PNG cache")
	fs.StringVar(&f.imageURL, "image-url", "", "URL prefix for rendered images")
	fs.StringVar(&f.latex, "latex", "", "latex executable")
	fs.StringVar(&f.dvipng, "dvipng", "", "dvipng executable")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-tool timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.retain, "retain", false, "keep .tex/.log/.aux/.dvi files")
	fs.IntVar(&f.concurrency, "concurrency", 0, "equations rendered in parallel per document (0 = config or 1)")
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, usage io.Writer) (*renderFlags, []string, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	f := &renderFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel documents (0 = auto)")
	addCommonFlags(fs, &f.common)
	addToolFlags(fs, &f.tools)

	fs.SetOutput(usage)
	fs.Usage = func() { printRenderUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFlags, err)
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, usage io.Writer) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	f := &serveFlags{}

	fs.StringVar(&f.addr, "addr", "", "listen address (default :8080)")
	fs.StringVar(&f.root, "root", "", "directory of documents to serve (default .)")
	addCommonFlags(fs, &f.common)
	addToolFlags(fs, &f.tools)

	fs.SetOutput(usage)
	fs.Usage = func() { printServeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFlags, err)
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags and returns positional args.
func parseDoctorFlags(args []string, usage io.Writer) (*doctorFlags, []string, error) {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	f := &doctorFlags{}

	fs.BoolVar(&f.json, "json", false, "machine-readable output")
	addCommonFlags(fs, &f.common)
	addToolFlags(fs, &f.tools)

	fs.SetOutput(usage)
	fs.Usage = func() { printDoctorUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFlags, err)
	}
	return f, fs.Args(), nil
}
