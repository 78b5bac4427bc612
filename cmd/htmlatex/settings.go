package main

import (
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/automaxprocs/maxprocs"

	htmlatex "github.com/alnah/go-htmlatex"
	"github.com/alnah/go-htmlatex/internal/config"
	"github.com/alnah/go-htmlatex/internal/logging"
)

// settings is the merged configuration of one command run.
type settings struct {
	file   *config.Config
	lib    htmlatex.Config
	logger *slog.Logger
}

// loadSettings resolves configuration with priority
// CLI flags > env vars > config file > defaults.
func loadSettings(common *commonFlags, tools *toolFlags, env *Environment) (*settings, error) {
	envCfg := loadEnvConfig()
	if !common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(common, tools, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lib, err := cfg.ToLibrary()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(common, cfg.Log, env.Stderr)
	if err != nil {
		return nil, err
	}

	return &settings{file: cfg, lib: lib, logger: logger}, nil
}

// mergeFlags applies explicitly set CLI flags over config values.
func mergeFlags(common *commonFlags, tools *toolFlags, cfg *config.Config) {
	if common.logFormat != "" {
		cfg.Log.Format = common.logFormat
	}
	if tools.workDir != "" {
		cfg.Render.WorkDir = tools.workDir
	}
	if tools.imageDir != "" {
		cfg.Render.ImageDir = tools.imageDir
	}
	if tools.imageURL != "" {
		cfg.Render.ImageURL = tools.imageURL
	}
	if tools.latex != "" {
		cfg.Render.Latex = tools.latex
	}
	if tools.dvipng != "" {
		cfg.Render.Dvipng = tools.dvipng
	}
	if tools.timeout != "" {
		cfg.Render.Timeout = tools.timeout
	}
	if tools.retain {
		cfg.Render.Retain = true
	}
	if tools.concurrency != 0 {
		cfg.Render.Concurrency = tools.concurrency
	}
}

// newLogger builds the CLI logger. --verbose and --quiet win over log.level;
// without either the CLI only reports warnings and errors.
func newLogger(common *commonFlags, lc config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level := slog.LevelWarn
	switch {
	case common.verbose:
		level = slog.LevelDebug
	case common.quiet:
		level = slog.LevelError
	case lc.Level != "":
		l, err := logging.ParseLevel(lc.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: log.level: %v", config.ErrInvalidValue, err)
		}
		level = l
	}

	format, err := logging.ParseFormat(lc.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: log.format: %v", config.ErrInvalidValue, err)
	}

	return logging.New(w, level, format), nil
}

// newRenderer builds the library renderer for s. observer may be nil.
func newRenderer(s *settings, env *Environment, observer htmlatex.Observer) (*htmlatex.Renderer, error) {
	opts := []htmlatex.Option{
		htmlatex.WithLogger(s.logger),
		htmlatex.WithRunner(env.Runner),
	}
	if observer != nil {
		opts = append(opts, htmlatex.WithObserver(observer))
	}
	if s.file.Render.Concurrency > 0 {
		opts = append(opts, htmlatex.WithConcurrency(s.file.Render.Concurrency))
	}
	return htmlatex.NewRenderer(s.lib, opts...)
}

// configureRuntime sizes GOMAXPROCS to the container CPU quota.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func configureRuntime(logger *slog.Logger) func() {
	undo, _ := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))
	return undo
}
