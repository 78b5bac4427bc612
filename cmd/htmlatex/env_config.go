package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-htmlatex/internal/config"
)

// envPrefix marks the environment variables read by the CLI.
const envPrefix = "HTMLATEX_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // HTMLATEX_CONFIG: config file name or path
	WorkDir    string        // HTMLATEX_WORK_DIR: compiler working directory
	ImageDir   string        // HTMLATEX_IMAGE_DIR: PNG cache root
	ImageURL   string        // HTMLATEX_IMAGE_URL: URL prefix in img tags
	Latex      string        // HTMLATEX_LATEX: compiler path
	Dvipng     string        // HTMLATEX_DVIPNG: rasterizer path
	Timeout    time.Duration // HTMLATEX_TIMEOUT: per-tool timeout
	Workers    int           // HTMLATEX_WORKERS: parallel documents
	LogLevel   string        // HTMLATEX_LOG_LEVEL: debug, info, warn, error
	LogFormat  string        // HTMLATEX_LOG_FORMAT: text or json
	Addr       string        // HTMLATEX_ADDR: serve listen address
}

// knownEnvVars lists valid HTMLATEX_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"HTMLATEX_CONFIG":     true,
	"HTMLATEX_WORK_DIR":   true,
	"HTMLATEX_IMAGE_DIR":  true,
	"HTMLATEX_IMAGE_URL":  true,
	"HTMLATEX_LATEX":      true,
	"HTMLATEX_DVIPNG":     true,
	"HTMLATEX_TIMEOUT":    true,
	"HTMLATEX_WORKERS":    true,
	"HTMLATEX_LOG_LEVEL":  true,
	"HTMLATEX_LOG_FORMAT": true,
	"HTMLATEX_ADDR":       true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable or non-positive numbers are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("HTMLATEX_CONFIG"),
		WorkDir:    os.Getenv("HTMLATEX_WORK_DIR"),
		ImageDir:   os.Getenv("HTMLATEX_IMAGE_DIR"),
		ImageURL:   os.Getenv("HTMLATEX_IMAGE_URL"),
		Latex:      os.Getenv("HTMLATEX_LATEX"),
		Dvipng:     os.Getenv("HTMLATEX_DVIPNG"),
		LogLevel:   os.Getenv("HTMLATEX_LOG_LEVEL"),
		LogFormat:  os.Getenv("HTMLATEX_LOG_FORMAT"),
		Addr:       os.Getenv("HTMLATEX_ADDR"),
	}

	if timeout := os.Getenv("HTMLATEX_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("HTMLATEX_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized HTMLATEX_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty/zero.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setIfEmpty(&cfg.Render.WorkDir, env.WorkDir)
	setIfEmpty(&cfg.Render.ImageDir, env.ImageDir)
	setIfEmpty(&cfg.Render.ImageURL, env.ImageURL)
	setIfEmpty(&cfg.Render.Latex, env.Latex)
	setIfEmpty(&cfg.Render.Dvipng, env.Dvipng)
	setIfEmpty(&cfg.Log.Level, env.LogLevel)
	setIfEmpty(&cfg.Log.Format, env.LogFormat)
	setIfEmpty(&cfg.Serve.Addr, env.Addr)

	if env.Timeout > 0 && cfg.Render.Timeout == "" {
		cfg.Render.Timeout = env.Timeout.String()
	}
	if env.Workers > 0 && cfg.Render.Workers == 0 {
		cfg.Render.Workers = env.Workers
	}
}

func setIfEmpty(dst *string, value string) {
	if value != "" && *dst == "" {
		*dst = value
	}
}
