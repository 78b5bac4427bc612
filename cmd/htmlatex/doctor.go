package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	htmlatex "github.com/alnah/go-htmlatex"
	"github.com/alnah/go-htmlatex/internal/fileutil"
	"github.com/alnah/go-htmlatex/internal/toolchain"
)

// versionTimeout bounds each "<tool> --version" probe.
const versionTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status     string     `json:"status"` // "ready", "warnings", "errors"
	Compiler   toolInfo   `json:"compiler"`
	Rasterizer toolInfo   `json:"rasterizer"`
	Dirs       dirsInfo   `json:"directories"`
	System     systemInfo `json:"system"`
	Warnings   []string   `json:"warnings,omitempty"`
	Errors     []string   `json:"errors,omitempty"`
}

// toolInfo holds detection results for one external tool.
type toolInfo struct {
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// dirsInfo holds writability of the renderer's directories.
type dirsInfo struct {
	WorkDir          string `json:"work_dir"`
	WorkDirWritable  bool   `json:"work_dir_writable"`
	ImageDir         string `json:"image_dir"`
	ImageDirWritable bool   `json:"image_dir_writable"`
}

// systemInfo holds platform details.
type systemInfo struct {
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	GOMAXPROCS int    `json:"gomaxprocs"`
	Workers    int    `json:"workers"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	flags, _, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	s, err := loadSettings(&flags.common, &flags.tools, env)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}

	runner := env.Runner
	if runner == nil {
		runner = &toolchain.ExecRunner{}
	}
	result := runDoctor(ctx, s.lib, runner, env.LookPath)

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, cfg htmlatex.Config, runner htmlatex.Runner, lookPath func(string) (string, error)) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		System: systemInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			GOMAXPROCS: runtime.GOMAXPROCS(0),
			Workers:    htmlatex.ResolveWorkers(0),
		},
	}

	result.Compiler = checkTool(ctx, result, cfg.CompilerPath, runner, lookPath)
	result.Rasterizer = checkTool(ctx, result, cfg.RasterizerPath, runner, lookPath)
	checkDirs(result, cfg)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkTool locates an executable and asks it for its version.
func checkTool(ctx context.Context, result *doctorResult, name string, runner htmlatex.Runner, lookPath func(string) (string, error)) toolInfo {
	info := toolInfo{Name: name}

	path, err := lookPath(name)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s not found. Install a TeX distribution or set its path in the config", name))
		return info
	}
	info.Found = true
	info.Path = path

	res, err := runner.Run(ctx, htmlatex.Command{
		Name:    path,
		Args:    []string{"--version"},
		Timeout: versionTimeout,
	})
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get %s version: %v", name, err))
		return info
	}
	info.Version = firstLine(res.Stdout)
	return info
}

// checkDirs verifies the working and image directories can be written, or
// created under a writable parent.
func checkDirs(result *doctorResult, cfg htmlatex.Config) {
	result.Dirs.WorkDir = cfg.WorkingDirectory
	result.Dirs.WorkDirWritable = writableOrCreatable(cfg.WorkingDirectory)
	if !result.Dirs.WorkDirWritable {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Working directory not writable: %s", cfg.WorkingDirectory))
	}

	result.Dirs.ImageDir = cfg.ImageRootDirectory
	result.Dirs.ImageDirWritable = writableOrCreatable(cfg.ImageRootDirectory)
	if !result.Dirs.ImageDirWritable {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Image directory not writable: %s", cfg.ImageRootDirectory))
	}
}

// writableOrCreatable reports whether dir is writable, or whether its
// nearest existing ancestor is.
func writableOrCreatable(dir string) bool {
	dir = filepath.Clean(dir)
	for {
		info, err := os.Stat(dir)
		if err == nil {
			return info.IsDir() && fileutil.IsWritableDir(dir)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

// firstLine returns the first non-blank line of s, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "htmlatex doctor")
	fmt.Fprintln(w)

	for _, section := range []struct {
		title string
		tool  toolInfo
	}{
		{"Compiler", r.Compiler},
		{"Rasterizer", r.Rasterizer},
	} {
		fmt.Fprintln(w, section.title)
		if section.tool.Found {
			fmt.Fprintf(w, "  [OK] Found at %s\n", section.tool.Path)
			if section.tool.Version != "" {
				fmt.Fprintf(w, "  [OK] Version: %s\n", section.tool.Version)
			}
		} else {
			fmt.Fprintf(w, "  [ERROR] %s not found\n", section.tool.Name)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Directories")
	printDirStatus(w, "Working directory", r.Dirs.WorkDir, r.Dirs.WorkDirWritable)
	printDirStatus(w, "Image directory", r.Dirs.ImageDir, r.Dirs.ImageDirWritable)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.System.OS, r.System.Arch)
	fmt.Fprintf(w, "  [OK] GOMAXPROCS: %d (workers: %d)\n", r.System.GOMAXPROCS, r.System.Workers)
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to render")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

func printDirStatus(w io.Writer, label, dir string, writable bool) {
	if writable {
		fmt.Fprintf(w, "  [OK] %s: %s\n", label, dir)
	} else {
		fmt.Fprintf(w, "  [ERROR] %s: %s (not writable)\n", label, dir)
	}
}
