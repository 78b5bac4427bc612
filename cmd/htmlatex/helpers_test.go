package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	htmlatex "github.com/alnah/go-htmlatex"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake toolchain, mock renderer, environment
// ---------------------------------------------------------------------------

// fakeRunner stands in for latex and dvipng by writing the files they would.
// Sources containing failMarker fail to compile with a TeX-style log.
type fakeRunner struct {
	failMarker string

	mu        sync.Mutex
	latexRuns int
	versions  []string
}

const fakeFailLog = "! Undefined control sequence.\nl.12 \\foo\n"

func (f *fakeRunner) Run(_ context.Context, c htmlatex.Command) (htmlatex.Result, error) {
	if len(c.Args) == 1 && c.Args[0] == "--version" {
		f.mu.Lock()
		f.versions = append(f.versions, c.Name)
		f.mu.Unlock()
		return htmlatex.Result{Stdout: filepath.Base(c.Name) + " 1.0 (fake)\nmore\n"}, nil
	}

	switch filepath.Base(c.Name) {
	case "latex":
		f.mu.Lock()
		f.latexRuns++
		f.mu.Unlock()

		src := filepath.Join(c.Dir, c.Args[len(c.Args)-1])
		data, err := os.ReadFile(src)
		if err != nil {
			return htmlatex.Result{}, err
		}
		base := strings.TrimSuffix(src, ".tex")
		if f.failMarker != "" && strings.Contains(string(data), f.failMarker) {
			_ = os.WriteFile(base+".log", []byte(fakeFailLog), 0o644)
			return htmlatex.Result{ExitCode: 1}, errors.New("exit status 1")
		}
		_ = os.WriteFile(base+".log", []byte("ok\n"), 0o644)
		return htmlatex.Result{}, os.WriteFile(base+".dvi", []byte("DVI"), 0o644)
	case "dvipng":
		for i, a := range c.Args {
			if a == "-o" && i+1 < len(c.Args) {
				return htmlatex.Result{}, os.WriteFile(c.Args[i+1], []byte("\x89PNG fake"), 0o600)
			}
		}
		return htmlatex.Result{}, errors.New("no -o flag")
	}
	return htmlatex.Result{}, errors.New("unexpected tool " + c.Name)
}

func (f *fakeRunner) runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latexRuns
}

// testEnv returns an environment with captured output and the given runner.
func testEnv(runner htmlatex.Runner) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &Environment{
		Now:    func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) },
		Stdout: stdout,
		Stderr: stderr,
		Runner: runner,
		LookPath: func(file string) (string, error) {
			return filepath.Join("/usr/bin", filepath.Base(file)), nil
		},
	}, stdout, stderr
}

// dirFlags points the renderer at fresh directories under t.TempDir().
func dirFlags(t *testing.T) (args []string, imageDir string) {
	t.Helper()
	dir := t.TempDir()
	imageDir = filepath.Join(dir, "images")
	return []string{"--work-dir", filepath.Join(dir, "work"), "--image-dir", imageDir}, imageDir
}

// setupTestDir creates a temp directory with the given file structure.
// Files map paths to content. Returns the temp directory path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	return tempDir
}

// mockRenderer records documents and returns them with a marker appended.
type mockRenderer struct {
	mu       sync.Mutex
	html     []string
	markdown []string
	titles   []string
	err      error
}

func (m *mockRenderer) Render(_ context.Context, document string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.html = append(m.html, document)
	if m.err != nil {
		return "", m.err
	}
	return document + "<!-- rendered -->", nil
}

func (m *mockRenderer) RenderMarkdown(_ context.Context, markdown, title string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markdown = append(m.markdown, markdown)
	m.titles = append(m.titles, title)
	if m.err != nil {
		return "", m.err
	}
	return "<p>" + markdown + "</p>", nil
}
