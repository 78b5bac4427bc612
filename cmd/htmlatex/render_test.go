package main

// Notes:
// - runMain render: exercised end to end with a fake toolchain (no latex or
//   dvipng needed); we check outputs, cache files and exit codes.
// - renderBatch: tested with a mock renderer for ordering, cancellation and
//   Markdown dispatch.
// - Write failures are tested with a regular file standing in for the output
//   directory; permission-based failures depend on the user running tests.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const equationPage = `<html><body><p>Energy: <span class="eq">E=mc^2</span></p></body></html>`

// ---------------------------------------------------------------------------
// TestRender_EndToEnd - render command with a fake toolchain
// ---------------------------------------------------------------------------

func TestRender_EndToEnd(t *testing.T) {
	t.Parallel()

	t.Run("single html file", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{"page.html": equationPage})
		runner := &fakeRunner{}
		env, stdout, stderr := testEnv(runner)
		flags, imageDir := dirFlags(t)

		code := runMain(context.Background(), append([]string{"render", filepath.Join(dir, "page.html")}, flags...), env)
		if code != ExitSuccess {
			t.Fatalf("exit code = %d, want %d; stderr: %s", code, ExitSuccess, stderr)
		}

		out, err := os.ReadFile(filepath.Join(dir, "page.rendered.html"))
		if err != nil {
			t.Fatalf("reading output: %v", err)
		}
		if strings.Contains(string(out), `class="eq"`) {
			t.Errorf("equation element left in output: %s", out)
		}
		if !strings.Contains(string(out), `<img src="/images/`) {
			t.Errorf("output has no img tag: %s", out)
		}
		if !strings.Contains(stdout.String(), "Created") {
			t.Errorf("stdout = %q, want Created line", stdout.String())
		}

		pngs, _ := filepath.Glob(filepath.Join(imageDir, "*", "*.png"))
		if len(pngs) != 1 {
			t.Errorf("cache holds %d images, want 1", len(pngs))
		}
	})

	t.Run("second run hits the cache", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{"page.html": equationPage})
		runner := &fakeRunner{}
		env, _, stderr := testEnv(runner)
		flags, _ := dirFlags(t)
		args := append([]string{"render", filepath.Join(dir, "page.html"), "-q"}, flags...)

		for i := 0; i < 2; i++ {
			if code := runMain(context.Background(), args, env); code != ExitSuccess {
				t.Fatalf("run %d: exit code = %d; stderr: %s", i, code, stderr)
			}
		}
		if got := runner.runs(); got != 1 {
			t.Errorf("latex ran %d times, want 1", got)
		}
	})

	t.Run("directory with markdown into output dir", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{
			"a.html":     equationPage,
			"sub/b.md":   "# Notes\n\nInline <span class=\"eq\">a^2+b^2</span> math.\n",
			"ignore.txt": "nothing",
		})
		out := filepath.Join(t.TempDir(), "site")
		env, stdout, stderr := testEnv(&fakeRunner{})
		flags, _ := dirFlags(t)

		code := runMain(context.Background(), append([]string{"render", dir, "-o", out, "-w", "2"}, flags...), env)
		if code != ExitSuccess {
			t.Fatalf("exit code = %d; stderr: %s", code, stderr)
		}

		md, err := os.ReadFile(filepath.Join(out, "sub", "b.html"))
		if err != nil {
			t.Fatalf("reading markdown output: %v", err)
		}
		if !strings.Contains(string(md), "<title>b</title>") {
			t.Errorf("markdown output missing title: %s", md)
		}
		if !strings.Contains(string(md), "<img src=") {
			t.Errorf("markdown output missing img: %s", md)
		}
		if _, err := os.Stat(filepath.Join(out, "a.html")); err != nil {
			t.Errorf("html output missing: %v", err)
		}
		if !strings.Contains(stdout.String(), "2 succeeded, 0 failed") {
			t.Errorf("stdout = %q, want summary", stdout.String())
		}
	})

	t.Run("compile failure exits with toolchain code", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{
			"good.html": equationPage,
			"bad.html":  `<p><span class="eq">\foo</span></p>`,
		})
		env, _, stderr := testEnv(&fakeRunner{failMarker: `\foo`})
		flags, _ := dirFlags(t)

		code := runMain(context.Background(), append([]string{"render", dir}, flags...), env)
		if code != ExitToolchain {
			t.Fatalf("exit code = %d, want %d; stderr: %s", code, ExitToolchain, stderr)
		}
		if !strings.Contains(stderr.String(), "FAILED") || !strings.Contains(stderr.String(), "bad.html") {
			t.Errorf("stderr = %q, want FAILED line for bad.html", stderr.String())
		}
		if !strings.Contains(stderr.String(), "Undefined control sequence") {
			t.Errorf("stderr = %q, want the TeX diagnostic", stderr.String())
		}
		if _, err := os.Stat(filepath.Join(dir, "good.rendered.html")); err != nil {
			t.Errorf("good document not rendered: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "bad.rendered.html")); !os.IsNotExist(err) {
			t.Errorf("failed document should have no output, stat err = %v", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRender_Errors - Argument and input validation
// ---------------------------------------------------------------------------

func TestRender_Errors(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{"doc.txt": "x", "page.html": equationPage})

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no input", []string{"render"}, ExitIO},
		{"too many args", []string{"render", "a.html", "b.html"}, ExitUsage},
		{"missing file", []string{"render", filepath.Join(dir, "missing.html")}, ExitIO},
		{"bad extension", []string{"render", filepath.Join(dir, "doc.txt")}, ExitUsage},
		{"negative workers", []string{"render", dir, "-w", "-1"}, ExitUsage},
		{"unknown flag", []string{"render", dir, "--bogus"}, ExitUsage},
		{"bad timeout", []string{"render", dir, "-t", "soon"}, ExitUsage},
		{"bad image url", []string{"render", dir, "--image-url", "/a b"}, ExitUsage},
		{"missing config", []string{"render", dir, "-c", filepath.Join(dir, "none.yaml")}, ExitUsage},
		{"empty directory", []string{"render", t.TempDir()}, ExitIO},
		{"help", []string{"render", "--help"}, ExitSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, stderr := testEnv(&fakeRunner{})
			flags, _ := dirFlags(t)
			code := runMain(context.Background(), append(tt.args, flags...), env)
			if code != tt.want {
				t.Errorf("exit code = %d, want %d; stderr: %s", code, tt.want, stderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRenderBatch - Worker pool behavior
// ---------------------------------------------------------------------------

func TestRenderBatch(t *testing.T) {
	t.Parallel()

	t.Run("results keep input order", func(t *testing.T) {
		t.Parallel()

		files := map[string]string{}
		for i := 0; i < 8; i++ {
			files[fmt.Sprintf("doc%d.html", i)] = fmt.Sprintf("<p>%d</p>", i)
		}
		dir := setupTestDir(t, files)

		var batch []FileToRender
		for i := 0; i < 8; i++ {
			in := filepath.Join(dir, fmt.Sprintf("doc%d.html", i))
			batch = append(batch, FileToRender{InputPath: in, OutputPath: in + ".out"})
		}

		mock := &mockRenderer{}
		results := renderBatch(context.Background(), mock, batch, 3)
		if len(results) != len(batch) {
			t.Fatalf("got %d results, want %d", len(results), len(batch))
		}
		for i, r := range results {
			if r.Err != nil {
				t.Errorf("result %d: %v", i, r.Err)
			}
			if r.InputPath != batch[i].InputPath {
				t.Errorf("result %d is %s, want %s", i, r.InputPath, batch[i].InputPath)
			}
			got, err := os.ReadFile(batch[i].OutputPath)
			if err != nil {
				t.Fatalf("reading output %d: %v", i, err)
			}
			if want := fmt.Sprintf("<p>%d</p><!-- rendered -->", i); string(got) != want {
				t.Errorf("output %d = %q, want %q", i, got, want)
			}
		}
	})

	t.Run("markdown goes through RenderMarkdown", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{"notes.md": "hello"})
		in := filepath.Join(dir, "notes.md")
		mock := &mockRenderer{}

		results := renderBatch(context.Background(), mock, []FileToRender{{InputPath: in, OutputPath: filepath.Join(dir, "notes.html")}}, 1)
		if results[0].Err != nil {
			t.Fatalf("renderBatch() error = %v", results[0].Err)
		}
		if len(mock.markdown) != 1 || len(mock.html) != 0 {
			t.Errorf("markdown calls = %d, html calls = %d; want 1, 0", len(mock.markdown), len(mock.html))
		}
		if mock.titles[0] != "notes" {
			t.Errorf("title = %q, want notes", mock.titles[0])
		}
	})

	t.Run("canceled context fails every file", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{"a.html": "a", "b.html": "b"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		mock := &mockRenderer{}
		results := renderBatch(ctx, mock, []FileToRender{
			{InputPath: filepath.Join(dir, "a.html"), OutputPath: filepath.Join(dir, "a.out")},
			{InputPath: filepath.Join(dir, "b.html"), OutputPath: filepath.Join(dir, "b.out")},
		}, 2)
		for i, r := range results {
			if !errors.Is(r.Err, context.Canceled) {
				t.Errorf("result %d error = %v, want context.Canceled", i, r.Err)
			}
		}
		if len(mock.html) != 0 {
			t.Errorf("renderer called %d times after cancel", len(mock.html))
		}
	})

	t.Run("read and write failures", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{"a.html": "a", "blocker": "file"})
		mock := &mockRenderer{}

		results := renderBatch(context.Background(), mock, []FileToRender{
			{InputPath: filepath.Join(dir, "missing.html"), OutputPath: filepath.Join(dir, "x.out")},
			{InputPath: filepath.Join(dir, "a.html"), OutputPath: filepath.Join(dir, "blocker", "a.out")},
		}, 1)
		if !errors.Is(results[0].Err, ErrReadInput) {
			t.Errorf("result 0 error = %v, want ErrReadInput", results[0].Err)
		}
		if !errors.Is(results[1].Err, ErrWriteOutput) {
			t.Errorf("result 1 error = %v, want ErrWriteOutput", results[1].Err)
		}
	})

	t.Run("renderer error is reported", func(t *testing.T) {
		t.Parallel()

		dir := setupTestDir(t, map[string]string{"a.html": "a"})
		boom := errors.New("boom")
		results := renderBatch(context.Background(), &mockRenderer{err: boom}, []FileToRender{
			{InputPath: filepath.Join(dir, "a.html"), OutputPath: filepath.Join(dir, "a.out")},
		}, 1)
		if !errors.Is(results[0].Err, boom) {
			t.Errorf("error = %v, want boom", results[0].Err)
		}
		if _, err := os.Stat(filepath.Join(dir, "a.out")); !os.IsNotExist(err) {
			t.Error("output written despite renderer error")
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		if results := renderBatch(context.Background(), &mockRenderer{}, nil, 4); results != nil {
			t.Errorf("renderBatch(nil) = %v, want nil", results)
		}
	})
}

// ---------------------------------------------------------------------------
// TestPrintResults - Output formatting
// ---------------------------------------------------------------------------

func TestPrintResults(t *testing.T) {
	t.Parallel()

	results := []RenderResult{
		{InputPath: "a.html", OutputPath: "a.rendered.html"},
		{InputPath: "b.html", Err: errors.New("boom")},
	}

	t.Run("normal", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr := testEnv(nil)
		summary := printResults(results, false, false, env)
		if summary.Succeeded != 1 || summary.Failed != 1 {
			t.Errorf("summary = %+v, want 1/1", summary)
		}
		if !strings.Contains(stdout.String(), "Created a.rendered.html") {
			t.Errorf("stdout = %q", stdout.String())
		}
		if !strings.Contains(stdout.String(), "1 succeeded, 1 failed") {
			t.Errorf("stdout = %q, want summary line", stdout.String())
		}
		if !strings.Contains(stderr.String(), "FAILED b.html: boom") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})

	t.Run("quiet only shows failures", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr := testEnv(nil)
		printResults(results, true, false, env)
		if stdout.Len() != 0 {
			t.Errorf("stdout = %q, want empty", stdout.String())
		}
		if !strings.Contains(stderr.String(), "FAILED") {
			t.Errorf("stderr = %q, want FAILED line", stderr.String())
		}
	})

	t.Run("verbose shows mapping", func(t *testing.T) {
		t.Parallel()

		env, stdout, _ := testEnv(nil)
		printResults(results[:1], false, true, env)
		if !strings.Contains(stdout.String(), "a.html -> a.rendered.html") {
			t.Errorf("stdout = %q", stdout.String())
		}
	})
}
