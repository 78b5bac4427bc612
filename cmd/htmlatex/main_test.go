package main

import (
	"context"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch and exit codes
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no args", nil, ExitUsage, "", "Usage: htmlatex"},
		{"version", []string{"version"}, ExitSuccess, "htmlatex dev", ""},
		{"--version", []string{"--version"}, ExitSuccess, "htmlatex dev", ""},
		{"help", []string{"help"}, ExitSuccess, "Commands:", ""},
		{"-h", []string{"-h"}, ExitSuccess, "Commands:", ""},
		{"help render", []string{"help", "render"}, ExitSuccess, "class=\"eq\"", ""},
		{"help serve", []string{"help", "serve"}, ExitSuccess, "/healthz", ""},
		{"help doctor", []string{"help", "doctor"}, ExitSuccess, "--json", ""},
		{"help version", []string{"help", "version"}, ExitSuccess, "Usage: htmlatex version", ""},
		{"help help", []string{"help", "help"}, ExitSuccess, "Usage: htmlatex help", ""},
		{"help unknown", []string{"help", "bogus"}, ExitUsage, "", "unknown command: bogus"},
		{"unknown command", []string{"bogus"}, ExitUsage, "", "unknown command: bogus"},
		{"render --help", []string{"render", "--help"}, ExitSuccess, "", "Usage: htmlatex render"},
		{"render without input", []string{"render"}, ExitIO, "", "error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(&fakeRunner{})
			code := runMain(context.Background(), tt.args, env)

			if code != tt.wantCode {
				t.Errorf("runMain(%v) = %d, want %d\nstderr: %s", tt.args, code, tt.wantCode, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want substring %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want substring %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunMain_DoctorJSON(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv(&fakeRunner{})
	flags, _ := dirFlags(t)
	args := append([]string{"doctor", "--json"}, flags...)

	if code := runMain(context.Background(), args, env); code != ExitSuccess {
		t.Fatalf("runMain(doctor --json) = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), `"status": "ready"`) {
		t.Errorf("stdout = %q, want JSON status", stdout.String())
	}
}

func TestRunMain_ErrorHint(t *testing.T) {
	t.Parallel()

	env, _, stderr := testEnv(&fakeRunner{})
	code := runMain(context.Background(), []string{"render", "--config", "./missing.yaml", "x.html"}, env)

	if code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(stderr.String(), "hint: use --config") {
		t.Errorf("stderr = %q, want config hint", stderr.String())
	}
}
