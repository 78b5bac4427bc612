package main

import (
	"io"
	"os"
	"os/exec"
	"time"

	htmlatex "github.com/alnah/go-htmlatex"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer

	// Runner executes latex and dvipng. Nil means real processes.
	Runner htmlatex.Runner

	// LookPath resolves tool names for doctor.
	LookPath func(file string) (string, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:      time.Now,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		LookPath: exec.LookPath,
	}
}
