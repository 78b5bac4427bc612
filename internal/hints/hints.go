// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	htmlatex "github.com/alnah/go-htmlatex"
	"github.com/alnah/go-htmlatex/internal/config"
	"github.com/alnah/go-htmlatex/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// For returns the hint matching err, or "" when none applies.
func For(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, exec.ErrNotFound), isToolchain(err) && errors.Is(err, os.ErrNotExist):
		return ForToolNotFound()
	case errors.Is(err, htmlatex.ErrTimeout):
		return ForTimeout()
	case errors.Is(err, htmlatex.ErrCompile):
		return ForCompile()
	case errors.Is(err, config.ErrConfigNotFound):
		return ForConfigNotFound(strings.Split(err.Error(), ", "))
	case errors.Is(err, os.ErrPermission), errors.Is(err, htmlatex.ErrSetup):
		return ForImageDirectory()
	}
	return ""
}

func isToolchain(err error) bool {
	return errors.Is(err, htmlatex.ErrCompile) || errors.Is(err, htmlatex.ErrRasterize)
}

// ForToolNotFound returns hints for a missing latex or dvipng executable.
// In containers it suggests the distribution package to install.
func ForToolNotFound() string {
	hints := []string{"run 'htmlatex doctor' to check the toolchain"}
	if IsInContainer() {
		hints = append(hints, "install texlive-latex-base and dvipng in the image")
	} else {
		hints = append(hints, "set --latex and --dvipng to the full executable paths")
	}
	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow equations.
func ForTimeout() string {
	return format("for large equations or a cold font cache, use --timeout flag")
}

// ForCompile returns a hint for LaTeX compilation failures.
func ForCompile() string {
	return format("use --retain to keep the .tex and .log files in the work directory")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-htmlatex/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-htmlatex") {
			hint += " or create " + strings.TrimSpace(p)
			break
		}
	}

	return format(hint)
}

// ForImageDirectory returns hints for working or image directory errors.
func ForImageDirectory() string {
	return format("check --work-dir and --image-dir exist or can be created and are writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
