package latex

import "strings"

// SanitizedFragment replaces any fragment the Sanitizer rejects. It still
// compiles, so the reader sees a visible placeholder where the equation was.
const SanitizedFragment = `$ \mbox{\LaTeX sanitized} $ \newpage`

// DefaultBlocklist holds the substrings that cause a fragment to be rejected.
// Matching is case-insensitive.
var DefaultBlocklist = []string{
	"include", "def", "command", "loop", "repeat", "open", "toks", "output",
	"input", "catcode", "name", `\^\^`, `\every`, `\errhelp`, `\errorstopmode`,
	`\scrollmode`, `\nonstopmode`, `\batchmode`, `\read`, `\write`, "csname",
	`\newhelp`, `\uppercase`, `\lowercase`, `\relax`, `\aftergroup`,
	`\afterassignment`, `\expandafter`, `\noexpand`, `\special`,
}

// Verdict is the outcome of classifying one fragment.
type Verdict struct {
	// Fragment is what should be compiled: the input when accepted,
	// SanitizedFragment when rejected.
	Fragment string
	Rejected bool
	// Reason is the blocklist entry that matched.
	Reason string
}

// Sanitizer screens fragments against a fixed substring blocklist. It is not
// a sandbox: anything the blocklist misses reaches the compiler.
type Sanitizer struct {
	entries []string // lowercased, order preserved
}

// NewSanitizer builds a Sanitizer from blocklist. A nil or empty blocklist
// selects DefaultBlocklist. Empty entries are ignored.
func NewSanitizer(blocklist []string) *Sanitizer {
	if len(blocklist) == 0 {
		blocklist = DefaultBlocklist
	}
	entries := make([]string, 0, len(blocklist))
	for _, e := range blocklist {
		if e == "" {
			continue
		}
		entries = append(entries, strings.ToLower(e))
	}
	return &Sanitizer{entries: entries}
}

// Classify checks fragment against the blocklist.
func (s *Sanitizer) Classify(fragment string) Verdict {
	lower := strings.ToLower(fragment)
	for _, e := range s.entries {
		if strings.Contains(lower, e) {
			return Verdict{Fragment: SanitizedFragment, Rejected: true, Reason: e}
		}
	}
	return Verdict{Fragment: fragment}
}
