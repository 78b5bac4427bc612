package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-htmlatex/internal/latex"
)

// Equation placeholders use Unicode Private Use Area characters.
// These are guaranteed to not conflict with any standard characters
// and will pass through Goldmark unchanged (no WithUnsafe needed).
const (
	PlaceholderStart = "\uE000" // U+E000: Private Use Area start
	PlaceholderEnd   = "\uE001" // U+E001: Private Use Area end
)

// Precompiled regex patterns for performance.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Compress multiple blank lines to max 2
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)

	// Candidate equation elements. Nesting a span inside an inline equation
	// is not supported in Markdown input.
	spanElement = regexp.MustCompile(`(?is)<span(?:\s[^>]*)?>.*?</span>`)
	divElement  = regexp.MustCompile(`(?is)<div(?:\s[^>]*)?>.*?</div>`)

	classAttr = regexp.MustCompile(`(?i)\sclass\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
)

// protected holds equation elements lifted out of the Markdown source.
type protected struct {
	elements []string
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive blank lines to 2 maximum.
func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// protectEquations replaces each equation element with a placeholder.
func protectEquations(content string) (string, *protected) {
	p := &protected{}
	content = divElement.ReplaceAllStringFunc(content, func(el string) string {
		return p.lift(el, latex.Block)
	})
	content = spanElement.ReplaceAllStringFunc(content, func(el string) string {
		return p.lift(el, latex.Inline)
	})
	return content, p
}

func (p *protected) lift(el string, kind latex.Kind) string {
	if !isEquation(el, kind) {
		return el
	}
	ph := PlaceholderStart + strconv.Itoa(len(p.elements)) + PlaceholderEnd
	p.elements = append(p.elements, el)
	return ph
}

// restore puts the lifted elements back. A placeholder that ended up alone
// in a paragraph is restored without the paragraph.
func (p *protected) restore(html string) string {
	if len(p.elements) == 0 {
		return html
	}
	pairs := make([]string, 0, len(p.elements)*4)
	for i, el := range p.elements {
		ph := PlaceholderStart + strconv.Itoa(i) + PlaceholderEnd
		pairs = append(pairs, "<p>"+ph+"</p>", el)
	}
	for i, el := range p.elements {
		ph := PlaceholderStart + strconv.Itoa(i) + PlaceholderEnd
		pairs = append(pairs, ph, el)
	}
	return strings.NewReplacer(pairs...).Replace(html)
}

// isEquation checks the opening tag's class attribute for a variant the
// renderer recognizes for kind.
func isEquation(el string, kind latex.Kind) bool {
	end := strings.IndexByte(el, '>')
	if end < 0 {
		return false
	}
	m := classAttr.FindStringSubmatch(el[:end])
	if m == nil {
		return false
	}
	val := m[1] + m[2] + m[3]
	for _, token := range strings.Fields(val) {
		if latex.Recognized(kind, token) {
			return true
		}
	}
	return false
}
