package latex

import (
	"errors"
	"fmt"
)

// Kind distinguishes inline equations from display blocks.
type Kind int

const (
	Inline Kind = iota
	Block
)

func (k Kind) String() string {
	switch k {
	case Inline:
		return "inline"
	case Block:
		return "block"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Variant names, taken from the class attribute of the equation element.
const (
	VariantEq           = "eq"
	VariantDet          = "det"
	VariantMatrix       = "matrix"
	VariantAlignedEq    = "alignedeq"
	VariantNumAlignedEq = "numalignedeq"
	VariantNumEq        = "numeq"
)

// ErrUnknownVariant is returned for an inline variant with no template.
var ErrUnknownVariant = errors.New("unknown equation variant")

type template struct{ prefix, suffix string }

var (
	inlineTemplates = map[string]template{
		VariantEq:     {`$ `, ` $ \newpage`},
		VariantDet:    {`\begin{equation*} \left| \begin{matrix} `, ` \end{matrix} \right| \end{equation*}`},
		VariantMatrix: {`\begin{equation*} \left[ \begin{matrix} `, ` \end{matrix} \right] \end{equation*}`},
	}

	blockTemplates = map[string]template{
		VariantMatrix:       {`\begin{equation*} \left[ \begin{matrix} `, ` \end{matrix} \right] \end{equation*}`},
		VariantDet:          {`\begin{equation*} \left| \begin{matrix} `, ` \end{matrix} \right| \end{equation*}`},
		VariantAlignedEq:    {`\begin{align*} `, ` \end{align*}`},
		VariantNumAlignedEq: {`\begin{align} `, ` \end{align}`},
		VariantNumEq:        {`\begin{equation} `, ` \end{equation}`},
	}

	blockDefault = template{`\begin{equation*} `, ` \end{equation*}`}
)

// Recognized reports whether (kind, variant) selects an equation element.
func Recognized(kind Kind, variant string) bool {
	switch kind {
	case Inline:
		_, ok := inlineTemplates[variant]
		return ok
	case Block:
		_, ok := blockTemplates[variant]
		return ok || variant == VariantEq
	}
	return false
}

// Translate wraps content in the LaTeX template selected by (kind, variant).
// Content is substituted verbatim. Any block variant without a dedicated
// template renders as an unnumbered equation.
func Translate(kind Kind, variant, content string) (string, error) {
	var t template
	switch kind {
	case Inline:
		var ok bool
		if t, ok = inlineTemplates[variant]; !ok {
			return "", fmt.Errorf("%w: %s %q", ErrUnknownVariant, kind, variant)
		}
	case Block:
		var ok bool
		if t, ok = blockTemplates[variant]; !ok {
			t = blockDefault
		}
	default:
		return "", fmt.Errorf("%w: %s %q", ErrUnknownVariant, kind, variant)
	}
	return t.prefix + content + t.suffix, nil
}
