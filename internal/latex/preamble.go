package latex

import "strings"

// DefaultPreamble is the document header every fragment is compiled under.
// \batchmode keeps the compiler from waiting on stdin after an error.
var DefaultPreamble = strings.Join([]string{
	`\documentclass[12pt]{article}`,
	`\usepackage{amsmath}`,
	`\usepackage{amsthm}`,
	`\usepackage{amssymb}`,
	`\usepackage{mathrsfs}`,
	`\usepackage{gensymb}`,
	`\usepackage{preview}`,
	`\pagestyle{empty}`,
	`\batchmode`,
	`\begin{document}`,
}, "\n")

const documentEnd = "\n \\end{document}"

// Document assembles the full compiler input for fragment.
func Document(preamble, fragment string) string {
	var b strings.Builder
	b.Grow(len(preamble) + len(fragment) + len(documentEnd) + 2)
	b.WriteString(preamble)
	b.WriteByte('\n')
	b.WriteString(fragment)
	b.WriteByte('\n')
	b.WriteString(documentEnd)
	return b.String()
}
