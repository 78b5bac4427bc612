// Package pipeline converts Markdown documents to HTML so their equations can
// be rendered like any other HTML input.
//
// Equation elements written as raw HTML in the Markdown source
// (<span class="eq">...</span>, <div class="numeq">...</div>) are swapped for
// Private Use Area placeholders before Goldmark runs and restored afterwards.
// Goldmark therefore runs without WithUnsafe: any other raw HTML is still
// dropped, and equation source is never reinterpreted as Markdown emphasis.
package pipeline
