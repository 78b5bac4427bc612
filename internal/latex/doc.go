// Package latex turns equation markup into LaTeX source: Translate wraps the
// equation content in the template for its variant, and Sanitizer screens the
// result against a blocklist of constructs that reach outside the equation
// (file I/O, macro definition, catcode tricks).
package latex
