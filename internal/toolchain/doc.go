// Package toolchain drives the external TeX tools: the compiler that turns a
// LaTeX fragment into DVI and the rasterizer that turns DVI into PNG.
//
// Every invocation goes through a Runner, which takes an explicit argument
// list and working directory and enforces a timeout by killing the whole
// process group.
package toolchain
