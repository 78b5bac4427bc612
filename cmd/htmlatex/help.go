package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlatex <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Replace LaTeX equations in HTML or Markdown with images")
	fmt.Fprintln(w, "  serve      Serve documents with equations rendered on request")
	fmt.Fprintln(w, "  doctor     Check the TeX toolchain and directories")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'htmlatex help <command>' for details on a specific command.")
}

// printRendererFlags prints flags shared by every command.
func printRendererFlags(w io.Writer) {
	fmt.Fprintln(w, "Renderer:")
	fmt.Fprintln(w, "      --work-dir <path>     Directory for latex intermediate files")
	fmt.Fprintln(w, "      --image-dir <path>    Root of the PNG cache (default: images)")
	fmt.Fprintln(w, "      --image-url <prefix>  URL prefix for rendered images (default: /images)")
	fmt.Fprintln(w, "      --latex <path>        latex executable (default: latex)")
	fmt.Fprintln(w, "      --dvipng <path>       dvipng executable (default: dvipng)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-tool timeout (default: 30s)")
	fmt.Fprintln(w, "      --concurrency <n>     Equations rendered in parallel per document")
	fmt.Fprintln(w, "      --retain              Keep .tex/.log/.aux/.dvi files")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
	fmt.Fprintln(w, "      --log-format <s>      Log format: text, json")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlatex render <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Replace <span class=\"eq\"> and <div class=\"eq\"> elements with")
	fmt.Fprintln(w, "<img> tags pointing at cached PNG renderings.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    .html, .htm, .md or .markdown file, or a directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "                            Default: name.html for Markdown,")
	fmt.Fprintln(w, "                            name.rendered.html for HTML")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel documents (0 = auto)")
	fmt.Fprintln(w)
	printRendererFlags(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlatex serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve documents under --root with equations rendered on request.")
	fmt.Fprintln(w, "Images are served under the image URL prefix, metrics at /metrics")
	fmt.Fprintln(w, "and a health check at /healthz.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --addr <addr>         Listen address (default: :8080)")
	fmt.Fprintln(w, "      --root <path>         Document root (default: .)")
	fmt.Fprintln(w)
	printRendererFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: htmlatex doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that latex and dvipng are installed and that the working and")
	fmt.Fprintln(w, "image directories are writable.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Machine-readable output")
	fmt.Fprintln(w)
	printRendererFlags(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: htmlatex version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: htmlatex help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return nil
}
