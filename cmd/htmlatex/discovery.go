package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .html, .htm, .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// renderedSuffix names HTML outputs written next to their HTML source.
// Discovery skips these files so a second run does not re-render its output.
const renderedSuffix = ".rendered.html"

// maxWorkers bounds --workers.
const maxWorkers = 64

// FileToRender represents a single document to process.
type FileToRender struct {
	InputPath  string
	OutputPath string
}

// isMarkdown reports whether path is a Markdown document.
func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// isDocument reports whether path has a supported extension.
func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return isMarkdown(path)
}

// discoverFiles finds all documents to render.
func discoverFiles(inputPath, outputDir string) ([]FileToRender, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateDocumentExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, outputDir, "")
		return []FileToRender{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToRender
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !isDocument(path) || strings.HasSuffix(strings.ToLower(path), renderedSuffix) {
			return nil
		}
		outPath := resolveOutputPath(path, outputDir, inputPath)
		files = append(files, FileToRender{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the HTML output path for a document.
// Markdown becomes <name>.html; HTML rendered in place becomes
// <name>.rendered.html so the source is kept.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if outputDir == "" {
		if isMarkdown(inputPath) {
			return filepath.Join(filepath.Dir(inputPath), base+".html")
		}
		return filepath.Join(filepath.Dir(inputPath), base+renderedSuffix)
	}

	if strings.HasSuffix(outputDir, ".html") || strings.HasSuffix(outputDir, ".htm") {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			relDir := filepath.Dir(relPath)
			return filepath.Join(outputDir, relDir, base+".html")
		}
	}

	return filepath.Join(outputDir, base+".html")
}

// validateDocumentExtension checks that the file has a supported extension.
func validateDocumentExtension(path string) error {
	if !isDocument(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Base(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > maxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, maxWorkers)
	}
	return nil
}
