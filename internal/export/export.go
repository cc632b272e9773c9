// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes code blocks and conversations to standalone files.
package export

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jeranaias/codechat-tui/internal/markdown"
	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for document exporters.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Validation errors.
var (
	ErrNilDocument   = errors.New("document is nil")
	ErrEmptyDocument = errors.New("document has no content")
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is what gets exported: either one code block taken from an
// assistant reply, or the transcript of a conversation.
type Document struct {
	Title   string
	Mode    model.Mode
	Created time.Time

	// Code is set for a code block export.
	Code *markdown.Code

	// Messages is set for a transcript export.
	Messages []model.Message
}

// CodeDocument wraps one code block for export.
func CodeDocument(mode model.Mode, code markdown.Code) *Document {
	return &Document{
		Title:   fmt.Sprintf("%s snippet %d", code.Language, code.Index+1),
		Mode:    mode,
		Created: time.Now(),
		Code:    &code,
	}
}

// TranscriptDocument wraps a conversation for export.
func TranscriptDocument(mode model.Mode, messages []model.Message) *Document {
	return &Document{
		Title:    mode.Label() + " conversation",
		Mode:     mode,
		Created:  time.Now(),
		Messages: messages,
	}
}

// IsCode reports whether the document is a code block export.
func (d *Document) IsCode() bool {
	return d.Code != nil
}

func (d *Document) validate() error {
	if d == nil {
		return ErrNilDocument
	}
	if d.Code == nil && len(d.Messages) == 0 {
		return ErrEmptyDocument
	}
	if d.Code != nil && d.Code.Source == "" {
		return ErrEmptyDocument
	}
	return nil
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeTimestamps includes per-message timestamps in transcripts.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	// Default: "light"
	Theme string

	// LinesPerPage splits exported code into printed pages.
	// Default: 50
	LinesPerPage int
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		OpenAfterExport:   false,
		IncludeTimestamps: true,
		Theme:             "light",
		LinesPerPage:      50,
	}
}

func (o *Options) withDefaults() *Options {
	def := DefaultOptions()
	if o == nil {
		return def
	}
	out := *o
	if out.OutputDir == "" {
		out.OutputDir = def.OutputDir
	}
	if out.Theme == "" {
		out.Theme = def.Theme
	}
	if out.LinesPerPage <= 0 {
		out.LinesPerPage = def.LinesPerPage
	}
	return &out
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a document using the given exporter and returns the
// path of the written file.
func ExportToFile(doc *Document, exporter Exporter, opts *Options) (string, error) {
	opts = opts.withDefaults()

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, Filename(doc, exporter.FileExtension(), time.Now()))
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	log.Printf("EXPORT | path=%s bytes=%d mime=%s", outputPath, len(content), exporter.MimeType())

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// Non-fatal: the file was written.
			log.Printf("EXPORT | open failed path=%s err=%v", outputPath, err)
		}
	}

	return outputPath, nil
}

// ExportCodeHTML writes one code block as a paginated HTML document.
func ExportCodeHTML(mode model.Mode, code markdown.Code, opts *Options) (string, error) {
	return ExportToFile(CodeDocument(mode, code), NewHTMLExporter(opts), opts)
}

// ExportTranscript writes a conversation in the named format.
func ExportTranscript(mode model.Mode, messages []model.Message, format string, opts *Options) (string, error) {
	exporter, err := ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	return ExportToFile(TranscriptDocument(mode, messages), exporter, opts)
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch format {
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// Filename builds the output file name for doc.
func Filename(doc *Document, ext string, now time.Time) string {
	timestamp := now.Format("20060102_150405")
	if doc != nil && doc.Code != nil {
		return fmt.Sprintf("code_%s_%d_%s%s",
			sanitizeFilename(doc.Code.Language), doc.Code.Index+1, timestamp, ext)
	}
	mode := "chat"
	if doc != nil && doc.Mode != "" {
		mode = string(doc.Mode)
	}
	return fmt.Sprintf("conversation_%s_%s%s", sanitizeFilename(mode), timestamp, ext)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	maxLen := 50
	runes := []rune(s)
	if len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "untitled"
	}
	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
