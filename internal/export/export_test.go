// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/codechat-tui/internal/markdown"
	"github.com/jeranaias/codechat-tui/internal/model"
)

func numberedSource(lines int) string {
	var sb strings.Builder
	for i := 1; i <= lines; i++ {
		sb.WriteString(fmt.Sprintf("x%d := %d\n", i, i))
	}
	return sb.String()
}

func sampleTranscript() []model.Message {
	at := time.Date(2025, 3, 4, 9, 5, 0, 0, time.Local)
	user := model.Message{ID: "user-1", Role: model.RoleUser, Content: "find the router", Timestamp: at}
	bot := model.Message{ID: "bot-1", Role: model.RoleAssistant, Content: "### Result\nSee `router.go`.", Timestamp: at}
	return []model.Message{user, bot}
}

func TestHTMLExporter_CodePagination(t *testing.T) {
	code := markdown.Code{Index: 0, Language: "go", Source: numberedSource(120)}
	exporter := NewHTMLExporter(&Options{LinesPerPage: 50})

	out, err := exporter.Export(CodeDocument(model.ModeGenerate, code))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)

	if got := strings.Count(result, `<section class="page"`); got != 3 {
		t.Errorf("expected 3 pages, got %d", got)
	}
	if !strings.Contains(result, "Page 3 of 3") {
		t.Error("missing last page footer")
	}
	if !strings.Contains(result, "page-break-after: always") {
		t.Error("missing print page break CSS")
	}
	if !strings.Contains(result, "x120") {
		t.Error("last source line missing from output")
	}
}

func TestHTMLExporter_ShortCodeIsOnePage(t *testing.T) {
	code := markdown.Code{Language: "python", Source: "print('hi')\n"}
	out, err := NewHTMLExporter(nil).Export(CodeDocument(model.ModeSearch, code))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if got := strings.Count(string(out), `<section class="page"`); got != 1 {
		t.Errorf("expected 1 page, got %d", got)
	}
}

// Language names come from the agent and must not inject markup.
func TestHTMLExporter_EscapesLanguage(t *testing.T) {
	code := markdown.Code{Language: "<script>alert('xss')</script>", Source: "code here"}
	out, err := NewHTMLExporter(nil).Export(CodeDocument(model.ModeGenerate, code))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)
	if strings.Contains(result, "<script>alert") {
		t.Error("script tag not escaped")
	}
	if !strings.Contains(result, "&lt;script&gt;") {
		t.Error("expected escaped script tag in output")
	}
}

func TestHTMLExporter_Transcript(t *testing.T) {
	out, err := NewHTMLExporter(&Options{Theme: "dark", IncludeTimestamps: true}).
		Export(TranscriptDocument(model.ModeSearch, sampleTranscript()))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)

	for _, want := range []string{
		`class="dark-theme"`,
		"<h3>Result</h3>",
		"<code>router.go</code>",
		"Code Search",
		"09:05",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMarkdownExporter_Transcript(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{IncludeTimestamps: false}).
		Export(TranscriptDocument(model.ModeSearch, sampleTranscript()))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)

	if !strings.HasPrefix(result, "---\ntitle: Code Search conversation\nmode: search\n") {
		t.Errorf("unexpected frontmatter:\n%s", result)
	}
	if !strings.Contains(result, "### You\n\nfind the router") {
		t.Error("user turn missing")
	}
	if !strings.Contains(result, "### Code Search\n\n### Result") {
		t.Error("assistant turn missing")
	}
	if strings.Contains(result, "<sub>") {
		t.Error("timestamps written although disabled")
	}
}

func TestMarkdownExporter_CodeFence(t *testing.T) {
	code := markdown.Code{Language: "md", Source: "```go\nx\n```"}
	out, err := NewMarkdownExporter(nil).Export(CodeDocument(model.ModeGenerate, code))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(string(out), "````md\n```go\nx\n```\n````\n") {
		t.Errorf("fence not lengthened:\n%s", out)
	}
}

// Newlines in a title must not break out of the frontmatter.
func TestEscapeYAML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"Test\nInjection: malicious", `"Test\nInjection: malicious"`},
		{`back\slash`, `"back\\slash"`},
		{` padded`, `" padded"`},
	}
	for _, tt := range tests {
		if got := escapeYAML(tt.in); got != tt.want {
			t.Errorf("escapeYAML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(TranscriptDocument(model.ModeGenerate, sampleTranscript()))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	var decoded struct {
		Mode     string          `json:"mode"`
		Messages []model.Message `json:"messages"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Mode != "generate" || len(decoded.Messages) != 2 {
		t.Errorf("unexpected document: %+v", decoded)
	}
}

func TestExport_RejectsEmptyDocuments(t *testing.T) {
	exporters := []Exporter{NewHTMLExporter(nil), NewMarkdownExporter(nil), NewJSONExporter(nil)}
	for _, e := range exporters {
		if _, err := e.Export(nil); !errors.Is(err, ErrNilDocument) {
			t.Errorf("%T: expected ErrNilDocument, got %v", e, err)
		}
		if _, err := e.Export(TranscriptDocument(model.ModeSearch, nil)); !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("%T: expected ErrEmptyDocument, got %v", e, err)
		}
	}
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	code := markdown.Code{Index: 1, Language: "go", Source: "package main\n"}

	path, err := ExportCodeHTML(model.ModeGenerate, code, &Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("ExportCodeHTML failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("written outside output dir: %s", path)
	}
	if base := filepath.Base(path); !strings.HasPrefix(base, "code_go_2_") || !strings.HasSuffix(base, ".html") {
		t.Errorf("unexpected file name %s", base)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "<!DOCTYPE html>") {
		t.Error("file is not an HTML document")
	}
}

func TestExportTranscript_UnknownFormat(t *testing.T) {
	if _, err := ExportTranscript(model.ModeSearch, sampleTranscript(), "pdf", &Options{OutputDir: t.TempDir()}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "untitled"},
		{"c++", "c++"},
		{"a/b:c", "a-b-c"},
		{"two words", "two_words"},
		{"tab\there", "tab_here"},
		{"bell\x07", "bell-"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
