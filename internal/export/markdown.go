// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/codechat-tui/internal/markdown"
	"github.com/jeranaias/codechat-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports documents to Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	return &MarkdownExporter{options: opts.withDefaults()}
}

// Export converts a document to Markdown.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(doc.Title)))
	sb.WriteString(fmt.Sprintf("mode: %s\n", doc.Mode))
	sb.WriteString(fmt.Sprintf("date: %s\n", doc.Created.Format(time.RFC3339)))
	if doc.IsCode() {
		sb.WriteString(fmt.Sprintf("language: %s\n", escapeYAML(doc.Code.Language)))
	} else {
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(doc.Messages)))
	}
	sb.WriteString("generator: codechat\n")
	sb.WriteString("---\n\n")

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(doc.Title)))

	if doc.IsCode() {
		sb.WriteString(fence(doc.Code.Language, doc.Code.Source))
		sb.WriteString("\n")
		return []byte(sb.String()), nil
	}

	for i, msg := range doc.Messages {
		label := roleLabel(doc, msg.Role)
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, msg.Clock()))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(markdown.Normalize(msg.Content))
		sb.WriteString("\n\n")

		if i < len(doc.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(strings.TrimRight(sb.String(), "\n") + "\n"), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// roleLabel names the speaker. Assistant turns carry the mode label.
func roleLabel(doc *Document, role model.Role) string {
	switch role {
	case model.RoleUser:
		return role.DisplayName()
	case model.RoleAssistant:
		return doc.Mode.Label()
	case "":
		return "Unknown"
	default:
		return role.DisplayName()
	}
}

// fence wraps source in a code fence long enough not to collide with
// backtick runs inside it.
func fence(language, source string) string {
	ticks := 3
	run := 0
	for _, r := range source {
		if r == '`' {
			run++
			if run >= ticks {
				ticks = run + 1
			}
		} else {
			run = 0
		}
	}
	marker := strings.Repeat("`", ticks)
	return marker + language + "\n" + strings.TrimSuffix(source, "\n") + "\n" + marker + "\n"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values that contain YAML syntax.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
