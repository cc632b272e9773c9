// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jeranaias/codechat-tui/internal/markdown"
)

// transcriptMarkdown renders message bodies. Raw HTML in replies is omitted.
var transcriptMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports documents to standalone HTML with embedded CSS.
//
// Code documents are re-rendered from their source with chroma and split
// into pages of Options.LinesPerPage lines, each page breaking when printed.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	return &HTMLExporter{options: opts.withDefaults()}
}

// Export converts a document to HTML.
func (e *HTMLExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	var body string
	var err error
	if doc.IsCode() {
		body, err = e.renderCode(doc.Code)
	} else {
		body, err = e.renderTranscript(doc)
	}
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(doc.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"codechat\">\n")
	sb.WriteString(e.css())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", html.EscapeString(e.options.Theme)))
	sb.WriteString(fmt.Sprintf("<header class=\"header\"><h1>%s</h1><p class=\"meta\">%s &middot; %s</p></header>\n",
		html.EscapeString(doc.Title),
		html.EscapeString(doc.Mode.Label()),
		formatTimestamp(doc.Created)))
	sb.WriteString(body)
	sb.WriteString("</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) renderCode(code *markdown.Code) (string, error) {
	iterator, err := markdown.Lexer(code.Language, code.Source).Tokenise(nil, code.Source)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", code.Language, err)
	}

	// Tokenise once so multi-line constructs keep their colour across page
	// boundaries, then page by line.
	lines := chroma.SplitTokensIntoLines(iterator.Tokens())
	perPage := e.options.LinesPerPage
	pages := (len(lines) + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}

	style := markdown.Style(e.codeStyle())
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<p class=\"lang\">%s</p>\n", html.EscapeString(code.Language)))

	for p := 0; p < pages; p++ {
		start := p * perPage
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		var tokens []chroma.Token
		for _, line := range lines[start:end] {
			tokens = append(tokens, line...)
		}

		formatter := chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.WithLineNumbers(true),
			chromahtml.BaseLineNumber(start+1),
			chromahtml.TabWidth(4),
		)

		var buf bytes.Buffer
		if err := formatter.Format(&buf, style, chroma.Literator(tokens...)); err != nil {
			return "", fmt.Errorf("format page %d: %w", p+1, err)
		}

		sb.WriteString(fmt.Sprintf("<section class=\"page\" data-page=\"%d\">\n", p+1))
		sb.Write(buf.Bytes())
		sb.WriteString(fmt.Sprintf("<footer class=\"page-number\">Page %d of %d</footer>\n", p+1, pages))
		sb.WriteString("</section>\n")
	}

	return sb.String(), nil
}

func (e *HTMLExporter) renderTranscript(doc *Document) (string, error) {
	var sb strings.Builder
	sb.WriteString("<main class=\"conversation\">\n")
	for _, msg := range doc.Messages {
		sb.WriteString(fmt.Sprintf("<article class=\"message %s\">\n", html.EscapeString(string(msg.Role))))
		sb.WriteString(fmt.Sprintf("<div class=\"role\">%s", html.EscapeString(roleLabel(doc, msg.Role))))
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf(" <span class=\"time\">%s</span>", msg.Clock()))
		}
		sb.WriteString("</div>\n")

		var buf bytes.Buffer
		if err := transcriptMarkdown.Convert([]byte(markdown.Normalize(msg.Content)), &buf); err != nil {
			return "", fmt.Errorf("render message %s: %w", msg.ID, err)
		}
		sb.WriteString("<div class=\"content\">\n")
		sb.Write(buf.Bytes())
		sb.WriteString("</div>\n</article>\n")
	}
	sb.WriteString("</main>\n")
	return sb.String(), nil
}

func (e *HTMLExporter) codeStyle() string {
	if e.options.Theme == "dark" {
		return "monokai"
	}
	return "github"
}

func (e *HTMLExporter) css() string {
	var chromaCSS bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true), chromahtml.WithLineNumbers(true))
	if err := formatter.WriteCSS(&chromaCSS, markdown.Style(e.codeStyle())); err != nil {
		chromaCSS.Reset()
	}

	return `    <style>
        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Fira Code", "Source Code Pro", monospace;
        }
        .light-theme { --bg: #ffffff; --fg: #24292e; --muted: #6a737d; --border: #e1e4e8; --user: #f6f8fa; }
        .dark-theme { --bg: #1a1b26; --fg: #c0caf5; --muted: #565f89; --border: #414868; --user: #24283b; }
        body { font-family: var(--font-sans); color: var(--fg); background: var(--bg); margin: 0 auto; max-width: 900px; padding: 24px; }
        .header { border-bottom: 2px solid var(--border); margin-bottom: 16px; }
        .meta, .lang, .time, .page-number { color: var(--muted); font-size: 13px; }
        pre, code { font-family: var(--font-mono); font-size: 13px; }
        .message { border: 1px solid var(--border); border-radius: 8px; padding: 12px 16px; margin: 12px 0; }
        .message.user { background: var(--user); }
        .role { font-weight: 600; margin-bottom: 6px; }
        table { border-collapse: collapse; }
        th, td { border: 1px solid var(--border); padding: 4px 8px; }
        .page { margin-bottom: 24px; }
        .page-number { text-align: right; }
        @page { margin: 18mm; }
        @media print {
            body { max-width: none; padding: 0; }
            .page { page-break-after: always; break-after: page; }
            .page:last-of-type { page-break-after: auto; break-after: auto; }
        }
` + chromaCSS.String() + `    </style>
`
}
