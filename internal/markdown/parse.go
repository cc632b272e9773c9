// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultLanguage tags code fences that have no info string.
const DefaultLanguage = "typescript"

// MaxInlineRunes is the longest single token rendered as an Inline block.
const MaxInlineRunes = 20

// MaxHeadingLevel is the deepest heading level rendered distinctly.
const MaxHeadingLevel = 4

var md = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// =============================================================================
// PARSER
// =============================================================================

// Parse converts normalized markdown into blocks. Fences without a
// language are tagged fallbackLang, or DefaultLanguage when that is empty.
// Parse accepts any input, including markdown truncated mid-stream.
func Parse(source, fallbackLang string) []Block {
	if strings.TrimSpace(source) == "" {
		return nil
	}
	if fallbackLang == "" {
		fallbackLang = DefaultLanguage
	}

	src := []byte(source)
	p := &parser{src: src, fallback: fallbackLang}
	doc := md.Parser().Parse(text.NewReader(src))
	return p.blocks(doc)
}

type parser struct {
	src       []byte
	fallback  string
	codeCount int
}

func (p *parser) blocks(n ast.Node) []Block {
	var out []Block
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if b, ok := p.block(c); ok {
			out = append(out, b)
		}
	}
	return out
}

func (p *parser) block(n ast.Node) (Block, bool) {
	switch v := n.(type) {
	case *ast.Paragraph:
		return p.paragraph(v, true)

	case *ast.TextBlock:
		// Tight list items hold a TextBlock rather than a Paragraph.
		return p.paragraph(v, false)

	case *ast.Heading:
		spans := p.inlines(v, 0, "", nil)
		if strings.TrimSpace(PlainText(spans)) == "" {
			return nil, false
		}
		level := v.Level
		if level > MaxHeadingLevel {
			level = MaxHeadingLevel
		}
		return Heading{Level: level, Spans: spans}, true

	case *ast.List:
		list := List{Ordered: v.IsOrdered(), Start: v.Start}
		for item := v.FirstChild(); item != nil; item = item.NextSibling() {
			list.Items = append(list.Items, ListItem{Blocks: p.blocks(item)})
		}
		return list, true

	case *ast.Blockquote:
		return Quote{Blocks: p.blocks(v)}, true

	case *ast.FencedCodeBlock:
		lang := strings.TrimSpace(string(v.Language(p.src)))
		if lang == "" {
			lang = p.fallback
		}
		return p.code(lang, v.Lines()), true

	case *ast.CodeBlock:
		return p.code(p.fallback, v.Lines()), true

	case *ast.ThematicBreak:
		return Rule{}, true

	case *east.Table:
		return p.table(v), true

	case *ast.HTMLBlock:
		raw := strings.TrimSpace(p.lines(v.Lines()))
		if raw == "" {
			return nil, false
		}
		return Paragraph{Spans: []Span{{Text: raw}}}, true
	}
	return nil, false
}

// paragraph applies the short-token rule: a paragraph that is one token of
// at most MaxInlineRunes becomes Inline. Empty paragraphs are dropped.
func (p *parser) paragraph(n ast.Node, allowInline bool) (Block, bool) {
	spans := p.inlines(n, 0, "", nil)
	plain := strings.TrimSpace(PlainText(spans))
	if plain == "" {
		return nil, false
	}
	if allowInline && IsShortToken(plain) {
		return Inline{Spans: trimSpans(spans)}, true
	}
	return Paragraph{Spans: trimSpans(spans)}, true
}

// IsShortToken reports whether s is a single whitespace-free token of at
// most MaxInlineRunes runes.
func IsShortToken(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > MaxInlineRunes {
		return false
	}
	return len(strings.Fields(s)) == 1
}

func (p *parser) code(lang string, lines *text.Segments) Code {
	c := Code{
		Index:    p.codeCount,
		Language: lang,
		Source:   strings.TrimSuffix(p.lines(lines), "\n"),
	}
	p.codeCount++
	return c
}

func (p *parser) lines(lines *text.Segments) string {
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(p.src))
	}
	return b.String()
}

func (p *parser) table(t *east.Table) Table {
	out := Table{}
	for _, a := range t.Alignments {
		switch a {
		case east.AlignLeft:
			out.Align = append(out.Align, AlignLeft)
		case east.AlignCenter:
			out.Align = append(out.Align, AlignCenter)
		case east.AlignRight:
			out.Align = append(out.Align, AlignRight)
		default:
			out.Align = append(out.Align, AlignNone)
		}
	}

	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells [][]Span
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, trimSpans(p.inlines(cell, 0, "", nil)))
		}
		if _, ok := row.(*east.TableHeader); ok {
			out.Header = cells
			continue
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// =============================================================================
// INLINES
// =============================================================================

func (p *parser) inlines(n ast.Node, style SpanStyle, url string, out []Span) []Span {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			out = appendText(out, string(v.Segment.Value(p.src)), style, url)
			if v.HardLineBreak() {
				out = append(out, Span{Break: true})
			} else if v.SoftLineBreak() {
				out = appendText(out, " ", style, url)
			}

		case *ast.String:
			out = appendText(out, string(v.Value), style, url)

		case *ast.CodeSpan:
			out = appendText(out, p.rawText(v), style|StyleCode, url)

		case *ast.Emphasis:
			s := StyleItalic
			if v.Level >= 2 {
				s = StyleBold
			}
			out = p.inlines(v, style|s, url, out)

		case *east.Strikethrough:
			out = p.inlines(v, style|StyleStrike, url, out)

		case *ast.Link:
			out = p.inlines(v, style|StyleLink, string(v.Destination), out)

		case *ast.AutoLink:
			out = appendText(out, string(v.Label(p.src)), style|StyleLink, string(v.URL(p.src)))

		case *ast.RawHTML:
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				out = appendText(out, string(seg.Value(p.src)), style, url)
			}

		default:
			// Images and anything else contribute their text children.
			out = p.inlines(c, style, url, out)
		}
	}
	return out
}

func (p *parser) rawText(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(p.src))
			if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		default:
			b.WriteString(p.rawText(c))
		}
	}
	return b.String()
}

// appendText merges s into the last span when formatting matches.
func appendText(out []Span, s string, style SpanStyle, url string) []Span {
	if s == "" {
		return out
	}
	if n := len(out); n > 0 {
		last := &out[n-1]
		if !last.Break && last.Style == style && last.URL == url {
			last.Text += s
			return out
		}
	}
	return append(out, Span{Text: s, Style: style, URL: url})
}

// trimSpans drops leading and trailing whitespace across the span list.
func trimSpans(spans []Span) []Span {
	for len(spans) > 0 && !spans[0].Break {
		t := strings.TrimLeft(spans[0].Text, " \t")
		if t != "" {
			spans[0].Text = t
			break
		}
		spans = spans[1:]
	}
	for len(spans) > 0 && !spans[len(spans)-1].Break {
		last := len(spans) - 1
		t := strings.TrimRight(spans[last].Text, " \t")
		if t != "" {
			spans[last].Text = t
			break
		}
		spans = spans[:last]
	}
	return spans
}
