// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import "strings"

// =============================================================================
// INLINE SPANS
// =============================================================================

// SpanStyle is a bit set of inline formatting.
type SpanStyle uint8

const (
	StyleBold SpanStyle = 1 << iota
	StyleItalic
	StyleCode
	StyleStrike
	StyleLink
)

// Has reports whether every bit of f is set.
func (s SpanStyle) Has(f SpanStyle) bool {
	return s&f == f
}

// Span is a run of text with uniform formatting. A Span with Break set is
// a hard line break and carries no text.
type Span struct {
	Text  string
	Style SpanStyle
	URL   string
	Break bool
}

// PlainText joins the text of spans, turning breaks into newlines.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Break {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// =============================================================================
// BLOCKS
// =============================================================================

// Block is one presentational block. The set of kinds is closed: every
// implementation is declared in this file and renderers switch over them.
type Block interface {
	block()
}

// Paragraph is block-level running text.
type Paragraph struct {
	Spans []Span
}

// Inline is a paragraph short enough to flow on one line with its
// neighbours instead of occupying its own line.
type Inline struct {
	Spans []Span
}

// Heading is a header of level 1 to 4.
type Heading struct {
	Level int
	Spans []Span
}

// List is an ordered or bulleted list.
type List struct {
	Ordered bool
	Start   int
	Items   []ListItem
}

// ListItem holds the blocks of one list entry.
type ListItem struct {
	Blocks []Block
}

// Quote is a block quote.
type Quote struct {
	Blocks []Block
}

// Code is a fenced or indented code block. Index numbers the code blocks of
// one message from zero, in document order.
type Code struct {
	Index    int
	Language string
	Source   string
}

// Alignment is a table column alignment.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Table is a GFM table. Rows may be shorter than Header.
type Table struct {
	Align  []Alignment
	Header [][]Span
	Rows   [][][]Span
}

// Rule is a horizontal rule.
type Rule struct{}

func (Paragraph) block() {}
func (Inline) block()    {}
func (Heading) block()   {}
func (List) block()      {}
func (Quote) block()     {}
func (Code) block()      {}
func (Table) block()     {}
func (Rule) block()      {}

// CodeBlocks returns every code block in blocks, including nested ones, in
// document order.
func CodeBlocks(blocks []Block) []Code {
	var out []Code
	var walk func([]Block)
	walk = func(bs []Block) {
		for _, b := range bs {
			switch v := b.(type) {
			case Code:
				out = append(out, v)
			case Quote:
				walk(v.Blocks)
			case List:
				for _, item := range v.Items {
					walk(item.Blocks)
				}
			}
		}
	}
	walk(blocks)
	return out
}
