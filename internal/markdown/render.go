// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// MinWidth is the narrowest width blocks are laid out at.
const MinWidth = 20

// maxCacheEntries bounds the render cache.
const maxCacheEntries = 128

// =============================================================================
// RENDERER
// =============================================================================

// RenderOptions controls one render.
type RenderOptions struct {
	// Width is the available width in cells.
	Width int

	// Loading marks the message as still streaming.
	Loading bool

	// HighlightCode enables the selection frame around code block Selected.
	HighlightCode bool
	Selected      int
}

type cacheKey struct {
	content string
	opts    RenderOptions
}

// Renderer turns message text into styled terminal output.
//
// Streaming re-renders the same message many times a second, so results
// are cached by content and options. The Renderer is safe for concurrent
// use.
type Renderer struct {
	// FallbackLanguage tags fences without an info string.
	FallbackLanguage string

	// CodeStyle names the chroma style for code blocks.
	CodeStyle string

	// LineNumbers prefixes code lines with their number.
	LineNumbers bool

	Styles Styles

	mu    sync.Mutex
	cache map[cacheKey]string
}

// NewRenderer creates a renderer with the default styles.
func NewRenderer(fallbackLanguage string) *Renderer {
	if fallbackLanguage == "" {
		fallbackLanguage = DefaultLanguage
	}
	return &Renderer{
		FallbackLanguage: fallbackLanguage,
		CodeStyle:        DefaultCodeStyle,
		LineNumbers:      true,
		Styles:           DefaultStyles(),
		cache:            make(map[cacheKey]string),
	}
}

// Configure changes the fence fallback and code block settings and drops
// cached output, which was rendered with the old settings.
func (r *Renderer) Configure(fallbackLanguage, codeStyle string, lineNumbers bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fallbackLanguage == "" {
		fallbackLanguage = DefaultLanguage
	}
	if codeStyle == "" {
		codeStyle = DefaultCodeStyle
	}
	r.FallbackLanguage = fallbackLanguage
	r.CodeStyle = codeStyle
	r.LineNumbers = lineNumbers
	r.cache = make(map[cacheKey]string)
}

// Blocks normalizes and parses content.
func (r *Renderer) Blocks(content string) []Block {
	return Parse(Normalize(content), r.fallback())
}

// RenderMessage renders one assistant message. A loading message with no
// content yet renders as the caret.
func (r *Renderer) RenderMessage(content string, opts RenderOptions) string {
	if opts.Width < MinWidth {
		opts.Width = MinWidth
	}
	if opts.Loading && strings.TrimSpace(content) == "" {
		return r.Styles.Caret.Render(Caret)
	}

	key := cacheKey{content: content, opts: opts}
	r.mu.Lock()
	if out, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return out
	}
	r.mu.Unlock()

	out := r.render(content, opts)

	r.mu.Lock()
	if len(r.cache) >= maxCacheEntries {
		r.cache = make(map[cacheKey]string)
	}
	r.cache[key] = out
	r.mu.Unlock()
	return out
}

func (r *Renderer) render(content string, opts RenderOptions) (out string) {
	normalized := Normalize(content)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("RENDER PANIC | recovered=%v chars=%d", rec, len(content))
			out = wordwrap.String(normalized, opts.Width)
		}
	}()

	blocks := Parse(normalized, r.fallback())
	if len(blocks) == 0 {
		out = wordwrap.String(normalized, opts.Width)
	} else {
		out = r.Render(blocks, opts)
	}
	if opts.Loading {
		out += r.Styles.Caret.Render(Caret)
	}
	return out
}

func (r *Renderer) fallback() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.FallbackLanguage
}

// Render lays out blocks. Consecutive Inline blocks share a line; other
// blocks are separated by a blank line.
func (r *Renderer) Render(blocks []Block, opts RenderOptions) string {
	if opts.Width < MinWidth {
		opts.Width = MinWidth
	}

	var parts []string
	var inline []string

	flush := func() {
		if len(inline) > 0 {
			parts = append(parts, wordwrap.String(strings.Join(inline, "  "), opts.Width))
			inline = nil
		}
	}

	for _, b := range blocks {
		if v, ok := b.(Inline); ok {
			inline = append(inline, r.spans(v.Spans))
			continue
		}
		flush()
		if s := r.block(b, opts); s != "" {
			parts = append(parts, s)
		}
	}
	flush()
	return strings.Join(parts, "\n\n")
}

func (r *Renderer) block(b Block, opts RenderOptions) string {
	width := opts.Width

	switch v := b.(type) {
	case Paragraph:
		return wordwrap.String(r.spans(v.Spans), width)

	case Inline:
		return r.spans(v.Spans)

	case Heading:
		style := r.Styles.Headings[clampLevel(v.Level)]
		return wordwrap.String(style.Render(PlainText(v.Spans)), width)

	case List:
		return r.list(v, opts)

	case Quote:
		inner := opts
		inner.Width = width - 2
		body := r.Render(v.Blocks, inner)
		bar := r.Styles.QuoteBar.Render("│ ")
		lines := strings.Split(body, "\n")
		for i, line := range lines {
			lines[i] = bar + r.Styles.QuoteText.Render(line)
		}
		return strings.Join(lines, "\n")

	case Code:
		return r.code(v, opts)

	case Table:
		return r.table(v, width)

	case Rule:
		return r.Styles.Rule.Render(strings.Repeat("─", width))
	}
	return ""
}

// =============================================================================
// INLINE TEXT
// =============================================================================

func (r *Renderer) spans(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Break {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(r.span(s))
	}
	return b.String()
}

func (r *Renderer) span(s Span) string {
	st := r.Styles.Text
	switch {
	case s.Style.Has(StyleCode):
		st = r.Styles.InlineCode
	case s.Style.Has(StyleLink):
		st = r.Styles.Link
	}
	if s.Style.Has(StyleBold) {
		st = st.Bold(true)
	}
	if s.Style.Has(StyleItalic) {
		st = st.Italic(true)
	}
	if s.Style.Has(StyleStrike) {
		st = st.Strikethrough(true)
	}

	out := st.Render(s.Text)
	if s.Style.Has(StyleLink) && s.URL != "" && s.URL != s.Text {
		out += " " + r.Styles.LinkURL.Render("("+s.URL+")")
	}
	return out
}

// =============================================================================
// LISTS
// =============================================================================

func (r *Renderer) list(l List, opts RenderOptions) string {
	markers := make([]string, len(l.Items))
	markerWidth := 0
	for i := range l.Items {
		if l.Ordered {
			markers[i] = strconv.Itoa(l.Start+i) + ". "
		} else {
			markers[i] = "• "
		}
		if w := lipgloss.Width(markers[i]); w > markerWidth {
			markerWidth = w
		}
	}

	inner := opts
	inner.Width = opts.Width - markerWidth

	var items []string
	for i, item := range l.Items {
		body := r.itemBody(item, inner)
		pad := strings.Repeat(" ", markerWidth)
		lines := strings.Split(body, "\n")
		for j, line := range lines {
			if j == 0 {
				marker := markers[i] + strings.Repeat(" ", markerWidth-lipgloss.Width(markers[i]))
				lines[j] = r.Styles.Bullet.Render(marker) + line
				continue
			}
			if line != "" {
				lines[j] = pad + line
			}
		}
		items = append(items, strings.Join(lines, "\n"))
	}
	return strings.Join(items, "\n")
}

// itemBody renders list item blocks without blank lines between a line of
// text and a nested list.
func (r *Renderer) itemBody(item ListItem, opts RenderOptions) string {
	var parts []string
	for _, b := range item.Blocks {
		if s := r.block(b, opts); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// =============================================================================
// CODE BLOCKS
// =============================================================================

func (r *Renderer) code(c Code, opts RenderOptions) string {
	frame := r.Styles.CodeFrame
	if opts.HighlightCode && opts.Selected == c.Index {
		frame = r.Styles.CodeFrameSelected
	}

	// Border and padding take four cells.
	inner := opts.Width - 4
	if inner < MinWidth-4 {
		inner = MinWidth - 4
	}

	highlighted := Highlight(c.Source, c.Language, r.CodeStyle)
	lines := strings.Split(highlighted, "\n")
	for i, line := range lines {
		prefix := ""
		if r.LineNumbers {
			prefix = r.Styles.CodeLineNumber.Render(strconv.Itoa(i + 1))
		}
		lines[i] = truncate.StringWithTail(prefix+line, uint(inner), "…")
	}

	badge := r.Styles.CodeBadge.Render(fmt.Sprintf("[%d] %s", c.Index+1, c.Language))
	return frame.Render(badge + "\n" + strings.Join(lines, "\n"))
}

// =============================================================================
// TABLES
// =============================================================================

func (r *Renderer) table(t Table, width int) string {
	cols := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return ""
	}

	header := r.cells(t.Header, cols)
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = r.cells(row, cols)
	}

	widths := make([]int, cols)
	for c := 0; c < cols; c++ {
		widths[c] = lipgloss.Width(header[c])
		for _, row := range rows {
			if w := lipgloss.Width(row[c]); w > widths[c] {
				widths[c] = w
			}
		}
	}
	fitColumns(widths, width-(3*cols+1))

	sep := r.Styles.TableBorder.Render("│")
	line := func(cells []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(sep)
		for c, cell := range cells {
			cell = truncate.StringWithTail(cell, uint(widths[c]), "…")
			align := lipgloss.Left
			if c < len(t.Align) {
				switch t.Align[c] {
				case AlignCenter:
					align = lipgloss.Center
				case AlignRight:
					align = lipgloss.Right
				}
			}
			b.WriteString(" ")
			b.WriteString(style.Width(widths[c]).Align(align).Render(cell))
			b.WriteString(" ")
			b.WriteString(sep)
		}
		return b.String()
	}

	var divider strings.Builder
	divider.WriteString("├")
	for c, w := range widths {
		divider.WriteString(strings.Repeat("─", w+2))
		if c < cols-1 {
			divider.WriteString("┼")
		}
	}
	divider.WriteString("┤")

	out := []string{line(header, r.Styles.TableHeader), r.Styles.TableBorder.Render(divider.String())}
	for _, row := range rows {
		out = append(out, line(row, r.Styles.TableCell))
	}
	return strings.Join(out, "\n")
}

func (r *Renderer) cells(row [][]Span, cols int) []string {
	out := make([]string, cols)
	for i := 0; i < cols && i < len(row); i++ {
		out[i] = strings.ReplaceAll(PlainText(row[i]), "\n", " ")
	}
	return out
}

// fitColumns shrinks the widest columns until the total fits budget.
func fitColumns(widths []int, budget int) {
	total := 0
	for _, w := range widths {
		total += w
	}
	for total > budget {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 3 {
			return
		}
		widths[widest]--
		total--
	}
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > MaxHeadingLevel {
		return MaxHeadingLevel
	}
	return level
}
