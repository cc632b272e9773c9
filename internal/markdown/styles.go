// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/codechat-tui/internal/ui/styles"
)

// Caret is shown in place of an assistant reply that has not started.
const Caret = "▍"

// Styles holds the lipgloss styles used to draw blocks.
type Styles struct {
	Text       lipgloss.Style
	Bold       lipgloss.Style
	Italic     lipgloss.Style
	Strike     lipgloss.Style
	InlineCode lipgloss.Style
	Link       lipgloss.Style
	LinkURL    lipgloss.Style

	Headings [MaxHeadingLevel + 1]lipgloss.Style

	Bullet    lipgloss.Style
	QuoteBar  lipgloss.Style
	QuoteText lipgloss.Style
	Rule      lipgloss.Style

	CodeFrame         lipgloss.Style
	CodeFrameSelected lipgloss.Style
	CodeBadge         lipgloss.Style
	CodeLineNumber    lipgloss.Style

	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableBorder lipgloss.Style

	Caret lipgloss.Style
}

// DefaultStyles builds the styles from the shared colour palette.
func DefaultStyles() Styles {
	s := Styles{
		Text:       lipgloss.NewStyle().Foreground(styles.TextPrimary),
		Bold:       lipgloss.NewStyle().Foreground(styles.TextPrimary).Bold(true),
		Italic:     lipgloss.NewStyle().Foreground(styles.TextPrimary).Italic(true),
		Strike:     lipgloss.NewStyle().Foreground(styles.TextMuted).Strikethrough(true),
		InlineCode: lipgloss.NewStyle().Foreground(styles.Cyan).Background(styles.SurfaceDim),
		Link:       lipgloss.NewStyle().Foreground(styles.LinkColor).Underline(true),
		LinkURL:    lipgloss.NewStyle().Foreground(styles.TextMuted),

		Bullet:    lipgloss.NewStyle().Foreground(styles.Purple),
		QuoteBar:  lipgloss.NewStyle().Foreground(styles.Overlay),
		QuoteText: lipgloss.NewStyle().Foreground(styles.TextSecondary).Italic(true),
		Rule:      lipgloss.NewStyle().Foreground(styles.Overlay),

		CodeFrame: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.Overlay).
			Padding(0, 1),
		CodeFrameSelected: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.Cyan).
			Padding(0, 1),
		CodeBadge: lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Background(styles.OverlayDim).
			Padding(0, 1).
			Bold(true),
		CodeLineNumber: lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Width(4).
			Align(lipgloss.Right).
			MarginRight(1),

		TableHeader: lipgloss.NewStyle().Foreground(styles.Purple).Bold(true),
		TableCell:   lipgloss.NewStyle().Foreground(styles.TextPrimary),
		TableBorder: lipgloss.NewStyle().Foreground(styles.Overlay),

		Caret: lipgloss.NewStyle().Foreground(styles.Purple),
	}

	s.Headings[1] = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true).Underline(true)
	s.Headings[2] = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	s.Headings[3] = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	s.Headings[4] = lipgloss.NewStyle().Foreground(styles.TextSecondary).Bold(true)
	return s
}
