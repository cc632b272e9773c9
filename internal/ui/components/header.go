// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/ui/styles"
	"github.com/jeranaias/codechat-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar with the mode tabs.
type Header struct {
	Title    string
	Mode     model.Mode
	Endpoint string
	Width    int
	theme    *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "codechat",
		Mode:  model.ModeSearch,
		Width: 80,
		theme: theme,
	}
}

// View renders the header on one line: title, tabs, then the endpoint
// host right-aligned when it fits.
func (h *Header) View() string {
	width := h.Width
	if width < 20 {
		width = 20
	}

	tabs := make([]string, 0, len(model.Modes))
	for _, m := range model.Modes {
		style := h.theme.ModeInactive
		if m == h.Mode {
			style = h.theme.ModeActive
		}
		tabs = append(tabs, style.Render(m.Label()))
	}

	left := h.theme.HeaderTitle.Render(h.Title) + "  " + strings.Join(tabs, " ")

	// Header padding takes two cells.
	inner := width - 2
	room := inner - lipgloss.Width(left) - 2
	if h.Endpoint != "" && room > 8 {
		right := h.theme.HeaderSubtitle.Render(util.TruncateWidth(h.Endpoint, room))
		gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
		left += strings.Repeat(" ", gap) + right
	}

	return h.theme.Header.Width(width).Render(left)
}
