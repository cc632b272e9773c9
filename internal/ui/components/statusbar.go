// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/codechat-tui/internal/ui/styles"
	"github.com/jeranaias/codechat-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// DefaultShortcuts are shown when the terminal is wide enough.
var DefaultShortcuts = []Shortcut{
	{"tab", "mode"},
	{"esc", "stop"},
	{"^n/^p", "code"},
	{"^y", "copy"},
	{"^e", "export"},
	{"^s", "save"},
	{"^l", "clear"},
}

// StatusBar is the bottom line of the screen.
type StatusBar struct {
	Width int

	// Loading shows Spinner with a streaming hint.
	Loading bool
	Spinner string

	// Notice is the result of the last action.
	Notice      string
	NoticeError bool

	Shortcuts []Shortcut
	theme     *styles.Theme
}

// NewStatusBar creates a status bar with the default shortcuts.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Width:     80,
		Shortcuts: DefaultShortcuts,
		theme:     theme,
	}
}

// View renders the status bar. Shortcuts are dropped from the right until
// the left side fits.
func (s *StatusBar) View() string {
	width := s.Width
	if width < 20 {
		width = 20
	}
	// Padding takes two cells.
	inner := width - 2

	left := s.renderLeft(inner)
	shortcuts := s.Shortcuts
	for len(shortcuts) > 0 {
		right := s.renderShortcuts(shortcuts)
		gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
		if gap >= 2 {
			return s.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
		}
		shortcuts = shortcuts[:len(shortcuts)-1]
	}
	return s.theme.StatusBar.Width(width).Render(left)
}

func (s *StatusBar) renderLeft(room int) string {
	switch {
	case s.Loading:
		return s.theme.Spinner.Render(s.Spinner) + " " +
			util.TruncateWidth("Streaming… esc to stop", room-lipgloss.Width(s.Spinner)-1)
	case s.Notice == "":
		return ""
	case s.NoticeError:
		return s.theme.NoticeError.Render(util.TruncateWidth(util.FirstLine(s.Notice), room))
	default:
		return s.theme.Notice.Render(util.TruncateWidth(util.FirstLine(s.Notice), room))
	}
}

func (s *StatusBar) renderShortcuts(shortcuts []Shortcut) string {
	parts := make([]string, len(shortcuts))
	for i, sc := range shortcuts {
		parts[i] = s.theme.ShortcutKey.Render(sc.Key) + " " + s.theme.ShortcutDesc.Render(sc.Desc)
	}
	return strings.Join(parts, "  ")
}
