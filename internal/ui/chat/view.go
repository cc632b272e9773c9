// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	m.header.Mode = m.mode

	m.statusBar.Loading = m.store.Loading(m.mode)
	m.statusBar.Spinner = m.spinner.View()
	m.statusBar.Notice = m.notice
	m.statusBar.NoticeError = m.noticeError

	parts := []string{
		m.header.View(),
		m.viewport.View(),
		m.theme.InputContainer.Width(m.viewport.Width).Render(m.input.View()),
	}
	if m.showHelp {
		parts = append(parts, m.help.View(m.keys))
	}
	parts = append(parts, m.statusBar.View())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
