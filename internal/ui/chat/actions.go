// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/codechat-tui/internal/export"
	"github.com/jeranaias/codechat-tui/internal/markdown"
	"github.com/jeranaias/codechat-tui/internal/ui/components"
)

// noticeTTL is how long an action result stays in the status bar.
const noticeTTL = 4 * time.Second

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// =============================================================================
// CODE BLOCK SELECTION
// =============================================================================

// codeRef locates one code block in the current conversation.
type codeRef struct {
	MessageID string
	Code      markdown.Code
}

// codeRefs lists the code blocks of every assistant reply in the current
// mode, oldest first.
func (m Model) codeRefs() []codeRef {
	var refs []codeRef
	for _, msg := range m.store.Messages(m.mode) {
		if !msg.IsAssistant() || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		for _, code := range markdown.CodeBlocks(m.renderer.Blocks(msg.Content)) {
			refs = append(refs, codeRef{MessageID: msg.ID, Code: code})
		}
	}
	return refs
}

func (m Model) selectedRef() (codeRef, bool) {
	if m.selected == components.NoSelection {
		return codeRef{}, false
	}
	refs := m.codeRefs()
	if m.selected >= len(refs) {
		return codeRef{}, false
	}
	return refs[m.selected], true
}

// actionRef is the block copy and export act on: the selected one, or the
// most recent one when nothing is selected.
func (m Model) actionRef() (codeRef, bool) {
	if ref, ok := m.selectedRef(); ok {
		return ref, true
	}
	refs := m.codeRefs()
	if len(refs) == 0 {
		return codeRef{}, false
	}
	return refs[len(refs)-1], true
}

// cycleCode moves the selection by delta, wrapping at both ends. From no
// selection, forward picks the first block and backward the last.
func (m *Model) cycleCode(delta int) tea.Cmd {
	refs := m.codeRefs()
	if len(refs) == 0 {
		m.selected = components.NoSelection
		return m.setNotice("No code blocks in this conversation", true)
	}

	switch {
	case m.selected == components.NoSelection || m.selected >= len(refs):
		if delta > 0 {
			m.selected = 0
		} else {
			m.selected = len(refs) - 1
		}
	default:
		m.selected = (m.selected + delta + len(refs)) % len(refs)
	}

	m.refresh()
	ref := refs[m.selected]
	name := markdown.LanguageName(ref.Code.Language, ref.Code.Source)
	return m.setNotice(fmt.Sprintf("Code block %d of %d (%s)", m.selected+1, len(refs), name), false)
}

func (m *Model) clearSelection() {
	m.selected = components.NoSelection
}

// =============================================================================
// COPY AND EXPORT
// =============================================================================

func (m *Model) copyCode() tea.Cmd {
	ref, ok := m.actionRef()
	if !ok {
		return m.setNotice("No code block to copy", true)
	}
	if err := writeClipboard(ref.Code.Source); err != nil {
		log.Printf("CLIPBOARD | err=%v", err)
		return m.setNotice("Copy failed: "+err.Error(), true)
	}
	lines := strings.Count(strings.TrimRight(ref.Code.Source, "\n"), "\n") + 1
	log.Printf("CLIPBOARD | lang=%s lines=%d", ref.Code.Language, lines)
	return m.setNotice(fmt.Sprintf("Copied %s block (%d lines)", ref.Code.Language, lines), false)
}

// exportCode writes the target block to a paginated HTML file off the
// event loop.
func (m *Model) exportCode() tea.Cmd {
	ref, ok := m.actionRef()
	if !ok {
		return m.setNotice("No code block to export", true)
	}
	mode, opts := m.mode, m.exports
	return func() tea.Msg {
		path, err := export.ExportCodeHTML(mode, ref.Code, opts)
		return ExportDoneMsg{Path: path, What: ref.Code.Language + " block", Err: err}
	}
}

// saveTranscript writes the current conversation as Markdown.
func (m *Model) saveTranscript() tea.Cmd {
	if m.store.Conversation(m.mode).IsEmpty() {
		return m.setNotice("Nothing to save yet", true)
	}
	messages := m.store.Messages(m.mode)
	mode, opts := m.mode, m.exports
	return func() tea.Msg {
		path, err := export.ExportTranscript(mode, messages, "markdown", opts)
		return ExportDoneMsg{Path: path, What: "conversation", Err: err}
	}
}

// =============================================================================
// NOTICES
// =============================================================================

// setNotice shows text in the status bar until it expires or is replaced.
func (m *Model) setNotice(text string, isError bool) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	m.noticeError = isError
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}
