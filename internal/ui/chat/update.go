// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/codechat-tui/internal/agent"
	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/ui/components"
)

// errNoAgent is reported when the model was built without a transport.
var errNoAgent = errors.New("no agent configured")

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case StreamChunkMsg:
		return m.handleChunk(msg)

	case StreamDoneMsg:
		return m.handleDone(msg)

	case StreamErrorMsg:
		return m.handleError(msg)

	case StreamTickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		if !m.store.Loading(m.mode) {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ConfigReloadedMsg:
		if msg.Err != nil {
			return m, m.setNotice("Config reload failed: "+msg.Err.Error(), true)
		}
		m.applyConfig(msg.Config)
		m.refresh()
		return m, m.setNotice("Config reloaded", false)

	case ExportDoneMsg:
		if msg.Err != nil {
			log.Printf("EXPORT FAILED | what=%s err=%v", msg.What, msg.Err)
			return m, m.setNotice("Export failed: "+msg.Err.Error(), true)
		}
		return m, m.setNotice("Saved "+msg.What+" to "+msg.Path, false)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
			m.noticeError = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		for _, mode := range model.Modes {
			m.store.Cancel(mode)
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.store.Cancel(m.mode) {
			m.syncInput()
			m.refresh()
			return m, m.setNotice("Reply stopped", false)
		}
		if m.selected != components.NoSelection {
			m.clearSelection()
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.SwitchMode):
		return m, m.switchMode(m.mode.Other())

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Clear):
		if err := m.store.Clear(m.mode); err != nil {
			return m, m.setNotice("Stop the reply before clearing (esc)", true)
		}
		m.clearSelection()
		m.refresh()
		return m, m.setNotice(m.mode.Label()+" conversation cleared", false)

	case key.Matches(msg, m.keys.NextCode):
		return m, m.cycleCode(1)

	case key.Matches(msg, m.keys.PrevCode):
		return m, m.cycleCode(-1)

	case key.Matches(msg, m.keys.CopyCode):
		return m, m.copyCode()

	case key.Matches(msg, m.keys.ExportCode):
		return m, m.exportCode()

	case key.Matches(msg, m.keys.SaveChat):
		return m, m.saveTranscript()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		m.refresh()
		return m, nil
	}

	// Input is disabled while the current mode streams.
	if m.store.Loading(m.mode) {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// switchMode shows the other conversation. The spinner restarts when
// that mode is streaming.
func (m *Model) switchMode(mode model.Mode) tea.Cmd {
	if mode == m.mode {
		return nil
	}
	m.mode = mode
	m.clearSelection()
	m.input.Placeholder = placeholder(mode)
	m.syncInput()
	m.refresh()
	m.viewport.GotoBottom()
	log.Printf("MODE SWITCH | mode=%s", mode)
	if m.store.Loading(mode) {
		return m.spinner.Tick
	}
	return nil
}

// syncInput focuses the input unless the current mode is streaming.
func (m *Model) syncInput() {
	if m.store.Loading(m.mode) {
		m.input.Blur()
		return
	}
	m.input.Focus()
}

// =============================================================================
// STREAMING
// =============================================================================

// submit starts a turn for the text in the input box.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.store.Loading(m.mode) {
		return m, m.setNotice("A reply is still streaming (esc to stop)", true)
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	sess, err := m.store.StartTurn(m.mode, text)
	if err != nil {
		return m, m.setNotice(err.Error(), true)
	}
	m.input.Reset()
	m.clearSelection()

	if m.agent == nil || m.sender == nil {
		log.Printf("STREAM START | mode=%s id=%s err=%v", m.mode, sess.TargetID, errNoAgent)
		m.store.OnFailure(m.mode, sess.TargetID)
		m.refresh()
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess.SetCancel(cancel)
	log.Printf("STREAM START | mode=%s id=%s", m.mode, sess.TargetID)

	m.syncInput()
	m.refresh()
	m.viewport.GotoBottom()

	return m, tea.Batch(
		streamCmd(ctx, m.agent, m.sender, m.mode, sess.TargetID, text),
		m.spinner.Tick,
		m.frames.startTicking(),
	)
}

func (m Model) handleChunk(msg StreamChunkMsg) (tea.Model, tea.Cmd) {
	if !m.store.OnChunk(msg.Mode, msg.MessageID, msg.Fragment) {
		return m, nil
	}
	if msg.Mode == m.mode && m.frames.Allow() {
		m.refresh()
	}
	return m, nil
}

func (m Model) handleDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	if m.store.Finish(msg.Mode, msg.MessageID) {
		log.Printf("STREAM DONE | mode=%s id=%s elapsed=%s", msg.Mode, msg.MessageID, msg.Elapsed)
	}
	m.syncInput()
	m.refresh()
	return m, nil
}

func (m Model) handleError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	switch {
	case isCancellation(msg.Err):
		// The store already ended a cancelled session.
		log.Printf("STREAM CANCELLED | mode=%s id=%s", msg.Mode, msg.MessageID)
	default:
		if detail, ok := agent.ServerDetail(msg.Err); ok {
			m.store.OnError(msg.Mode, msg.MessageID, detail)
		} else {
			m.store.OnFailure(msg.Mode, msg.MessageID)
		}
		log.Printf("STREAM ERROR | mode=%s id=%s err=%v", msg.Mode, msg.MessageID, msg.Err)
	}
	m.syncInput()
	m.refresh()
	return m, nil
}

// handleTick redraws if a chunk was held back and keeps ticking while any
// mode streams.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.frames.ticking = false
	if m.frames.Owed() {
		m.refresh()
	}
	for _, mode := range model.Modes {
		if m.store.Loading(mode) {
			return m, m.frames.startTicking()
		}
	}
	return m, nil
}
