// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/codechat-tui/internal/config"
	"github.com/jeranaias/codechat-tui/internal/export"
	"github.com/jeranaias/codechat-tui/internal/markdown"
	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/ui/components"
	"github.com/jeranaias/codechat-tui/internal/ui/styles"
)

// Layout constants.
const (
	inputHeight = 3
	// Top border of the input container.
	inputChrome  = 1
	headerHeight = 1
	statusHeight = 1
	minWidth     = 40
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat Model.
type Options struct {
	// Agent answers both modes. Required.
	Agent Agent

	// Sender receives streamed fragments, usually a Relay attached to the
	// program. Required.
	Sender Sender

	// Config supplies UI and export settings. Defaults when nil.
	Config *config.Config

	// Endpoint is shown in the header.
	Endpoint string
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the two-mode chat screen.
//
// All conversation state lives in the Store, which is only touched from
// Update. Stream goroutines post StreamChunkMsg values through the Sender.
type Model struct {
	cfg    *config.Config
	agent  Agent
	sender Sender
	store  *model.Store

	mode model.Mode
	keys KeyMap

	theme    *styles.Theme
	renderer *markdown.Renderer
	exports  *export.Options

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	showHelp bool

	header    *components.Header
	list      *components.MessageList
	statusBar *components.StatusBar

	// selected indexes codeRefs() for the current mode, or NoSelection.
	selected int

	notice      string
	noticeError bool
	noticeSeq   int

	frames *frameThrottle

	width  int
	height int
}

// New creates a chat model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	ta := textarea.New()
	ta.Placeholder = placeholder(cfg.Mode())
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.CharLimit = 8000
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = styles.LineSpinner.Bubble()

	m := Model{
		cfg:      cfg,
		agent:    opts.Agent,
		sender:   opts.Sender,
		store:    model.NewStore(),
		mode:     cfg.Mode(),
		keys:     DefaultKeyMap(),
		input:    ta,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		help:     help.New(),
		selected: components.NoSelection,
		frames:   newFrameThrottle(cfg.FrameInterval()),
		width:    80,
		height:   24,
	}
	m.applyConfig(cfg)
	m.header.Endpoint = opts.Endpoint
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Store returns the conversation store.
func (m Model) Store() *model.Store {
	return m.store
}

// Mode returns the active mode.
func (m Model) Mode() model.Mode {
	return m.mode
}

// applyConfig rebuilds everything derived from cfg. Conversations and the
// active mode are kept; the renderer is reconfigured in place.
func (m *Model) applyConfig(cfg *config.Config) {
	m.cfg = cfg
	m.theme = styles.NewTheme(cfg.UI.Theme)
	m.theme.SetSize(m.width, m.height)

	if m.renderer == nil {
		m.renderer = markdown.NewRenderer(cfg.UI.FallbackLanguage)
	}
	m.renderer.Configure(cfg.UI.FallbackLanguage, cfg.UI.CodeStyle, cfg.UI.LineNumbers)
	m.exports = cfg.ExportOptions()
	m.frames.SetInterval(cfg.FrameInterval())

	endpoint := ""
	if m.header != nil {
		endpoint = m.header.Endpoint
	}
	m.header = components.NewHeader(m.theme)
	m.header.Endpoint = endpoint
	m.list = components.NewMessageList(m.renderer, m.theme)
	m.statusBar = components.NewStatusBar(m.theme)

	m.input.Placeholder = placeholder(m.mode)
	m.input.FocusedStyle.Placeholder = m.theme.InputPlaceholder
	m.input.FocusedStyle.Prompt = m.theme.InputPrompt
	m.input.FocusedStyle.CursorLine = lipgloss.NewStyle()
	m.input.BlurredStyle.Placeholder = m.theme.InputPlaceholder
	m.spinner.Style = m.theme.Spinner
	m.layout()
}

// layout sizes the components for the current window.
func (m *Model) layout() {
	width := m.width
	if width < minWidth {
		width = minWidth
	}
	m.theme.SetSize(width, m.height)

	helpHeight := 0
	if m.showHelp {
		helpHeight = len(m.keys.FullHelp()[0]) + 1
	}
	vh := m.height - headerHeight - statusHeight - inputHeight - inputChrome - helpHeight
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vh

	// Container padding takes two cells.
	m.input.SetWidth(width - 2)
	m.help.Width = width

	m.header.Width = width
	m.statusBar.Width = width
	// Scrollbar-free viewport, one cell of right margin.
	m.list.Width = width - 1
	// Timestamps crowd the bubbles on narrow terminals.
	m.list.ShowTimestamps = m.cfg.UI.ShowTimestamps && m.theme.GetLayoutMode() != styles.LayoutNarrow
}

// refresh re-renders the history into the viewport. The view follows the
// bottom unless the user scrolled up.
func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom()

	m.list.Mode = m.mode
	m.list.Messages = m.store.Messages(m.mode)
	m.list.LoadingID = ""
	if sess := m.store.Session(m.mode); sess != nil {
		m.list.LoadingID = sess.TargetID
	}

	m.list.SelectedMessage = ""
	m.list.SelectedCode = components.NoSelection
	if ref, ok := m.selectedRef(); ok {
		m.list.SelectedMessage = ref.MessageID
		m.list.SelectedCode = ref.Code.Index
	}

	m.viewport.SetContent(m.list.View())
	if atBottom || (m.store.Loading(m.mode) && m.selected == components.NoSelection) {
		m.viewport.GotoBottom()
	}
}

func placeholder(mode model.Mode) string {
	switch mode {
	case model.ModeGenerate:
		return "Describe the code to generate…"
	default:
		return "Search your codebase…"
	}
}
