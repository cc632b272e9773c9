// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/codechat-tui/internal/markdown"
	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/ui/styles"
)

// NoSelection marks that no code block is selected.
const NoSelection = -1

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one message.
type MessageBubble struct {
	Message model.Message
	Mode    model.Mode
	Width   int

	// Loading is set on the assistant placeholder of the active turn.
	Loading bool

	// SelectedCode is the index of the highlighted code block, or NoSelection.
	SelectedCode int

	ShowTimestamp bool

	renderer *markdown.Renderer
	theme    *styles.Theme
}

// NewMessageBubble creates a new MessageBubble.
func NewMessageBubble(msg model.Message, mode model.Mode, renderer *markdown.Renderer, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Mode:          mode,
		Width:         80,
		SelectedCode:  NoSelection,
		ShowTimestamp: true,
		renderer:      renderer,
		theme:         theme,
	}
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	if b.Message.IsUser() {
		return b.renderUserBubble()
	}
	return b.renderAssistantBubble()
}

func (b *MessageBubble) renderUserBubble() string {
	// Border and padding take four cells.
	inner := b.Width - 4
	if inner < markdown.MinWidth {
		inner = markdown.MinWidth
	}

	content := wordwrap.String(b.Message.Content, inner)
	header := b.header(b.theme.UserLabel.Render(model.RoleUser.DisplayName()))
	return lipgloss.JoinVertical(lipgloss.Left, header, b.theme.UserBubble.Render(content))
}

func (b *MessageBubble) renderAssistantBubble() string {
	// Left border and padding take two cells.
	body := b.renderer.RenderMessage(b.Message.Content, markdown.RenderOptions{
		Width:         b.Width - 2,
		Loading:       b.Loading,
		HighlightCode: b.SelectedCode != NoSelection,
		Selected:      b.SelectedCode,
	})

	header := b.header(b.theme.AssistantLabel.Render(b.Mode.Label()))
	return lipgloss.JoinVertical(lipgloss.Left, header, b.theme.AssistantBubble.Render(body))
}

func (b *MessageBubble) header(label string) string {
	if !b.ShowTimestamp || b.Message.Timestamp.IsZero() {
		return label
	}
	return label + " " + b.theme.Timestamp.Render(b.Message.Clock())
}

// =============================================================================
// MESSAGE LIST COMPONENT
// =============================================================================

// MessageList renders a conversation.
type MessageList struct {
	Messages []model.Message
	Mode     model.Mode
	Width    int

	// LoadingID is the id of the placeholder being streamed into, if any.
	LoadingID string

	// SelectedMessage and SelectedCode identify the highlighted code block.
	SelectedMessage string
	SelectedCode    int

	ShowTimestamps bool

	renderer *markdown.Renderer
	theme    *styles.Theme
}

// NewMessageList creates a new MessageList.
func NewMessageList(renderer *markdown.Renderer, theme *styles.Theme) *MessageList {
	return &MessageList{
		Width:          80,
		SelectedCode:   NoSelection,
		ShowTimestamps: true,
		renderer:       renderer,
		theme:          theme,
	}
}

// View renders all messages separated by a blank line.
func (ml *MessageList) View() string {
	if len(ml.Messages) == 0 {
		return ml.theme.EmptyState.
			Width(ml.Width).
			Align(lipgloss.Center).
			Padding(1, 0).
			Render(EmptyPrompt(ml.Mode))
	}

	bubbles := make([]string, 0, len(ml.Messages))
	for _, msg := range ml.Messages {
		bubble := NewMessageBubble(msg, ml.Mode, ml.renderer, ml.theme)
		bubble.Width = ml.Width
		bubble.ShowTimestamp = ml.ShowTimestamps
		bubble.Loading = msg.ID == ml.LoadingID
		if msg.ID == ml.SelectedMessage {
			bubble.SelectedCode = ml.SelectedCode
		}
		bubbles = append(bubbles, bubble.View())
	}
	return strings.Join(bubbles, "\n\n")
}

// EmptyPrompt is shown before the first message of a mode.
func EmptyPrompt(mode model.Mode) string {
	switch mode {
	case model.ModeGenerate:
		return "Describe the code you want generated."
	default:
		return "Ask where something lives in your codebase."
	}
}
