// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/codechat-tui/internal/markdown"
	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/ui/styles"
)

func newTestDeps() (*markdown.Renderer, *styles.Theme) {
	return markdown.NewRenderer(""), styles.NewTheme("dark")
}

func at(hour, min int) time.Time {
	return time.Date(2025, 1, 2, hour, min, 0, 0, time.Local)
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessageBubble_User(t *testing.T) {
	r, theme := newTestDeps()
	msg := model.Message{ID: "user-1", Role: model.RoleUser, Content: "where is **main**", Timestamp: at(14, 7)}

	out := NewMessageBubble(msg, model.ModeSearch, r, theme).View()

	if !strings.Contains(out, "You 14:07") {
		t.Errorf("missing label and timestamp:\n%s", out)
	}
	// User text is not markdown.
	if !strings.Contains(out, "**main**") {
		t.Errorf("user content should be shown verbatim:\n%s", out)
	}
}

func TestMessageBubble_AssistantUsesModeLabel(t *testing.T) {
	r, theme := newTestDeps()
	msg := model.Message{ID: "bot-1", Role: model.RoleAssistant, Content: "# Title\n\nbody", Timestamp: at(9, 30)}

	bubble := NewMessageBubble(msg, model.ModeGenerate, r, theme)
	bubble.ShowTimestamp = false
	out := bubble.View()

	if !strings.Contains(out, "Code Generate") {
		t.Errorf("missing mode label:\n%s", out)
	}
	if strings.Contains(out, "09:30") {
		t.Error("timestamp shown although disabled")
	}
	if strings.Contains(out, "# Title") {
		t.Errorf("markdown was not rendered:\n%s", out)
	}
}

func TestMessageBubble_LoadingShowsCaret(t *testing.T) {
	r, theme := newTestDeps()
	msg := model.Message{ID: "bot-1", Role: model.RoleAssistant}

	bubble := NewMessageBubble(msg, model.ModeSearch, r, theme)
	bubble.Loading = true

	if out := bubble.View(); !strings.Contains(out, markdown.Caret) {
		t.Errorf("expected caret in empty loading reply:\n%s", out)
	}
}

func TestMessageList_Empty(t *testing.T) {
	r, theme := newTestDeps()
	ml := NewMessageList(r, theme)
	ml.Mode = model.ModeGenerate

	if out := ml.View(); !strings.Contains(out, EmptyPrompt(model.ModeGenerate)) {
		t.Errorf("unexpected empty state:\n%s", out)
	}
}

func TestMessageList_Order(t *testing.T) {
	r, theme := newTestDeps()
	ml := NewMessageList(r, theme)
	ml.Mode = model.ModeSearch
	ml.Messages = []model.Message{
		{ID: "user-1", Role: model.RoleUser, Content: "first question"},
		{ID: "bot-1", Role: model.RoleAssistant, Content: "first answer"},
		{ID: "user-2", Role: model.RoleUser, Content: "second question"},
	}

	out := ml.View()
	a := strings.Index(out, "first question")
	b := strings.Index(out, "first answer")
	c := strings.Index(out, "second question")
	if a < 0 || b < a || c < b {
		t.Errorf("messages out of order:\n%s", out)
	}
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestHeader_View(t *testing.T) {
	_, theme := newTestDeps()
	h := NewHeader(theme)
	h.Width = 100
	h.Mode = model.ModeGenerate
	h.Endpoint = "agent.example.com"

	out := h.View()
	for _, want := range []string{"codechat", "Code Search", "Code Generate", "agent.example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}
	if w := lipgloss.Width(out); w != 100 {
		t.Errorf("header width = %d, want 100", w)
	}
}

func TestHeader_NarrowDropsEndpoint(t *testing.T) {
	_, theme := newTestDeps()
	h := NewHeader(theme)
	h.Width = 40
	h.Endpoint = "agent.example.com"

	if out := h.View(); strings.Contains(out, "agent.example.com") {
		t.Errorf("endpoint should not fit at width 40:\n%s", out)
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBar_Loading(t *testing.T) {
	_, theme := newTestDeps()
	s := NewStatusBar(theme)
	s.Width = 120
	s.Loading = true
	s.Spinner = "|"

	out := s.View()
	if !strings.Contains(out, "esc to stop") {
		t.Errorf("missing streaming hint:\n%s", out)
	}
	if !strings.Contains(out, "export") {
		t.Errorf("wide status bar should list shortcuts:\n%s", out)
	}
}

func TestStatusBar_NoticeFirstLine(t *testing.T) {
	_, theme := newTestDeps()
	s := NewStatusBar(theme)
	s.Notice = "Saved to out.html\nsecond line"

	out := s.View()
	if !strings.Contains(out, "Saved to out.html") || strings.Contains(out, "second line") {
		t.Errorf("unexpected notice rendering:\n%s", out)
	}
}

func TestStatusBar_FitsWidth(t *testing.T) {
	_, theme := newTestDeps()
	for _, width := range []int{30, 60, 90, 140} {
		s := NewStatusBar(theme)
		s.Width = width
		s.Notice = strings.Repeat("long notice ", 20)
		if w := lipgloss.Width(s.View()); w != width {
			t.Errorf("width %d: rendered %d cells", width, w)
		}
	}
}
