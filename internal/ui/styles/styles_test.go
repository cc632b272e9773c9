// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"
)

func TestNewTheme_Preference(t *testing.T) {
	if theme := NewTheme("dark"); !theme.IsDark {
		t.Error("dark preference should give a dark theme")
	}
	if theme := NewTheme("LIGHT"); theme.IsDark {
		t.Error("light preference should give a light theme")
	}
	if theme := NewTheme("auto"); theme == nil {
		t.Fatal("NewTheme(auto) returned nil")
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme("dark")
	for name, rendered := range map[string]string{
		"Header":          theme.Header.Render("test"),
		"UserBubble":      theme.UserBubble.Render("test"),
		"AssistantBubble": theme.AssistantBubble.Render("test"),
		"StatusBar":       theme.StatusBar.Render("test"),
		"ModeActive":      theme.ModeActive.Render("test"),
	} {
		if !strings.Contains(rendered, "test") {
			t.Errorf("%s style lost its content: %q", name, rendered)
		}
	}
}

func TestLayoutMode(t *testing.T) {
	theme := NewTheme("dark")
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{80, LayoutMedium},
		{120, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: got %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestSpinnerConfig(t *testing.T) {
	if d := LineSpinner.Duration(); d != 100*time.Millisecond {
		t.Errorf("LineSpinner.Duration() = %s", d)
	}
	if d := (SpinnerConfig{}).Duration(); d != time.Second {
		t.Errorf("zero FPS duration = %s", d)
	}
	b := DotsSpinner.Bubble()
	if len(b.Frames) != len(DotsSpinner.Frames) || b.FPS != DotsSpinner.Duration() {
		t.Errorf("Bubble() = %+v", b)
	}
}

func TestRenderStatusMessages(t *testing.T) {
	tests := []struct {
		got, indicator string
	}{
		{RenderSuccess("saved"), StatusIndicators.Success},
		{RenderError("failed"), StatusIndicators.Error},
		{RenderWarning("careful"), StatusIndicators.Warning},
		{RenderInfo("note"), StatusIndicators.Info},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.got, tt.indicator) {
			t.Errorf("%q missing indicator %q", tt.got, tt.indicator)
		}
	}
}
