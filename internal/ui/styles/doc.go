// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for codechat.
//
// Colours are lipgloss.AdaptiveColor values so the same palette works on
// dark and light terminals. NewTheme fixes the background choice from the
// configured theme ("dark", "light" or "auto") and builds the screen styles.
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	header := theme.Header.Render(title)
package styles
