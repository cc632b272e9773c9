// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/codechat-tui/internal/config"
	"github.com/jeranaias/codechat-tui/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamChunkMsg delivers one fragment of a reply.
type StreamChunkMsg struct {
	Mode      model.Mode
	MessageID string
	Fragment  string
}

// StreamDoneMsg signals that a reply finished normally.
type StreamDoneMsg struct {
	Mode      model.Mode
	MessageID string
	Elapsed   time.Duration
}

// StreamErrorMsg signals that a reply ended with an error. Cancellation
// arrives here too, as context.Canceled.
type StreamErrorMsg struct {
	Mode      model.Mode
	MessageID string
	Err       error
}

// StreamTickMsg triggers a throttled redraw while a reply streams.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// ACTION MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a config reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// ExportDoneMsg reports the outcome of an export.
type ExportDoneMsg struct {
	Path string
	What string
	Err  error
}

// noticeExpiredMsg clears the status notice if it has not been replaced.
type noticeExpiredMsg struct {
	seq int
}
